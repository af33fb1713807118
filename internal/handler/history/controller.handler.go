package history

import (
	"context"
	types "mobile-banking-core/internal/common/type"
	historyService "mobile-banking-core/internal/service/history"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	ctx            context.Context
	historyService historyService.IService
}

type IHandler interface {
	NewRoutes(e *gin.RouterGroup, auth gin.HandlerFunc)
}

func NewHandler(ctx context.Context, historyService historyService.IService) IHandler {
	return &Handler{
		ctx:            ctx,
		historyService: historyService,
	}
}

// PaymentAttempts godoc
// @Summary      Settled attempts of a payment flow
// @Tags         History
// @Produce      json
// @Param        flowId     path      string  true   "Flow ID"
// @Param        direction  query     string  false  "asc or desc (default)"
// @Success      200        {object}  types.ResponseAPI{data=[]models.PaymentAttempt}
// @Router       /v1/history/payments/{flowId} [get]
func (h *Handler) PaymentAttempts(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.historyService.PaymentAttempts(c.Param("flowId"), c.DefaultQuery("direction", "desc")))
}

// PaymentAttempt godoc
// @Summary      Settled attempt by idempotency key
// @Tags         History
// @Produce      json
// @Param        key  path      string  true  "Idempotency key"
// @Success      200  {object}  types.ResponseAPI{data=models.PaymentAttempt}
// @Failure      404  {object}  types.ResponseAPI
// @Router       /v1/history/attempts/{key} [get]
func (h *Handler) PaymentAttempt(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.historyService.PaymentAttempt(c.Param("key")))
}

// KycCase godoc
// @Summary      Recorded KYC decision
// @Tags         History
// @Produce      json
// @Param        caseId  path      string  true  "Backend case ID"
// @Success      200     {object}  types.ResponseAPI{data=models.KycCase}
// @Failure      404     {object}  types.ResponseAPI
// @Router       /v1/history/kyc/{caseId} [get]
func (h *Handler) KycCase(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.historyService.KycCase(c.Param("caseId")))
}
