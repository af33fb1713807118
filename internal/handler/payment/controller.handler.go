package payment

import (
	"context"
	types "mobile-banking-core/internal/common/type"
	"mobile-banking-core/internal/pkg/helper"
	"mobile-banking-core/internal/pkg/validation"
	paymentService "mobile-banking-core/internal/service/payment"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderAttemptRef     = "X-Attempt-Ref"
)

type Handler struct {
	ctx            context.Context
	paymentService paymentService.IService
}

type IHandler interface {
	NewRoutes(e *gin.RouterGroup, auth gin.HandlerFunc)
}

func NewHandler(ctx context.Context, paymentService paymentService.IService) IHandler {
	return &Handler{
		ctx:            ctx,
		paymentService: paymentService,
	}
}

func attemptFrom(c *gin.Context) paymentService.Attempt {
	return paymentService.Attempt{
		IdempotencyKey: strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey)),
		AttemptRef:     strings.TrimSpace(c.GetHeader(HeaderAttemptRef)),
	}
}

func bindError(err error) *types.Response {
	return helper.ParseResponse(&types.Response{
		Code:    http.StatusBadRequest,
		Message: validation.ParseError(err),
		Error:   err,
	})
}

// CreateFlow godoc
// @Summary      Open a payment flow
// @Description  Creates an idle flow that one payment screen drives
// @Tags         Payments
// @Produce      json
// @Success      201  {object}  types.ResponseAPI{data=paymentService.FlowView}
// @Router       /v1/payments/flows [post]
func (h *Handler) CreateFlow(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.paymentService.CreateFlow())
}

// GetFlow godoc
// @Summary      Read a payment flow
// @Tags         Payments
// @Produce      json
// @Param        id   path      string  true  "Flow ID"
// @Success      200  {object}  types.ResponseAPI{data=paymentService.FlowView}
// @Failure      404  {object}  types.ResponseAPI
// @Router       /v1/payments/flows/{id} [get]
func (h *Handler) GetFlow(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.paymentService.GetFlow(c.Param("id")))
}

// StartQr godoc
// @Summary      Pay a merchant QR
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        id               path      string                           true   "Flow ID"
// @Param        Idempotency-Key  header    string                           false  "Caller supplied key"
// @Param        X-Attempt-Ref    header    string                           false  "Logical attempt reference"
// @Param        request          body      paymentService.QrPaymentRequest  true   "QR payment"
// @Success      202              {object}  types.ResponseAPI{data=paymentService.FlowView}
// @Failure      400              {object}  types.ResponseAPI
// @Failure      409              {object}  types.ResponseAPI
// @Router       /v1/payments/flows/{id}/qr [post]
func (h *Handler) StartQr(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	var req paymentService.QrPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		send(bindError(err))
		return
	}
	send(h.paymentService.StartQr(c.Param("id"), &req, attemptFrom(c)))
}

// StartReload godoc
// @Summary      Reload a mobile number
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        id               path      string                               true   "Flow ID"
// @Param        Idempotency-Key  header    string                               false  "Caller supplied key"
// @Param        X-Attempt-Ref    header    string                               false  "Logical attempt reference"
// @Param        request          body      paymentService.ReloadPaymentRequest  true   "Reload"
// @Success      202              {object}  types.ResponseAPI{data=paymentService.FlowView}
// @Failure      400              {object}  types.ResponseAPI
// @Failure      409              {object}  types.ResponseAPI
// @Router       /v1/payments/flows/{id}/reload [post]
func (h *Handler) StartReload(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	var req paymentService.ReloadPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		send(bindError(err))
		return
	}
	send(h.paymentService.StartReload(c.Param("id"), &req, attemptFrom(c)))
}

// StartBill godoc
// @Summary      Pay a bill
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        id               path      string                             true   "Flow ID"
// @Param        Idempotency-Key  header    string                             false  "Caller supplied key"
// @Param        X-Attempt-Ref    header    string                             false  "Logical attempt reference"
// @Param        request          body      paymentService.BillPaymentRequest  true   "Bill payment"
// @Success      202              {object}  types.ResponseAPI{data=paymentService.FlowView}
// @Failure      400              {object}  types.ResponseAPI
// @Failure      409              {object}  types.ResponseAPI
// @Router       /v1/payments/flows/{id}/bill [post]
func (h *Handler) StartBill(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	var req paymentService.BillPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		send(bindError(err))
		return
	}
	send(h.paymentService.StartBill(c.Param("id"), &req, attemptFrom(c)))
}

// Retry godoc
// @Summary      Retry the last attempt
// @Description  Restarts the last request of a finished flow with the same idempotency key
// @Tags         Payments
// @Produce      json
// @Param        id   path      string  true  "Flow ID"
// @Success      202  {object}  types.ResponseAPI{data=paymentService.FlowView}
// @Failure      409  {object}  types.ResponseAPI
// @Router       /v1/payments/flows/{id}/retry [post]
func (h *Handler) Retry(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.paymentService.Retry(c.Param("id")))
}

// ConsumeAction godoc
// @Summary      Acknowledge the action URL
// @Description  Returns the pending action URL once; later calls for the same intent get 404
// @Tags         Payments
// @Produce      json
// @Param        id   path      string  true  "Flow ID"
// @Success      200  {object}  types.ResponseAPI
// @Failure      404  {object}  types.ResponseAPI
// @Router       /v1/payments/flows/{id}/action/ack [post]
func (h *Handler) ConsumeAction(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.paymentService.ConsumeAction(c.Param("id")))
}

// DeleteFlow godoc
// @Summary      Close a payment flow
// @Tags         Payments
// @Produce      json
// @Param        id   path      string  true  "Flow ID"
// @Success      200  {object}  types.ResponseAPI
// @Router       /v1/payments/flows/{id} [delete]
func (h *Handler) DeleteFlow(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.paymentService.DeleteFlow(c.Param("id")))
}
