package payment

import (
	"github.com/gin-gonic/gin"
)

func (h *Handler) NewRoutes(e *gin.RouterGroup, auth gin.HandlerFunc) {
	flows := e.Group("/v1/payments/flows", auth)

	flows.POST("", h.CreateFlow)
	flows.GET("/:id", h.GetFlow)
	flows.DELETE("/:id", h.DeleteFlow)
	flows.POST("/:id/qr", h.StartQr)
	flows.POST("/:id/reload", h.StartReload)
	flows.POST("/:id/bill", h.StartBill)
	flows.POST("/:id/retry", h.Retry)
	flows.POST("/:id/action/ack", h.ConsumeAction)
}
