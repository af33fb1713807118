package history

import (
	"github.com/gin-gonic/gin"
)

func (h *Handler) NewRoutes(e *gin.RouterGroup, auth gin.HandlerFunc) {
	history := e.Group("/v1/history", auth)

	history.GET("/payments/:flowId", h.PaymentAttempts)
	history.GET("/attempts/:key", h.PaymentAttempt)
	history.GET("/kyc/:caseId", h.KycCase)
}
