package kyc

import (
	"github.com/gin-gonic/gin"
)

func (h *Handler) NewRoutes(e *gin.RouterGroup, auth gin.HandlerFunc) {
	sessions := e.Group("/v1/kyc/sessions", auth)

	sessions.POST("", h.CreateSession)
	sessions.GET("/:id", h.GetSession)
	sessions.DELETE("/:id", h.DeleteSession)
	sessions.POST("/:id/captures/:asset", h.Capture)
	sessions.GET("/:id/captures/:asset", h.CaptureURL)
	sessions.DELETE("/:id/captures/:asset", h.Retake)
	sessions.POST("/:id/next", h.Next)
	sessions.POST("/:id/back", h.Back)
	sessions.POST("/:id/consent", h.SetConsent)
	sessions.POST("/:id/selfie-scores", h.SetSelfieScores)
	sessions.POST("/:id/submit", h.Submit)
	sessions.POST("/:id/poll/start", h.StartPolling)
	sessions.POST("/:id/poll/stop", h.StopPolling)
}
