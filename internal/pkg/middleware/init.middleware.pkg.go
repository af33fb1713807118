package middleware

import (
	types "mobile-banking-core/internal/common/type"
	"mobile-banking-core/internal/pkg/helper"
	"mobile-banking-core/internal/pkg/logger"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-Id"

// RequestInit tags the request with an id and logs it once it completes.
func RequestInit() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)

		start := time.Now()
		c.Next()

		logger.HTTP.Printf("%s %s %d %s [%s]", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond), id)
	}
}

// ResponseInit installs the "send" function handlers use to reply with the
// standard envelope. Error responses abort the chain.
func ResponseInit() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("send", func(r *types.Response) {
			body := helper.ToResponseAPI(r)
			if r.Code >= http.StatusBadRequest {
				c.AbortWithStatusJSON(r.Code, body)
				return
			}
			c.JSON(r.Code, body)
		})
		c.Next()
	}
}

// Cors allows the local UI shell to call the API from a webview.
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key, X-Attempt-Ref, X-Request-Id")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
