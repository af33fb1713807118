package middleware

import (
	types "mobile-banking-core/internal/common/type"
	"mobile-banking-core/internal/pkg/helper"
	"mobile-banking-core/internal/pkg/jwt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const ShellKey = "shell"

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		send := c.MustGet("send").(func(r *types.Response))
		if token == "" {
			send(helper.ParseResponse(&types.Response{Code: http.StatusUnauthorized, Message: "token not found"}))
			return
		}

		claims, err := jwt.ValidateToken(secret, token)
		if err != nil {
			send(helper.ParseResponse(&types.Response{Code: http.StatusUnauthorized, Message: "invalid token", Error: err}))
			return
		}

		c.Set(ShellKey, *claims)
		c.Next()
	}
}
