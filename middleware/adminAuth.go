package middleware

import (
	"net/http"
	"strings"

	"appointly/utils"

	"github.com/gin-gonic/gin"
)

// JWTAuthAdminMiddleware requires a bearer token carrying the admin role.
func JWTAuthAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "missing or invalid Authorization header")
			return
		}
		subject, err := utils.ExtractAdminSubject(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "unauthorized admin access")
			return
		}
		c.Set("adminSubject", subject)
		c.Next()
	}
}
