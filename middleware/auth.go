package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const TokenKey = "bearerToken"

// BearerToken stores the Authorization bearer token, if any, on the context.
// It never rejects a request: checkout works for guests, and the token is
// only checked by the backend identity service.
func BearerToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
			if token = strings.TrimSpace(token); token != "" {
				c.Set(TokenKey, token)
			}
		}
		c.Next()
	}
}

func GetBearerToken(c *gin.Context) string {
	if val, exists := c.Get(TokenKey); exists {
		return val.(string)
	}
	return ""
}
