package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"salehero-chat/internal/auth"
)

const displayNameContextKey = "displayName"

// OptionalAuth resolves the Authorization header into a display name when a
// valid bearer token is present. The chat endpoints stay open to guests, so
// an absent or invalid token never aborts the request.
func OptionalAuth(validator *auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.Next()
			return
		}

		if name, err := validator.DisplayName(parts[1]); err == nil {
			c.Set(displayNameContextKey, name)
		}
		c.Next()
	}
}

// DisplayNameFromContext returns the authenticated display name, if any.
func DisplayNameFromContext(c *gin.Context) (string, bool) {
	if val, ok := c.Get(displayNameContextKey); ok {
		if name, ok := val.(string); ok && name != "" {
			return name, true
		}
	}
	return "", false
}
