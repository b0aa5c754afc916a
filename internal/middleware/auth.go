package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/qa-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
)

// RequireAuth checks if an admin is authenticated via session
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		adminID := session.Get(constants.ContextKeyAdminID)

		if adminID == nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		// Store admin identity in context for easy access in handlers
		c.Set(constants.ContextKeyAdminID, adminID)
		if username, ok := session.Get(constants.ContextKeyUsername).(string); ok {
			c.Set(constants.ContextKeyUsername, username)
		}
		c.Next()
	}
}

// GetAdminID retrieves the current admin ID from context
func GetAdminID(c *gin.Context) (uint64, bool) {
	adminID, exists := c.Get(constants.ContextKeyAdminID)
	if !exists {
		return 0, false
	}

	switch v := adminID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case float64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetUsername retrieves the current admin username from context
func GetUsername(c *gin.Context) string {
	return c.GetString(constants.ContextKeyUsername)
}
