package middleware

import (
	"github.com/gin-gonic/gin"
)

// contextKey types the values this package stores in request contexts.
// Using a custom type prevents collisions.
type contextKey string

const (
	// userIDKey holds the authenticated subject, used as the audit actor.
	userIDKey    = contextKey("userID")
	loggerCtxKey = contextKey("logger")
)

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if v, exists := c.Get(string(userIDKey)); exists {
		userID, ok := v.(string)
		return userID, ok && userID != ""
	}
	userID, ok := c.Request.Context().Value(userIDKey).(string)
	return userID, ok && userID != ""
}
