package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"breadshare-client/internal/models"
	"breadshare-client/internal/store"
)

// SessionRequired rejects requests when no live local session exists. The
// logged-in user is placed on the gin context for handlers.
func SessionRequired(sessions *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := sessions.Token(c.Request.Context())
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
			return
		}
		if sessions.TokenExpired(c.Request.Context()) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}

		user, err := sessions.User(c.Request.Context())
		if err != nil || user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no session user"})
			return
		}

		c.Set("user", *user)
		c.Next()
	}
}

// UserFromContext returns the session user placed by SessionRequired.
func UserFromContext(c *gin.Context) (models.UserRef, bool) {
	val, ok := c.Get("user")
	if !ok {
		return models.UserRef{}, false
	}
	user, ok := val.(models.UserRef)
	return user, ok
}
