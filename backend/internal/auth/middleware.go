package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"kindred/backend/internal/store"
)

const userContextKey = "current_user"

// RequireAuth is a gin middleware that resolves the bearer token to a user
// and aborts with 401 when it cannot.
func (s *Service) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}

		user, err := s.ResolveToken(c.Request.Context(), header[7:])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user stored by RequireAuth
func CurrentUser(c *gin.Context) *store.User {
	if v, ok := c.Get(userContextKey); ok {
		if user, ok := v.(*store.User); ok {
			return user
		}
	}
	return nil
}
