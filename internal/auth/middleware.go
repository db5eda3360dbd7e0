package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextParentIDKey is where Middleware stores the authenticated parent ID.
const ContextParentIDKey = "parent_id"

// Middleware rejects requests without a valid Bearer token and puts the
// parent ID into the gin context.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header missing"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			s.logger.Warn("Invalid Authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		parentID, err := s.VerifyToken(parts[1])
		if err != nil {
			s.logger.Warn("Token verification failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ContextParentIDKey, parentID)
		c.Next()
	}
}

// ParentID extracts the authenticated parent ID set by Middleware.
func ParentID(c *gin.Context) string {
	return c.GetString(ContextParentIDKey)
}
