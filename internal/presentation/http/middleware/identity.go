package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BrightFrames/tapx-go/internal/infrastructure/security"
	"github.com/BrightFrames/tapx-go/pkg/config"
)

// Context keys set by the identity middleware.
const (
	ContextUserID    = "userId"
	ContextUserEmail = "userEmail"
	ContextProfileID = "profileId"
)

// OptionalIdentity parses a bearer token when one is present. An absent or
// invalid token never aborts the request; the caller simply stays a visitor.
func OptionalIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := bearerClaims(c); claims != nil {
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextUserEmail, claims.Email)
			c.Set(ContextProfileID, claims.ProfileID)
		}
		c.Next()
	}
}

// RequireIdentity rejects requests without a valid bearer token.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := bearerClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Set(ContextProfileID, claims.ProfileID)
		c.Next()
	}
}

func bearerClaims(c *gin.Context) *security.UserClaims {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil
	}
	token := strings.TrimPrefix(header, "Bearer ")
	claims, err := security.ValidateUserToken(token, config.JWTSecret)
	if err != nil {
		return nil
	}
	return claims
}
