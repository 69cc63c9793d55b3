package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"paybridge.backend/pkg/jwt"
	"paybridge.backend/pkg/logger"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// ScopeKey is the context key for the caller's token scope
	ScopeKey = "tokenScope"
)

// SubjectValidator checks a bearer token issued for a fixed subject.
type SubjectValidator interface {
	ValidateSubject(tokenString, subject string) (*jwt.Claims, error)
}

// CronAuthMiddleware admits only bearer tokens issued to the scheduler.
func CronAuthMiddleware(tokens SubjectValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header is required",
			})
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization format. Use: Bearer <token>",
			})
			return
		}

		claims, err := tokens.ValidateSubject(strings.TrimPrefix(authHeader, BearerPrefix), jwt.SubjectScheduler)
		if err != nil {
			logger.Warn(c.Request.Context(), "Rejected scheduler token",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrExpiredToken) {
				msg = "Token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(ScopeKey, claims.Scope)
		c.Next()
	}
}
