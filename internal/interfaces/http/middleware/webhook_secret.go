package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"paybridge.backend/pkg/crypto"
	"paybridge.backend/pkg/logger"
)

// WebhookSecretHeader carries the shared secret of a status feed.
const WebhookSecretHeader = "X-Webhook-Secret"

var checkSecret = crypto.CheckSecret

// WebhookSecretMiddleware rejects status-feed calls whose secret does not
// match secretHash. An empty hash disables the check.
func WebhookSecretMiddleware(secretHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretHash == "" {
			c.Next()
			return
		}

		secret := c.GetHeader(WebhookSecretHeader)
		if secret == "" || !checkSecret(secret, secretHash) {
			logger.Warn(c.Request.Context(), "Rejected webhook call",
				zap.String("path", c.Request.URL.Path),
				zap.Bool("secret_present", secret != ""),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid webhook secret",
			})
			return
		}
		c.Next()
	}
}
