package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"paybridge.backend/internal/domain/entities"
	domainerrors "paybridge.backend/internal/domain/errors"
	"paybridge.backend/internal/interfaces/http/response"
	"paybridge.backend/internal/usecases"
)

type WebhookService interface {
	ProcessPaymentStatus(ctx context.Context, input *entities.PaymentStatusWebhookInput) (*usecases.TrackResult, error)
}

// WebhookHandler handles status feed webhooks
type WebhookHandler struct {
	webhookUsecase WebhookService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhookUsecase WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookUsecase: webhookUsecase}
}

// HandlePaymentStatus applies a status notification from a bridge relayer
// or indexer. Late and duplicate notifications are acknowledged with 200.
// POST /api/v1/webhooks/payment-status
func (h *WebhookHandler) HandlePaymentStatus(c *gin.Context) {
	var input entities.PaymentStatusWebhookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	result, err := h.webhookUsecase.ProcessPaymentStatus(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"received":  true,
		"paymentId": result.Payment.ID,
		"status":    result.Payment.Status,
		"outcome":   result.Outcome(),
	})
}
