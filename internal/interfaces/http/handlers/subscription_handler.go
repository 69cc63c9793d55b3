package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"paybridge.backend/internal/domain/entities"
	domainerrors "paybridge.backend/internal/domain/errors"
	"paybridge.backend/internal/interfaces/http/response"
	"paybridge.backend/internal/usecases"
	"paybridge.backend/pkg/utils"
)

type SubscriptionService interface {
	CreateSubscription(ctx context.Context, input *entities.CreateSubscriptionInput) (*entities.Subscription, error)
	GetSubscription(ctx context.Context, id uuid.UUID) (*usecases.SubscriptionDetail, error)
	ListSubscriptions(ctx context.Context, filter entities.SubscriptionFilter, pagination utils.PaginationParams) ([]*entities.Subscription, utils.PaginationMeta, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.SubscriptionStatus) (*entities.Subscription, error)
}

// SubscriptionHandler handles subscription endpoints
type SubscriptionHandler struct {
	subscriptionUsecase SubscriptionService
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptionUsecase SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionUsecase: subscriptionUsecase}
}

// CreateSubscription creates an ACTIVE subscription
// POST /api/v1/subscriptions
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var input entities.CreateSubscriptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	sub, err := h.subscriptionUsecase.CreateSubscription(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"subscription": sub})
}

// GetSubscription gets a subscription with its recent invoices
// GET /api/v1/subscriptions/:id
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	id, err := idParam(c, "subscription")
	if err != nil {
		response.Error(c, err)
		return
	}

	detail, err := h.subscriptionUsecase.GetSubscription(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"subscription": detail})
}

// ListSubscriptions lists subscriptions
// GET /api/v1/subscriptions?recipientAddress=&payerAddress=&status=
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	filter := entities.SubscriptionFilter{
		RecipientAddress: c.Query("recipientAddress"),
		PayerAddress:     c.Query("payerAddress"),
		Status:           entities.SubscriptionStatus(strings.ToUpper(c.Query("status"))),
	}

	subs, meta, err := h.subscriptionUsecase.ListSubscriptions(c.Request.Context(), filter, paginationFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"subscriptions": subs,
		"pagination":    meta,
	})
}

// UpdateSubscription pauses, resumes or cancels a subscription
// PATCH /api/v1/subscriptions/:id
func (h *SubscriptionHandler) UpdateSubscription(c *gin.Context) {
	id, err := idParam(c, "subscription")
	if err != nil {
		response.Error(c, err)
		return
	}

	var input entities.UpdateSubscriptionStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	sub, err := h.subscriptionUsecase.UpdateStatus(c.Request.Context(), id, entities.SubscriptionStatus(input.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"subscription": sub})
}
