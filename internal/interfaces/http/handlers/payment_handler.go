package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"paybridge.backend/internal/domain/entities"
	domainerrors "paybridge.backend/internal/domain/errors"
	"paybridge.backend/internal/interfaces/http/response"
	"paybridge.backend/internal/usecases"
	"paybridge.backend/pkg/utils"
)

type PaymentService interface {
	RegisterPayment(ctx context.Context, input *entities.RegisterPaymentInput) (*entities.Payment, bool, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*entities.Payment, error)
	ListPayments(ctx context.Context, invoiceID uuid.UUID, pagination utils.PaginationParams) ([]*entities.Payment, utils.PaginationMeta, error)
	GetPaymentEvents(ctx context.Context, id uuid.UUID) ([]*entities.PaymentEvent, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, input *entities.UpdatePaymentInput) (*usecases.TrackResult, error)
}

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	paymentUsecase PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentUsecase PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentUsecase: paymentUsecase}
}

// RegisterPayment starts tracking a submitted transaction. Registering the
// same transaction again returns the existing payment with 200.
// POST /api/v1/payments
func (h *PaymentHandler) RegisterPayment(c *gin.Context) {
	var input entities.RegisterPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	payment, created, err := h.paymentUsecase.RegisterPayment(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"payment": payment, "created": created})
}

// GetPayment gets a payment by ID
// GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, err := idParam(c, "payment")
	if err != nil {
		response.Error(c, err)
		return
	}

	payment, err := h.paymentUsecase.GetPayment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payment": payment})
}

// ListPayments lists payments, optionally for one invoice
// GET /api/v1/payments?invoiceId=
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	invoiceID, err := optionalUUIDQuery(c, "invoiceId")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := uuid.Nil
	if invoiceID != nil {
		filter = *invoiceID
	}

	payments, meta, err := h.paymentUsecase.ListPayments(c.Request.Context(), filter, paginationFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"payments":   payments,
		"pagination": meta,
	})
}

// GetPaymentEvents gets the audit trail of a payment
// GET /api/v1/payments/:id/events
func (h *PaymentHandler) GetPaymentEvents(c *gin.Context) {
	id, err := idParam(c, "payment")
	if err != nil {
		response.Error(c, err)
		return
	}

	events, err := h.paymentUsecase.GetPaymentEvents(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"events": events})
}

// UpdatePayment applies a status report to one payment
// PATCH /api/v1/payments/:id
func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	id, err := idParam(c, "payment")
	if err != nil {
		response.Error(c, err)
		return
	}

	var input entities.UpdatePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	result, err := h.paymentUsecase.UpdatePayment(c.Request.Context(), id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"payment": result.Payment,
		"outcome": result.Outcome(),
	})
}
