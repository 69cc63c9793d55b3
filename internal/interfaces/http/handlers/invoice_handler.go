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
	"paybridge.backend/pkg/utils"
)

type InvoiceService interface {
	CreateInvoice(ctx context.Context, input *entities.CreateInvoiceInput) (*entities.Invoice, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*entities.Invoice, error)
	ListInvoices(ctx context.Context, filter entities.InvoiceFilter, pagination utils.PaginationParams) ([]*entities.Invoice, utils.PaginationMeta, error)
	BuildPaymentCall(ctx context.Context, id uuid.UUID, remoteToken string) (entities.ConstructedCall, error)
}

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	invoiceUsecase InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceUsecase InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceUsecase: invoiceUsecase}
}

// CreateInvoice creates a PENDING invoice
// POST /api/v1/invoices
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var input entities.CreateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	invoice, err := h.invoiceUsecase.CreateInvoice(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"invoice": invoice})
}

// GetInvoice gets an invoice by ID
// GET /api/v1/invoices/:id
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, err := idParam(c, "invoice")
	if err != nil {
		response.Error(c, err)
		return
	}

	invoice, err := h.invoiceUsecase.GetInvoice(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"invoice": invoice})
}

// ListInvoices lists invoices
// GET /api/v1/invoices?recipientAddress=&creatorAddress=&status=&subscriptionId=
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	subscriptionID, err := optionalUUIDQuery(c, "subscriptionId")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := entities.InvoiceFilter{
		RecipientAddress: c.Query("recipientAddress"),
		CreatorAddress:   c.Query("creatorAddress"),
		Status:           entities.InvoiceStatus(strings.ToUpper(c.Query("status"))),
		SubscriptionID:   subscriptionID,
	}

	invoices, meta, err := h.invoiceUsecase.ListInvoices(c.Request.Context(), filter, paginationFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"invoices":   invoices,
		"pagination": meta,
	})
}

// BuildPaymentCall returns the unsigned call that pays the invoice
// POST /api/v1/invoices/:id/payment-call
func (h *InvoiceHandler) BuildPaymentCall(c *gin.Context) {
	id, err := idParam(c, "invoice")
	if err != nil {
		response.Error(c, err)
		return
	}

	var input struct {
		RemoteToken string `json:"remoteToken"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			response.Error(c, domainerrors.BadRequest(err.Error()))
			return
		}
	}

	call, err := h.invoiceUsecase.BuildPaymentCall(c.Request.Context(), id, input.RemoteToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"call": call})
}
