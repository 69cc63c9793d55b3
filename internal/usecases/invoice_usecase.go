package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"paybridge.backend/internal/domain/entities"
	domainerrors "paybridge.backend/internal/domain/errors"
	"paybridge.backend/internal/domain/repositories"
	"paybridge.backend/pkg/logger"
	"paybridge.backend/pkg/metrics"
	"paybridge.backend/pkg/utils"
)

// InvoiceUsecase handles invoice business logic and settles invoices when
// the tracker confirms a payment.
type InvoiceUsecase struct {
	invoiceRepo repositories.InvoiceRepository
	routes      *RouteSelector
	constructor *PaymentConstructor
	metrics     metrics.Recorder
	now         func() time.Time
}

// NewInvoiceUsecase creates a new invoice usecase
func NewInvoiceUsecase(
	invoiceRepo repositories.InvoiceRepository,
	routes *RouteSelector,
	constructor *PaymentConstructor,
	recorder metrics.Recorder,
) *InvoiceUsecase {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &InvoiceUsecase{
		invoiceRepo: invoiceRepo,
		routes:      routes,
		constructor: constructor,
		metrics:     recorder,
		now:         time.Now,
	}
}

// CreateInvoice validates the payment terms and stores a PENDING invoice.
func (u *InvoiceUsecase) CreateInvoice(ctx context.Context, input *entities.CreateInvoiceInput) (*entities.Invoice, error) {
	source, err := entities.ParseChainID(input.Chain)
	if err != nil {
		return nil, err
	}
	destination, err := entities.ParseChainID(input.DestinationChain)
	if err != nil {
		return nil, err
	}

	decimals, err := requireDecimals(input.TokenDecimals)
	if err != nil {
		return nil, err
	}

	terms := paymentTerms{
		amount:      input.Amount,
		token:       input.TokenAddress,
		decimals:    decimals,
		source:      source,
		destination: destination,
		recipient:   input.RecipientAddress,
		payer:       input.PayerAddress,
	}
	if err := validatePaymentTerms(u.routes, terms); err != nil {
		return nil, err
	}

	now := u.now()
	invoice := &entities.Invoice{
		ID:               utils.GenerateUUIDv7(),
		InvoiceNumber:    utils.GenerateInvoiceNumber(now),
		Amount:           input.Amount,
		TokenAddress:     input.TokenAddress,
		TokenSymbol:      input.TokenSymbol,
		TokenDecimals:    decimals,
		Chain:            source,
		DestinationChain: destination,
		RecipientAddress: input.RecipientAddress,
		CreatorAddress:   input.CreatorAddress,
		Status:           entities.InvoiceStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if input.PayerAddress != "" {
		invoice.PayerAddress.SetValid(input.PayerAddress)
	}
	if input.Description != "" {
		invoice.Description.SetValid(input.Description)
	}
	if input.Notes != "" {
		invoice.Notes.SetValid(input.Notes)
	}
	if input.DueDate != nil {
		invoice.DueDate.SetValid(*input.DueDate)
	}

	if err := u.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// CreateFromRequest stores the invoice for one subscription billing cycle.
func (u *InvoiceUsecase) CreateFromRequest(ctx context.Context, req entities.InvoiceRequest) (*entities.Invoice, error) {
	now := u.now()
	subscriptionID := req.SubscriptionID
	invoice := &entities.Invoice{
		ID:               utils.GenerateUUIDv7(),
		InvoiceNumber:    utils.GenerateInvoiceNumber(now),
		Amount:           req.Amount,
		TokenAddress:     req.TokenAddress,
		TokenSymbol:      req.TokenSymbol,
		TokenDecimals:    req.TokenDecimals,
		Chain:            req.Chain,
		DestinationChain: req.DestinationChain,
		RecipientAddress: req.RecipientAddress,
		PayerAddress:     null.NewString(req.PayerAddress, req.PayerAddress != ""),
		CreatorAddress:   req.CreatorAddress,
		Description:      null.NewString(req.Description, req.Description != ""),
		DueDate:          null.NewTime(req.DueDate, !req.DueDate.IsZero()),
		Status:           entities.InvoiceStatusPending,
		SubscriptionID:   &subscriptionID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := u.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// GetInvoice returns an invoice by id
func (u *InvoiceUsecase) GetInvoice(ctx context.Context, id uuid.UUID) (*entities.Invoice, error) {
	return u.invoiceRepo.GetByID(ctx, id)
}

// ListInvoices returns a page of invoices matching filter
func (u *InvoiceUsecase) ListInvoices(ctx context.Context, filter entities.InvoiceFilter, pagination utils.PaginationParams) ([]*entities.Invoice, utils.PaginationMeta, error) {
	invoices, total, err := u.invoiceRepo.List(ctx, filter, pagination.Limit, pagination.CalculateOffset())
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return invoices, utils.CalculateMeta(total, pagination.Page, pagination.Limit), nil
}

// BuildPaymentCall returns the unsigned call that pays a PENDING invoice.
// remoteToken optionally overrides the Solana mint of a bridged token.
func (u *InvoiceUsecase) BuildPaymentCall(ctx context.Context, id uuid.UUID, remoteToken string) (entities.ConstructedCall, error) {
	invoice, err := u.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return entities.ConstructedCall{}, err
	}
	if invoice.Status != entities.InvoiceStatusPending {
		return entities.ConstructedCall{}, fmt.Errorf("%w: invoice %s is %s", domainerrors.ErrInvalidState, invoice.InvoiceNumber, invoice.Status)
	}

	intent := invoice.Intent()
	intent.RemoteTokenAddress = strings.TrimSpace(remoteToken)
	call, err := u.constructor.Construct(intent)
	if err != nil {
		u.metrics.IncCounter(metrics.CallConstructed, map[string]string{"chain": string(invoice.Chain), "outcome": "error"})
		return entities.ConstructedCall{}, err
	}
	u.metrics.IncCounter(metrics.CallConstructed, map[string]string{"chain": string(invoice.Chain), "outcome": string(call.Kind())})
	return call, nil
}

// MarkInvoicePaid settles the invoice for a confirmed payment. A second
// request for an already paid invoice is ignored.
func (u *InvoiceUsecase) MarkInvoicePaid(ctx context.Context, req entities.InvoicePaidRequest) error {
	updated, err := u.invoiceRepo.MarkPaid(ctx, req)
	if err != nil {
		return err
	}
	if !updated {
		logger.Warn(ctx, "Invoice already settled",
			zap.String("invoice_id", req.InvoiceID.String()),
			zap.String("payment_id", req.PaymentID.String()),
		)
	}
	return nil
}

type paymentTerms struct {
	amount      string
	token       string
	decimals    uint8
	source      entities.ChainID
	destination entities.ChainID
	recipient   string
	payer       string
}

// requireDecimals accepts any value in 0..255; only an absent field is an error.
func requireDecimals(d *uint8) (uint8, error) {
	if d == nil {
		return 0, fmt.Errorf("%w: token decimals are required", domainerrors.ErrInvalidInput)
	}
	return *d, nil
}

// validatePaymentTerms rejects terms that could never produce a payment call.
func validatePaymentTerms(routes *RouteSelector, t paymentTerms) error {
	route := routes.Select(t.source, t.destination)
	if route.Kind == entities.RouteUnsupported {
		return fmt.Errorf("%w: %s: %s", domainerrors.ErrUnsupportedRoute, route.Direction(), route.Reason)
	}
	if route.Kind == entities.RouteSameChainDirect && t.source != entities.ChainA {
		return fmt.Errorf("%w: same-chain payments on %s are not implemented", domainerrors.ErrUnsupportedRoute, t.source)
	}

	amount, err := entities.ParseTokenAmount(t.amount, t.decimals)
	if err != nil {
		return err
	}
	if amount.IsZero() {
		return fmt.Errorf("%w: amount must be greater than zero", domainerrors.ErrInvalidAmount)
	}

	if _, err := entities.ParseAddress(t.destination, t.recipient); err != nil {
		return fmt.Errorf("recipient: %w", err)
	}
	if t.payer != "" {
		if _, err := entities.ParseAddress(t.source, t.payer); err != nil {
			return fmt.Errorf("payer: %w", err)
		}
	}
	if !IsNativeToken(t.token) {
		if _, err := entities.ParseAddress(t.source, t.token); err != nil {
			return fmt.Errorf("token: %w", err)
		}
	} else if route.IsBridged() {
		return fmt.Errorf("%w: native asset cannot be bridged, use the wrapped token", domainerrors.ErrInvalidBridgeParameters)
	}
	return nil
}
