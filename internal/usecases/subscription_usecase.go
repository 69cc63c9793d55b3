package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"paybridge.backend/internal/domain/entities"
	domainerrors "paybridge.backend/internal/domain/errors"
	"paybridge.backend/internal/domain/repositories"
	"paybridge.backend/pkg/logger"
	"paybridge.backend/pkg/metrics"
	"paybridge.backend/pkg/utils"
)

const recentInvoiceCount = 10

// InvoiceCreator stores the invoice produced by one billing cycle.
type InvoiceCreator interface {
	CreateFromRequest(ctx context.Context, req entities.InvoiceRequest) (*entities.Invoice, error)
}

// BillingOptions bounds one scheduler run.
type BillingOptions struct {
	BatchSize   int
	Concurrency int
}

// BillingReport is the aggregate outcome of one scheduler run.
type BillingReport struct {
	Processed int                          `json:"processed"`
	Invoices  []string                     `json:"invoices"`
	Skipped   int                          `json:"skipped"`
	Errors    []entities.SubscriptionError `json:"errors"`
}

// SubscriptionDetail is a subscription with its most recent invoices.
type SubscriptionDetail struct {
	*entities.Subscription
	RecentInvoices []*entities.Invoice `json:"invoices"`
}

var errCycleAlreadyBilled = errors.New("billing cycle already advanced")

// SubscriptionUsecase handles subscription business logic and billing runs
type SubscriptionUsecase struct {
	subscriptionRepo repositories.SubscriptionRepository
	invoiceRepo      repositories.InvoiceRepository
	invoices         InvoiceCreator
	uow              repositories.UnitOfWork
	routes           *RouteSelector
	metrics          metrics.Recorder
	opts             BillingOptions
	now              func() time.Time
}

// NewSubscriptionUsecase creates a new subscription usecase
func NewSubscriptionUsecase(
	subscriptionRepo repositories.SubscriptionRepository,
	invoiceRepo repositories.InvoiceRepository,
	invoices InvoiceCreator,
	uow repositories.UnitOfWork,
	routes *RouteSelector,
	recorder metrics.Recorder,
	opts BillingOptions,
) *SubscriptionUsecase {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &SubscriptionUsecase{
		subscriptionRepo: subscriptionRepo,
		invoiceRepo:      invoiceRepo,
		invoices:         invoices,
		uow:              uow,
		routes:           routes,
		metrics:          recorder,
		opts:             opts,
		now:              time.Now,
	}
}

// CreateSubscription stores an ACTIVE subscription whose first cycle is due
// one period from now.
func (u *SubscriptionUsecase) CreateSubscription(ctx context.Context, input *entities.CreateSubscriptionInput) (*entities.Subscription, error) {
	source, err := entities.ParseChainID(input.Chain)
	if err != nil {
		return nil, err
	}
	destination, err := entities.ParseChainID(input.DestinationChain)
	if err != nil {
		return nil, err
	}
	frequency := entities.BillingFrequency(input.Frequency)
	if !frequency.IsValid() {
		return nil, fmt.Errorf("%w: unknown billing frequency %q", domainerrors.ErrInvalidInput, input.Frequency)
	}
	if input.PayerAddress == "" {
		return nil, fmt.Errorf("%w: payer address is required", domainerrors.ErrInvalidInput)
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
	next, err := NextBillingDate(frequency, now)
	if err != nil {
		return nil, err
	}

	sub := &entities.Subscription{
		ID:               utils.GenerateUUIDv7(),
		Name:             input.Name,
		Amount:           input.Amount,
		TokenAddress:     input.TokenAddress,
		TokenSymbol:      input.TokenSymbol,
		TokenDecimals:    decimals,
		Chain:            source,
		DestinationChain: destination,
		RecipientAddress: input.RecipientAddress,
		PayerAddress:     input.PayerAddress,
		CreatorAddress:   input.CreatorAddress,
		Frequency:        frequency,
		NextBillingDate:  next,
		Status:           entities.SubscriptionStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if input.Description != "" {
		sub.Description.SetValid(input.Description)
	}

	if err := u.subscriptionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// GetSubscription returns the subscription and its latest invoices
func (u *SubscriptionUsecase) GetSubscription(ctx context.Context, id uuid.UUID) (*SubscriptionDetail, error) {
	sub, err := u.subscriptionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	invoices, _, err := u.invoiceRepo.List(ctx, entities.InvoiceFilter{SubscriptionID: &sub.ID}, recentInvoiceCount, 0)
	if err != nil {
		return nil, err
	}
	return &SubscriptionDetail{Subscription: sub, RecentInvoices: invoices}, nil
}

// ListSubscriptions returns a page of subscriptions matching filter
func (u *SubscriptionUsecase) ListSubscriptions(ctx context.Context, filter entities.SubscriptionFilter, pagination utils.PaginationParams) ([]*entities.Subscription, utils.PaginationMeta, error) {
	subs, total, err := u.subscriptionRepo.List(ctx, filter, pagination.Limit, pagination.CalculateOffset())
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return subs, utils.CalculateMeta(total, pagination.Page, pagination.Limit), nil
}

// UpdateStatus pauses, resumes or cancels a subscription. Cancelled and
// expired subscriptions are final. The billing dates are owned by the
// scheduler and cannot be changed here.
func (u *SubscriptionUsecase) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.SubscriptionStatus) (*entities.Subscription, error) {
	var updated *entities.Subscription
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		sub, err := u.subscriptionRepo.GetByID(u.uow.WithLock(txCtx), id)
		if err != nil {
			return err
		}
		if err := checkSubscriptionTransition(sub.Status, status); err != nil {
			return err
		}
		if sub.Status == status {
			updated = sub
			return nil
		}

		var cancelledAt *time.Time
		if status == entities.SubscriptionStatusCancelled {
			now := u.now()
			cancelledAt = &now
			sub.CancelledAt.SetValid(now)
		}
		if err := u.subscriptionRepo.UpdateStatus(txCtx, id, status, cancelledAt); err != nil {
			return err
		}
		sub.Status = status
		updated = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func checkSubscriptionTransition(from, to entities.SubscriptionStatus) error {
	if from.IsFinal() {
		return fmt.Errorf("%w: subscription is %s", domainerrors.ErrInvalidState, from)
	}
	switch to {
	case entities.SubscriptionStatusActive, entities.SubscriptionStatusPaused, entities.SubscriptionStatusCancelled:
		return nil
	}
	return fmt.Errorf("%w: cannot set subscription status to %s", domainerrors.ErrInvalidInput, to)
}

// RunBilling bills every due subscription once. Each subscription is
// committed in its own transaction, guarded by a compare-and-set on its
// scheduled date, so a failure or a concurrent run only affects that
// subscription.
func (u *SubscriptionUsecase) RunBilling(ctx context.Context) (*BillingReport, error) {
	start := u.now()
	now := start

	candidates, err := u.subscriptionRepo.ListDue(ctx, now, u.opts.BatchSize)
	if err != nil {
		return nil, err
	}
	run := PlanBillingRun(now, candidates)

	type itemResult struct {
		invoiceID uuid.UUID
		skipped   bool
		err       *entities.SubscriptionError
	}
	mapper := iter.Mapper[entities.BillingItem, itemResult]{MaxGoroutines: u.opts.Concurrency}
	results := mapper.Map(run.Items, func(item *entities.BillingItem) itemResult {
		invoice, err := u.billOne(ctx, *item)
		switch {
		case errors.Is(err, errCycleAlreadyBilled):
			return itemResult{skipped: true}
		case err != nil:
			return itemResult{err: &entities.SubscriptionError{
				SubscriptionID: item.Update.SubscriptionID,
				Err:            err,
				Message:        err.Error(),
			}}
		}
		return itemResult{invoiceID: invoice.ID}
	})

	report := &BillingReport{
		Invoices: []string{},
		Errors:   append([]entities.SubscriptionError{}, run.Errors...),
	}
	for _, r := range results {
		switch {
		case r.skipped:
			report.Skipped++
			u.metrics.IncCounter(metrics.BillingSkipped, nil)
		case r.err != nil:
			report.Errors = append(report.Errors, *r.err)
		default:
			report.Processed++
			report.Invoices = append(report.Invoices, r.invoiceID.String())
			u.metrics.IncCounter(metrics.BillingInvoice, nil)
		}
	}
	for _, e := range report.Errors {
		u.metrics.IncCounter(metrics.BillingError, nil)
		logger.Error(ctx, "Subscription billing failed",
			zap.String("subscription_id", e.SubscriptionID.String()),
			zap.Error(e.Err),
		)
	}

	u.metrics.ObserveLatency(metrics.BillingRun, u.now().Sub(start), nil)
	logger.Info(ctx, "Subscription billing run finished",
		zap.Int("candidates", len(candidates)),
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", len(report.Errors)),
	)
	return report, nil
}

func (u *SubscriptionUsecase) billOne(ctx context.Context, item entities.BillingItem) (*entities.Invoice, error) {
	var invoice *entities.Invoice
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		advanced, err := u.subscriptionRepo.Advance(txCtx, item.Update)
		if err != nil {
			return err
		}
		if !advanced {
			return errCycleAlreadyBilled
		}
		invoice, err = u.invoices.CreateFromRequest(txCtx, item.Invoice)
		return err
	})
	return invoice, err
}
