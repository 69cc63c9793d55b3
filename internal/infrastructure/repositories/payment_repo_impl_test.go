package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"paybridge.backend/internal/domain/entities"
	domainerrors "paybridge.backend/internal/domain/errors"
)

func newPayment(invoiceID uuid.UUID, txRef string, route entities.RouteKind, createdAt time.Time) *entities.Payment {
	p := &entities.Payment{
		ID:               uuid.New(),
		InvoiceID:        invoiceID,
		Amount:           "10500000",
		TokenAddress:     "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		TokenSymbol:      "USDC",
		PayerAddress:     null.StringFrom("0xpayer"),
		SourceChain:      entities.ChainA,
		DestinationChain: entities.ChainA,
		Route:            route,
		TxRef:            txRef,
		Status:           entities.PaymentStatusSubmitted,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
	if route == entities.RouteCrossChainBridged {
		p.DestinationChain = entities.ChainB
		p.BridgeDirection = null.StringFrom("base-to-solana")
	}
	return p
}

func TestPaymentRepository_BasicFlow(t *testing.T) {
	db := newTestDB(t)
	createPaymentTables(t, db)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	invoiceID := uuid.New()
	now := time.Now().UTC()
	p := newPayment(invoiceID, "0xsource", entities.RouteCrossChainBridged, now)
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "0xsource", got.TxRef)
	require.Equal(t, entities.RouteCrossChainBridged, got.Route)
	require.Equal(t, "base-to-solana", got.BridgeDirection.String)
	require.False(t, got.BridgeTxRef.Valid)

	byInvoiceTx, err := repo.GetByInvoiceAndTxRef(ctx, invoiceID, "0xsource")
	require.NoError(t, err)
	require.Equal(t, p.ID, byInvoiceTx.ID)

	_, err = repo.GetByInvoiceAndTxRef(ctx, uuid.New(), "0xsource")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	got.Status = entities.PaymentStatusConfirmed
	got.SourceLegConfirmed = true
	got.BridgeTxRef = null.StringFrom("5solanaSig")
	got.ConfirmedAt = null.TimeFrom(now.Add(time.Minute))
	got.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, repo.Update(ctx, got))

	updated, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, entities.PaymentStatusConfirmed, updated.Status)
	require.True(t, updated.SourceLegConfirmed)
	require.Equal(t, "5solanaSig", updated.BridgeTxRef.String)
	require.True(t, updated.ConfirmedAt.Valid)

	_, err = repo.GetByTxRef(ctx, "5solanaSig")
	require.ErrorIs(t, err, domainerrors.ErrNotFound, "destination leg reference must not resolve a payment")

	bySourceRef, err := repo.GetByTxRef(ctx, "0xsource")
	require.NoError(t, err)
	require.Equal(t, p.ID, bySourceRef.ID)

	_, err = repo.GetByTxRef(ctx, "unknown")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	missing := newPayment(invoiceID, "0xother", entities.RouteSameChainDirect, now)
	require.ErrorIs(t, repo.Update(ctx, missing), domainerrors.ErrNotFound)
}

func TestPaymentRepository_DuplicateInvoiceTxRejected(t *testing.T) {
	db := newTestDB(t)
	createPaymentTables(t, db)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	invoiceID := uuid.New()
	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, newPayment(invoiceID, "0xdup", entities.RouteSameChainDirect, now)))
	err := repo.Create(ctx, newPayment(invoiceID, "0xdup", entities.RouteSameChainDirect, now))
	require.ErrorIs(t, err, domainerrors.ErrAlreadyExists)

	require.NoError(t, repo.Create(ctx, newPayment(uuid.New(), "0xdup", entities.RouteSameChainDirect, now)), "same tx for another invoice is allowed")
}

func TestPaymentRepository_ListByInvoice(t *testing.T) {
	db := newTestDB(t)
	createPaymentTables(t, db)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	invoiceA := uuid.New()
	invoiceB := uuid.New()
	base := time.Now().UTC()
	first := newPayment(invoiceA, "0x1", entities.RouteSameChainDirect, base)
	second := newPayment(invoiceA, "0x2", entities.RouteSameChainDirect, base.Add(time.Second))
	other := newPayment(invoiceB, "0x3", entities.RouteSameChainDirect, base)
	for _, p := range []*entities.Payment{first, second, other} {
		require.NoError(t, repo.Create(ctx, p))
	}

	list, total, err := repo.ListByInvoice(ctx, invoiceA, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, first.ID, list[1].ID)

	all, total, err := repo.ListByInvoice(ctx, uuid.Nil, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, all, 3)
}

func TestPaymentRepository_ListStaleAndAwaiting(t *testing.T) {
	db := newTestDB(t)
	createPaymentTables(t, db)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	old := newPayment(uuid.New(), "0xold", entities.RouteSameChainDirect, now.Add(-3*time.Hour))
	oldBridged := newPayment(uuid.New(), "0xbridged", entities.RouteCrossChainBridged, now.Add(-3*time.Hour))
	oldBridged.Status = entities.PaymentStatusConfirming
	oldBridged.SourceLegConfirmed = true
	fresh := newPayment(uuid.New(), "0xfresh", entities.RouteSameChainDirect, now.Add(-time.Minute))
	done := newPayment(uuid.New(), "0xdone", entities.RouteSameChainDirect, now.Add(-3*time.Hour))
	done.Status = entities.PaymentStatusConfirmed
	solana := newPayment(uuid.New(), "sig", entities.RouteSameChainDirect, now.Add(-time.Minute))
	solana.SourceChain = entities.ChainB
	for _, p := range []*entities.Payment{old, oldBridged, fresh, done, solana} {
		require.NoError(t, repo.Create(ctx, p))
	}

	stale, err := repo.ListStale(ctx, now.Add(-2*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stale, 2)
	ids := []uuid.UUID{stale[0].ID, stale[1].ID}
	require.ElementsMatch(t, []uuid.UUID{old.ID, oldBridged.ID}, ids)

	awaiting, err := repo.ListAwaitingConfirmation(ctx, entities.ChainA, 10)
	require.NoError(t, err)
	require.Len(t, awaiting, 2)
	require.ElementsMatch(t, []uuid.UUID{old.ID, fresh.ID}, []uuid.UUID{awaiting[0].ID, awaiting[1].ID})
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"postgres unique", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{"postgres other", &pq.Error{Code: "23503"}, false},
		{"sqlite unique", errors.New("UNIQUE constraint failed: payments.invoice_id, payments.tx_hash"), true},
		{"unrelated", errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, isUniqueViolation(tc.err))
		})
	}
}
