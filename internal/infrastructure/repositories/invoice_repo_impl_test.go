package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"paybridge.backend/internal/domain/entities"
	domainerrors "paybridge.backend/internal/domain/errors"
)

func newInvoice(number, recipient string) *entities.Invoice {
	now := time.Now().UTC()
	return &entities.Invoice{
		ID:               uuid.New(),
		InvoiceNumber:    number,
		Amount:           "10.5",
		TokenAddress:     "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		TokenSymbol:      "USDC",
		TokenDecimals:    6,
		Chain:            entities.ChainA,
		DestinationChain: entities.ChainB,
		RecipientAddress: recipient,
		CreatorAddress:   "0xcreator",
		Description:      null.StringFrom("consulting"),
		Status:           entities.InvoiceStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestInvoiceRepository_CreateGetList(t *testing.T) {
	db := newTestDB(t)
	createInvoiceTable(t, db)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()

	subID := uuid.New()
	a := newInvoice("INV-20260101-AAAAAA", "recipient-a")
	b := newInvoice("INV-20260101-BBBBBB", "recipient-b")
	b.SubscriptionID = &subID
	b.CreatedAt = a.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "INV-20260101-AAAAAA", got.InvoiceNumber)
	require.Equal(t, entities.ChainB, got.DestinationChain)
	require.Equal(t, uint8(6), got.TokenDecimals)
	require.Equal(t, "consulting", got.Description.String)
	require.False(t, got.PayerAddress.Valid)
	require.Nil(t, got.SubscriptionID)

	all, total, err := repo.List(ctx, entities.InvoiceFilter{}, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, all, 2)
	require.Equal(t, b.ID, all[0].ID, "newest first")

	byRecipient, total, err := repo.List(ctx, entities.InvoiceFilter{RecipientAddress: "recipient-a"}, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, a.ID, byRecipient[0].ID)

	bySub, total, err := repo.List(ctx, entities.InvoiceFilter{SubscriptionID: &subID}, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, b.ID, bySub[0].ID)
	require.Equal(t, subID, *bySub[0].SubscriptionID)

	paged, total, err := repo.List(ctx, entities.InvoiceFilter{Status: entities.InvoiceStatusPending}, 1, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, paged, 1)
	require.Equal(t, a.ID, paged[0].ID)

	_, err = repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestInvoiceRepository_MarkPaid(t *testing.T) {
	db := newTestDB(t)
	createInvoiceTable(t, db)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()

	inv := newInvoice("INV-20260101-CCCCCC", "recipient")
	require.NoError(t, repo.Create(ctx, inv))

	paidAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	changed, err := repo.MarkPaid(ctx, entities.InvoicePaidRequest{
		InvoiceID:    inv.ID,
		PaidAt:       paidAt,
		PayerAddress: "0xpayer",
		TxRef:        "0xsource",
	})
	require.NoError(t, err)
	require.True(t, changed)

	got, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, entities.InvoiceStatusPaid, got.Status)
	require.True(t, got.PaidAt.Valid)
	require.True(t, paidAt.Equal(got.PaidAt.Time))
	require.Equal(t, "0xpayer", got.PayerAddress.String)
	require.Equal(t, "0xsource", got.TxRef.String)
	require.False(t, got.BridgeTxRef.Valid, "same-chain settlement has no bridge leg")
	require.False(t, got.BridgeDirection.Valid)

	changed, err = repo.MarkPaid(ctx, entities.InvoicePaidRequest{
		InvoiceID:    inv.ID,
		PaidAt:       paidAt.Add(time.Hour),
		PayerAddress: "0xother",
		TxRef:        "0xlate",
	})
	require.NoError(t, err)
	require.False(t, changed, "second confirmation must not modify the invoice")

	got, err = repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.True(t, paidAt.Equal(got.PaidAt.Time))
	require.Equal(t, "0xpayer", got.PayerAddress.String)
	require.Equal(t, "0xsource", got.TxRef.String)

	_, err = repo.MarkPaid(ctx, entities.InvoicePaidRequest{InvoiceID: uuid.New(), PaidAt: paidAt})
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestInvoiceRepository_MarkPaidStoresBridgeLeg(t *testing.T) {
	db := newTestDB(t)
	createInvoiceTable(t, db)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()

	inv := newInvoice("INV-20260101-DDDDDD", "recipient")
	require.NoError(t, repo.Create(ctx, inv))

	changed, err := repo.MarkPaid(ctx, entities.InvoicePaidRequest{
		InvoiceID:       inv.ID,
		PaymentID:       uuid.New(),
		PaidAt:          time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		PayerAddress:    "0xpayer",
		TxRef:           "0xbase-leg",
		BridgeTxRef:     "5solanaLegSignature",
		BridgeDirection: "base-to-solana",
	})
	require.NoError(t, err)
	require.True(t, changed)

	got, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, entities.InvoiceStatusPaid, got.Status)
	require.Equal(t, "0xbase-leg", got.TxRef.String)
	require.Equal(t, "5solanaLegSignature", got.BridgeTxRef.String)
	require.Equal(t, "base-to-solana", got.BridgeDirection.String)
}
