package usecases

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paybridge.backend/internal/domain/entities"
	domainerrors "paybridge.backend/internal/domain/errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func TestNextBillingDate(t *testing.T) {
	cases := []struct {
		name string
		freq entities.BillingFrequency
		from time.Time
		want time.Time
	}{
		{"daily", entities.FrequencyDaily, date(2024, 12, 31), date(2025, 1, 1)},
		{"weekly", entities.FrequencyWeekly, date(2024, 2, 26), date(2024, 3, 4)},
		{"monthly clamps non-leap", entities.FrequencyMonthly, date(2023, 1, 31), date(2023, 2, 28)},
		{"monthly clamps leap", entities.FrequencyMonthly, date(2024, 1, 31), date(2024, 2, 29)},
		{"monthly plain", entities.FrequencyMonthly, date(2024, 3, 15), date(2024, 4, 15)},
		{"monthly to 30-day month", entities.FrequencyMonthly, date(2024, 3, 31), date(2024, 4, 30)},
		{"quarterly clamps", entities.FrequencyQuarterly, date(2024, 11, 30), date(2025, 2, 28)},
		{"quarterly year wrap", entities.FrequencyQuarterly, date(2024, 10, 1), date(2025, 1, 1)},
		{"yearly from leap day", entities.FrequencyYearly, date(2024, 2, 29), date(2025, 2, 28)},
		{"yearly plain", entities.FrequencyYearly, date(2024, 6, 1), date(2025, 6, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextBillingDate(tc.freq, tc.from)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s got %s", tc.want, got)
		})
	}

	_, err := NextBillingDate("HOURLY", date(2024, 1, 1))
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestNextBillingDate_PreservesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	from := time.Date(2024, 1, 31, 23, 15, 0, 0, loc)
	got, err := NextBillingDate(entities.FrequencyMonthly, from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 15, 0, 0, loc), got)
	assert.Equal(t, loc, got.Location())
}

func newSub(status entities.SubscriptionStatus, next time.Time) *entities.Subscription {
	return &entities.Subscription{
		ID:               uuid.New(),
		Name:             "Pro plan",
		Amount:           "10.50",
		TokenAddress:     testUSDCBase,
		TokenSymbol:      "USDC",
		TokenDecimals:    6,
		Chain:            entities.ChainA,
		DestinationChain: entities.ChainB,
		RecipientAddress: testSolRecipient,
		PayerAddress:     testBaseRecipient,
		CreatorAddress:   testBaseRecipient,
		Frequency:        entities.FrequencyMonthly,
		NextBillingDate:  next,
		Status:           status,
	}
}

func TestIsDue(t *testing.T) {
	now := date(2024, 5, 1)
	assert.True(t, IsDue(newSub(entities.SubscriptionStatusActive, now), now))
	assert.True(t, IsDue(newSub(entities.SubscriptionStatusActive, now.Add(-time.Hour)), now))
	assert.False(t, IsDue(newSub(entities.SubscriptionStatusActive, now.Add(time.Second)), now))
	for _, s := range []entities.SubscriptionStatus{
		entities.SubscriptionStatusPaused,
		entities.SubscriptionStatusCancelled,
		entities.SubscriptionStatusExpired,
	} {
		assert.False(t, IsDue(newSub(s, now.Add(-time.Hour)), now), s)
	}
}

func TestAdvanceSubscription(t *testing.T) {
	scheduled := date(2024, 1, 31)
	now := date(2024, 2, 3)
	sub := newSub(entities.SubscriptionStatusActive, scheduled)

	update, err := AdvanceSubscription(sub, now)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, update.SubscriptionID)
	assert.Equal(t, scheduled, update.PreviousNextBillingDate)
	assert.Equal(t, date(2024, 2, 29), update.NextBillingDate)
	assert.Equal(t, now, update.LastBillingDate)
	// input is not mutated
	assert.Equal(t, scheduled, sub.NextBillingDate)
}

func TestAdvanceSubscription_InactiveFails(t *testing.T) {
	for _, s := range []entities.SubscriptionStatus{
		entities.SubscriptionStatusPaused,
		entities.SubscriptionStatusCancelled,
		entities.SubscriptionStatusExpired,
	} {
		_, err := AdvanceSubscription(newSub(s, date(2024, 1, 1)), date(2024, 2, 1))
		assert.ErrorIs(t, err, domainerrors.ErrInvalidState, s)
	}
}

func TestPlanBillingRun(t *testing.T) {
	now := date(2024, 6, 1)

	due := newSub(entities.SubscriptionStatusActive, date(2024, 5, 31))
	overdue := newSub(entities.SubscriptionStatusActive, date(2024, 1, 15))
	future := newSub(entities.SubscriptionStatusActive, date(2024, 6, 2))
	paused := newSub(entities.SubscriptionStatusPaused, date(2024, 5, 1))
	broken := newSub(entities.SubscriptionStatusActive, date(2024, 5, 1))
	broken.Amount = "1.1234567"
	badFreq := newSub(entities.SubscriptionStatusActive, date(2024, 5, 1))
	badFreq.Frequency = "HOURLY"

	run := PlanBillingRun(now, []*entities.Subscription{due, overdue, future, paused, broken, nil, badFreq})

	require.Len(t, run.Items, 2)
	assert.Equal(t, due.ID, run.Items[0].Invoice.SubscriptionID)
	assert.Equal(t, date(2024, 6, 30), run.Items[0].Update.NextBillingDate)
	assert.Equal(t, "Subscription: Pro plan", run.Items[0].Invoice.Description)
	assert.Equal(t, "10.50", run.Items[0].Invoice.Amount)
	assert.Equal(t, entities.ChainB, run.Items[0].Invoice.DestinationChain)

	// several cycles behind: one invoice, one step
	assert.Equal(t, overdue.ID, run.Items[1].Update.SubscriptionID)
	assert.Equal(t, date(2024, 2, 15), run.Items[1].Update.NextBillingDate)
	assert.Equal(t, now, run.Items[1].Update.LastBillingDate)

	require.Len(t, run.Errors, 2)
	assert.Equal(t, broken.ID, run.Errors[0].SubscriptionID)
	assert.ErrorIs(t, run.Errors[0], domainerrors.ErrInvalidAmount)
	assert.Equal(t, badFreq.ID, run.Errors[1].SubscriptionID)
	assert.ErrorIs(t, run.Errors[1], domainerrors.ErrInvalidInput)
}

func TestPlanBillingRun_Empty(t *testing.T) {
	run := PlanBillingRun(date(2024, 1, 1), nil)
	assert.Empty(t, run.Items)
	assert.Empty(t, run.Errors)
}
