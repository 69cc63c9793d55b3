package usecases

import (
	"fmt"
	"time"

	"paybridge.backend/internal/domain/entities"
	domainerrors "paybridge.backend/internal/domain/errors"
)

// NextBillingDate returns the due date one cycle after from.
//
// Calendar month and year steps clamp to the last day of the target month
// (Jan 31 + 1 month = Feb 28, or Feb 29 in a leap year). The clamped day is
// carried forward, so Jan 31 -> Feb 28 -> Mar 28. Time of day and location
// are preserved.
func NextBillingDate(freq entities.BillingFrequency, from time.Time) (time.Time, error) {
	switch freq {
	case entities.FrequencyDaily:
		return from.AddDate(0, 0, 1), nil
	case entities.FrequencyWeekly:
		return from.AddDate(0, 0, 7), nil
	case entities.FrequencyMonthly:
		return addMonthsClamped(from, 1), nil
	case entities.FrequencyQuarterly:
		return addMonthsClamped(from, 3), nil
	case entities.FrequencyYearly:
		return addMonthsClamped(from, 12), nil
	}
	return time.Time{}, fmt.Errorf("%w: unknown billing frequency %q", domainerrors.ErrInvalidInput, freq)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	target := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// IsDue reports whether sub should be billed at now.
func IsDue(sub *entities.Subscription, now time.Time) bool {
	return sub.Status == entities.SubscriptionStatusActive && !sub.NextBillingDate.After(now)
}

// AdvanceSubscription computes the update for one billed cycle. The next
// date steps from the scheduled date, not from now, so late runs do not
// drift the schedule.
func AdvanceSubscription(sub *entities.Subscription, now time.Time) (entities.SubscriptionUpdate, error) {
	if sub.Status != entities.SubscriptionStatusActive {
		return entities.SubscriptionUpdate{}, fmt.Errorf("%w: subscription %s is %s", domainerrors.ErrInvalidState, sub.ID, sub.Status)
	}
	next, err := NextBillingDate(sub.Frequency, sub.NextBillingDate)
	if err != nil {
		return entities.SubscriptionUpdate{}, err
	}
	return entities.SubscriptionUpdate{
		SubscriptionID:          sub.ID,
		PreviousNextBillingDate: sub.NextBillingDate,
		NextBillingDate:         next,
		LastBillingDate:         now,
	}, nil
}

// PlanBillingRun selects the due subscriptions among candidates and returns
// one invoice request and one advance per subscription. A subscription that
// is several cycles overdue is still billed and advanced once. Candidates
// that are not due are skipped; a candidate that cannot be planned is
// reported in Errors without affecting the others.
func PlanBillingRun(now time.Time, candidates []*entities.Subscription) entities.BillingRun {
	run := entities.BillingRun{}
	for _, sub := range candidates {
		if sub == nil || !IsDue(sub, now) {
			continue
		}
		item, err := planBillingItem(sub, now)
		if err != nil {
			run.Errors = append(run.Errors, entities.SubscriptionError{
				SubscriptionID: sub.ID,
				Err:            err,
				Message:        err.Error(),
			})
			continue
		}
		run.Items = append(run.Items, item)
	}
	return run
}

func planBillingItem(sub *entities.Subscription, now time.Time) (entities.BillingItem, error) {
	if _, err := entities.ParseTokenAmount(sub.Amount, sub.TokenDecimals); err != nil {
		return entities.BillingItem{}, err
	}
	update, err := AdvanceSubscription(sub, now)
	if err != nil {
		return entities.BillingItem{}, err
	}
	return entities.BillingItem{
		Invoice: entities.InvoiceRequest{
			SubscriptionID:   sub.ID,
			Amount:           sub.Amount,
			TokenAddress:     sub.TokenAddress,
			TokenSymbol:      sub.TokenSymbol,
			TokenDecimals:    sub.TokenDecimals,
			Chain:            sub.Chain,
			DestinationChain: sub.DestinationChain,
			RecipientAddress: sub.RecipientAddress,
			PayerAddress:     sub.PayerAddress,
			CreatorAddress:   sub.CreatorAddress,
			Description:      "Subscription: " + sub.Name,
		},
		Update: update,
	}, nil
}
