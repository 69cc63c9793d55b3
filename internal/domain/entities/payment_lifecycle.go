package entities

import (
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	domainerrors "paybridge.backend/internal/domain/errors"
)

// SignalKind distinguishes the inputs accepted by the lifecycle.
type SignalKind string

const (
	// SignalStatus carries an observed status of the source-chain leg.
	SignalStatus SignalKind = "STATUS"
	// SignalDestinationLeg associates the destination-chain transaction.
	SignalDestinationLeg SignalKind = "DESTINATION_LEG"
	// SignalTimeout tells the payment to stop waiting.
	SignalTimeout SignalKind = "TIMEOUT"
)

// PaymentSignal is one external input to a payment's lifecycle.
type PaymentSignal struct {
	Kind   SignalKind
	Status PaymentStatus
	TxRef  string
	Reason string
}

func StatusSignal(status PaymentStatus, reason string) PaymentSignal {
	return PaymentSignal{Kind: SignalStatus, Status: status, Reason: reason}
}

func DestinationLegSignal(txRef string) PaymentSignal {
	return PaymentSignal{Kind: SignalDestinationLeg, TxRef: txRef}
}

func TimeoutSignal(reason string) PaymentSignal {
	return PaymentSignal{Kind: SignalTimeout, Reason: reason}
}

// TransitionOutcome reports what Apply did with a signal.
type TransitionOutcome string

const (
	OutcomeApplied         TransitionOutcome = "APPLIED"
	OutcomeDuplicate       TransitionOutcome = "DUPLICATE"
	OutcomeIgnoredTerminal TransitionOutcome = "IGNORED_TERMINAL"
	OutcomeRejected        TransitionOutcome = "REJECTED"
)

// Transition is the result of applying one signal.
type Transition struct {
	Outcome TransitionOutcome
	From    PaymentStatus
	To      PaymentStatus
	Events  []PaymentEventType
	// InvoicePaid is set only by the transition that enters Confirmed.
	InvoicePaid bool
}

// Changed reports whether the payment was modified and must be persisted.
func (t Transition) Changed() bool {
	return t.Outcome == OutcomeApplied
}

// Apply runs the forward-only lifecycle:
//
//	Submitted -> Confirming -> Confirmed
//	Submitted -> Confirming -> Failed
//	Submitted -> Failed
//
// Forward skips are allowed. Terminal states absorb every signal. A bridged
// payment is confirmed only once the source leg is confirmed and the
// destination leg is associated, in either order. Rejected signals return
// an ErrInvalidState error and leave the payment untouched.
func (p *Payment) Apply(sig PaymentSignal, now time.Time) (Transition, error) {
	t := Transition{From: p.Status, To: p.Status}

	if p.Status.IsTerminal() {
		if p.isRepeat(sig) {
			t.Outcome = OutcomeDuplicate
		} else {
			t.Outcome = OutcomeIgnoredTerminal
		}
		return t, nil
	}

	var err error
	switch sig.Kind {
	case SignalStatus:
		err = p.applyStatus(sig, now, &t)
	case SignalDestinationLeg:
		err = p.applyDestinationLeg(sig, now, &t)
	case SignalTimeout:
		reason := sig.Reason
		if reason == "" {
			reason = "confirmation timed out"
		}
		t.Events = append(t.Events, PaymentEventTypeTimeout)
		p.fail(reason, &t)
	default:
		err = fmt.Errorf("%w: unknown signal %q", domainerrors.ErrInvalidState, sig.Kind)
	}
	if err != nil {
		t.Outcome = OutcomeRejected
		return t, err
	}

	if t.Outcome == OutcomeApplied {
		p.UpdatedAt = now
	}
	t.To = p.Status
	return t, nil
}

func (p *Payment) applyStatus(sig PaymentSignal, now time.Time, t *Transition) error {
	switch sig.Status {
	case PaymentStatusSubmitted:
		if p.Status == PaymentStatusSubmitted {
			t.Outcome = OutcomeDuplicate
			return nil
		}
		return fmt.Errorf("%w: %s -> %s", domainerrors.ErrInvalidState, p.Status, sig.Status)

	case PaymentStatusConfirming:
		if p.Status == PaymentStatusConfirming {
			t.Outcome = OutcomeDuplicate
			return nil
		}
		p.Status = PaymentStatusConfirming
		t.Events = append(t.Events, PaymentEventTypeConfirming)
		t.Outcome = OutcomeApplied
		return nil

	case PaymentStatusConfirmed:
		if p.SourceLegConfirmed {
			t.Outcome = OutcomeDuplicate
			return nil
		}
		p.SourceLegConfirmed = true
		t.Events = append(t.Events, PaymentEventTypeSourceConfirmed)
		t.Outcome = OutcomeApplied
		if !p.IsBridged() || p.BridgeTxRef.Valid {
			p.confirm(now, t)
			return nil
		}
		p.enterConfirming(t)
		return nil

	case PaymentStatusFailed:
		reason := sig.Reason
		if reason == "" {
			reason = "transaction failed"
		}
		p.fail(reason, t)
		return nil
	}
	return fmt.Errorf("%w: unknown status %q", domainerrors.ErrInvalidState, sig.Status)
}

func (p *Payment) applyDestinationLeg(sig PaymentSignal, now time.Time, t *Transition) error {
	if sig.TxRef == "" {
		return fmt.Errorf("%w: empty destination transaction reference", domainerrors.ErrInvalidState)
	}
	if !p.IsBridged() {
		return fmt.Errorf("%w: same-chain payment has no destination leg", domainerrors.ErrInvalidState)
	}
	if p.BridgeTxRef.Valid {
		if p.BridgeTxRef.String == sig.TxRef {
			t.Outcome = OutcomeDuplicate
			return nil
		}
		return fmt.Errorf("%w: destination leg already set to %s", domainerrors.ErrInvalidState, p.BridgeTxRef.String)
	}

	p.BridgeTxRef = null.StringFrom(sig.TxRef)
	t.Events = append(t.Events, PaymentEventTypeDestinationTxRef)
	t.Outcome = OutcomeApplied
	if p.SourceLegConfirmed {
		p.confirm(now, t)
		return nil
	}
	// The bridge only relays included transactions, so the source leg is
	// at least Confirming once a destination leg exists.
	p.enterConfirming(t)
	return nil
}

func (p *Payment) enterConfirming(t *Transition) {
	if p.Status == PaymentStatusSubmitted {
		p.Status = PaymentStatusConfirming
		t.Events = append(t.Events, PaymentEventTypeConfirming)
	}
}

func (p *Payment) confirm(now time.Time, t *Transition) {
	p.Status = PaymentStatusConfirmed
	if !p.ConfirmedAt.Valid {
		p.ConfirmedAt = null.TimeFrom(now)
	}
	t.Events = append(t.Events, PaymentEventTypeConfirmed)
	t.InvoicePaid = true
}

func (p *Payment) fail(reason string, t *Transition) {
	p.Status = PaymentStatusFailed
	p.FailureReason = null.StringFrom(reason)
	t.Events = append(t.Events, PaymentEventTypeFailed)
	t.Outcome = OutcomeApplied
}

func (p *Payment) isRepeat(sig PaymentSignal) bool {
	switch sig.Kind {
	case SignalStatus:
		return sig.Status == p.Status
	case SignalDestinationLeg:
		return p.BridgeTxRef.Valid && p.BridgeTxRef.String == sig.TxRef
	case SignalTimeout:
		return p.Status == PaymentStatusFailed
	}
	return false
}
