package usecases_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"paybridge.backend/internal/domain/entities"
	domainerrors "paybridge.backend/internal/domain/errors"
)

// memoryPayments is a PaymentRepository that stores copies, so a payment
// mutated by one caller is never seen by another until Update.
type memoryPayments struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]entities.Payment
	updates int
	// beforeCreate runs ahead of the insert, outside the lock.
	beforeCreate func()
}

func newMemoryPayments(payments ...*entities.Payment) *memoryPayments {
	m := &memoryPayments{byID: map[uuid.UUID]entities.Payment{}}
	for _, p := range payments {
		m.byID[p.ID] = *p
	}
	return m
}

func (m *memoryPayments) Create(_ context.Context, p *entities.Payment) error {
	if m.beforeCreate != nil {
		m.beforeCreate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.InvoiceID == p.InvoiceID && existing.TxRef == p.TxRef {
			return domainerrors.ErrAlreadyExists
		}
	}
	m.byID[p.ID] = *p
	return nil
}

func (m *memoryPayments) GetByID(_ context.Context, id uuid.UUID) (*entities.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	return &p, nil
}

func (m *memoryPayments) GetByTxRef(_ context.Context, txRef string) (*entities.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.TxRef == txRef {
			return &p, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (m *memoryPayments) GetByInvoiceAndTxRef(_ context.Context, invoiceID uuid.UUID, txRef string) (*entities.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.InvoiceID == invoiceID && p.TxRef == txRef {
			return &p, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (m *memoryPayments) ListByInvoice(_ context.Context, invoiceID uuid.UUID, _, _ int) ([]*entities.Payment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entities.Payment
	for _, p := range m.byID {
		if p.InvoiceID == invoiceID {
			p := p
			out = append(out, &p)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memoryPayments) Update(_ context.Context, p *entities.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[p.ID] = *p
	m.updates++
	return nil
}

func (m *memoryPayments) ListStale(_ context.Context, before time.Time, _ int) ([]*entities.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entities.Payment
	for _, p := range m.byID {
		if !p.Status.IsTerminal() && p.CreatedAt.Before(before) {
			p := p
			out = append(out, &p)
		}
	}
	return out, nil
}

func (m *memoryPayments) ListAwaitingConfirmation(_ context.Context, chain entities.ChainID, _ int) ([]*entities.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entities.Payment
	for _, p := range m.byID {
		if !p.Status.IsTerminal() && !p.SourceLegConfirmed && p.SourceChain == chain {
			p := p
			out = append(out, &p)
		}
	}
	return out, nil
}

func (m *memoryPayments) get(id uuid.UUID) entities.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}

type memoryEvents struct {
	mu     sync.Mutex
	events []*entities.PaymentEvent
}

func (m *memoryEvents) Create(_ context.Context, e *entities.PaymentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memoryEvents) GetByPaymentID(_ context.Context, id uuid.UUID) ([]*entities.PaymentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entities.PaymentEvent
	for _, e := range m.events {
		if e.PaymentID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryEvents) types(id uuid.UUID) []entities.PaymentEventType {
	events, _ := m.GetByPaymentID(context.Background(), id)
	out := make([]entities.PaymentEventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.EventType)
	}
	return out
}

// passthroughUOW runs fn directly; the tracker's keyed lock provides the
// serialization under test.
type passthroughUOW struct{}

func (passthroughUOW) Do(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }
func (passthroughUOW) WithLock(ctx context.Context) context.Context               { return ctx }

type recordingSink struct {
	mu       sync.Mutex
	requests []entities.InvoicePaidRequest
	err      error
}

func (s *recordingSink) MarkInvoicePaid(_ context.Context, req entities.InvoicePaidRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.requests = append(s.requests, req)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{counts: map[string]int{}}
}

func (r *countingRecorder) IncCounter(name string, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[name]++
}

func (r *countingRecorder) ObserveLatency(string, time.Duration, map[string]string) {}

func (r *countingRecorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}
