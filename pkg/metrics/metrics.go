package metrics

import "time"

// Recorder receives payment and billing counters.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// Counter names
const (
	PaymentTransition = "payment_transition"
	PaymentAbsorbed   = "payment_signal_absorbed"
	InvoicePaid       = "invoice_paid"
	BillingInvoice    = "billing_invoice"
	BillingError      = "billing_error"
	BillingSkipped    = "billing_skipped"
	CallConstructed   = "call_constructed"
	BillingRun        = "billing_run"
)
