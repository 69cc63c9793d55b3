package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusSubmitted  PaymentStatus = "SUBMITTED"
	PaymentStatusConfirming PaymentStatus = "CONFIRMING"
	PaymentStatusConfirmed  PaymentStatus = "CONFIRMED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
)

// ParsePaymentStatus accepts the lifecycle names plus the PENDING alias used
// by status feeds for a not yet included transaction.
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case PaymentStatusSubmitted, "PENDING":
		return PaymentStatusSubmitted, true
	case PaymentStatusConfirming:
		return PaymentStatusConfirming, true
	case PaymentStatusConfirmed, "COMPLETED":
		return PaymentStatusConfirmed, true
	case PaymentStatusFailed:
		return PaymentStatusFailed, true
	}
	return "", false
}

// IsTerminal reports whether no further transitions are allowed.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusConfirmed || s == PaymentStatusFailed
}

// PaymentEventType represents payment event type
type PaymentEventType string

const (
	PaymentEventTypeSubmitted        PaymentEventType = "SUBMITTED"
	PaymentEventTypeConfirming       PaymentEventType = "CONFIRMING"
	PaymentEventTypeSourceConfirmed  PaymentEventType = "SOURCE_CONFIRMED"
	PaymentEventTypeDestinationTxRef PaymentEventType = "DESTINATION_TX_REF"
	PaymentEventTypeConfirmed        PaymentEventType = "CONFIRMED"
	PaymentEventTypeFailed           PaymentEventType = "FAILED"
	PaymentEventTypeTimeout          PaymentEventType = "TIMEOUT"
)

// Payment is the tracked record of one submitted pay action.
type Payment struct {
	ID                 uuid.UUID     `json:"id"`
	InvoiceID          uuid.UUID     `json:"invoiceId"`
	Amount             string        `json:"amount"`
	TokenAddress       string        `json:"tokenAddress"`
	TokenSymbol        string        `json:"tokenSymbol"`
	PayerAddress       null.String   `json:"payerAddress,omitempty"`
	SourceChain        ChainID       `json:"chain"`
	DestinationChain   ChainID       `json:"destinationChain"`
	Route              RouteKind     `json:"route"`
	BridgeDirection    null.String   `json:"bridgeDirection,omitempty"`
	TxRef              string        `json:"txHash"`
	BridgeTxRef        null.String   `json:"bridgeTxHash,omitempty"`
	SourceLegConfirmed bool          `json:"sourceLegConfirmed"`
	Status             PaymentStatus `json:"status"`
	FailureReason      null.String   `json:"failureReason,omitempty"`
	ConfirmedAt        null.Time     `json:"confirmedAt,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// IsBridged reports whether the payment has a destination-chain leg.
func (p *Payment) IsBridged() bool {
	return p.Route == RouteCrossChainBridged
}

// PaymentEvent is an append-only audit entry for an applied signal.
type PaymentEvent struct {
	ID        uuid.UUID        `json:"id"`
	PaymentID uuid.UUID        `json:"paymentId"`
	EventType PaymentEventType `json:"eventType"`
	Chain     ChainID          `json:"chain,omitempty"`
	TxRef     string           `json:"txHash,omitempty"`
	Status    PaymentStatus    `json:"status"`
	Detail    string           `json:"detail,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// RegisterPaymentInput is the request to start tracking a submitted transaction.
type RegisterPaymentInput struct {
	InvoiceID    uuid.UUID `json:"invoiceId" binding:"required"`
	TxRef        string    `json:"txHash" binding:"required"`
	PayerAddress string    `json:"payerAddress"`
	BridgeTxRef  string    `json:"bridgeTxHash"`
}

// PaymentStatusUpdate is one observation delivered by a status feed. Either
// PaymentID or TxRef identifies the payment.
type PaymentStatusUpdate struct {
	PaymentID   uuid.UUID
	InvoiceID   uuid.UUID
	TxRef       string
	Status      PaymentStatus
	BridgeTxRef string
	Reason      string
}

// UpdatePaymentInput is a manual status report for one payment.
type UpdatePaymentInput struct {
	Status       string `json:"status"`
	BridgeTxRef  string `json:"bridgeTxHash"`
	FailedReason string `json:"reason"`
}

// PaymentStatusWebhookInput is the body posted by status feeds such as
// bridge relayers and indexers.
type PaymentStatusWebhookInput struct {
	PaymentID   string `json:"paymentId"`
	InvoiceID   string `json:"invoiceId"`
	TxRef       string `json:"txHash"`
	Status      string `json:"status"`
	BridgeTxRef string `json:"bridgeTxHash"`
	Reason      string `json:"reason"`
}
