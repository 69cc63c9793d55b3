package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// BillingFrequency represents how often a subscription is billed
type BillingFrequency string

const (
	FrequencyDaily     BillingFrequency = "DAILY"
	FrequencyWeekly    BillingFrequency = "WEEKLY"
	FrequencyMonthly   BillingFrequency = "MONTHLY"
	FrequencyQuarterly BillingFrequency = "QUARTERLY"
	FrequencyYearly    BillingFrequency = "YEARLY"
)

func (f BillingFrequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// SubscriptionStatus represents subscription status
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPaused    SubscriptionStatus = "PAUSED"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionStatusExpired   SubscriptionStatus = "EXPIRED"
)

// IsFinal reports whether the subscription can never bill again.
func (s SubscriptionStatus) IsFinal() bool {
	return s == SubscriptionStatusCancelled || s == SubscriptionStatusExpired
}

// Subscription is a recurring invoice template.
type Subscription struct {
	ID               uuid.UUID          `json:"id"`
	Name             string             `json:"name"`
	Amount           string             `json:"amount"`
	TokenAddress     string             `json:"tokenAddress"`
	TokenSymbol      string             `json:"tokenSymbol"`
	TokenDecimals    uint8              `json:"tokenDecimals"`
	Chain            ChainID            `json:"chain"`
	DestinationChain ChainID            `json:"destinationChain"`
	RecipientAddress string             `json:"recipientAddress"`
	PayerAddress     string             `json:"payerAddress"`
	CreatorAddress   string             `json:"creatorAddress"`
	Frequency        BillingFrequency   `json:"frequency"`
	NextBillingDate  time.Time          `json:"nextBillingDate"`
	LastBillingDate  null.Time          `json:"lastBillingDate,omitempty"`
	Status           SubscriptionStatus `json:"status"`
	Description      null.String        `json:"description,omitempty"`
	CancelledAt      null.Time          `json:"cancelledAt,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// CreateSubscriptionInput represents create subscription request
type CreateSubscriptionInput struct {
	Name             string `json:"name" binding:"required"`
	Amount           string `json:"amount" binding:"required"`
	TokenAddress     string `json:"tokenAddress" binding:"required"`
	TokenSymbol      string `json:"tokenSymbol" binding:"required"`
	TokenDecimals    *uint8 `json:"tokenDecimals" binding:"required"`
	Chain            string `json:"chain" binding:"required,chain"`
	DestinationChain string `json:"destinationChain" binding:"required,chain"`
	RecipientAddress string `json:"recipientAddress" binding:"required"`
	PayerAddress     string `json:"payerAddress" binding:"required"`
	CreatorAddress   string `json:"creatorAddress" binding:"required"`
	Frequency        string `json:"frequency" binding:"required,oneof=DAILY WEEKLY MONTHLY QUARTERLY YEARLY"`
	Description      string `json:"description"`
}

// UpdateSubscriptionStatusInput represents a status change request
type UpdateSubscriptionStatusInput struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE PAUSED CANCELLED"`
}

// SubscriptionFilter narrows subscription listings. Empty fields are ignored.
type SubscriptionFilter struct {
	RecipientAddress string
	PayerAddress     string
	Status           SubscriptionStatus
}

// InvoiceRequest is the scheduler's request to create one invoice for a
// billing cycle.
type InvoiceRequest struct {
	SubscriptionID   uuid.UUID
	Amount           string
	TokenAddress     string
	TokenSymbol      string
	TokenDecimals    uint8
	Chain            ChainID
	DestinationChain ChainID
	RecipientAddress string
	PayerAddress     string
	CreatorAddress   string
	Description      string
	DueDate          time.Time
}

// SubscriptionUpdate is the scheduler's request to advance one subscription.
// PreviousNextBillingDate guards against two runs advancing the same cycle.
type SubscriptionUpdate struct {
	SubscriptionID          uuid.UUID
	PreviousNextBillingDate time.Time
	NextBillingDate         time.Time
	LastBillingDate         time.Time
}

// BillingItem pairs the invoice and the advance produced for one due subscription.
type BillingItem struct {
	Invoice InvoiceRequest
	Update  SubscriptionUpdate
}

// SubscriptionError records why one subscription could not be billed.
type SubscriptionError struct {
	SubscriptionID uuid.UUID `json:"subscriptionId"`
	Err            error     `json:"-"`
	Message        string    `json:"error"`
}

func (e SubscriptionError) Error() string {
	return e.SubscriptionID.String() + ": " + e.Message
}

func (e SubscriptionError) Unwrap() error {
	return e.Err
}

// BillingRun is the outcome of planning or executing one scheduler run.
type BillingRun struct {
	Items  []BillingItem
	Errors []SubscriptionError
}
