package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// InvoiceStatus represents invoice status
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Invoice is a request for payment of a fixed token amount.
type Invoice struct {
	ID               uuid.UUID     `json:"id"`
	InvoiceNumber    string        `json:"invoiceNumber"`
	Amount           string        `json:"amount"`
	TokenAddress     string        `json:"tokenAddress"`
	TokenSymbol      string        `json:"tokenSymbol"`
	TokenDecimals    uint8         `json:"tokenDecimals"`
	Chain            ChainID       `json:"chain"`
	DestinationChain ChainID       `json:"destinationChain"`
	RecipientAddress string        `json:"recipientAddress"`
	PayerAddress     null.String   `json:"payerAddress,omitempty"`
	CreatorAddress   string        `json:"creatorAddress"`
	Description      null.String   `json:"description,omitempty"`
	Notes            null.String   `json:"notes,omitempty"`
	DueDate          null.Time     `json:"dueDate,omitempty"`
	Status           InvoiceStatus `json:"status"`
	SubscriptionID   *uuid.UUID    `json:"subscriptionId,omitempty"`
	PaidAt           null.Time     `json:"paidAt,omitempty"`
	TxRef            null.String   `json:"txHash,omitempty"`
	BridgeTxRef      null.String   `json:"bridgeTxHash,omitempty"`
	BridgeDirection  null.String   `json:"bridgeDirection,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// Intent builds the payment intent for settling this invoice.
func (i *Invoice) Intent() PaymentIntent {
	return PaymentIntent{
		Amount:           i.Amount,
		TokenAddress:     i.TokenAddress,
		TokenDecimals:    i.TokenDecimals,
		RecipientAddress: i.RecipientAddress,
		SourceChain:      i.Chain,
		DestinationChain: i.DestinationChain,
	}
}

// CreateInvoiceInput represents create invoice request
type CreateInvoiceInput struct {
	Amount           string     `json:"amount" binding:"required"`
	TokenAddress     string     `json:"tokenAddress" binding:"required"`
	TokenSymbol      string     `json:"tokenSymbol" binding:"required"`
	TokenDecimals    *uint8     `json:"tokenDecimals" binding:"required"`
	Chain            string     `json:"chain" binding:"required,chain"`
	DestinationChain string     `json:"destinationChain" binding:"required,chain"`
	RecipientAddress string     `json:"recipientAddress" binding:"required"`
	PayerAddress     string     `json:"payerAddress"`
	CreatorAddress   string     `json:"creatorAddress" binding:"required"`
	Description      string     `json:"description"`
	DueDate          *time.Time `json:"dueDate"`
	Notes            string     `json:"notes"`
}

// InvoiceFilter narrows invoice listings. Empty fields are ignored.
type InvoiceFilter struct {
	RecipientAddress string
	CreatorAddress   string
	Status           InvoiceStatus
	SubscriptionID   *uuid.UUID
}

// InvoicePaidRequest is emitted once when a payment for the invoice is confirmed.
type InvoicePaidRequest struct {
	InvoiceID       uuid.UUID
	PaymentID       uuid.UUID
	PaidAt          time.Time
	PayerAddress    string
	TxRef           string
	BridgeTxRef     string
	BridgeDirection string
}
