package models

import (
	"time"

	"github.com/google/uuid"
)

type Payment struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	InvoiceID          uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_payments_invoice_tx"`
	Amount             string    `gorm:"type:varchar(100);not null"` // base units
	TokenAddress       string    `gorm:"type:varchar(255);not null"`
	TokenSymbol        string    `gorm:"type:varchar(20);not null"`
	PayerAddress       *string   `gorm:"type:varchar(255)"`
	SourceChain        string    `gorm:"type:varchar(20);not null"`
	DestinationChain   string    `gorm:"type:varchar(20);not null"`
	Route              string    `gorm:"type:varchar(30);not null"`
	BridgeDirection    *string   `gorm:"type:varchar(50)"`
	TxHash             string    `gorm:"type:varchar(255);not null;index;uniqueIndex:idx_payments_invoice_tx"`
	BridgeTxHash       *string   `gorm:"type:varchar(255);index"`
	SourceLegConfirmed bool      `gorm:"not null;default:false"`
	Status             string    `gorm:"type:varchar(20);not null;index"`
	FailureReason      *string   `gorm:"type:text"`
	ConfirmedAt        *time.Time
	CreatedAt          time.Time `gorm:"index"`
	UpdatedAt          time.Time
}

func (Payment) TableName() string {
	return "payments"
}

type PaymentEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	PaymentID uuid.UUID `gorm:"type:uuid;not null;index"`
	EventType string    `gorm:"type:varchar(50);not null;index"`
	Chain     string    `gorm:"type:varchar(20)"`
	TxHash    string    `gorm:"type:varchar(255)"`
	Status    string    `gorm:"type:varchar(20);not null"`
	Detail    string    `gorm:"type:text"`
	CreatedAt time.Time
}

func (PaymentEvent) TableName() string {
	return "payment_events"
}
