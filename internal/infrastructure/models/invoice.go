package models

import (
	"time"

	"github.com/google/uuid"
)

type Invoice struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	InvoiceNumber    string     `gorm:"type:varchar(50);uniqueIndex;not null"`
	Amount           string     `gorm:"type:varchar(100);not null"` // decimal string
	TokenAddress     string     `gorm:"type:varchar(255);not null"`
	TokenSymbol      string     `gorm:"type:varchar(20);not null"`
	TokenDecimals    int        `gorm:"not null"`
	Chain            string     `gorm:"type:varchar(20);not null"`
	DestinationChain string     `gorm:"type:varchar(20);not null"`
	RecipientAddress string     `gorm:"type:varchar(255);not null;index"`
	PayerAddress     *string    `gorm:"type:varchar(255)"`
	CreatorAddress   string     `gorm:"type:varchar(255);not null;index"`
	Description      *string    `gorm:"type:text"`
	Notes            *string    `gorm:"type:text"`
	DueDate          *time.Time
	Status           string     `gorm:"type:varchar(20);not null;index"`
	SubscriptionID   *uuid.UUID `gorm:"type:uuid;index"`
	PaidAt           *time.Time
	TxHash           *string `gorm:"type:varchar(255)"`
	BridgeTxHash     *string `gorm:"type:varchar(255)"`
	BridgeDirection  *string `gorm:"type:varchar(50)"`
	CreatedAt        time.Time `gorm:"index"`
	UpdatedAt        time.Time
}

func (Invoice) TableName() string {
	return "invoices"
}
