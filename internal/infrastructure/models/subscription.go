package models

import (
	"time"

	"github.com/google/uuid"
)

type Subscription struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name             string    `gorm:"type:varchar(255);not null"`
	Amount           string    `gorm:"type:varchar(100);not null"`
	TokenAddress     string    `gorm:"type:varchar(255);not null"`
	TokenSymbol      string    `gorm:"type:varchar(20);not null"`
	TokenDecimals    int       `gorm:"not null"`
	Chain            string    `gorm:"type:varchar(20);not null"`
	DestinationChain string    `gorm:"type:varchar(20);not null"`
	RecipientAddress string    `gorm:"type:varchar(255);not null;index"`
	PayerAddress     string    `gorm:"type:varchar(255);not null;index"`
	CreatorAddress   string    `gorm:"type:varchar(255);not null"`
	Frequency        string    `gorm:"type:varchar(20);not null"`
	NextBillingDate  time.Time `gorm:"not null;index"`
	LastBillingDate  *time.Time
	Status           string  `gorm:"type:varchar(20);not null;index"`
	Description      *string `gorm:"type:text"`
	CancelledAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Subscription) TableName() string {
	return "subscriptions"
}
