package repositories

import (
	"fmt"

	"gorm.io/gorm"

	"paybridge.backend/internal/infrastructure/models"
)

// AutoMigrate creates or updates the invoice, subscription and payment tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Invoice{},
		&models.Subscription{},
		&models.Payment{},
		&models.PaymentEvent{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
