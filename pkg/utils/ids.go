package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

var newUUIDv7 = uuid.NewV7

// GenerateUUIDv7 generates a new UUID v7
func GenerateUUIDv7() uuid.UUID {
	id, err := newUUIDv7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// GenerateInvoiceNumber returns a human-readable invoice number of the form
// INV-YYYYMMDD-XXXXXX.
func GenerateInvoiceNumber(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "INV-" + now.UTC().Format("20060102") + "-" + strings.ToUpper(suffix[:6])
}
