package repositories

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createInvoiceTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE invoices (
		id TEXT PRIMARY KEY,
		invoice_number TEXT NOT NULL UNIQUE,
		amount TEXT NOT NULL,
		token_address TEXT NOT NULL,
		token_symbol TEXT NOT NULL,
		token_decimals INTEGER NOT NULL,
		chain TEXT NOT NULL,
		destination_chain TEXT NOT NULL,
		recipient_address TEXT NOT NULL,
		payer_address TEXT,
		creator_address TEXT NOT NULL,
		description TEXT,
		notes TEXT,
		due_date DATETIME,
		status TEXT NOT NULL,
		subscription_id TEXT,
		paid_at DATETIME,
		tx_hash TEXT,
		bridge_tx_hash TEXT,
		bridge_direction TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createSubscriptionTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE subscriptions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		token_address TEXT NOT NULL,
		token_symbol TEXT NOT NULL,
		token_decimals INTEGER NOT NULL,
		chain TEXT NOT NULL,
		destination_chain TEXT NOT NULL,
		recipient_address TEXT NOT NULL,
		payer_address TEXT NOT NULL,
		creator_address TEXT NOT NULL,
		frequency TEXT NOT NULL,
		next_billing_date DATETIME NOT NULL,
		last_billing_date DATETIME,
		status TEXT NOT NULL,
		description TEXT,
		cancelled_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createPaymentTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		invoice_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		token_address TEXT NOT NULL,
		token_symbol TEXT NOT NULL,
		payer_address TEXT,
		source_chain TEXT NOT NULL,
		destination_chain TEXT NOT NULL,
		route TEXT NOT NULL,
		bridge_direction TEXT,
		tx_hash TEXT NOT NULL,
		bridge_tx_hash TEXT,
		source_leg_confirmed BOOLEAN NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		failure_reason TEXT,
		confirmed_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE(invoice_id, tx_hash)
	);`)
	mustExec(t, db, `CREATE TABLE payment_events (
		id TEXT PRIMARY KEY,
		payment_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		chain TEXT,
		tx_hash TEXT,
		status TEXT NOT NULL,
		detail TEXT,
		created_at DATETIME
	);`)
}
