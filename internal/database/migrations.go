package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema creates the audit tables. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS cart_audits (
	id UUID PRIMARY KEY,
	address VARCHAR(2048) NOT NULL,
	line_count INTEGER NOT NULL,
	cart_value INTEGER NOT NULL,
	status VARCHAR(16) NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_cart_audits_created_at ON cart_audits(created_at);
CREATE INDEX IF NOT EXISTS idx_cart_audits_status ON cart_audits(status);

CREATE TABLE IF NOT EXISTS cart_audit_mismatches (
	audit_id UUID NOT NULL REFERENCES cart_audits(id) ON DELETE CASCADE,
	product_id INTEGER NOT NULL,
	price INTEGER NOT NULL,
	quantity INTEGER NOT NULL,
	total INTEGER NOT NULL,
	PRIMARY KEY (audit_id, product_id)
);
`

// RunMigrations creates the necessary database tables
func RunMigrations(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database connection not initialized")
	}

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create audit tables: %w", err)
	}
	return nil
}
