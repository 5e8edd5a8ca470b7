// Package repository persists cart audits.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/themizzi/shopcheck/internal/models"
)

// ErrAuditNotFound is returned when no audit has the requested id.
var ErrAuditNotFound = errors.New("audit not found")

// AuditRepository handles database operations for cart audits
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates an audit repository on db
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create stores an audit and its mismatched lines in one transaction
func (r *AuditRepository) Create(ctx context.Context, audit *models.CartAudit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cart_audits (id, address, line_count, cart_value, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, audit.ID, audit.Address, audit.Lines, audit.Value, string(audit.Status), audit.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create audit: %w", err)
	}

	for _, m := range audit.Mismatches {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cart_audit_mismatches (audit_id, product_id, price, quantity, total)
			VALUES ($1, $2, $3, $4, $5)
		`, audit.ID, m.ID, m.Price, m.Quantity, m.Total)
		if err != nil {
			return fmt.Errorf("failed to store mismatch for product %d: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit: %w", err)
	}
	return nil
}

// GetByID retrieves an audit with its mismatches
func (r *AuditRepository) GetByID(ctx context.Context, id string) (*models.CartAudit, error) {
	audit := &models.CartAudit{}
	var status string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, address, line_count, cart_value, status, created_at
		FROM cart_audits
		WHERE id = $1
	`, id).Scan(&audit.ID, &audit.Address, &audit.Lines, &audit.Value, &status, &audit.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrAuditNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}
	audit.Status = models.AuditStatus(status)

	if audit.Mismatches, err = r.mismatches(ctx, audit.ID); err != nil {
		return nil, err
	}
	return audit, nil
}

// List returns up to limit audits, newest first
func (r *AuditRepository) List(ctx context.Context, limit int) ([]*models.CartAudit, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, address, line_count, cart_value, status, created_at
		FROM cart_audits
		ORDER BY created_at DESC, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}
	defer rows.Close()

	var audits []*models.CartAudit
	for rows.Next() {
		audit := &models.CartAudit{}
		var status string
		if err := rows.Scan(&audit.ID, &audit.Address, &audit.Lines, &audit.Value, &status, &audit.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}
		audit.Status = models.AuditStatus(status)
		audits = append(audits, audit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}

	for _, audit := range audits {
		if audit.Mismatches, err = r.mismatches(ctx, audit.ID); err != nil {
			return nil, err
		}
	}
	return audits, nil
}

func (r *AuditRepository) mismatches(ctx context.Context, auditID string) ([]models.LineTotalMismatchError, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, price, quantity, total
		FROM cart_audit_mismatches
		WHERE audit_id = $1
		ORDER BY product_id
	`, auditID)
	if err != nil {
		return nil, fmt.Errorf("failed to get mismatches: %w", err)
	}
	defer rows.Close()

	var mismatches []models.LineTotalMismatchError
	for rows.Next() {
		var m models.LineTotalMismatchError
		if err := rows.Scan(&m.ID, &m.Price, &m.Quantity, &m.Total); err != nil {
			return nil, fmt.Errorf("failed to scan mismatch: %w", err)
		}
		mismatches = append(mismatches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get mismatches: %w", err)
	}
	return mismatches, nil
}
