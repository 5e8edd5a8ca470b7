package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuditStatus is the outcome of a cart audit
type AuditStatus string

// Audit statuses
const (
	AuditStatusPassed AuditStatus = "passed"
	AuditStatusFailed AuditStatus = "failed"
)

// CartAudit records the result of validating one cart snapshot
type CartAudit struct {
	ID         string
	Address    string
	Lines      int
	Value      int
	Mismatches []LineTotalMismatchError
	Status     AuditStatus
	CreatedAt  time.Time
}

// Domain errors
var (
	ErrInvalidAddress = errors.New("audit address cannot be empty")
)

// NewCartAudit builds an audit from a cart snapshot taken at address
func NewCartAudit(address string, cart Cart) (*CartAudit, error) {
	if strings.TrimSpace(address) == "" {
		return nil, ErrInvalidAddress
	}

	audit := &CartAudit{
		ID:        uuid.New().String(),
		Address:   address,
		Lines:     len(cart.Lines),
		Value:     cart.Value(),
		Status:    AuditStatusPassed,
		CreatedAt: time.Now(),
	}
	for _, m := range cart.Mismatches() {
		audit.Mismatches = append(audit.Mismatches, *m)
	}
	if len(audit.Mismatches) > 0 {
		audit.Status = AuditStatusFailed
	}
	return audit, nil
}

// Passed returns true if no line violated the total invariant
func (a *CartAudit) Passed() bool {
	return a.Status == AuditStatusPassed
}

// MismatchIDs returns the product ids of the offending lines
func (a *CartAudit) MismatchIDs() []int {
	ids := make([]int, 0, len(a.Mismatches))
	for _, m := range a.Mismatches {
		ids = append(ids, m.ID)
	}
	return ids
}

// Summary returns a one-line human readable description of the audit
func (a *CartAudit) Summary() string {
	if a.Passed() {
		return fmt.Sprintf("cart OK: %d lines, value %s", a.Lines, FormatPrice(a.Value))
	}
	return fmt.Sprintf("cart FAILED: %d of %d lines mismatched (ids %v), value %s",
		len(a.Mismatches), a.Lines, a.MismatchIDs(), FormatPrice(a.Value))
}
