package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RowIDPrefix prefixes the numeric product id in a cart row's DOM id.
const RowIDPrefix = "product-"

// ErrInvalidRowID is returned when a cart row id does not carry a product id.
var ErrInvalidRowID = errors.New("invalid cart row id")

// CartLine is one product line of the shopping cart.
type CartLine struct {
	ID       int
	Name     string
	Category string
	Price    int
	Quantity int
	Total    int
}

// LineTotalMismatchError reports a cart line whose displayed total is not price * quantity.
type LineTotalMismatchError struct {
	ID       int
	Price    int
	Quantity int
	Total    int
}

func (e *LineTotalMismatchError) Error() string {
	return fmt.Sprintf("line total mismatch for id=%d: %d != %d * %d", e.ID, e.Total, e.Price, e.Quantity)
}

// ParseRowID extracts the product id from a row id like "product-12".
func ParseRowID(domID string) (int, error) {
	if !strings.HasPrefix(domID, RowIDPrefix) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRowID, domID)
	}
	id, err := strconv.Atoi(strings.TrimPrefix(domID, RowIDPrefix))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRowID, domID)
	}
	return id, nil
}

// RowID returns the DOM id of the cart row for a product.
func RowID(productID int) string {
	return RowIDPrefix + strconv.Itoa(productID)
}

// ExpectedTotal returns price * quantity.
func (l CartLine) ExpectedTotal() int {
	return l.Price * l.Quantity
}

// Validate checks the line total invariant.
func (l CartLine) Validate() error {
	if l.Total != l.ExpectedTotal() {
		return &LineTotalMismatchError{
			ID:       l.ID,
			Price:    l.Price,
			Quantity: l.Quantity,
			Total:    l.Total,
		}
	}
	return nil
}

// Cart is a snapshot of the cart table, in display order.
type Cart struct {
	Lines []CartLine
}

// Value sums the displayed line totals.
func (c Cart) Value() int {
	sum := 0
	for _, line := range c.Lines {
		sum += line.Total
	}
	return sum
}

// ProductIDs returns the product ids in display order.
func (c Cart) ProductIDs() []int {
	ids := make([]int, 0, len(c.Lines))
	for _, line := range c.Lines {
		ids = append(ids, line.ID)
	}
	return ids
}

// Line looks up a line by product id.
func (c Cart) Line(id int) (CartLine, bool) {
	for _, line := range c.Lines {
		if line.ID == id {
			return line, true
		}
	}
	return CartLine{}, false
}

// ValidateLineTotals checks every line and joins all mismatches.
// Each joined error is a *LineTotalMismatchError.
func (c Cart) ValidateLineTotals() error {
	var errs []error
	for _, line := range c.Lines {
		if err := line.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Mismatches returns every line violating the total invariant.
func (c Cart) Mismatches() []*LineTotalMismatchError {
	var out []*LineTotalMismatchError
	for _, line := range c.Lines {
		var mismatch *LineTotalMismatchError
		if errors.As(line.Validate(), &mismatch) {
			out = append(out, mismatch)
		}
	}
	return out
}
