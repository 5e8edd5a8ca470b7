package models

import (
	"errors"
	"testing"
	"testing/quick"
)

func consistentCart() Cart {
	return Cart{Lines: []CartLine{
		{ID: 1, Name: "Blue Top", Category: "Women > Tops", Price: 500, Quantity: 1, Total: 500},
		{ID: 2, Name: "Men Tshirt", Category: "Men > Tshirts", Price: 400, Quantity: 3, Total: 1200},
		{ID: 28, Name: "Pure Cotton V-Neck T-Shirt", Category: "Men > Tshirts", Price: 1299, Quantity: 2, Total: 2598},
	}}
}

func TestCart_Value(t *testing.T) {
	if got := consistentCart().Value(); got != 4298 {
		t.Errorf("Value() = %d, want 4298", got)
	}
	if got := (Cart{}).Value(); got != 0 {
		t.Errorf("empty Value() = %d, want 0", got)
	}
}

func TestCart_ValidateLineTotals(t *testing.T) {
	// GIVEN a consistent cart
	cart := consistentCart()

	// THEN validation passes
	if err := cart.ValidateLineTotals(); err != nil {
		t.Fatalf("expected consistent cart, got %v", err)
	}

	// GIVEN one deliberately inconsistent line
	cart.Lines[1].Total = 1000

	// WHEN validating
	err := cart.ValidateLineTotals()

	// THEN the mismatch is reported with the offending id and values
	var mismatch *LineTotalMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected LineTotalMismatchError, got %v", err)
	}
	if mismatch.ID != 2 || mismatch.Total != 1000 || mismatch.Price != 400 || mismatch.Quantity != 3 {
		t.Errorf("unexpected mismatch %+v", mismatch)
	}
	if got, want := mismatch.Error(), "line total mismatch for id=2: 1000 != 400 * 3"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCart_MismatchesReportsEveryLine(t *testing.T) {
	cart := consistentCart()
	cart.Lines[0].Total = 1
	cart.Lines[2].Quantity = 3

	mismatches := cart.Mismatches()
	if len(mismatches) != 2 {
		t.Fatalf("expected 2 mismatches, got %d", len(mismatches))
	}
	if mismatches[0].ID != 1 || mismatches[1].ID != 28 {
		t.Errorf("unexpected mismatch ids %d, %d", mismatches[0].ID, mismatches[1].ID)
	}
}

func TestCartLine_ValidateProperty(t *testing.T) {
	property := func(price, quantity uint16) bool {
		line := CartLine{ID: 7, Price: int(price), Quantity: int(quantity)}
		line.Total = line.ExpectedTotal()
		if line.Validate() != nil {
			return false
		}
		line.Total++
		return line.Validate() != nil
	}
	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}

func TestCart_LineAndIDs(t *testing.T) {
	cart := consistentCart()

	ids := cart.ProductIDs()
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 28 {
		t.Errorf("ProductIDs() = %v", ids)
	}

	line, ok := cart.Line(28)
	if !ok || line.Name != "Pure Cotton V-Neck T-Shirt" {
		t.Errorf("Line(28) = %+v, %v", line, ok)
	}
	if _, ok := cart.Line(99); ok {
		t.Error("Line(99) should not be found")
	}
}

func TestParseRowID(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		wantErr  bool
	}{
		{input: "product-1", expected: 1},
		{input: "product-43", expected: 43},
		{input: "product-", wantErr: true},
		{input: "product-x", wantErr: true},
		{input: "row-1", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseRowID(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidRowID) {
				t.Errorf("ParseRowID(%q) error = %v, want ErrInvalidRowID", tt.input, err)
			}
			continue
		}
		if err != nil || got != tt.expected {
			t.Errorf("ParseRowID(%q) = %d, %v; want %d", tt.input, got, err, tt.expected)
		}
	}

	if RowID(43) != "product-43" {
		t.Errorf("RowID(43) = %q", RowID(43))
	}
}

func TestInfoFieldValue(t *testing.T) {
	tests := []struct {
		text   string
		label  string
		value  string
		wantOK bool
	}{
		{"Category: Women > Tops", InfoCategory, "Women > Tops", true},
		{"Availability: In Stock", InfoAvailability, "In Stock", true},
		{"Brand:Polo", InfoBrand, "Polo", true},
		{"Condition: New", InfoBrand, "", false},
		{"Brand", InfoBrand, "Brand", true},
	}

	for _, tt := range tests {
		value, ok := InfoFieldValue(tt.text, tt.label)
		if ok != tt.wantOK || value != tt.value {
			t.Errorf("InfoFieldValue(%q, %q) = %q, %v; want %q, %v", tt.text, tt.label, value, ok, tt.value, tt.wantOK)
		}
	}
}

func TestProductDetails_ApplyInfo(t *testing.T) {
	var details ProductDetails

	details.ApplyInfo([]string{
		"Category: Men > Tshirts",
		"Availability: In Stock",
		"Condition: New",
		"Brand: H&M",
		"Brand: ignored",
	})

	want := ProductDetails{Category: "Men > Tshirts", Availability: "In Stock", Condition: "New", Brand: "H&M"}
	if details != want {
		t.Errorf("ApplyInfo() = %+v, want %+v", details, want)
	}
}
