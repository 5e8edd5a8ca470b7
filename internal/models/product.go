package models

import "strings"

// ProductCard is one entry of the product listing grid.
type ProductCard struct {
	Name      string `json:"name"`
	Price     int    `json:"price"`
	DetailURL string `json:"detail_url"`
}

// ProductDetails holds the attributes shown on a product details page.
type ProductDetails struct {
	Name         string `json:"name"`
	Price        int    `json:"price"`
	Category     string `json:"category"`
	Availability string `json:"availability"`
	Condition    string `json:"condition"`
	Brand        string `json:"brand"`
}

// Info field labels of the product details panel.
const (
	InfoCategory     = "Category"
	InfoAvailability = "Availability"
	InfoCondition    = "Condition"
	InfoBrand        = "Brand"
)

// InfoFieldValue returns the value of a "Label: value" paragraph when it carries label.
func InfoFieldValue(text, label string) (string, bool) {
	if !strings.Contains(text, label) {
		return "", false
	}
	if _, value, found := strings.Cut(text, ":"); found {
		return strings.TrimSpace(value), true
	}
	return strings.TrimSpace(text), true
}

// SetInfoField assigns a labelled value onto the matching details field.
func (d *ProductDetails) SetInfoField(label, value string) {
	switch label {
	case InfoCategory:
		d.Category = value
	case InfoAvailability:
		d.Availability = value
	case InfoCondition:
		d.Condition = value
	case InfoBrand:
		d.Brand = value
	}
}

// ApplyInfo fills the labelled fields from the panel's paragraphs. The first
// paragraph carrying a label wins.
func (d *ProductDetails) ApplyInfo(paragraphs []string) {
	for _, label := range []string{InfoCategory, InfoAvailability, InfoCondition, InfoBrand} {
		for _, text := range paragraphs {
			if value, ok := InfoFieldValue(text, label); ok {
				d.SetInfoField(label, value)
				break
			}
		}
	}
}
