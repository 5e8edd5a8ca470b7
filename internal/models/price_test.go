package models

import (
	"errors"
	"strings"
	"testing"
	"testing/quick"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
		wantErr  error
	}{
		{name: "plain amount", input: "Rs. 500", expected: 500},
		{name: "thousands separator", input: "Rs. 1,234", expected: 1234},
		{name: "millions", input: "Rs. 12,345,678", expected: 12345678},
		{name: "no space after prefix", input: "Rs.1,000", expected: 1000},
		{name: "surrounding whitespace", input: "  Rs. 400 \n", expected: 400},
		{name: "no prefix", input: "750", expected: 750},
		{name: "zero", input: "Rs. 0", expected: 0},
		{name: "empty", input: "", wantErr: ErrMalformedPrice},
		{name: "prefix only", input: "Rs. ", wantErr: ErrMalformedPrice},
		{name: "letters", input: "Rs. abc", wantErr: ErrMalformedPrice},
		{name: "decimal", input: "Rs. 10.50", wantErr: ErrMalformedPrice},
		{name: "other currency", input: "$1.00", wantErr: ErrMalformedPrice},
		{name: "negative", input: "Rs. -5", wantErr: ErrMalformedPrice},
		{name: "explicit plus", input: "Rs. +5", wantErr: ErrMalformedPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParsePrice(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrice(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParsePrice(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParsePrice_StripsPrefixAndSeparators(t *testing.T) {
	property := func(n uint32) bool {
		amount := int(n)
		got, err := ParsePrice(FormatPrice(amount))
		return err == nil && got == amount
	}
	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}

func TestParsePrice_ErrorNamesInput(t *testing.T) {
	_, err := ParsePrice("Rs. twelve")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), `"Rs. twelve"`) {
		t.Errorf("error %q does not quote the input", err)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		amount   int
		expected string
	}{
		{0, "Rs. 0"},
		{5, "Rs. 5"},
		{999, "Rs. 999"},
		{1000, "Rs. 1,000"},
		{1234, "Rs. 1,234"},
		{100000, "Rs. 100,000"},
		{1234567, "Rs. 1,234,567"},
		{-1500, "Rs. -1,500"},
	}

	for _, tt := range tests {
		if got := FormatPrice(tt.amount); got != tt.expected {
			t.Errorf("FormatPrice(%d) = %q, want %q", tt.amount, got, tt.expected)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		wantErr  bool
	}{
		{input: "1", expected: 1},
		{input: " 12 ", expected: 12},
		{input: "", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseQuantity(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrMalformedQuantity) {
				t.Errorf("ParseQuantity(%q) error = %v, want ErrMalformedQuantity", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseQuantity(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseQuantity(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}
