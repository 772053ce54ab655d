package currency

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "$0.00"},
		{459000, "$459,000.00"},
		{1053333.333, "$1,053,333.33"},
		{12.345, "$12.35"},
		{-25000, "-$25,000.00"},
	}

	for _, tt := range tests {
		if got := Format(tt.amount); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestWhole(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{459000, "$459,000"},
		{588000.4, "$588,000"},
		{250.5, "$251"},
		{-1200, "-$1,200"},
	}

	for _, tt := range tests {
		if got := Whole(tt.amount); got != tt.want {
			t.Errorf("Whole(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatDecimal(t *testing.T) {
	if got := FormatDecimal(decimal.RequireFromString("1234.565")); got != "$1,234.57" {
		t.Errorf("FormatDecimal = %q, want %q", got, "$1,234.57")
	}
}
