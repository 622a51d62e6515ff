package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestModelRate_Cost(t *testing.T) {
	rate := ModelRate{
		Model:      "gpt-3.5-turbo",
		InputCost:  decimal.RequireFromString("0.0015"),
		OutputCost: decimal.RequireFromString("0.002"),
	}

	got := rate.Cost(1000, 500)
	want := decimal.RequireFromString("0.0025")
	if !got.Equal(want) {
		t.Errorf("Expected cost %s, got %s", want, got)
	}
}

func TestModelRate_Cost_ZeroTokens(t *testing.T) {
	rate := ModelRate{InputCost: decimal.NewFromInt(1), OutputCost: decimal.NewFromInt(1)}

	if got := rate.Cost(0, 0); !got.IsZero() {
		t.Errorf("Expected zero cost, got %s", got)
	}
}

func TestModelRate_Cost_NeverNegative(t *testing.T) {
	rate := ModelRate{InputCost: decimal.NewFromInt(-5), OutputCost: decimal.NewFromInt(1)}

	if got := rate.Cost(100, 0); got.IsNegative() {
		t.Errorf("Expected non-negative cost, got %s", got)
	}
	if got := rate.Cost(-10, -10); !got.IsZero() {
		t.Errorf("Expected zero cost for negative counts, got %s", got)
	}
}
