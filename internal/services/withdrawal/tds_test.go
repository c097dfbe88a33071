package withdrawal

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFlatTDS(t *testing.T) {
	policy := FlatTDS{Rate: d("0.02"), ExemptUpTo: d("500")}

	tests := []struct {
		amount string
		want   string
	}{
		{"100", "0"},
		{"500", "0"},
		{"1000", "20"},
		{"1234.56", "24.69"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.True(t, policy.Withhold(d(tt.amount)).Equal(d(tt.want)), "got %s", policy.Withhold(d(tt.amount)))
		})
	}

	assert.True(t, FlatTDS{}.Withhold(d("1000")).IsZero())
}

func TestBracketTDS(t *testing.T) {
	policy := NewBracketTDS(
		Bracket{Above: d("10000"), Rate: d("0.3")},
		Bracket{Above: d("0"), Rate: d("0")},
		Bracket{Above: d("1000"), Rate: d("0.1")},
	)

	tests := []struct {
		amount string
		want   string
	}{
		{"500", "0"},
		{"1000", "0"},
		{"1000.01", "100"},
		{"20000", "6000"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got := policy.Withhold(d(tt.amount))
			assert.True(t, got.Equal(d(tt.want)), "got %s", got)
		})
	}

	over := NewBracketTDS(Bracket{Above: decimal.Zero, Rate: d("1.5")})
	assert.True(t, over.Withhold(d("10")).Equal(d("10")))
}
