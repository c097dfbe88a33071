package withdrawal

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TDSPolicy computes the tax withheld from a gross withdrawal amount.
type TDSPolicy interface {
	Withhold(amount decimal.Decimal) decimal.Decimal
}

// FlatTDS withholds Rate of the whole amount once it exceeds ExemptUpTo.
type FlatTDS struct {
	Rate       decimal.Decimal
	ExemptUpTo decimal.Decimal
}

func (p FlatTDS) Withhold(amount decimal.Decimal) decimal.Decimal {
	if !p.Rate.IsPositive() || !amount.GreaterThan(p.ExemptUpTo) {
		return decimal.Zero
	}
	return capped(amount.Mul(p.Rate).Round(2), amount)
}

// Bracket applies Rate to amounts strictly above Above.
type Bracket struct {
	Above decimal.Decimal
	Rate  decimal.Decimal
}

// BracketTDS picks the highest bracket the amount exceeds.
type BracketTDS struct {
	brackets []Bracket
}

func NewBracketTDS(brackets ...Bracket) *BracketTDS {
	sorted := make([]Bracket, len(brackets))
	copy(sorted, brackets)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Above.GreaterThan(sorted[j].Above)
	})
	return &BracketTDS{brackets: sorted}
}

func (p *BracketTDS) Withhold(amount decimal.Decimal) decimal.Decimal {
	for _, b := range p.brackets {
		if amount.GreaterThan(b.Above) {
			if !b.Rate.IsPositive() {
				return decimal.Zero
			}
			return capped(amount.Mul(b.Rate).Round(2), amount)
		}
	}
	return decimal.Zero
}

func capped(tds, amount decimal.Decimal) decimal.Decimal {
	if tds.GreaterThan(amount) {
		return amount
	}
	return tds
}
