// Package refund decides how much of an entry fee a player gets back when
// leaving a match before it starts.
package refund

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Policy computes the refund for a voluntary leave. Implementations are pure.
type Policy interface {
	LeaveRefund(entryFee decimal.Decimal, scheduledAt, now time.Time) decimal.Decimal
}

// Tier applies FeeRate when at least MinLeadTime remains before the match.
type Tier struct {
	MinLeadTime time.Duration
	FeeRate     decimal.Decimal
}

// TieredPolicy picks the first tier, ordered by descending lead time, whose
// lead time is satisfied. No satisfied tier means no refund.
type TieredPolicy struct {
	tiers []Tier
}

func NewTieredPolicy(tiers ...Tier) *TieredPolicy {
	sorted := append([]Tier(nil), tiers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinLeadTime > sorted[j].MinLeadTime
	})
	return &TieredPolicy{tiers: sorted}
}

// AnyLeadTime is satisfied even after the scheduled start has passed.
const AnyLeadTime = time.Duration(math.MinInt64)

// NewFlatPolicy charges rate as a cancellation fee whenever at least
// noRefundWindow remains before the scheduled start. A non-positive window
// never withholds the refund.
func NewFlatPolicy(rate float64, noRefundWindow time.Duration) *TieredPolicy {
	lead := noRefundWindow
	if lead <= 0 {
		lead = AnyLeadTime
	}
	return NewTieredPolicy(Tier{MinLeadTime: lead, FeeRate: decimal.NewFromFloat(rate)})
}

// Default is a 10% cancellation fee with no cut-off.
func Default() *TieredPolicy {
	return NewFlatPolicy(0.10, 0)
}

func (p *TieredPolicy) LeaveRefund(entryFee decimal.Decimal, scheduledAt, now time.Time) decimal.Decimal {
	if !entryFee.IsPositive() {
		return decimal.Zero
	}
	lead := scheduledAt.Sub(now)
	for _, tier := range p.tiers {
		if lead < tier.MinLeadTime {
			continue
		}
		keep := decimal.NewFromInt(1).Sub(clampRate(tier.FeeRate))
		return entryFee.Mul(keep).Round(2)
	}
	return decimal.Zero
}

func clampRate(rate decimal.Decimal) decimal.Decimal {
	if rate.IsNegative() {
		return decimal.Zero
	}
	if rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return rate
}
