package refund

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTieredPolicy_LeaveRefund(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		policy     Policy
		fee        string
		startsIn   time.Duration
		wantRefund string
	}{
		{name: "default keeps ten percent", policy: Default(), fee: "50", startsIn: time.Hour, wantRefund: "45"},
		{name: "default rounds to paise", policy: Default(), fee: "9.99", startsIn: time.Hour, wantRefund: "8.99"},
		{name: "free match refunds nothing", policy: Default(), fee: "0", startsIn: time.Hour, wantRefund: "0"},
		{name: "no window still refunds past scheduled time", policy: Default(), fee: "20", startsIn: -time.Minute, wantRefund: "18"},
		{name: "inside no-refund window", policy: NewFlatPolicy(0.10, 30*time.Minute), fee: "100", startsIn: 10 * time.Minute, wantRefund: "0"},
		{name: "outside no-refund window", policy: NewFlatPolicy(0.10, 30*time.Minute), fee: "100", startsIn: 2 * time.Hour, wantRefund: "90"},
		{
			name: "tiers pick the longest satisfied lead",
			policy: NewTieredPolicy(
				Tier{MinLeadTime: time.Hour, FeeRate: decimal.RequireFromString("0.25")},
				Tier{MinLeadTime: 24 * time.Hour, FeeRate: decimal.Zero},
			),
			fee:        "80",
			startsIn:   3 * time.Hour,
			wantRefund: "60",
		},
		{
			name:       "rate above one is clamped",
			policy:     NewFlatPolicy(1.5, 0),
			fee:        "80",
			startsIn:   time.Hour,
			wantRefund: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.LeaveRefund(decimal.RequireFromString(tt.fee), now.Add(tt.startsIn), now)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.wantRefund)), "got %s", got)
		})
	}
}
