package match

import (
	"time"

	"playarena/internal/models"

	"github.com/shopspring/decimal"
)

type Config struct {
	// JoinableStatuses defaults to registration_open only
	JoinableStatuses []models.MatchStatus
}

type JoinRequest struct {
	InGameID   string `json:"inGameId" validate:"required,max=64"`
	InGameName string `json:"inGameName" validate:"required,max=64"`
}

type JoinResult struct {
	MatchID       uint            `json:"match_id"`
	SlotNumber    int             `json:"slot_number"`
	EntryFee      decimal.Decimal `json:"entry_fee"`
	Balance       decimal.Decimal `json:"wallet_balance"`
	TransactionID *uint           `json:"transaction_id,omitempty"`
}

type MatchInput struct {
	Title               string                   `json:"title" validate:"required,max=120"`
	Game                string                   `json:"game"`
	MaxSlots            int                      `json:"max_slots" validate:"gt=0"`
	EntryFee            decimal.Decimal          `json:"entry_fee"`
	PrizePool           decimal.Decimal          `json:"prize_pool"`
	PerKillPrize        decimal.Decimal          `json:"per_kill_prize"`
	PrizeDistribution   models.PrizeDistribution `json:"prize_distribution"`
	ScheduledAt         time.Time                `json:"scheduled_at"`
	RegistrationOpensAt *time.Time               `json:"registration_opens_at"`
	OpenNow             bool                     `json:"open_now"`
}

// Result is one player's placement as reported by the admin
type Result struct {
	UserID   uint `json:"user_id"`
	Position int  `json:"position"`
	Kills    int  `json:"kills"`
}

type Payout struct {
	UserID        uint            `json:"user_id"`
	Position      int             `json:"position"`
	Kills         int             `json:"kills"`
	Prize         decimal.Decimal `json:"prize"`
	TransactionID *uint           `json:"transaction_id,omitempty"`
}

type Settlement struct {
	MatchID        uint            `json:"match_id"`
	Payouts        []Payout        `json:"payouts"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	AlreadySettled bool            `json:"already_settled"`
}

type RefundOutcome struct {
	UserID        uint            `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID *uint           `json:"transaction_id,omitempty"`
}

type RefundFailure struct {
	UserID uint            `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
	Error  string          `json:"error"`
}

// CancelReport lists the refunds issued in this call and those still owed
type CancelReport struct {
	MatchID       uint            `json:"match_id"`
	Status        string          `json:"status"`
	Refunded      []RefundOutcome `json:"refunded"`
	Failed        []RefundFailure `json:"failed"`
	TotalRefunded decimal.Decimal `json:"total_refunded"`
	Resumed       bool            `json:"resumed"`
}

// Complete reports whether every participant has been refunded
func (r *CancelReport) Complete() bool {
	return len(r.Failed) == 0
}
