package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Opposite flips credit and debit, used when posting a reversal.
func (t TransactionType) Opposite() TransactionType {
	if t == TransactionCredit {
		return TransactionDebit
	}
	return TransactionCredit
}

// Transaction categories
const (
	CategoryDeposit          = "deposit"
	CategoryWithdrawal       = "withdrawal"
	CategoryWithdrawalRefund = "withdrawal_refund"
	CategoryMatchEntry       = "match_entry"
	CategoryMatchRefund      = "match_refund"
	CategoryMatchPrize       = "match_prize"
	CategoryBonus            = "bonus"
	CategoryReversal         = "reversal"
	CategoryAdjustment       = "adjustment"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
	TransactionReversed  TransactionStatus = "reversed"
)

// Reference types
const (
	RefMatch      = "match"
	RefWithdrawal = "withdrawal"
	RefDeposit    = "deposit"
	RefAdmin      = "admin"
)

// Transaction is an append-only ledger row. Only Status, ReversedByID and
// UpdatedAt may change after insert.
type Transaction struct {
	ID            uint              `gorm:"primarykey" json:"id"`
	Reference     string            `gorm:"type:varchar(48);uniqueIndex;not null" json:"reference"`
	UserID        uint              `gorm:"not null;index" json:"user_id"`
	Type          TransactionType   `gorm:"type:varchar(10);not null" json:"type"`
	Category      string            `gorm:"type:varchar(32);not null;index" json:"category"`
	Amount        decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"amount"`
	BalanceBefore decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"balance_after"`
	Status        TransactionStatus `gorm:"type:varchar(16);not null;default:'completed';index" json:"status"`
	Description   string            `json:"description"`
	RefType       string            `gorm:"type:varchar(32);index:idx_tx_ref" json:"ref_type,omitempty"`
	RefID         string            `gorm:"type:varchar(64);index:idx_tx_ref" json:"ref_id,omitempty"`
	ReversalOfID  *uint             `gorm:"index" json:"reversal_of_id,omitempty"`
	ReversedByID  *uint             `json:"reversed_by_id,omitempty"`
	Metadata      JSON              `gorm:"type:jsonb" json:"metadata,omitempty"`
	SettledAt     *time.Time        `json:"settled_at,omitempty"`
	CreatedAt     time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Signed returns the balance effect of the row: positive for credits.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Type == TransactionDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Applied reports whether the row's amount is currently reflected in the
// wallet balance. Pending debits are holds and already applied; pending
// credits are not until settled.
func (t *Transaction) Applied() bool {
	switch t.Status {
	case TransactionCompleted, TransactionReversed:
		return true
	case TransactionPending:
		return t.Type == TransactionDebit
	}
	return false
}

// Reference identifies the business object a ledger row belongs to.
type Reference struct {
	Type string
	ID   string
}
