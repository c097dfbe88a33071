package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalApproved  WithdrawalStatus = "approved"
	WithdrawalCompleted WithdrawalStatus = "completed"
	WithdrawalRejected  WithdrawalStatus = "rejected"
	WithdrawalCancelled WithdrawalStatus = "cancelled"
)

// Open statuses count against the per-user concurrent request limit.
func (s WithdrawalStatus) Open() bool {
	return s == WithdrawalPending || s == WithdrawalApproved
}

type PayoutMethod string

const (
	PayoutUPI  PayoutMethod = "upi"
	PayoutBank PayoutMethod = "bank"
)

type Withdrawal struct {
	ID                     uint             `gorm:"primarykey" json:"id"`
	Reference              string           `gorm:"type:varchar(48);uniqueIndex;not null" json:"reference"`
	UserID                 uint             `gorm:"not null;index" json:"user_id"`
	Amount                 decimal.Decimal  `gorm:"type:numeric(14,2);not null" json:"amount"`
	TDS                    decimal.Decimal  `gorm:"type:numeric(14,2);not null;default:0" json:"tds"`
	NetAmount              decimal.Decimal  `gorm:"type:numeric(14,2);not null" json:"net_amount"`
	Method                 PayoutMethod     `gorm:"type:varchar(10);not null" json:"method"`
	UPIID                  string           `json:"upi_id,omitempty"`
	BankDetails            BankDetails      `gorm:"embedded;embeddedPrefix:bank_" json:"bank_details"`
	Status                 WithdrawalStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	WalletBalanceAtRequest decimal.Decimal  `gorm:"type:numeric(14,2);not null" json:"wallet_balance_at_request"`
	HoldTransactionID      *uint            `json:"hold_transaction_id,omitempty"`
	RefundTransactionID    *uint            `json:"refund_transaction_id,omitempty"`
	AdminNotes             string           `json:"admin_notes,omitempty"`
	RejectionReason        string           `json:"rejection_reason,omitempty"`
	ExternalRef            string           `json:"external_ref,omitempty"`
	ProcessedBy            *uint            `json:"processed_by,omitempty"`
	ApprovedAt             *time.Time       `json:"approved_at,omitempty"`
	CompletedAt            *time.Time       `json:"completed_at,omitempty"`
	RejectedAt             *time.Time       `json:"rejected_at,omitempty"`
	CancelledAt            *time.Time       `json:"cancelled_at,omitempty"`
	CreatedAt              time.Time        `json:"created_at"`
	UpdatedAt              time.Time        `json:"updated_at"`
}

type BankDetails struct {
	AccountHolder string `json:"account_holder,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	IFSC          string `json:"ifsc,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
}

// SavedPaymentMethod remembers payout details a user has used before.
type SavedPaymentMethod struct {
	ID          uint         `gorm:"primarykey" json:"id"`
	UserID      uint         `gorm:"not null;uniqueIndex:idx_user_payout" json:"user_id"`
	Method      PayoutMethod `gorm:"type:varchar(10);not null;uniqueIndex:idx_user_payout" json:"method"`
	Identifier  string       `gorm:"not null;uniqueIndex:idx_user_payout" json:"identifier"`
	BankDetails BankDetails  `gorm:"embedded;embeddedPrefix:bank_" json:"bank_details"`
	LastUsedAt  time.Time    `json:"last_used_at"`
	CreatedAt   time.Time    `json:"created_at"`
}
