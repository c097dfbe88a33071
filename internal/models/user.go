package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Roles
const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleFinance = "finance"
)

// User carries only the wallet-relevant profile. WalletBalance is written
// exclusively by the ledger; Version is bumped on every balance write.
type User struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	Username      string          `gorm:"uniqueIndex;not null" json:"username"`
	Email         string          `gorm:"uniqueIndex" json:"email,omitempty"`
	PasswordHash  string          `json:"-"`
	Role          string          `gorm:"default:'user'" json:"role"`
	WalletBalance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"wallet_balance"`
	BonusBalance  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"bonus_balance"`
	IsKYCVerified bool            `gorm:"default:false" json:"is_kyc_verified"`
	IsBanned      bool            `gorm:"default:false" json:"is_banned"`
	Version       int64           `gorm:"not null;default:1" json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
