package withdrawal

import (
	"playarena/internal/models"

	"github.com/shopspring/decimal"
)

type Config struct {
	Minimum decimal.Decimal
	// MaxOpen caps pending plus approved requests per user; defaults to 1
	MaxOpen int
	TDS     TDSPolicy
	// PaymentMethodLimit caps how many saved methods are listed
	PaymentMethodLimit int
}

type Request struct {
	Amount               decimal.Decimal     `json:"amount"`
	Method               models.PayoutMethod `json:"method" validate:"omitempty,oneof=upi bank"`
	UPIID                string              `json:"upiId"`
	BankDetails          models.BankDetails  `json:"bankDetails"`
	SavedPaymentMethodID uint                `json:"savedPaymentMethodId"`
	SavePaymentMethod    bool                `json:"savePaymentMethod"`
}

// Eligibility is the read-only gate shown before the request form.
type Eligibility struct {
	Eligible     bool            `json:"eligible"`
	Reason       string          `json:"reason,omitempty"`
	Code         string          `json:"code,omitempty"`
	OpenRequests int64           `json:"open_requests"`
	Balance      decimal.Decimal `json:"wallet_balance"`
	Minimum      decimal.Decimal `json:"minimum_amount"`
}
