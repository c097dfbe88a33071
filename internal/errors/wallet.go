package errors

import "net/http"

// Sentinels for errors.Is checks; they compare by Code.
var (
	ErrInsufficientBalance = InsufficientBalance()
	ErrInvalidAmount       = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_AMOUNT",
		Message: "amount must be greater than zero",
		Status:  http.StatusBadRequest,
	}
	ErrAlreadyJoined = AlreadyJoined()
	ErrKYCRequired   = Eligibility("KYC_REQUIRED", "KYC verification required", http.StatusForbidden)
	ErrAccountBanned = Eligibility("ACCOUNT_BANNED", "account is banned", http.StatusForbidden)
	ErrTooManyOpen   = Eligibility("WITHDRAWAL_PENDING", "a withdrawal request is already in progress", http.StatusBadRequest)
	ErrConflict      = Conflict("concurrent update, please retry")
)
