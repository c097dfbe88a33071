package withdrawal

import (
	"fmt"
	"net/http"

	apperrors "playarena/internal/errors"
	"playarena/internal/models"
)

var (
	ErrWithdrawalNotFound    = apperrors.NotFound("withdrawal")
	ErrPaymentMethodNotFound = apperrors.NotFound("payment method")
	ErrNotOwner              = &apperrors.DomainError{
		Kind:    apperrors.KindForbidden,
		Code:    "NOT_OWNER",
		Message: "withdrawal belongs to another user",
		Status:  http.StatusForbidden,
	}
	ErrNotCancellable      = apperrors.BadRequest("WITHDRAWAL_NOT_CANCELLABLE", "only pending withdrawals can be cancelled")
	ErrReasonRequired      = apperrors.Validation("rejection reason is required")
	ErrExternalRefRequired = apperrors.Validation("payout reference is required")
	ErrUnknownMethod       = apperrors.Validation("method must be upi or bank")
	ErrUPIRequired         = apperrors.Validation("upiId is required for UPI payouts")
	ErrBankRequired        = apperrors.Validation("account holder, account number and IFSC are required for bank payouts")
)

func invalidTransition(from models.WithdrawalStatus, action string) error {
	return apperrors.BadRequest("INVALID_WITHDRAWAL_STATE", fmt.Sprintf("cannot %s a %s withdrawal", action, from))
}
