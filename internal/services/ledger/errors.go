package ledger

import (
	apperrors "playarena/internal/errors"
)

var (
	ErrUserNotFound        = apperrors.NotFound("user")
	ErrTransactionNotFound = apperrors.NotFound("transaction")
	ErrNotPending          = apperrors.BadRequest("TRANSACTION_NOT_PENDING", "transaction is not pending")
	ErrNotReversible       = apperrors.BadRequest("TRANSACTION_NOT_REVERSIBLE", "transaction cannot be reversed")
	ErrInvalidCategory     = apperrors.Validation("transaction category is required")
	ErrInvalidStatus       = apperrors.Validation("entry status must be completed or pending")
)
