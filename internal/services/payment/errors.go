package payment

import (
	apperrors "playarena/internal/errors"
)

var (
	ErrInvalidSignature = apperrors.BadRequest("INVALID_SIGNATURE", "payment signature verification failed")
	ErrDepositNotFound  = apperrors.NotFound("deposit")
	ErrDepositFailed    = apperrors.BadRequest("DEPOSIT_FAILED", "deposit has already failed")
	ErrOrderRequired    = apperrors.Validation("orderId is required")
	ErrMalformedEvent   = apperrors.Validation("malformed webhook payload")
)
