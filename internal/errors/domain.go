// Package errors holds the domain error taxonomy shared by services and
// handlers. Every DomainError carries a stable machine-readable Code, a
// human-readable Message and the HTTP status it maps to.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindForbidden           Kind = "forbidden"
	KindNotJoinable         Kind = "not_joinable"
	KindAlreadyJoined       Kind = "already_joined"
	KindBadRequest          Kind = "bad_request"
	KindInsufficientBalance Kind = "insufficient_balance"
	KindEligibility         Kind = "eligibility"
	KindConflict            Kind = "conflict"
)

type DomainError struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is matches another DomainError by Code, or by Kind when the target has no Code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.Code != "" {
		return e.Code == t.Code
	}
	return e.Kind == t.Kind
}

func newError(kind Kind, status int, code, message string) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: message, Status: status}
}

func Validation(message string) *DomainError {
	return newError(KindValidation, http.StatusBadRequest, "VALIDATION_FAILED", message)
}

func NotFound(resource string) *DomainError {
	return newError(KindNotFound, http.StatusNotFound, "NOT_FOUND", resource+" not found")
}

func Forbidden(message string) *DomainError {
	return newError(KindForbidden, http.StatusForbidden, "FORBIDDEN", message)
}

// NotJoinable reports why a match cannot take another player.
func NotJoinable(code, reason string) *DomainError {
	return newError(KindNotJoinable, http.StatusBadRequest, code, reason)
}

func AlreadyJoined() *DomainError {
	return newError(KindAlreadyJoined, http.StatusBadRequest, "ALREADY_JOINED", "user has already joined this match")
}

func BadRequest(code, message string) *DomainError {
	return newError(KindBadRequest, http.StatusBadRequest, code, message)
}

func InsufficientBalance() *DomainError {
	return newError(KindInsufficientBalance, http.StatusBadRequest, "INSUFFICIENT_BALANCE", "insufficient wallet balance")
}

// Eligibility is used for KYC, ban and concurrent-request gating.
func Eligibility(code, message string, status int) *DomainError {
	return newError(KindEligibility, status, code, message)
}

// Conflict means a concurrent writer won; the caller should retry.
func Conflict(message string) *DomainError {
	return newError(KindConflict, http.StatusConflict, "CONFLICT", message)
}

// Wrap attaches a cause to a copy of e.
func (e *DomainError) Wrap(err error) *DomainError {
	cp := *e
	cp.Err = err
	return &cp
}

// As extracts the DomainError from an error chain.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// StatusOf returns the HTTP status for err, 500 for infrastructure failures.
func StatusOf(err error) int {
	if de, ok := As(err); ok {
		return de.Status
	}
	return http.StatusInternalServerError
}

// IsKind reports whether err is a DomainError of the given kind.
func IsKind(err error, kind Kind) bool {
	de, ok := As(err)
	return ok && de.Kind == kind
}
