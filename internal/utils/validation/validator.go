package validation

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "playarena/internal/errors"
)

var (
	upiRegex  = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,256}@[a-zA-Z]{2,64}$`)
	ifscRegex = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type Validator struct {
	Errors []ValidationError
}

func New() *Validator {
	return &Validator{
		Errors: make([]ValidationError, 0),
	}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

func (v *Validator) AddError(field, message string) {
	v.Errors = append(v.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Err folds the collected errors into one validation DomainError.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	parts := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		parts[i] = e.Error()
	}
	return apperrors.Validation(strings.Join(parts, "; "))
}

func ValidUPI(id string) bool {
	return upiRegex.MatchString(id)
}

func ValidIFSC(code string) bool {
	return ifscRegex.MatchString(strings.ToUpper(code))
}
