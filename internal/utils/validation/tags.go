package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	structValidator *validator.Validate
	initOnce        sync.Once
)

func engine() *validator.Validate {
	initOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
		// report fields by their JSON names
		structValidator.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return structValidator
}

// Struct runs the `validate` tags on v and returns a validation DomainError
// listing every failed field.
func Struct(v interface{}) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := New()
	for _, fe := range fieldErrs {
		out.AddError(fe.Field(), describe(fe))
	}
	return out.Err()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	}
	return "failed " + fe.Tag() + " check"
}
