// Package schema validates decoded request bodies. Request types declare
// their rules once with `validate` struct tags; Check turns the first
// failing rule into a caller-facing message such as
// "Module title is required".
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a 400-class failure with a field-specific message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Invalid builds a ValidationError outside of tag-driven checks.
func Invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// Normalizer is implemented by inputs that trim themselves before checking.
type Normalizer interface {
	Normalize()
}

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return v
}

// Check normalizes (when supported) and validates in. entity prefixes the
// message, e.g. Check("Module", &in) -> "Module title is required".
func Check(entity string, in any) error {
	if n, ok := in.(Normalizer); ok {
		n.Normalize()
	}
	err := instance().Struct(in)
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) || len(fes) == 0 {
		return err
	}
	fe := fes[0]
	return &ValidationError{Field: fe.Field(), Message: message(entity, fe)}
}

func message(entity string, fe validator.FieldError) string {
	subject := strings.TrimSpace(entity + " " + fe.Field())
	switch fe.Tag() {
	case "required":
		return subject + " is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return subject + " is invalid"
	}
}
