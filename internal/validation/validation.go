// Package validation configures go-playground/validator for request structs
// and turns its errors into field-level messages keyed by JSON path.
package validation

import (
	"errors"
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-invoice/internal/common"
)

// MessageFunc returns the client-facing message for a failed rule.
type MessageFunc func(fe validator.FieldError) string

// New returns a validator that reports JSON field names and validates
// decimal.Decimal values as float64 so numeric tags (gte, lte) apply.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Struct validates s and converts failures into a ValidationFailure app error.
// It returns nil when s is valid.
func Struct(v *validator.Validate, s any, message MessageFunc) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		path := FieldPath(fe)
		if _, seen := fields[path]; seen {
			continue
		}
		msg := ""
		if message != nil {
			msg = message(fe)
		}
		if msg == "" {
			msg = DefaultMessage(fe)
		}
		fields[path] = msg
	}
	return common.ValidationFailure(fields)
}

// FieldPath strips the root struct name from the error namespace, leaving a
// JSON path such as "lineItems[0].quantity".
func FieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

// DefaultMessage covers the tags used across the API.
func DefaultMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fe.Field() + " must have at least " + fe.Param() + " entries"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "gte":
		return fe.Field() + " must be greater than or equal to " + fe.Param()
	case "lte", "max":
		return fe.Field() + " must be at most " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
