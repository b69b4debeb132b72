package validation

import (
	"errors"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-invoice/internal/common"
)

type item struct {
	Name  string           `json:"name" validate:"required"`
	Price *decimal.Decimal `json:"price" validate:"required,gte=0"`
}

type payload struct {
	Email string `json:"email" validate:"required,email"`
	Items []item `json:"items" validate:"required,min=1,dive"`
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, common.CodeValidation, appErr.Code)
	fields, ok := appErr.Details.(map[string]string)
	require.True(t, ok)
	return fields
}

func TestStructValid(t *testing.T) {
	v := New()
	err := Struct(v, payload{Email: "a@acme.com", Items: []item{{Name: "x", Price: dec("0")}}}, nil)
	require.NoError(t, err)
}

func TestStructReportsJSONPaths(t *testing.T) {
	v := New()
	err := Struct(v, payload{Email: "nope", Items: []item{{Name: "", Price: dec("-1")}}}, nil)
	fields := fieldsOf(t, err)
	require.Contains(t, fields, "email")
	require.Contains(t, fields, "items[0].name")
	require.Contains(t, fields, "items[0].price")
}

func TestStructMissingDecimal(t *testing.T) {
	v := New()
	err := Struct(v, payload{Email: "a@acme.com", Items: []item{{Name: "x"}}}, nil)
	fields := fieldsOf(t, err)
	require.Equal(t, "price is required", fields["items[0].price"])
}

func TestStructEmptySlice(t *testing.T) {
	v := New()
	err := Struct(v, payload{Email: "a@acme.com", Items: []item{}}, func(fe validator.FieldError) string {
		if fe.Field() == "items" {
			return "at least one item"
		}
		return ""
	})
	fields := fieldsOf(t, err)
	require.Equal(t, "at least one item", fields["items"])
}
