package invoice

import (
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-invoice/internal/validation"
)

// GenerateRequest is the client payload for creating an invoice.
type GenerateRequest struct {
	ClientName  string          `json:"clientName" validate:"required"`
	ClientEmail string          `json:"clientEmail" validate:"required,email"`
	LineItems   []LineItemInput `json:"lineItems" validate:"required,min=1,dive"`
}

// LineItemInput is one requested product.
type LineItemInput struct {
	Name     string           `json:"name" validate:"required"`
	Quantity int              `json:"quantity" validate:"gt=0,lte=1000000"`
	Rate     *decimal.Decimal `json:"rate" validate:"required,gte=0,lte=1000000000"`
}

// Normalize trims text fields and lowercases the client email.
func (r *GenerateRequest) Normalize() {
	r.ClientName = strings.TrimSpace(r.ClientName)
	r.ClientEmail = strings.ToLower(strings.TrimSpace(r.ClientEmail))
	for i := range r.LineItems {
		r.LineItems[i].Name = strings.TrimSpace(r.LineItems[i].Name)
	}
}

// Items converts validated input into calculator line items.
func (r GenerateRequest) Items() []LineItem {
	items := make([]LineItem, len(r.LineItems))
	for i, in := range r.LineItems {
		rate := decimal.Zero
		if in.Rate != nil {
			rate = *in.Rate
		}
		items[i] = LineItem{Name: in.Name, Quantity: in.Quantity, Rate: rate}
	}
	return items
}

// Validator checks generate requests and reports per-field messages.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds a Validator.
func NewValidator() *Validator {
	return &Validator{v: validation.New()}
}

// Validate normalizes req in place and returns a ValidationFailure app error
// when any field is invalid.
func (val *Validator) Validate(req *GenerateRequest) error {
	req.Normalize()
	return validation.Struct(val.v, req, requestMessage)
}

func requestMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "clientName":
		return "Client name is required."
	case "clientEmail":
		return "A valid client email is required."
	case "lineItems":
		return "The invoice must contain at least one product."
	case "name":
		return "Each product must have a name."
	case "quantity":
		if fe.Tag() == "lte" {
			return "Product quantity must not exceed " + fe.Param() + "."
		}
		return "Product quantity must be a whole number greater than 0."
	case "rate":
		if fe.Tag() == "lte" {
			return "Product rate must not exceed " + fe.Param() + "."
		}
		return "Product rate must be a number greater than or equal to 0."
	}
	return ""
}
