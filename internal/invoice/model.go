package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one priced product on an invoice. Total is quantity × rate.
type LineItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
	Total    decimal.Decimal `json:"total"`
}

// Invoice is a persisted invoice with its computed amounts. Amounts are kept
// at full precision; rounding happens only when the invoice is rendered.
type Invoice struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	IssuerName  string          `json:"issuerName"`
	IssuerEmail string          `json:"issuerEmail"`
	ClientName  string          `json:"clientName"`
	ClientEmail string          `json:"clientEmail"`
	LineItems   []LineItem      `json:"lineItems"`
	SubTotal    decimal.Decimal `json:"subTotal"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Summary is the list view of an invoice.
type Summary struct {
	ID          string          `json:"id"`
	ClientName  string          `json:"clientName"`
	ClientEmail string          `json:"clientEmail"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Document is a rendered invoice ready to be sent to the client.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ContentTypePDF is the media type of rendered invoices.
const ContentTypePDF = "application/pdf"

// Filename returns the suggested download name for invoice id.
func Filename(id string) string {
	return "invoice-" + id + ".pdf"
}

// NewDocument wraps rendered PDF bytes for invoice id.
func NewDocument(id string, body []byte) Document {
	return Document{Filename: Filename(id), ContentType: ContentTypePDF, Body: body}
}

// Summarize drops line items and issuer details.
func (inv Invoice) Summarize() Summary {
	return Summary{
		ID:          inv.ID,
		ClientName:  inv.ClientName,
		ClientEmail: inv.ClientEmail,
		TotalAmount: inv.TotalAmount,
		CreatedAt:   inv.CreatedAt,
	}
}
