package db

import "github.com/jackc/pgx/v5/pgtype"

type User struct {
	ID           pgtype.UUID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

// Invoice amounts travel as NUMERIC text to keep full decimal precision.
type Invoice struct {
	ID          pgtype.UUID
	UserID      pgtype.UUID
	IssuerName  string
	IssuerEmail string
	ClientName  string
	ClientEmail string
	SubTotal    string
	TaxRate     string
	TaxAmount   string
	TotalAmount string
	CreatedAt   pgtype.Timestamptz
}

type InvoiceLineItem struct {
	ID        pgtype.UUID
	InvoiceID pgtype.UUID
	Position  int32
	Name      string
	Quantity  int32
	Rate      string
	Total     string
}
