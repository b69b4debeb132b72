package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const invoiceColumns = `id, user_id, issuer_name, issuer_email, client_name, client_email,
       sub_total::text, tax_rate::text, tax_amount::text, total_amount::text, created_at`

const createInvoice = `
INSERT INTO invoices (user_id, issuer_name, issuer_email, client_name, client_email,
                      sub_total, tax_rate, tax_amount, total_amount)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9::numeric)
RETURNING ` + invoiceColumns

type CreateInvoiceParams struct {
	UserID      pgtype.UUID
	IssuerName  string
	IssuerEmail string
	ClientName  string
	ClientEmail string
	SubTotal    string
	TaxRate     string
	TaxAmount   string
	TotalAmount string
}

func (q *Queries) CreateInvoice(ctx context.Context, arg CreateInvoiceParams) (Invoice, error) {
	row := q.db.QueryRow(ctx, createInvoice,
		arg.UserID,
		arg.IssuerName,
		arg.IssuerEmail,
		arg.ClientName,
		arg.ClientEmail,
		arg.SubTotal,
		arg.TaxRate,
		arg.TaxAmount,
		arg.TotalAmount,
	)
	return scanInvoice(row)
}

const createInvoiceLineItem = `
INSERT INTO invoice_line_items (invoice_id, position, name, quantity, rate, total)
VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric)
RETURNING id, invoice_id, position, name, quantity, rate::text, total::text`

type CreateInvoiceLineItemParams struct {
	InvoiceID pgtype.UUID
	Position  int32
	Name      string
	Quantity  int32
	Rate      string
	Total     string
}

func (q *Queries) CreateInvoiceLineItem(ctx context.Context, arg CreateInvoiceLineItemParams) (InvoiceLineItem, error) {
	row := q.db.QueryRow(ctx, createInvoiceLineItem,
		arg.InvoiceID,
		arg.Position,
		arg.Name,
		arg.Quantity,
		arg.Rate,
		arg.Total,
	)
	var i InvoiceLineItem
	err := row.Scan(&i.ID, &i.InvoiceID, &i.Position, &i.Name, &i.Quantity, &i.Rate, &i.Total)
	return i, err
}

const getInvoiceForUser = `
SELECT ` + invoiceColumns + `
FROM invoices
WHERE id = $1 AND user_id = $2`

type GetInvoiceForUserParams struct {
	ID     pgtype.UUID
	UserID pgtype.UUID
}

func (q *Queries) GetInvoiceForUser(ctx context.Context, arg GetInvoiceForUserParams) (Invoice, error) {
	return scanInvoice(q.db.QueryRow(ctx, getInvoiceForUser, arg.ID, arg.UserID))
}

const listInvoicesForUser = `
SELECT ` + invoiceColumns + `
FROM invoices
WHERE user_id = $1
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3`

type ListInvoicesForUserParams struct {
	UserID pgtype.UUID
	Limit  int32
	Offset int32
}

func (q *Queries) ListInvoicesForUser(ctx context.Context, arg ListInvoicesForUserParams) ([]Invoice, error) {
	rows, err := q.db.Query(ctx, listInvoicesForUser, arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countInvoicesForUser = `SELECT count(*) FROM invoices WHERE user_id = $1`

func (q *Queries) CountInvoicesForUser(ctx context.Context, userID pgtype.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countInvoicesForUser, userID).Scan(&count)
	return count, err
}

const listInvoiceLineItems = `
SELECT id, invoice_id, position, name, quantity, rate::text, total::text
FROM invoice_line_items
WHERE invoice_id = $1
ORDER BY position`

func (q *Queries) ListInvoiceLineItems(ctx context.Context, invoiceID pgtype.UUID) ([]InvoiceLineItem, error) {
	rows, err := q.db.Query(ctx, listInvoiceLineItems, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InvoiceLineItem
	for rows.Next() {
		var i InvoiceLineItem
		if err := rows.Scan(&i.ID, &i.InvoiceID, &i.Position, &i.Name, &i.Quantity, &i.Rate, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (Invoice, error) {
	var i Invoice
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.IssuerName,
		&i.IssuerEmail,
		&i.ClientName,
		&i.ClientEmail,
		&i.SubTotal,
		&i.TaxRate,
		&i.TaxAmount,
		&i.TotalAmount,
		&i.CreatedAt,
	)
	return i, err
}
