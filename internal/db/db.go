package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// New wraps a connection or pool.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries groups the SQL statements used by the service.
type Queries struct {
	db DBTX
}

// WithTx returns a copy of q bound to tx.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// Querier lists every statement exposed by Queries.
type Querier interface {
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (User, error)

	CreateInvoice(ctx context.Context, arg CreateInvoiceParams) (Invoice, error)
	CreateInvoiceLineItem(ctx context.Context, arg CreateInvoiceLineItemParams) (InvoiceLineItem, error)
	GetInvoiceForUser(ctx context.Context, arg GetInvoiceForUserParams) (Invoice, error)
	ListInvoicesForUser(ctx context.Context, arg ListInvoicesForUserParams) ([]Invoice, error)
	CountInvoicesForUser(ctx context.Context, userID pgtype.UUID) (int64, error)
	ListInvoiceLineItems(ctx context.Context, invoiceID pgtype.UUID) ([]InvoiceLineItem, error)
}

var _ Querier = (*Queries)(nil)
