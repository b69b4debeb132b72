package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-invoice/internal/db"
)

// PGStore persists invoices in PostgreSQL.
type PGStore struct {
	pool    *pgxpool.Pool
	queries *db.Queries
}

// NewPGStore builds a store over pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool, queries: db.New(pool)}
}

// Create inserts the invoice and its line items in one transaction and
// returns the stored row with id and creation time assigned.
func (s *PGStore) Create(ctx context.Context, inv Invoice) (Invoice, error) {
	uid, err := toUUID(inv.UserID)
	if err != nil {
		return Invoice{}, fmt.Errorf("invoice user id: %w", err)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Invoice{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	qtx := s.queries.WithTx(tx)
	row, err := qtx.CreateInvoice(ctx, db.CreateInvoiceParams{
		UserID:      uid,
		IssuerName:  inv.IssuerName,
		IssuerEmail: inv.IssuerEmail,
		ClientName:  inv.ClientName,
		ClientEmail: inv.ClientEmail,
		SubTotal:    inv.SubTotal.String(),
		TaxRate:     inv.TaxRate.String(),
		TaxAmount:   inv.TaxAmount.String(),
		TotalAmount: inv.TotalAmount.String(),
	})
	if err != nil {
		return Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}

	items := make([]db.InvoiceLineItem, 0, len(inv.LineItems))
	for i, item := range inv.LineItems {
		created, err := qtx.CreateInvoiceLineItem(ctx, db.CreateInvoiceLineItemParams{
			InvoiceID: row.ID,
			Position:  int32(i),
			Name:      item.Name,
			Quantity:  int32(item.Quantity),
			Rate:      item.Rate.String(),
			Total:     item.Total.String(),
		})
		if err != nil {
			return Invoice{}, fmt.Errorf("insert line item %d: %w", i, err)
		}
		items = append(items, created)
	}

	if err := tx.Commit(ctx); err != nil {
		return Invoice{}, err
	}
	return convertInvoice(row, items)
}

// Get loads an invoice owned by userID. Unknown or foreign ids yield ErrNotFound.
func (s *PGStore) Get(ctx context.Context, userID, id string) (Invoice, error) {
	uid, err := toUUID(userID)
	if err != nil {
		return Invoice{}, ErrNotFound
	}
	iid, err := toUUID(id)
	if err != nil {
		return Invoice{}, ErrNotFound
	}
	row, err := s.queries.GetInvoiceForUser(ctx, db.GetInvoiceForUserParams{ID: iid, UserID: uid})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrNotFound
		}
		return Invoice{}, err
	}
	items, err := s.queries.ListInvoiceLineItems(ctx, row.ID)
	if err != nil {
		return Invoice{}, err
	}
	return convertInvoice(row, items)
}

// List returns one page of userID's invoices without line items, and the total count.
func (s *PGStore) List(ctx context.Context, userID string, limit, offset int) ([]Invoice, int64, error) {
	uid, err := toUUID(userID)
	if err != nil {
		return nil, 0, nil
	}
	total, err := s.queries.CountInvoicesForUser(ctx, uid)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.queries.ListInvoicesForUser(ctx, db.ListInvoicesForUserParams{
		UserID: uid,
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]Invoice, 0, len(rows))
	for _, row := range rows {
		inv, err := convertInvoice(row, nil)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, nil
}

func convertInvoice(row db.Invoice, items []db.InvoiceLineItem) (Invoice, error) {
	var (
		inv Invoice
		err error
	)
	inv.ID = uuidString(row.ID)
	inv.UserID = uuidString(row.UserID)
	inv.IssuerName = row.IssuerName
	inv.IssuerEmail = row.IssuerEmail
	inv.ClientName = row.ClientName
	inv.ClientEmail = row.ClientEmail
	inv.CreatedAt = toTime(row.CreatedAt)
	if inv.SubTotal, err = decimal.NewFromString(row.SubTotal); err != nil {
		return Invoice{}, fmt.Errorf("sub_total: %w", err)
	}
	if inv.TaxRate, err = decimal.NewFromString(row.TaxRate); err != nil {
		return Invoice{}, fmt.Errorf("tax_rate: %w", err)
	}
	if inv.TaxAmount, err = decimal.NewFromString(row.TaxAmount); err != nil {
		return Invoice{}, fmt.Errorf("tax_amount: %w", err)
	}
	if inv.TotalAmount, err = decimal.NewFromString(row.TotalAmount); err != nil {
		return Invoice{}, fmt.Errorf("total_amount: %w", err)
	}
	inv.LineItems = make([]LineItem, 0, len(items))
	for _, item := range items {
		rate, err := decimal.NewFromString(item.Rate)
		if err != nil {
			return Invoice{}, fmt.Errorf("line item rate: %w", err)
		}
		total, err := decimal.NewFromString(item.Total)
		if err != nil {
			return Invoice{}, fmt.Errorf("line item total: %w", err)
		}
		inv.LineItems = append(inv.LineItems, LineItem{
			Name:     item.Name,
			Quantity: int(item.Quantity),
			Rate:     rate,
			Total:    total,
		})
	}
	return inv, nil
}

func toUUID(value string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(value)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

func toTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time.UTC()
}
