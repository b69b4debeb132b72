package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-invoice/internal/auth"
	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/config"
	"github.com/noah-isme/backend-invoice/internal/db"
	"github.com/noah-isme/backend-invoice/internal/invoice"
)

type sampleInvoice struct {
	client string
	email  string
	items  []invoice.LineItem
}

var samples = []sampleInvoice{
	{"Acme Corp", "billing@acme.example", []invoice.LineItem{
		{Name: "Widget", Quantity: 2, Rate: decimal.RequireFromString("9.99")},
	}},
	{"Globex", "accounts@globex.example", []invoice.LineItem{
		{Name: "Consulting hour", Quantity: 1, Rate: decimal.RequireFromString("100.00")},
		{Name: "Support plan", Quantity: 3, Rate: decimal.RequireFromString("50.00")},
	}},
	{"Initech", "ap@initech.example", []invoice.LineItem{
		{Name: "TPS report review", Quantity: 12, Rate: decimal.RequireFromString("0.30")},
		{Name: "Stapler", Quantity: 1, Rate: decimal.RequireFromString("0")},
	}},
}

func main() {
	email := flag.String("email", "demo@invoice.example", "demo account email")
	password := flag.String("password", "demo-password", "demo account password")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("cmd", "seeder").Logger()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	authService, err := auth.NewService(auth.Config{Queries: db.New(pool), Secret: cfg.JWTSecret})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}

	userID, err := demoUser(ctx, authService, *email, *password)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed demo user")
	}
	identity, err := authService.Identity(ctx, userID)
	if err != nil {
		logger.Fatal().Err(err).Msg("load demo identity")
	}

	store := invoice.NewPGStore(pool)
	calc := invoice.NewCalculator(cfg.TaxRate)
	for _, sample := range samples {
		totals := calc.Compute(sample.items)
		inv, err := store.Create(ctx, invoice.Invoice{
			UserID:      identity.ID,
			IssuerName:  identity.Name,
			IssuerEmail: identity.Email,
			ClientName:  sample.client,
			ClientEmail: sample.email,
			LineItems:   totals.LineItems,
			SubTotal:    totals.SubTotal,
			TaxRate:     totals.TaxRate,
			TaxAmount:   totals.TaxAmount,
			TotalAmount: totals.TotalAmount,
		})
		if err != nil {
			logger.Fatal().Err(err).Str("client", sample.client).Msg("seed invoice")
		}
		logger.Info().Str("invoice_id", inv.ID).Str("total", inv.TotalAmount.StringFixed(2)).Msg("invoice seeded")
	}
	logger.Info().Str("email", identity.Email).Int("invoices", len(samples)).Msg("seeding completed")
}

// demoUser registers the demo account, or logs in when it already exists.
func demoUser(ctx context.Context, svc *auth.Service, email, password string) (string, error) {
	user, err := svc.Register(ctx, "Demo Issuer", email, password)
	if err == nil {
		return user.ID, nil
	}
	if !common.HasCode(err, "EMAIL_ALREADY_USED") {
		return "", err
	}
	result, err := svc.Login(ctx, email, password)
	if err != nil {
		return "", err
	}
	return result.User.ID, nil
}
