package invoice

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/obs"
)

// ErrNotFound is returned by stores when an invoice does not exist for the caller.
var ErrNotFound = errors.New("invoice: not found")

// IdentityProvider resolves the authenticated issuer of an invoice.
type IdentityProvider interface {
	Identity(ctx context.Context, userID string) (common.Identity, error)
}

// Store persists invoices together with their line items.
type Store interface {
	Create(ctx context.Context, inv Invoice) (Invoice, error)
	Get(ctx context.Context, userID, id string) (Invoice, error)
	List(ctx context.Context, userID string, limit, offset int) ([]Invoice, int64, error)
}

// Renderer turns a stored invoice into a document.
type Renderer interface {
	Render(ctx context.Context, inv Invoice) (Document, error)
}

// Service orchestrates the generate-pdf flow: identity, validation,
// calculation, persistence and rendering.
type Service struct {
	Identities IdentityProvider
	Store      Store
	Renderer   Renderer
	Calculator Calculator
	Validator  *Validator
	Cache      *PDFCache
	Logger     zerolog.Logger
}

// ListResult is a page of invoice summaries.
type ListResult struct {
	Items []Summary
	Total int64
	Page  int
	Limit int
}

// Generate creates, persists and renders an invoice for userID.
// The renderer is never invoked for unauthenticated or invalid requests.
func (s *Service) Generate(ctx context.Context, userID string, req GenerateRequest) (Invoice, Document, error) {
	inv, doc, err := s.generate(ctx, userID, req)
	recordGenerated(err)
	return inv, doc, err
}

func (s *Service) generate(ctx context.Context, userID string, req GenerateRequest) (Invoice, Document, error) {
	issuer, err := s.identity(ctx, userID)
	if err != nil {
		return Invoice{}, Document{}, err
	}
	if err := s.validator().Validate(&req); err != nil {
		return Invoice{}, Document{}, err
	}

	totals := s.Calculator.Compute(req.Items())
	draft := Invoice{
		UserID:      issuer.ID,
		IssuerName:  issuer.Name,
		IssuerEmail: issuer.Email,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		LineItems:   totals.LineItems,
		SubTotal:    totals.SubTotal,
		TaxRate:     totals.TaxRate,
		TaxAmount:   totals.TaxAmount,
		TotalAmount: totals.TotalAmount,
	}

	stored, err := s.Store.Create(ctx, draft)
	if err != nil {
		s.log(ctx).Error().Err(err).Str("user_id", issuer.ID).Msg("invoice_persist_failed")
		return Invoice{}, Document{}, common.PersistenceFailure(err)
	}

	doc, err := s.render(ctx, stored)
	if err != nil {
		return stored, Document{}, err
	}
	s.log(ctx).Info().
		Str("invoice_id", stored.ID).
		Str("user_id", stored.UserID).
		Int("line_items", len(stored.LineItems)).
		Int("bytes", len(doc.Body)).
		Msg("invoice_generated")
	return stored, doc, nil
}

// Get returns one of userID's invoices.
func (s *Service) Get(ctx context.Context, userID, id string) (Invoice, error) {
	if strings.TrimSpace(userID) == "" {
		return Invoice{}, common.Unauthenticated(nil)
	}
	inv, err := s.Store.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Invoice{}, common.NewAppError(common.CodeNotFound, "invoice not found", http.StatusNotFound, err)
		}
		s.log(ctx).Error().Err(err).Str("invoice_id", id).Str("user_id", userID).Msg("invoice_load_failed")
		return Invoice{}, common.PersistenceFailure(err)
	}
	return inv, nil
}

// List returns a page of userID's invoices, newest first.
func (s *Service) List(ctx context.Context, userID string, page, limit int) (ListResult, error) {
	if strings.TrimSpace(userID) == "" {
		return ListResult{}, common.Unauthenticated(nil)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	items, total, err := s.Store.List(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		s.log(ctx).Error().Err(err).Str("user_id", userID).Msg("invoice_list_failed")
		return ListResult{}, common.PersistenceFailure(err)
	}
	summaries := make([]Summary, 0, len(items))
	for _, inv := range items {
		summaries = append(summaries, inv.Summarize())
	}
	return ListResult{Items: summaries, Total: total, Page: page, Limit: limit}, nil
}

// Document renders a stored invoice again. Rendering is deterministic, so the
// result matches the document returned when the invoice was generated.
func (s *Service) Document(ctx context.Context, userID, id string) (Document, error) {
	if strings.TrimSpace(userID) == "" {
		return Document{}, common.Unauthenticated(nil)
	}
	if body, ok := s.Cache.Get(ctx, userID, id); ok {
		return NewDocument(id, body), nil
	}
	inv, err := s.Get(ctx, userID, id)
	if err != nil {
		return Document{}, err
	}
	return s.render(ctx, inv)
}

func (s *Service) render(ctx context.Context, inv Invoice) (Document, error) {
	doc, err := s.Renderer.Render(ctx, inv)
	if err != nil {
		s.log(ctx).Error().Err(err).Str("invoice_id", inv.ID).Str("user_id", inv.UserID).Msg("invoice_render_failed")
		if common.HasCode(err, common.CodeRenderFailure) {
			return Document{}, err
		}
		return Document{}, common.RenderFailure(err)
	}
	if err := s.Cache.Set(ctx, inv.UserID, inv.ID, doc.Body); err != nil {
		s.log(ctx).Warn().Err(err).Str("invoice_id", inv.ID).Msg("invoice_pdf_cache_set_failed")
	}
	return doc, nil
}

func (s *Service) identity(ctx context.Context, userID string) (common.Identity, error) {
	if strings.TrimSpace(userID) == "" || s.Identities == nil {
		return common.Identity{}, common.Unauthenticated(nil)
	}
	issuer, err := s.Identities.Identity(ctx, userID)
	if err != nil {
		if common.IsAppError(err) {
			return common.Identity{}, err
		}
		s.log(ctx).Error().Err(err).Str("user_id", userID).Msg("invoice_identity_lookup_failed")
		return common.Identity{}, common.PersistenceFailure(err)
	}
	return issuer, nil
}

func (s *Service) validator() *Validator {
	if s.Validator != nil {
		return s.Validator
	}
	return defaultValidator
}

var defaultValidator = NewValidator()

func recordGenerated(err error) {
	if obs.InvoiceGeneratedTotal == nil {
		return
	}
	result := "success"
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		result = appErr.Code
	} else if err != nil {
		result = common.CodeInternal
	}
	obs.InvoiceGeneratedTotal.WithLabelValues(result).Inc()
}

// log prefers the request-scoped logger installed by obs.ContextLogger.
func (s *Service) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.Logger
}
