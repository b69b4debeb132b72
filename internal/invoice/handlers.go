package invoice

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-invoice/internal/common"
)

// Handler exposes the invoice endpoints.
type Handler struct {
	Svc *Service
}

// Generate handles POST /api/v1/invoices/generate-pdf.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "invoice service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, common.Unauthenticated(nil))
		return
	}
	var req GenerateRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	inv, doc, err := h.Svc.Generate(r.Context(), userID, req)
	if err != nil {
		if inv.ID != "" {
			w.Header().Set("X-Invoice-ID", inv.ID)
		}
		common.WriteError(w, err)
		return
	}
	w.Header().Set("X-Invoice-ID", inv.ID)
	writeDocument(w, doc)
}

// List handles GET /api/v1/invoices.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "invoice service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, common.Unauthenticated(nil))
		return
	}
	page, limit := common.ParsePagination(r, 20, 100)
	result, err := h.Svc.List(r.Context(), userID, page, limit)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(result.Total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Items,
		"pagination": common.NewPagination(result.Page, result.Limit, result.Total),
	})
}

// Get handles GET /api/v1/invoices/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "invoice service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, common.Unauthenticated(nil))
		return
	}
	inv, err := h.Svc.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": inv})
}

// PDF handles GET /api/v1/invoices/{id}/pdf.
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "invoice service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, common.Unauthenticated(nil))
		return
	}
	doc, err := h.Svc.Document(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	writeDocument(w, doc)
}

func writeDocument(w http.ResponseWriter, doc Document) {
	contentType := doc.ContentType
	if contentType == "" {
		contentType = ContentTypePDF
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}

func decodeJSON(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return common.ValidationFailure(map[string]string{typeErr.Field: typeMessage(typeErr)})
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return common.NewAppError("PAYLOAD_TOO_LARGE", "request body too large", http.StatusRequestEntityTooLarge, err)
		}
		return common.ValidationFailure(map[string]string{"body": "invalid request payload"})
	}
	return nil
}

func typeMessage(err *json.UnmarshalTypeError) string {
	switch {
	case strings.HasSuffix(err.Field, "quantity"):
		return "Product quantity must be a whole number greater than 0."
	case strings.HasSuffix(err.Field, "rate"):
		return "Product rate must be a number greater than or equal to 0."
	}
	return "invalid value type"
}
