package invoice

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-invoice/internal/common"
)

func withUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != "" {
				r = r.WithContext(common.WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newTestRouter(svc *Service, userID string) http.Handler {
	h := &Handler{Svc: svc}
	r := chi.NewRouter()
	r.Use(withUser(userID))
	r.Post("/invoices/generate-pdf", h.Generate)
	r.Get("/invoices", h.List)
	r.Get("/invoices/{id}", h.Get)
	r.Get("/invoices/{id}/pdf", h.PDF)
	return r
}

type errorEnvelope struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func TestHandlerGeneratePDF(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc, testUserID)

	body := `{"clientName":"Acme","clientEmail":"billing@acme.com","lineItems":[{"name":"Widget","quantity":3,"rate":6.66}]}`
	req := httptest.NewRequest(http.MethodPost, "/invoices/generate-pdf", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	id := rec.Header().Get("X-Invoice-ID")
	require.NotEmpty(t, id)
	require.Equal(t, `attachment; filename="invoice-`+id+`.pdf"`, rec.Header().Get("Content-Disposition"))
	require.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
	require.Contains(t, rec.Body.String(), "23.58")
}

func TestHandlerGenerateAcceptsStringRate(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc, testUserID)

	body := `{"clientName":"Acme","clientEmail":"billing@acme.com","lineItems":[{"name":"Design","quantity":2,"rate":"100.00"},{"name":"Hosting","quantity":1,"rate":"50"}]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoices/generate-pdf", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "295.00")
}

func TestHandlerGenerateValidationError(t *testing.T) {
	svc, store, renderer := newTestService()
	router := newTestRouter(svc, testUserID)

	body := `{"clientName":"Acme","clientEmail":"billing@acme.com","lineItems":[{"name":"Widget","quantity":0,"rate":1}]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoices/generate-pdf", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, common.CodeValidation, env.Error.Code)
	require.Equal(t, "Product quantity must be a whole number greater than 0.", env.Error.Details["lineItems[0].quantity"])
	require.Zero(t, store.creates)
	require.Zero(t, renderer.calls)
}

func TestHandlerGenerateFractionalQuantity(t *testing.T) {
	svc, store, _ := newTestService()
	router := newTestRouter(svc, testUserID)

	body := `{"clientName":"Acme","clientEmail":"billing@acme.com","lineItems":[{"name":"Widget","quantity":2.5,"rate":1}]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoices/generate-pdf", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
	require.Zero(t, store.creates)
}

func TestHandlerGenerateMalformedJSON(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc, testUserID)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoices/generate-pdf", strings.NewReader(`{"clientName":`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerRequiresUser(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoices/generate-pdf", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerRenderFailureHidesDetail(t *testing.T) {
	svc, _, renderer := newTestService()
	renderer.failWith = errBoom
	router := newTestRouter(svc, testUserID)

	body := `{"clientName":"Acme","clientEmail":"billing@acme.com","lineItems":[{"name":"Widget","quantity":1,"rate":1}]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoices/generate-pdf", strings.NewReader(body)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), common.CodeRenderFailure)
	require.NotContains(t, rec.Body.String(), "boom")
}

func TestHandlerListGetAndPDF(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc, testUserID)

	body := `{"clientName":"Acme","clientEmail":"billing@acme.com","lineItems":[{"name":"Widget","quantity":3,"rate":"6.66"}]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoices/generate-pdf", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	id := rec.Header().Get("X-Invoice-ID")
	original := rec.Body.Bytes()

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-Total-Count"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Data Invoice `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, id, got.Data.ID)
	require.Equal(t, "19.98", got.Data.SubTotal.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices/"+id+"/pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, original, rec.Body.Bytes())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices/unknown/pdf", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
