package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc *Service) http.Handler {
	h := &Handler{Service: svc}
	mw := Middleware{Service: svc}
	r := chi.NewRouter()
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.With(mw.RequireAuth).Get("/auth/me", h.Me)
	return r
}

func doJSON(t *testing.T, handler http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRegisterLoginMe(t *testing.T) {
	router := newTestRouter(newTestService(newFakeQueries()))

	rec := doJSON(t, router, http.MethodPost, "/auth/register", `{"name":"Ada","email":"ada@example.com","password":"correct-horse"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/login", `{"email":"ada@example.com","password":"correct-horse"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Data struct {
			Token string `json:"token"`
			User  User   `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Data.Token)

	rec = doJSON(t, router, http.MethodGet, "/auth/me", "", login.Data.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ada@example.com")
}

func TestHandlerRegisterValidation(t *testing.T) {
	router := newTestRouter(newTestService(newFakeQueries()))

	rec := doJSON(t, router, http.MethodPost, "/auth/register", `{"name":"","email":"nope","password":"short"}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	require.Equal(t, "Name is required.", body.Error.Details["name"])
	require.Equal(t, "A valid email is required.", body.Error.Details["email"])
	require.Contains(t, body.Error.Details, "password")
}

func TestHandlerRejectsMalformedJSON(t *testing.T) {
	router := newTestRouter(newTestService(newFakeQueries()))
	rec := doJSON(t, router, http.MethodPost, "/auth/login", `{`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	router := newTestRouter(newTestService(newFakeQueries()))

	rec := doJSON(t, router, http.MethodGet, "/auth/me", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/auth/me", "", "garbage")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}
