package common

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newIdem(t *testing.T) (Idem, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Idem{R: client, TTL: time.Minute}, mr
}

func TestIdemRejectsReplay(t *testing.T) {
	idem, _ := newIdem(t)
	calls := 0
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/invoices/generate-pdf", nil)
	req.Header.Set("Idempotency-Key", "abc")
	req = req.WithContext(WithUserID(req.Context(), "user-1"))

	rr1 := httptest.NewRecorder()
	handler.ServeHTTP(rr1, req)
	require.Equal(t, http.StatusOK, rr1.Code)

	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, req)
	require.Equal(t, http.StatusConflict, rr2.Code)
	require.Contains(t, rr2.Body.String(), "IDEMPOTENT_REPLAY")
	require.Equal(t, 1, calls)

	other := req.WithContext(WithUserID(req.Context(), "user-2"))
	rr3 := httptest.NewRecorder()
	handler.ServeHTTP(rr3, other)
	require.Equal(t, http.StatusOK, rr3.Code)
}

func TestIdemReleasesKeyOnFailure(t *testing.T) {
	idem, _ := newIdem(t)
	status := http.StatusInternalServerError
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	req := httptest.NewRequest(http.MethodPost, "/invoices/generate-pdf", nil)
	req.Header.Set("Idempotency-Key", "retry-me")

	rr1 := httptest.NewRecorder()
	handler.ServeHTTP(rr1, req)
	require.Equal(t, http.StatusInternalServerError, rr1.Code)

	status = http.StatusOK
	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, req)
	require.Equal(t, http.StatusOK, rr2.Code)
}

func TestIdemPassThroughWithoutHeader(t *testing.T) {
	idem := Idem{}
	calls := 0
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	}
	require.Equal(t, 2, calls)
}
