package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Idem provides an Idempotency-Key middleware backed by Redis. Keys are scoped
// to the authenticated user so two callers can reuse the same header value.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

func hashKey(userID, key string) string {
	sum := sha256.Sum256([]byte(userID + "\x00" + key))
	return "idem:" + hex.EncodeToString(sum[:])
}

// Middleware enforces idempotency semantics for write endpoints. A key is
// released again when the handler fails so the client may retry.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		userID, _ := UserID(ctx)
		key := hashKey(userID, header)
		ttl := i.TTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		ok, err := i.R.SetNX(ctx, key, "locked", ttl).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, CodeInternal, "idempotency store error", nil)
			return
		}
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, "{\"error\":{\"code\":\"IDEMPOTENT_REPLAY\",\"message\":\"duplicate request\"}}")
			return
		}
		rec := &statusCapture{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if rec.status >= http.StatusBadRequest {
				_ = i.R.Del(context.Background(), key).Err()
			}
		}()
		next.ServeHTTP(rec, r)
	})
}

type statusCapture struct {
	http.ResponseWriter
	status int
}

func (s *statusCapture) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
