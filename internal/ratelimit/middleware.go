package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/backend-invoice/internal/common"
)

// Allower decides whether another event for key fits in the window.
type Allower interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error)
}

// Config describes how to derive a rate limit key and thresholds.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Handler rejects requests over the limit with 429 RATE_LIMITED. When the
// limiter itself fails the request is let through and OnError is called.
type Handler struct {
	Limiter Allower
	Config  Config
	OnError func(error)
	Now     func() time.Time
}

// UserKey keys requests by authenticated user, falling back to client IP.
func UserKey(scope string) func(*http.Request) string {
	return func(r *http.Request) string {
		if userID, ok := common.UserID(r.Context()); ok {
			return scope + ":user:" + userID
		}
		return scope + ":ip:" + common.ClientIP(r)
	}
}

// Middleware wraps next with the limit check.
func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Limiter == nil || h.Config.Key == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, resetAt, err := h.Limiter.Allow(r.Context(), h.Config.Key(r), h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}
		h.writeHeaders(w.Header(), remaining, resetAt)
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(h.retryAfter(resetAt)))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h Handler) writeHeaders(headers http.Header, remaining int, resetAt time.Time) {
	headers.Set("X-RateLimit-Limit", strconv.Itoa(max(h.Config.Max, 0)))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

// retryAfter rounds up so clients never retry a second too early.
func (h Handler) retryAfter(resetAt time.Time) int {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	wait := resetAt.Sub(now())
	if wait <= 0 {
		return 0
	}
	return int((wait + time.Second - 1) / time.Second)
}
