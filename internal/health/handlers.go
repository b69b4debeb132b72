package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"
)

// ErrDisabled is returned by optional dependencies that are not configured.
// Ready reports them as "disabled" without failing the probe.
var ErrDisabled = errors.New("disabled")

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady toggles readiness. The server flips it off when draining.
func SetReady(v bool) {
	ready.Store(v)
}

// IsReady reports the current readiness flag.
func IsReady() bool {
	return ready.Load()
}

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !IsReady() {
		writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}
	if h.Checker == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}
	ctx := r.Context()
	healthy := true
	status := map[string]string{"db": "ok", "redis": "ok"}
	if err := h.Checker.PingDB(ctx, h.dbTimeout()); err != nil {
		status["db"] = err.Error()
		healthy = false
	}
	if err := h.Checker.PingRedis(ctx, h.redisTimeout()); err != nil {
		status["redis"] = err.Error()
		if !errors.Is(err, ErrDisabled) {
			healthy = false
		}
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	writeStatus(w, code, status)
}

func writeStatus(w http.ResponseWriter, code int, status map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) dbTimeout() time.Duration {
	if h.DBTimeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.DBTimeout
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
