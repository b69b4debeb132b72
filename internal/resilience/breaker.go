package resilience

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/backend-invoice/internal/obs"
)

// ErrOpenCircuit is returned when the circuit breaker refuses a request.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State represents the current breaker state.
type State int

const (
	// Closed accepts all requests and tracks failures.
	Closed State = iota
	// Open rejects requests until the cool-off period expires.
	Open
	// HalfOpen lets a probe through to test recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker is a failure-ratio circuit breaker. It opens once at least
// minRequests outcomes were reported and the failure ratio reaches the
// threshold, rejects calls for openFor, then admits probes in half-open.
type Breaker struct {
	mu           sync.Mutex
	state        State
	failures     int
	successes    int
	minRequests  int
	failureRatio float64
	openedAt     time.Time
	openFor      time.Duration
	target       string
	logger       zerolog.Logger
	now          func() time.Time
}

// NewBreaker constructs a closed breaker.
func NewBreaker(minRequests int, failureRatio float64, openFor time.Duration) *Breaker {
	if minRequests <= 0 {
		minRequests = 1
	}
	if failureRatio <= 0 {
		failureRatio = 0.5
	}
	if failureRatio > 1 {
		failureRatio = 1
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return &Breaker{
		state:        Closed,
		minRequests:  minRequests,
		failureRatio: failureRatio,
		openFor:      openFor,
		target:       "default",
		logger:       zerolog.Nop(),
		now:          time.Now,
	}
}

// WithTarget names the guarded dependency in metrics and logs.
func (b *Breaker) WithTarget(target string) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	if trimmed := strings.TrimSpace(target); trimmed != "" {
		b.target = trimmed
	}
	b.recordStateLocked()
	return b
}

// WithLogger sets the logger used for transitions when ctx carries none.
func (b *Breaker) WithLogger(logger zerolog.Logger) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = logger
	return b
}

// WithClock overrides the time source.
func (b *Breaker) WithClock(now func() time.Time) *Breaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
	return b
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a call may proceed. An open breaker whose cool-off
// elapsed moves to half-open and admits the call as a probe.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Open {
		return true
	}
	if b.now().Sub(b.openedAt) < b.openFor {
		return false
	}
	b.changeStateLocked(ctx, HalfOpen)
	return true
}

// Report records the outcome of an admitted call.
func (b *Breaker) Report(ctx context.Context, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		return
	case HalfOpen:
		if success {
			b.changeStateLocked(ctx, Closed)
		} else {
			b.changeStateLocked(ctx, Open)
		}
		return
	}

	if success {
		b.successes++
	} else {
		b.failures++
	}
	total := b.failures + b.successes
	if total < b.minRequests {
		return
	}
	if float64(b.failures)/float64(total) >= b.failureRatio {
		b.changeStateLocked(ctx, Open)
	} else if total > b.minRequests*2 {
		// decay so old successes do not mask a new failure streak
		b.successes = int(math.Ceil(float64(b.successes) * 0.5))
		b.failures = int(math.Ceil(float64(b.failures) * 0.5))
	}
}

func (b *Breaker) changeStateLocked(ctx context.Context, next State) {
	prev := b.state
	b.state = next
	b.failures, b.successes = 0, 0
	switch next {
	case Open:
		b.openedAt = b.now()
	case Closed:
		b.openedAt = time.Time{}
	}
	b.recordStateLocked()
	if obs.BreakerTransitions != nil {
		obs.BreakerTransitions.WithLabelValues(b.target, prev.String(), next.String()).Inc()
	}

	logger := &b.logger
	if ctxLogger := zerolog.Ctx(ctx); ctxLogger.GetLevel() != zerolog.Disabled {
		logger = ctxLogger
	}
	evt := logger.Warn().Str("target", b.target).Str("from_state", prev.String()).Str("to_state", next.String())
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		evt = evt.Str("trace_id", span.TraceID().String())
	}
	evt.Msg("breaker_transition")
}

func (b *Breaker) recordStateLocked() {
	if obs.BreakerState == nil {
		return
	}
	obs.BreakerState.WithLabelValues(b.target).Set(float64(b.state))
}
