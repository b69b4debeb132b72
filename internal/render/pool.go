package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"

	"github.com/noah-isme/backend-invoice/internal/invoice"
	"github.com/noah-isme/backend-invoice/internal/obs"
	"github.com/noah-isme/backend-invoice/internal/resilience"
)

var (
	// ErrEngineUnavailable is returned when no engine session could be obtained.
	ErrEngineUnavailable = errors.New("render: engine unavailable")
	// ErrEmptyOutput is returned when the engine produced no bytes.
	ErrEmptyOutput = errors.New("render: engine produced no output")
	// ErrEngineCrashed is returned when a session panics mid-render.
	ErrEngineCrashed = errors.New("render: engine crashed")
)

// Pool bounds concurrent renders. Each render acquires a slot, starts one
// engine session, renders a single document and releases both, whatever the
// outcome.
type Pool struct {
	engine  Engine
	sem     *semaphore.Weighted
	timeout time.Duration
	breaker *resilience.Breaker
}

// NewPool returns a pool allowing size concurrent sessions, each limited to timeout.
func NewPool(engine Engine, size int, timeout time.Duration) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{engine: engine, sem: semaphore.NewWeighted(int64(size)), timeout: timeout}
}

// WithBreaker makes the pool fail fast with ErrEngineUnavailable while b is
// open. Cancellations by the caller are not reported as engine failures.
func (p *Pool) WithBreaker(b *resilience.Breaker) *Pool {
	p.breaker = b
	return p
}

type renderResult struct {
	body []byte
	err  error
}

// Render produces the PDF for inv. Slot acquisition and rendering both honour
// ctx and the pool timeout.
func (p *Pool) Render(ctx context.Context, inv invoice.Invoice) (invoice.Document, error) {
	ctx, span := otel.Tracer("render").Start(ctx, "invoice.render")
	span.SetAttributes(
		attribute.String("invoice.id", inv.ID),
		attribute.Int("invoice.line_items", len(inv.LineItems)),
	)
	defer span.End()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if p.breaker != nil && !p.breaker.Allow(ctx) {
		err := fmt.Errorf("%w: %v", ErrEngineUnavailable, resilience.ErrOpenCircuit)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return invoice.Document{}, err
	}

	start := time.Now()
	body, err := p.render(ctx, inv)
	observeRender(start, err)
	if p.breaker != nil && !errors.Is(err, context.Canceled) {
		p.breaker.Report(ctx, err == nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return invoice.Document{}, err
	}
	span.SetAttributes(attribute.Int("invoice.bytes", len(body)))
	return invoice.NewDocument(inv.ID, body), nil
}

func (p *Pool) render(ctx context.Context, inv invoice.Invoice) ([]byte, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}
	trackInUse(1)

	done := make(chan renderResult, 1)
	go func() {
		defer func() {
			trackInUse(-1)
			p.sem.Release(1)
		}()
		body, err := p.session(ctx, inv)
		done <- renderResult{body: body, err: err}
	}()

	select {
	case res := <-done:
		return res.body, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("render: %w", ctx.Err())
	}
}

func (p *Pool) session(ctx context.Context, inv invoice.Invoice) (body []byte, err error) {
	sess, err := p.engine.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	defer func() {
		if r := recover(); r != nil {
			body, err = nil, fmt.Errorf("%w: %v", ErrEngineCrashed, r)
		}
		_ = sess.Close()
	}()

	body, err = sess.Render(ctx, inv)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, ErrEmptyOutput
	}
	return body, nil
}

func observeRender(start time.Time, err error) {
	if obs.InvoiceRenderDuration == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	obs.InvoiceRenderDuration.WithLabelValues(result).Observe(obs.DurationMillis(time.Since(start)))
}

func trackInUse(delta float64) {
	if obs.RenderPoolInUse != nil {
		obs.RenderPoolInUse.Add(delta)
	}
}
