package resilience_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-invoice/internal/resilience"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestBreakerTransitions(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	breaker := resilience.NewBreaker(2, 0.5, time.Minute).WithTarget("pdf").WithClock(clk.now)
	ctx := context.Background()

	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)

	require.Equal(t, resilience.Open, breaker.State())
	require.False(t, breaker.Allow(ctx))

	clk.t = clk.t.Add(time.Minute)
	require.True(t, breaker.Allow(ctx))
	require.Equal(t, resilience.HalfOpen, breaker.State())
	breaker.Report(ctx, true)
	require.Equal(t, resilience.Closed, breaker.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	breaker := resilience.NewBreaker(1, 1, time.Second).WithClock(clk.now)
	ctx := context.Background()

	breaker.Report(ctx, false)
	require.Equal(t, resilience.Open, breaker.State())

	clk.t = clk.t.Add(2 * time.Second)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.Equal(t, resilience.Open, breaker.State())
	require.False(t, breaker.Allow(ctx))
}

func TestBreakerStaysClosedBelowRatio(t *testing.T) {
	breaker := resilience.NewBreaker(4, 0.5, time.Second)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		breaker.Report(ctx, i%4 != 0)
	}
	require.Equal(t, resilience.Closed, breaker.State())
}
