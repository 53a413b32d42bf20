package middlewarectx

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiter_SweepsRefilledAddresses(t *testing.T) {
	t0 := time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	clock := t0
	l := NewRateLimiter(slog.New(slog.NewTextHandler(io.Discard, nil)), rate.Every(time.Minute), 1)
	l.now = func() time.Time { return clock }

	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))

	clock = t0.Add(30 * time.Second)
	assert.True(t, l.allow("10.0.0.2"))
	assert.Len(t, l.limiters, 2)

	clock = t0.Add(70 * time.Second)
	assert.True(t, l.allow("10.0.0.3"))

	assert.NotContains(t, l.limiters, "10.0.0.1", "refilled limiter must be evicted")
	assert.Contains(t, l.limiters, "10.0.0.2")
	assert.Contains(t, l.limiters, "10.0.0.3")
	assert.False(t, l.allow("10.0.0.2"), "partially drained limiter keeps its state")
}

func TestRateLimiter_NoSweepBeforeInterval(t *testing.T) {
	t0 := time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	clock := t0
	l := NewRateLimiter(slog.New(slog.NewTextHandler(io.Discard, nil)), rate.Every(time.Second), 1)
	l.now = func() time.Time { return clock }

	assert.True(t, l.allow("10.0.0.1"))
	clock = t0.Add(30 * time.Second)
	assert.True(t, l.allow("10.0.0.2"))

	assert.Len(t, l.limiters, 2)
}
