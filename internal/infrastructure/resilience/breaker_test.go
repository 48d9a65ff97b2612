package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var errFailed = errors.New("failed")

func newBreaker(c *clock, s Settings) *Breaker {
	s.Now = c.Now
	return New("test", s)
}

func fail(b *Breaker, n int) {
	for i := 0; i < n; i++ {
		_ = b.Do(func() error { return errFailed })
	}
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		requests []bool
		advance  time.Duration
		want     State
	}{
		{
			name:     "stays closed on successes",
			settings: Settings{Interval: time.Minute, Timeout: time.Minute},
			requests: []bool{true, true, true},
			want:     StateClosed,
		},
		{
			name: "opens after consecutive failures",
			settings: Settings{
				ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 3 },
			},
			requests: []bool{false, false, false},
			want:     StateOpen,
		},
		{
			name: "success resets the streak",
			settings: Settings{
				ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 2 },
			},
			requests: []bool{false, true, false},
			want:     StateClosed,
		},
		{
			name: "half-open after timeout",
			settings: Settings{
				Timeout:     10 * time.Second,
				ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 2 },
			},
			requests: []bool{false, false},
			advance:  11 * time.Second,
			want:     StateHalfOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &clock{now: time.Unix(0, 0)}
			b := newBreaker(c, tt.settings)
			for _, ok := range tt.requests {
				_ = b.Do(func() error {
					if ok {
						return nil
					}
					return errFailed
				})
			}
			c.Advance(tt.advance)
			assert.Equal(t, tt.want, b.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	b := newBreaker(&clock{now: time.Unix(0, 0)}, Settings{})

	got, err := Execute(b, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, Counts{Requests: 1, TotalSuccesses: 1, ConsecutiveSuccesses: 1}, b.Counts())

	assert.ErrorIs(t, b.Do(func() error { return errFailed }), errFailed)
	assert.Equal(t, Counts{Requests: 2, TotalSuccesses: 1, TotalFailures: 1, ConsecutiveFailures: 1}, b.Counts())
}

func TestBreakerIntervalClearsCounts(t *testing.T) {
	c := &clock{now: time.Unix(0, 0)}
	b := newBreaker(c, Settings{Interval: time.Minute})
	fail(b, 2)
	require.Equal(t, uint32(2), b.Counts().ConsecutiveFailures)

	c.Advance(2 * time.Minute)
	assert.Equal(t, StateClosed, b.State())
	assert.Zero(t, b.Counts())
}

func TestBreakerOpenRejects(t *testing.T) {
	c := &clock{now: time.Unix(0, 0)}
	b := newBreaker(c, Settings{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 2 },
	})
	fail(b, 2)

	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	c := &clock{now: time.Unix(0, 0)}
	b := newBreaker(c, Settings{
		MaxRequests: 2,
		Timeout:     time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 2 },
	})
	fail(b, 2)
	c.Advance(2 * time.Second)
	require.Equal(t, StateHalfOpen, b.State())

	for i := 0; i < 2; i++ {
		require.NoError(t, b.Do(func() error { return nil }))
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	c := &clock{now: time.Unix(0, 0)}
	b := newBreaker(c, Settings{
		Timeout:     time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})
	fail(b, 1)
	c.Advance(2 * time.Second)

	fail(b, 1)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerHalfOpenLimitsTrials(t *testing.T) {
	c := &clock{now: time.Unix(0, 0)}
	b := newBreaker(c, Settings{
		MaxRequests: 1,
		Timeout:     time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})
	fail(b, 1)
	c.Advance(2 * time.Second)

	err := b.Do(func() error {
		return b.Do(func() error { return nil })
	})
	assert.ErrorIs(t, err, ErrTooManyRequests)
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	c := &clock{now: time.Unix(0, 0)}
	b := newBreaker(c, Settings{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})

	err := b.Do(func() error { return fmt.Errorf("load: %w", context.Canceled) })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, b.State())
	assert.Zero(t, b.Counts().TotalFailures)
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b := newBreaker(&clock{now: time.Unix(0, 0)}, Settings{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})

	assert.Panics(t, func() {
		_ = b.Do(func() error { panic("boom") })
	})
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerCallbacks(t *testing.T) {
	var transitions []string
	c := &clock{now: time.Unix(0, 0)}
	b := newBreaker(c, Settings{
		Timeout:     time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 2 },
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	fail(b, 2)
	c.Advance(2 * time.Second)
	require.Equal(t, StateHalfOpen, b.State())
	require.NoError(t, b.Do(func() error { return nil }))

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
	assert.Equal(t, "unknown", State(9).String())
}
