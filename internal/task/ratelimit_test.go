package task

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives a RateLimiter deterministically: sleeps advance the
// clock instead of waiting.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
}

func newTestLimiter(interval time.Duration) (*RateLimiter, *fakeClock) {
	clock := newFakeClock()
	l := NewRateLimiter(interval)
	l.now = clock.Now
	l.sleep = clock.Sleep
	return l, clock
}

func TestThrottle_FirstCallDoesNotSleep(t *testing.T) {
	l, clock := newTestLimiter(2500 * time.Millisecond)
	l.Throttle()
	assert.Empty(t, clock.sleeps)
}

func TestThrottle_SecondImmediateCallWaitsFullInterval(t *testing.T) {
	l, clock := newTestLimiter(2500 * time.Millisecond)
	l.Throttle()
	l.Throttle()

	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 2500*time.Millisecond, clock.sleeps[0])
}

func TestThrottle_ElapsedTimeReducesWait(t *testing.T) {
	l, clock := newTestLimiter(2500 * time.Millisecond)
	l.Throttle()

	clock.Sleep(1500 * time.Millisecond) // unrelated work
	clock.sleeps = nil

	l.Throttle()
	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 1000*time.Millisecond, clock.sleeps[0])
}

func TestThrottle_NoWaitAfterIntervalPassed(t *testing.T) {
	l, clock := newTestLimiter(2500 * time.Millisecond)
	l.Throttle()

	clock.Sleep(3 * time.Second)
	clock.sleeps = nil

	l.Throttle()
	assert.Empty(t, clock.sleeps)
}

func TestThrottle_GatedCallsAreSpacedByInterval(t *testing.T) {
	// Each throttled call reserves a slot; N back-to-back calls end up
	// spaced exactly one interval apart.
	interval := 2500 * time.Millisecond
	l, clock := newTestLimiter(interval)

	start := clock.Now()
	slots := make([]time.Time, 0, 4)
	for i := 0; i < 4; i++ {
		l.Throttle()
		slots = append(slots, clock.Now())
	}

	for i, slot := range slots {
		expected := start.Add(time.Duration(i) * interval)
		assert.Equal(t, expected, slot, "slot %d", i)
	}
}
