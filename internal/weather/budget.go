package weather

import (
	"sync"
	"time"
)

// RateBudget is the client-side daily guard on upstream calls. The budget
// window is the UTC calendar day: callsUsed resets the first time a reserve
// is attempted after midnight UTC. Check-then-increment happens under one
// lock so concurrent requests cannot overshoot the limit.
type RateBudget struct {
	mu          sync.Mutex
	windowStart time.Time
	callsUsed   int
	dailyLimit  int

	now func() time.Time
}

// NewRateBudget creates a budget with the given daily limit.
func NewRateBudget(dailyLimit int) *RateBudget {
	return &RateBudget{
		dailyLimit: dailyLimit,
		now:        time.Now,
	}
}

// Reserve consumes one call from the budget if any remain in the current
// UTC day. Calls that would exceed the limit are refused pre-flight.
func (b *RateBudget) Reserve() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollWindow()
	if b.callsUsed >= b.dailyLimit {
		return false
	}
	b.callsUsed++
	return true
}

// Used returns calls consumed in the current window.
func (b *RateBudget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollWindow()
	return b.callsUsed
}

// Remaining returns calls left in the current window.
func (b *RateBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollWindow()
	if r := b.dailyLimit - b.callsUsed; r > 0 {
		return r
	}
	return 0
}

// WindowStart returns the start of the current UTC-day window.
func (b *RateBudget) WindowStart() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollWindow()
	return b.windowStart
}

// rollWindow resets the counter when the clock has crossed into a new UTC
// calendar day. Caller must hold the lock.
func (b *RateBudget) rollWindow() {
	today := b.now().UTC().Truncate(24 * time.Hour)
	if !today.Equal(b.windowStart) {
		b.windowStart = today
		b.callsUsed = 0
	}
}
