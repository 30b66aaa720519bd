package testutil

import (
	"sync"
	"time"
)

// Epoch is the instant every test Clock starts at. Synthetic devices take
// their lastSeen and the end of their connection history from it.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Clock is a frozen time source that only moves when a test advances it,
// so every device in a batch shares one timestamp.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock at Epoch.
func NewClock() *Clock {
	return &Clock{now: Epoch}
}

// Now returns the clock's current time. Pass the method value as a
// synthesizer or module clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d, e.g. between two scans.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
