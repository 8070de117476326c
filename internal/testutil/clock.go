package testutil

import (
	"sync"
	"time"
)

// FixedTime is an arbitrary instant used as the default for stub clocks.
var FixedTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// StubClock is a Clock whose time only moves when told to.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStubClock creates a StubClock starting at FixedTime.
func NewStubClock() *StubClock {
	return &StubClock{now: FixedTime}
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to the given instant.
func (c *StubClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
