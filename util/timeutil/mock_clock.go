package timeutil

import (
	"sync"
	"time"
)

// MockClock is a Time whose value only moves when Advance is called.
type MockClock struct {
	mu  sync.RWMutex
	now time.Time
}

var _ Time = &MockClock{}

// NewMockClockAt returns a MockClock frozen at now.
func NewMockClockAt(now time.Time) *MockClock {
	return &MockClock{now: now}
}

// Advance moves the clock forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *MockClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}
