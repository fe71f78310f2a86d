package testutil

import (
	"fmt"
	"sync"
	"time"
)

// StubClock is a Clock whose time only moves when a test calls Advance.
// Safe for concurrent use.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStubClock creates a StubClock frozen at t.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock frozen at an arbitrary reference instant,
// 2024-03-10 14:05:00 UTC. Tests that assert on formatted timestamps key
// off this value.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2024, 3, 10, 14, 5, 0, 0, time.UTC))
}

// Now returns the clock's current frozen time.
func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the frozen time forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StubIDGenerator hands out deterministic sequential ids ("id-1", "id-2",
// ...) so tests can predict job ids.
type StubIDGenerator struct {
	mu      sync.Mutex
	counter int
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("id-%d", g.counter)
}
