// Package clock provides the millisecond tick counter that drives all game timing.
// Ticks are 32-bit and wrap; compare them only through Since.
package clock

import (
	"sync"
	"time"
)

// Tick is a millisecond timestamp that wraps modulo 2^32.
type Tick uint32

// Source supplies a monotonically non-decreasing tick.
type Source interface {
	Now() Tick
}

// Since returns the milliseconds elapsed from then to now.
// Unsigned subtraction keeps the result correct across a single wrap.
func Since(now, then Tick) uint32 {
	return uint32(now - then)
}

// Ms converts a duration to a tick count.
func Ms(d time.Duration) uint32 {
	return uint32(d.Milliseconds())
}

// System counts milliseconds since it was created.
type System struct {
	start time.Time
}

// NewSystem creates a System counting from now.
func NewSystem() *System {
	return &System{start: time.Now()}
}

// Now returns the milliseconds since construction, truncated to 32 bits.
func (s *System) Now() Tick {
	return Tick(uint64(time.Since(s.start).Milliseconds()))
}

// Fake is a manually advanced Source for tests.
type Fake struct {
	mu  sync.Mutex
	now Tick
}

// NewFake creates a Fake starting at the given tick.
func NewFake(start Tick) *Fake {
	return &Fake{now: start}
}

// Now returns the current fake tick.
func (f *Fake) Now() Tick {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d, wrapping like the hardware counter.
func (f *Fake) Advance(d time.Duration) Tick {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now += Tick(Ms(d))
	return f.now
}

// Set jumps the clock to t.
func (f *Fake) Set(t Tick) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}
