package game

import "github.com/sweeney/whack-a-mole/internal/logger"

// Board drives the LEDs and mirrors which moles are currently lit.
type Board struct {
	out    LEDWriter
	active [NumLEDs]bool
}

// NewBoard creates a Board writing to out. All moles start inactive.
func NewBoard(out LEDWriter) *Board {
	return &Board{out: out}
}

// Set turns one LED on or off.
// A failed write is logged; the cache still follows the commanded state.
func (b *Board) Set(index int, on bool) {
	if index < 0 || index >= NumLEDs {
		return
	}
	if err := b.out.SetLED(index, on); err != nil {
		logger.Warn("led write error", "led", index+1, "on", on, "err", err)
	}
	b.active[index] = on
}

// Clear turns every LED off.
func (b *Board) Clear() {
	for i := range b.active {
		b.Set(i, false)
	}
}

// Lit reports whether the mole at index is active.
func (b *Board) Lit(index int) bool {
	if index < 0 || index >= NumLEDs {
		return false
	}
	return b.active[index]
}

// Empty reports whether no mole is active.
func (b *Board) Empty() bool {
	for _, on := range b.active {
		if on {
			return false
		}
	}
	return true
}

// Active returns the lit LED indices in ascending order.
func (b *Board) Active() []int {
	var lit []int
	for i, on := range b.active {
		if on {
			lit = append(lit, i)
		}
	}
	return lit
}

// Snapshot returns a copy of the active flags.
func (b *Board) Snapshot() [NumLEDs]bool {
	return b.active
}
