package game

import (
	"time"

	"github.com/kamstrup/intmap"

	"github.com/sweeney/whack-a-mole/internal/clock"
)

// Button is a logical button identity, independent of pin wiring.
type Button int

// Play buttons are 0..NumLEDs-1 and match their LED index.
const ButtonStop Button = NumLEDs

// PlayButton returns the logical button paired with LED index i.
func PlayButton(i int) Button {
	return Button(i)
}

// InputReader turns raw pin levels into debounced press events.
type InputReader struct {
	window uint32
	last   *intmap.Map[Button, clock.Tick] // last accepted press per button
}

// NewInputReader creates a reader that accepts at most one press per button per window.
func NewInputReader(window time.Duration) *InputReader {
	return &InputReader{
		window: clock.Ms(window),
		last:   intmap.New[Button, clock.Tick](NumLEDs + 1),
	}
}

// PollPlay scans the play inputs (active-low) and returns the accepted press.
// When several buttons are held in the same poll, every eligible button is
// marked as pressed but only the last one scanned is returned.
func (r *InputReader) PollPlay(now clock.Tick, lv Levels) (int, bool) {
	pressed := -1
	for i, high := range lv.Play {
		if high {
			continue
		}
		if r.accept(PlayButton(i), now) {
			pressed = i
		}
	}
	return pressed, pressed >= 0
}

// PollStop reports an accepted press of the active-high stop input.
func (r *InputReader) PollStop(now clock.Tick, lv Levels) bool {
	return lv.Stop && r.accept(ButtonStop, now)
}

func (r *InputReader) accept(b Button, now clock.Tick) bool {
	if last, ok := r.last.Get(b); ok && clock.Since(now, last) < r.window {
		return false
	}
	r.last.Put(b, now)
	return true
}
