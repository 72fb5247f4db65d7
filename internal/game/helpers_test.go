package game

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sweeney/whack-a-mole/internal/clock"
)

// seqRand returns scripted values; once exhausted it returns 0.
type seqRand struct {
	vals []int
	i    int
}

func (r *seqRand) IntN(n int) int {
	if r.i >= len(r.vals) {
		return 0
	}
	v := r.vals[r.i]
	r.i++
	if v >= n {
		panic("seqRand: scripted value out of range")
	}
	return v
}

// push appends more scripted values.
func (r *seqRand) push(vals ...int) {
	r.vals = append(r.vals, vals...)
}

// fakeLEDs records the last commanded state of each LED.
type fakeLEDs struct {
	on     [NumLEDs]bool
	writes int
	err    error
}

func (f *fakeLEDs) SetLED(index int, on bool) error {
	f.writes++
	if f.err != nil {
		return f.err
	}
	f.on[index] = on
	return nil
}

func (f *fakeLEDs) anyOn() bool {
	for _, on := range f.on {
		if on {
			return true
		}
	}
	return false
}

var errLED = errors.New("led fault")

// released is a sample with every button up: play pins high, stop pin low.
func released() Levels {
	return Levels{Play: [NumLEDs]bool{true, true, true, true}}
}

// pressed is a sample with the given play buttons held (pulled low).
func pressed(buttons ...int) Levels {
	lv := released()
	for _, b := range buttons {
		lv.Play[b] = false
	}
	return lv
}

// stop is a sample with only the stop button held.
func stop() Levels {
	lv := released()
	lv.Stop = true
	return lv
}

type harness struct {
	t    *testing.T
	rng  *seqRand
	leds *fakeLEDs
	out  *bytes.Buffer
	c    *Controller
}

// newHarness boots a controller with the banner already flushed from out.
func newHarness(t *testing.T, vals ...int) *harness {
	t.Helper()
	h := &harness{
		t:    t,
		rng:  &seqRand{vals: vals},
		leds: &fakeLEDs{},
		out:  &bytes.Buffer{},
	}
	h.c = NewController(h.leds, h.rng, h.out)
	h.c.Boot(0)
	h.out.Reset()
	return h
}

func (h *harness) step(tick clock.Tick, lv Levels) []Event {
	h.t.Helper()
	return h.c.Step(Input{Levels: lv, Tick: tick})
}

func types(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
