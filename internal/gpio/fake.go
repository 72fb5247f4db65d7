package gpio

import (
	"errors"
	"fmt"
)

// FakeBoard is a test double that returns scripted input samples and
// records LED writes.
type FakeBoard struct {
	// Samples contains scripted input samples.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// LEDs holds the last value written to each LED.
	LEDs [NumButtons]bool

	// Writes counts SetLED calls.
	Writes int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error

	// WriteError, if set, will be returned by SetLED()
	WriteError error
}

// NewFakeBoard creates a FakeBoard with the given samples.
func NewFakeBoard(samples []Sample) *FakeBoard {
	return &FakeBoard{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeBoard) Read() (Sample, error) {
	if f.ReadError != nil {
		return Sample{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return Sample{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Hold replaces the script with s, returned by every Read until changed.
func (f *FakeBoard) Hold(s Sample) {
	f.Samples = []Sample{s}
	f.index = 0
}

// SetLED records the LED state.
func (f *FakeBoard) SetLED(index int, on bool) error {
	f.Writes++
	if f.WriteError != nil {
		return f.WriteError
	}
	if index < 0 || index >= NumButtons {
		return fmt.Errorf("led %d out of range", index)
	}
	f.LEDs[index] = on
	return nil
}

// AnyLit reports whether any LED was last written on.
func (f *FakeBoard) AnyLit() bool {
	for _, on := range f.LEDs {
		if on {
			return true
		}
	}
	return false
}

// Close marks the board as closed.
func (f *FakeBoard) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the board to the beginning of samples.
func (f *FakeBoard) Reset() {
	f.index = 0
	f.Closed = false
	f.LEDs = [NumButtons]bool{}
	f.Writes = 0
}
