//go:build !linux

package gpio

import "errors"

// RealBoard is not available on non-Linux platforms.
type RealBoard struct{}

// NewRealBoard returns an error on non-Linux platforms.
func NewRealBoard(pins Pins) (*RealBoard, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (b *RealBoard) Read() (Sample, error) {
	return Sample{}, errors.New("gpio: not supported")
}

// SetLED is not implemented on non-Linux platforms.
func (b *RealBoard) SetLED(index int, on bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (b *RealBoard) Close() error {
	return nil
}
