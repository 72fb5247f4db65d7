//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "whack-a-mole"

// RealBoard drives the game I/O using the Linux GPIO character device.
type RealBoard struct {
	chip *gpiocdev.Chip
	play *gpiocdev.Lines
	stop *gpiocdev.Line
	leds [NumButtons]*gpiocdev.Line
}

// NewRealBoard requests every line in pins from the chip.
func NewRealBoard(pins Pins) (*RealBoard, error) {
	chip, err := gpiocdev.NewChip(pins.Chip, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", pins.Chip, err)
	}
	b := &RealBoard{chip: chip}

	// Play buttons short to ground when pressed, so idle high via pull-up.
	b.play, err = chip.RequestLines(pins.Play[:], gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("request play pins %v: %w", pins.Play, err)
	}

	b.stop, err = chip.RequestLine(pins.Stop, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("request stop pin %d: %w", pins.Stop, err)
	}

	for i, pin := range pins.LED {
		b.leds[i], err = chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request led %d pin %d: %w", i+1, pin, err)
		}
	}

	return b, nil
}

// Read samples every button line.
func (b *RealBoard) Read() (Sample, error) {
	var s Sample

	vals := make([]int, NumButtons)
	if err := b.play.Values(vals); err != nil {
		return s, fmt.Errorf("read play pins: %w", err)
	}
	for i, v := range vals {
		s.Play[i] = v != 0
	}

	stop, err := b.stop.Value()
	if err != nil {
		return s, fmt.Errorf("read stop pin: %w", err)
	}
	s.Stop = stop != 0

	return s, nil
}

// SetLED drives one LED output.
func (b *RealBoard) SetLED(index int, on bool) error {
	if index < 0 || index >= NumButtons || b.leds[index] == nil {
		return fmt.Errorf("led %d out of range", index)
	}
	v := 0
	if on {
		v = 1
	}
	if err := b.leds[index].SetValue(v); err != nil {
		return fmt.Errorf("set led %d: %w", index+1, err)
	}
	return nil
}

// Close releases GPIO resources.
// LED lines are returned to inputs with pull-down so nothing stays lit after exit.
func (b *RealBoard) Close() error {
	var errs []error

	for i, l := range b.leds {
		if l == nil {
			continue
		}
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure led %d: %w", i+1, err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close led %d: %w", i+1, err))
		}
	}
	if b.stop != nil {
		if err := b.stop.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close stop pin: %w", err))
		}
	}
	if b.play != nil {
		if err := b.play.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close play pins: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %w", errors.Join(errs...))
	}
	return nil
}
