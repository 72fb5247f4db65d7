// Package gpio provides button inputs and LED outputs with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// NumButtons is the number of play buttons, each paired with one LED.
const NumButtons = 4

// Sample is one read of the raw input levels (true = high).
// Play buttons are wired active-low, the stop button active-high;
// interpreting the levels is left to the caller.
type Sample struct {
	Play [NumButtons]bool
	Stop bool
}

// Reader reads the button inputs.
type Reader interface {
	// Read samples every input once.
	Read() (Sample, error)

	// Close releases GPIO resources.
	Close() error
}

// Writer drives the LED outputs (active-high).
type Writer interface {
	SetLED(index int, on bool) error
}

// Board is the full set of game I/O.
type Board interface {
	Reader
	Writer
}

// Pins maps the game I/O onto GPIO line offsets (BCM numbering).
type Pins struct {
	Chip string
	Play [NumButtons]int
	Stop int
	LED  [NumButtons]int
}

// Default pin definitions (BCM numbering)
const (
	DefaultChip    = "gpiochip0"
	DefaultStopPin = 21
)

var (
	DefaultPlayPins = [NumButtons]int{17, 27, 22, 23}
	DefaultLEDPins  = [NumButtons]int{5, 6, 13, 19}
)

// DefaultPins returns the reference wiring.
func DefaultPins() Pins {
	return Pins{
		Chip: DefaultChip,
		Play: DefaultPlayPins,
		Stop: DefaultStopPin,
		LED:  DefaultLEDPins,
	}
}

// Released returns a sample with no button held.
func Released() Sample {
	var s Sample
	for i := range s.Play {
		s.Play[i] = true
	}
	return s
}

// Pressed returns a sample with the given play buttons held.
func Pressed(buttons ...int) Sample {
	s := Released()
	for _, b := range buttons {
		if b >= 0 && b < NumButtons {
			s.Play[b] = false
		}
	}
	return s
}

// StopPressed returns a sample with only the stop button held.
func StopPressed() Sample {
	s := Released()
	s.Stop = true
	return s
}
