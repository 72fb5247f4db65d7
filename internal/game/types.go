// Package game contains the whack-a-mole state machine.
// This package has NO hardware, network or OS dependencies.
// Time is always injected as a clock.Tick and randomness through Rand.
package game

import (
	"time"

	"github.com/sweeney/whack-a-mole/internal/clock"
)

// NumLEDs is the number of moles (LED + play button pairs).
const NumLEDs = 4

// DebounceWindow is the minimum spacing between accepted presses of one button.
const DebounceWindow = 50 * time.Millisecond

// Status is the top-level controller state.
type Status string

const (
	StatusIdle    Status = "IDLE"
	StatusPlaying Status = "PLAYING"
)

// EventType identifies a game event.
type EventType string

const (
	EventIdle     EventType = "IDLE"
	EventStarted  EventType = "STARTED"
	EventPopped   EventType = "POPPED"
	EventHit      EventType = "HIT"
	EventMiss     EventType = "MISS"
	EventLevel    EventType = "LEVEL"
	EventFinished EventType = "FINISHED"
	EventStopped  EventType = "STOPPED"
)

// Event is a discrete game occurrence reported to the presenter and publishers.
// LED indices are 0-based; Level is 1-based as shown to the player.
type Event struct {
	Tick  clock.Tick
	Type  EventType
	LED   int   // pressed LED (HIT, MISS)
	LEDs  []int // popped LEDs in draw order (POPPED) or remaining lit LEDs (HIT)
	Score int   // running score (HIT) or total (FINISHED, STOPPED)
	Level int   // STARTED, LEVEL
}

// Levels reads a single sample of raw pin levels (true = high).
// Play buttons are active-low, the stop button is active-high.
type Levels struct {
	Play [NumLEDs]bool
	Stop bool
}

// Input is one sample handed to Controller.Step.
type Input struct {
	Levels Levels
	Tick   clock.Tick
}

// LEDWriter drives the physical indicator outputs.
type LEDWriter interface {
	SetLED(index int, on bool) error
}

// Rand is the randomness the spawner needs.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// Stats are cumulative counters since process start.
type Stats struct {
	GamesStarted  int
	GamesFinished int
	GamesStopped  int
	Hits          int
	Misses        int
	MolesSpawned  int
	BestScore     int
	LastScore     int
}
