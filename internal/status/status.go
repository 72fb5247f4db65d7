// Package status provides a thread-safe view of the game for the HTTP page
// and MQTT lifecycle events. The run loop writes; handlers read snapshots.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/whack-a-mole/internal/game"
)

// RecentSize is how many transcript lines the tracker keeps.
const RecentSize = 12

// NetworkInfo contains network state reported by the host.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains controller configuration for display.
type Config struct {
	PollMs     int64
	DebounceMs int64
	Broker     string
	HTTPPort   string
	Seed       uint64
	Chip       string
	PlayPins   string
	StopPin    int
	LEDPins    string
}

// Snapshot is a point-in-time view of controller state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Game          game.State
	Recent        []string // newest last
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the controller started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// LitLEDs returns the 1-based numbers of the lit LEDs.
func (s Snapshot) LitLEDs() []int {
	var out []int
	for i, on := range s.Game.LEDs {
		if on {
			out = append(out, i+1)
		}
	}
	return out
}

// Tracker holds mutable controller state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Game:      game.State{Status: game.StatusIdle},
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update stores the controller state and appends the transcript lines of
// events, keeping the last RecentSize.
// Called from runLoop on every tick.
func (t *Tracker) Update(state game.State, events []game.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.Game = state
	for _, e := range events {
		line := game.Render(e)
		if line == "" {
			continue
		}
		t.snap.Recent = append(t.snap.Recent, line)
	}
	if n := len(t.snap.Recent); n > RecentSize {
		t.snap.Recent = append([]string(nil), t.snap.Recent[n-RecentSize:]...)
	}
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the controller state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Recent = append([]string(nil), t.snap.Recent...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
