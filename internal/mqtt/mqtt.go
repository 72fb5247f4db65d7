// Package mqtt publishes game events to an MQTT broker, with a fake for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/whack-a-mole/internal/game"
)

// Topic is the MQTT topic for game events.
const Topic = "games/whackamole/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "games/whackamole/system"

// ClientID identifies this controller to the broker.
const ClientID = "whack-a-mole"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a game event to the broker.
	// Returns error if publishing fails (should not stop the game).
	Publish(event game.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "RECONNECTED", "OFFLINE"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Mole MolePayload `json:"mole"`
}

// MolePayload contains the game event details. LED numbers are 1-based.
type MolePayload struct {
	Timestamp string `json:"timestamp"`
	Tick      uint32 `json:"tick"`
	Event     string `json:"event"`
	Level     int    `json:"level,omitempty"`
	Score     int    `json:"score"`
	LED       int    `json:"led,omitempty"`
	LEDs      []int  `json:"leds,omitempty"`
	Text      string `json:"text"`
}

// FormatPayload creates the JSON payload for a game event observed at ts.
func FormatPayload(event game.Event, ts time.Time) ([]byte, error) {
	p := MolePayload{
		Timestamp: ts.UTC().Format(time.RFC3339),
		Tick:      uint32(event.Tick),
		Event:     string(event.Type),
		Level:     event.Level,
		Score:     event.Score,
		Text:      game.Render(event),
	}
	if event.Type == game.EventHit || event.Type == game.EventMiss {
		p.LED = event.LED + 1
	}
	for _, i := range event.LEDs {
		p.LEDs = append(p.LEDs, i+1)
	}
	return json.Marshal(Payload{Mole: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
