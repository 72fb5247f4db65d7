package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/whack-a-mole/internal/game"
)

var testTime = time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC)

func TestFormatPayloadHit(t *testing.T) {
	event := game.Event{
		Tick:  61234,
		Type:  game.EventHit,
		Level: 2,
		LED:   2,
		Score: 7,
		LEDs:  []int{0, 3},
	}

	payload, err := FormatPayload(event, testTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	m := parsed.Mole
	if m.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", m.Timestamp)
	}
	if m.Tick != 61234 {
		t.Errorf("unexpected tick: %d", m.Tick)
	}
	if m.Event != "HIT" {
		t.Errorf("unexpected event: %s", m.Event)
	}
	if m.Level != 2 {
		t.Errorf("unexpected level: %d", m.Level)
	}
	if m.LED != 3 {
		t.Errorf("LED should be 1-based: got %d, want 3", m.LED)
	}
	if m.Score != 7 {
		t.Errorf("unexpected score: %d", m.Score)
	}
	if len(m.LEDs) != 2 || m.LEDs[0] != 1 || m.LEDs[1] != 4 {
		t.Errorf("LEDs should be 1-based: got %v, want [1 4]", m.LEDs)
	}
	if m.Text != "Hit LED 3! Score=7 | Remaining LEDs: 1 4\r\n" {
		t.Errorf("unexpected text: %q", m.Text)
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	event := game.Event{Tick: 1000, Type: game.EventPopped, Level: 1, LEDs: []int{2}}

	payload, err := FormatPayload(event, testTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"mole":{"timestamp":"2026-02-02T22:18:12Z","tick":1000,"event":"POPPED","level":1,"score":0,"leds":[3],"text":"\r\nMole popped on LED(s): 3\r\n"}}`
	if string(payload) != want {
		t.Errorf("payload mismatch:\ngot:  %s\nwant: %s", payload, want)
	}
}

func TestFormatPayloadOmitsLEDOutsideHitMiss(t *testing.T) {
	tests := []struct {
		eventType game.EventType
		wantLED   int
	}{
		{game.EventHit, 1},
		{game.EventMiss, 1},
		{game.EventPopped, 0},
		{game.EventStopped, 0},
		{game.EventIdle, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			payload, err := FormatPayload(game.Event{Type: tt.eventType}, testTime)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var parsed Payload
			if err := json.Unmarshal(payload, &parsed); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if parsed.Mole.LED != tt.wantLED {
				t.Errorf("LED: got %d, want %d", parsed.Mole.LED, tt.wantLED)
			}
			if parsed.Mole.Event != string(tt.eventType) {
				t.Errorf("event: got %s, want %s", parsed.Mole.Event, tt.eventType)
			}
		})
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()
	f.Now = func() time.Time { return testTime }

	err := f.Publish(game.Event{Type: game.EventStarted, Level: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.Events))
	}
	if f.Events[0].Type != game.EventStarted {
		t.Errorf("unexpected event type: %s", f.Events[0].Type)
	}
	if len(f.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(f.Payloads))
	}

	var parsed Payload
	if err := json.Unmarshal(f.Payloads[0], &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Mole.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Mole.Timestamp)
	}

	types := f.EventTypes()
	if len(types) != 1 || types[0] != game.EventStarted {
		t.Errorf("EventTypes: got %v", types)
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")

	err := f.Publish(game.Event{Type: game.EventMiss})
	if err == nil {
		t.Error("expected error")
	}

	if len(f.Events) != 0 {
		t.Errorf("expected no events recorded on error, got %d", len(f.Events))
	}
}

func TestFakePublisherSystem(t *testing.T) {
	f := NewFakePublisher()

	err := f.PublishSystem(SystemEvent{Timestamp: testTime, Event: "STARTUP", Retained: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.SystemEvents) != 1 || f.SystemEvents[0].Event != "STARTUP" {
		t.Fatalf("unexpected system events: %+v", f.SystemEvents)
	}

	f.PublishSystemError = errors.New("simulated error")
	if err := f.PublishSystem(SystemEvent{Event: "SHUTDOWN"}); err == nil {
		t.Error("expected error")
	}
	if len(f.SystemEvents) != 1 {
		t.Errorf("expected no system event recorded on error, got %d", len(f.SystemEvents))
	}
}

func TestFakePublisherCloseAndReset(t *testing.T) {
	f := NewFakePublisher()
	f.Connected = true
	f.Publish(game.Event{Type: game.EventIdle})
	f.PublishSystem(SystemEvent{Event: "STARTUP"})

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
	if !f.IsConnected() {
		t.Error("expected IsConnected to follow Connected")
	}

	f.Reset()
	if f.Events != nil || f.Payloads != nil || f.SystemEvents != nil || f.SystemPayloads != nil {
		t.Error("expected recordings cleared after Reset")
	}
	if f.Closed || f.Connected {
		t.Error("expected flags cleared after Reset")
	}
}

func TestTopics(t *testing.T) {
	if Topic != "games/whackamole/events" {
		t.Errorf("unexpected topic: %s", Topic)
	}
	if TopicSystem != "games/whackamole/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: testTime,
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"system":{"timestamp":"2026-02-02T22:18:12Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != want {
		t.Errorf("payload mismatch:\ngot:  %s\nwant: %s", payload, want)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{Timestamp: testTime, Event: "OFFLINE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"system":{"timestamp":"2026-02-02T22:18:12Z","event":"OFFLINE"}}`
	if string(payload) != want {
		t.Errorf("payload mismatch:\ngot:  %s\nwant: %s", payload, want)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload passthrough, got %s", payload)
	}
}
