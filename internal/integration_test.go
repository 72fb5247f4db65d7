package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sweeney/whack-a-mole/internal/clock"
	"github.com/sweeney/whack-a-mole/internal/game"
	"github.com/sweeney/whack-a-mole/internal/gpio"
	"github.com/sweeney/whack-a-mole/internal/metrics"
	"github.com/sweeney/whack-a-mole/internal/mqtt"
	"github.com/sweeney/whack-a-mole/internal/status"
)

const pollInterval = 100 * time.Millisecond

// rig wires the game to fakes the same way the command wires it to hardware.
type rig struct {
	board      *gpio.FakeBoard
	clk        *clock.Fake
	pub        *mqtt.FakePublisher
	tracker    *status.Tracker
	metrics    *metrics.Metrics
	ctrl       *game.Controller
	transcript *bytes.Buffer
	events     []game.Event
}

func newRig(seed uint64, start clock.Tick) *rig {
	r := &rig{
		board:      gpio.NewFakeBoard([]gpio.Sample{gpio.Released()}),
		clk:        clock.NewFake(start),
		pub:        mqtt.NewFakePublisher(),
		tracker:    status.NewTracker(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), status.Config{PollMs: pollInterval.Milliseconds()}),
		metrics:    metrics.New(prometheus.NewRegistry()),
		transcript: &bytes.Buffer{},
	}
	r.pub.Now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }
	r.ctrl = game.NewController(r.board, rand.New(rand.NewPCG(seed, seed)), r.transcript)
	r.dispatch(r.ctrl.Boot(r.clk.Now()))
	return r
}

func (r *rig) dispatch(events []game.Event) {
	for _, e := range events {
		r.pub.Publish(e)
	}
	r.metrics.Observe(events)
	r.tracker.Update(r.ctrl.State(), events)
	r.events = append(r.events, events...)
}

// tick advances one poll interval holding s and runs one loop iteration.
func (r *rig) tick(s gpio.Sample) []game.Event {
	r.board.Hold(s)
	now := r.clk.Advance(pollInterval)

	sample, err := r.board.Read()
	if err != nil {
		return nil
	}
	events := r.ctrl.Step(game.Input{Levels: game.Levels(sample), Tick: now})
	r.dispatch(events)
	return events
}

// whack presses the lowest lit LED, or nothing when the board is dark.
func (r *rig) whack() gpio.Sample {
	for i, on := range r.board.LEDs {
		if on {
			return gpio.Pressed(i)
		}
	}
	return gpio.Released()
}

func (r *rig) count(typ game.EventType) int {
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func (r *rig) lifecycle() []game.EventType {
	var out []game.EventType
	for _, e := range r.events {
		switch e.Type {
		case game.EventIdle, game.EventStarted, game.EventLevel, game.EventFinished, game.EventStopped:
			out = append(out, e.Type)
		}
	}
	return out
}

// TestIntegrationFullGame plays all three levels with a player that always
// goes for the lowest lit mole.
func TestIntegrationFullGame(t *testing.T) {
	r := newRig(42, 0)

	r.tick(gpio.Pressed(0))
	if r.ctrl.Status() != game.StatusPlaying {
		t.Fatal("game should start on the first press")
	}

	// 3 levels x 60s at 100ms per tick, plus a little slack.
	for i := 0; i < 1805; i++ {
		r.tick(r.whack())
	}

	got := fmt.Sprint(r.lifecycle())
	want := fmt.Sprint([]game.EventType{
		game.EventIdle, game.EventStarted, game.EventLevel, game.EventLevel, game.EventFinished, game.EventIdle,
	})
	if got != want {
		t.Fatalf("lifecycle: got %s, want %s", got, want)
	}

	var levels []int
	var finished game.Event
	for _, e := range r.events {
		switch e.Type {
		case game.EventLevel:
			levels = append(levels, e.Level)
		case game.EventFinished:
			finished = e
		case game.EventPopped:
			if len(e.LEDs) < 1 || len(e.LEDs) > game.MaxMoles {
				t.Errorf("popped %d moles", len(e.LEDs))
			}
			seen := map[int]bool{}
			for _, i := range e.LEDs {
				if seen[i] || i < 0 || i >= game.NumLEDs {
					t.Errorf("bad spawn %v", e.LEDs)
				}
				seen[i] = true
			}
		}
	}
	if fmt.Sprint(levels) != "[2 3]" {
		t.Errorf("levels: got %v, want [2 3]", levels)
	}

	hits := r.count(game.EventHit)
	if hits == 0 {
		t.Fatal("expected the player to score")
	}
	if finished.Score != hits {
		t.Errorf("final score %d, want %d hits", finished.Score, hits)
	}
	if !strings.Contains(r.transcript.String(), fmt.Sprintf("\r\nGame Finished! Total Score=%d\r\n", hits)) {
		t.Error("transcript missing final score line")
	}

	if r.board.AnyLit() {
		t.Error("LEDs should be dark after the game")
	}

	snap := r.tracker.Snapshot()
	if snap.Game.Status != game.StatusIdle {
		t.Errorf("tracker status: got %q, want IDLE", snap.Game.Status)
	}
	if snap.Game.Stats.BestScore != hits || snap.Game.Stats.LastScore != hits {
		t.Errorf("best/last: got %d/%d, want %d", snap.Game.Stats.BestScore, snap.Game.Stats.LastScore, hits)
	}
	if snap.Game.Stats.Misses != r.count(game.EventMiss) {
		t.Errorf("misses: got %d, want %d", snap.Game.Stats.Misses, r.count(game.EventMiss))
	}

	if v := testutil.ToFloat64(r.metrics.Games.WithLabelValues("finished")); v != 1 {
		t.Errorf("finished counter: got %v, want 1", v)
	}
	if v := testutil.ToFloat64(r.metrics.Presses.WithLabelValues("hit")); int(v) != hits {
		t.Errorf("hit counter: got %v, want %d", v, hits)
	}

	// Every event reached MQTT with a well-formed payload.
	if len(r.pub.Payloads) != len(r.events) {
		t.Fatalf("payloads: got %d, want %d", len(r.pub.Payloads), len(r.events))
	}
	for i, payload := range r.pub.Payloads {
		var parsed mqtt.Payload
		if err := json.Unmarshal(payload, &parsed); err != nil {
			t.Fatalf("payload %d: invalid JSON: %v", i, err)
		}
		if parsed.Mole.Timestamp == "" || parsed.Mole.Event == "" {
			t.Errorf("payload %d: missing fields: %s", i, payload)
		}
		if parsed.Mole.Text != game.Render(r.events[i]) {
			t.Errorf("payload %d: text %q does not match transcript line", i, parsed.Mole.Text)
		}
	}
}

// TestIntegrationSameSeedSameGame verifies spawn selection is reproducible.
func TestIntegrationSameSeedSameGame(t *testing.T) {
	play := func() string {
		r := newRig(7, 1000)
		r.tick(gpio.Pressed(2))
		for i := 0; i < 400; i++ {
			r.tick(r.whack())
		}
		r.tick(gpio.StopPressed())
		return r.transcript.String()
	}

	a, b := play(), play()
	if a != b {
		t.Error("identical seed and input should give identical transcripts")
	}
	if !strings.Contains(a, "Game Stopped! Total Score=") {
		t.Error("transcript missing stop line")
	}
}

// TestIntegrationStopAndRestart stops a game and starts another.
func TestIntegrationStopAndRestart(t *testing.T) {
	r := newRig(3, 0)

	r.tick(gpio.Pressed(1))
	r.tick(gpio.Released())
	r.tick(gpio.StopPressed())

	if r.ctrl.Status() != game.StatusIdle {
		t.Fatalf("expected idle after stop, got %s", r.ctrl.Status())
	}
	if r.board.AnyLit() {
		t.Error("LEDs should be cleared on stop")
	}

	r.tick(gpio.Released())
	r.tick(gpio.Pressed(3))

	got := fmt.Sprint(r.lifecycle())
	want := fmt.Sprint([]game.EventType{
		game.EventIdle, game.EventStarted, game.EventStopped, game.EventIdle, game.EventStarted,
	})
	if got != want {
		t.Errorf("lifecycle: got %s, want %s", got, want)
	}

	stats := r.tracker.Snapshot().Game.Stats
	if stats.GamesStarted != 2 || stats.GamesStopped != 1 {
		t.Errorf("stats: got %+v", stats)
	}
	if v := testutil.ToFloat64(r.metrics.Games.WithLabelValues("stopped")); v != 1 {
		t.Errorf("stopped counter: got %v, want 1", v)
	}
}

// TestIntegrationAcrossTickWrap runs level 1 across the 32-bit tick wrap.
func TestIntegrationAcrossTickWrap(t *testing.T) {
	start := clock.Tick(^uint32(0) - 30_000)
	r := newRig(11, start)

	r.tick(gpio.Pressed(0))

	// 599 more ticks is 59.9s into the level.
	for i := 0; i < 599; i++ {
		r.tick(gpio.Released())
	}
	if r.count(game.EventLevel) != 0 {
		t.Fatal("level advanced early across the wrap")
	}

	r.tick(gpio.Released())
	if r.count(game.EventLevel) != 1 {
		t.Errorf("expected level 2 at 60s, got %d level events", r.count(game.EventLevel))
	}
	if r.ctrl.Level() != 2 {
		t.Errorf("level: got %d, want 2", r.ctrl.Level())
	}
}

// TestIntegrationPublishFailureDoesNotStopGame verifies the game runs
// without a broker.
func TestIntegrationPublishFailureDoesNotStopGame(t *testing.T) {
	r := newRig(5, 0)
	r.pub.PublishError = errors.New("broker unavailable")

	r.tick(gpio.Pressed(0))
	for i := 0; i < 20; i++ {
		r.tick(r.whack())
	}

	if len(r.pub.Events) != 0 {
		t.Errorf("expected no recorded events, got %d", len(r.pub.Events))
	}
	if r.count(game.EventStarted) != 1 {
		t.Error("game should have started")
	}
	if !strings.Contains(r.transcript.String(), "Game Started! Level 1\n") {
		t.Error("transcript should not depend on MQTT")
	}
}

// TestIntegrationLEDWriteFailure keeps playing when an LED line fails.
func TestIntegrationLEDWriteFailure(t *testing.T) {
	r := newRig(9, 0)
	r.board.WriteError = errors.New("line busy")

	r.tick(gpio.Pressed(0))
	r.tick(gpio.Released())

	if r.ctrl.Status() != game.StatusPlaying {
		t.Error("LED failures must not stop the game")
	}
	if r.ctrl.Board().Empty() {
		t.Error("controller should still track the spawned moles")
	}
}

// TestIntegrationSystemEventPayloads checks the STARTUP/SHUTDOWN snapshots
// as the command publishes them.
func TestIntegrationSystemEventPayloads(t *testing.T) {
	r := newRig(1, 0)
	r.tracker.SetMQTTConnected(true)
	r.tracker.SetNetwork(&status.NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})

	snap := r.tracker.Snapshot()
	err := r.pub.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	})
	if err != nil {
		t.Fatalf("publish startup: %v", err)
	}

	r.tick(gpio.Pressed(0))
	r.ctrl.Shutdown()
	r.tracker.Update(r.ctrl.State(), nil)

	snap = r.tracker.Snapshot()
	err = r.pub.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "SHUTDOWN",
		Reason:     "SIGTERM",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"),
	})
	if err != nil {
		t.Fatalf("publish shutdown: %v", err)
	}

	if len(r.pub.SystemPayloads) != 2 {
		t.Fatalf("expected 2 system payloads, got %d", len(r.pub.SystemPayloads))
	}

	var startup, shutdown status.StatusJSON
	if err := json.Unmarshal(r.pub.SystemPayloads[0], &startup); err != nil {
		t.Fatalf("startup payload: %v", err)
	}
	if err := json.Unmarshal(r.pub.SystemPayloads[1], &shutdown); err != nil {
		t.Fatalf("shutdown payload: %v", err)
	}

	if startup.Status.Event != "STARTUP" || startup.Status.Game != "IDLE" {
		t.Errorf("startup: got event=%q game=%q", startup.Status.Event, startup.Status.Game)
	}
	if startup.Status.Network == nil || startup.Status.Network.IP != "192.168.1.42" {
		t.Errorf("startup network: got %+v", startup.Status.Network)
	}
	if shutdown.Status.Reason != "SIGTERM" || shutdown.Status.Game != "PLAYING" {
		t.Errorf("shutdown: got reason=%q game=%q", shutdown.Status.Reason, shutdown.Status.Game)
	}
	if len(shutdown.Status.LEDs) != 0 {
		t.Errorf("shutdown should report dark LEDs, got %v", shutdown.Status.LEDs)
	}
	if r.board.AnyLit() {
		t.Error("LEDs should be off after shutdown")
	}
}
