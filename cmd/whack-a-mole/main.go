// Command whack-a-mole runs the reaction game on GPIO buttons and LEDs,
// writes the game transcript to a console or serial device and publishes
// events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sweeney/whack-a-mole/internal/clock"
	"github.com/sweeney/whack-a-mole/internal/config"
	"github.com/sweeney/whack-a-mole/internal/game"
	"github.com/sweeney/whack-a-mole/internal/gpio"
	"github.com/sweeney/whack-a-mole/internal/logger"
	"github.com/sweeney/whack-a-mole/internal/metrics"
	"github.com/sweeney/whack-a-mole/internal/mqtt"
	"github.com/sweeney/whack-a-mole/internal/status"
	"github.com/sweeney/whack-a-mole/internal/web"
)

func main() {
	cfg := config.Load()

	flag.DurationVar(&cfg.Poll, "poll", cfg.Poll, "Button polling interval")
	flag.StringVar(&cfg.Broker, "broker", cfg.Broker, "MQTT broker address")
	flag.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "HTTP status address (empty to disable)")
	flag.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed for mole placement (0 = from clock)")
	flag.StringVar(&cfg.Transcript, "transcript", cfg.Transcript, "Transcript output file or serial device (empty = stdout)")
	flag.DurationVar(&cfg.Heartbeat, "heartbeat", cfg.Heartbeat, "Heartbeat interval (0 to disable)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "Log as JSON")
	flag.StringVar(&cfg.Pins.Chip, "chip", cfg.Pins.Chip, "GPIO chip")
	flag.IntVar(&cfg.Pins.Stop, "pin-stop", cfg.Pins.Stop, "BCM pin number for the stop button")
	playPins := flag.String("pin-play", config.FormatPins(cfg.Pins.Play), "BCM pin numbers for play buttons 1-4")
	ledPins := flag.String("pin-led", config.FormatPins(cfg.Pins.LED), "BCM pin numbers for LEDs 1-4")
	printState := flag.Bool("print-state", false, "Print current button levels and exit")

	flag.Parse()

	logger.Init(cfg.LogLevel, cfg.LogJSON)

	var err error
	if cfg.Pins.Play, err = config.ParsePins(*playPins); err != nil {
		logger.Fatal("invalid --pin-play", "err", err)
	}
	if cfg.Pins.LED, err = config.ParsePins(*ledPins); err != nil {
		logger.Fatal("invalid --pin-led", "err", err)
	}

	if err := run(cfg, *printState); err != nil {
		logger.Fatal("fatal", "err", err)
	}
}

func run(cfg config.Config, printState bool) error {
	// Initialize GPIO
	board, err := gpio.NewRealBoard(cfg.Pins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer board.Close()

	// Print state mode
	if printState {
		s, err := board.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Println(formatSample(s))
		return nil
	}

	sink, closeSink, err := openTranscript(cfg.Transcript)
	if err != nil {
		return err
	}
	defer closeSink()

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(cfg.Broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	ctrl := game.NewController(board, rng, sink)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:     cfg.Poll.Milliseconds(),
		DebounceMs: game.DebounceWindow.Milliseconds(),
		Broker:     cfg.Broker,
		HTTPPort:   cfg.HTTPAddr,
		Seed:       cfg.Seed,
		Chip:       cfg.Pins.Chip,
		PlayPins:   config.FormatPins(cfg.Pins.Play),
		StopPin:    cfg.Pins.Stop,
		LEDPins:    config.FormatPins(cfg.Pins.LED),
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		logger.Warn("failed to publish startup event", "err", err)
	} else {
		logger.Info("published startup event")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	gameMetrics := metrics.New(reg)
	hub := web.NewHub()

	// Start HTTP status server
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, hub, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server error", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http status server listening", "addr", cfg.HTTPAddr)
	}

	logger.Info("started", "poll", cfg.Poll, "broker", cfg.Broker, "seed", seed, "heartbeat", cfg.Heartbeat)

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	l := &loop{
		board:      board,
		ctrl:       ctrl,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		observers:  []func([]game.Event){hub.Publish, gameMetrics.Observe},
		clock:      clock.NewSystem(),
		now:        time.Now,
		heartbeat:  cfg.Heartbeat,
	}
	return l.run(ticker.C, sigCh)
}

// loop owns the controller and fans its events out once per tick.
type loop struct {
	board      gpio.Board
	ctrl       *game.Controller
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	observers  []func([]game.Event)
	clock      clock.Source
	now        func() time.Time
	heartbeat  time.Duration
}

func (l *loop) run(tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := l.now()
	l.dispatch(l.ctrl.Boot(l.clock.Now()))

	for {
		select {
		case s := <-sig:
			logger.Info("shutting down", "signal", s)
			l.ctrl.Shutdown()
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: l.now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if l.tracker != nil {
				l.refreshTracker(nil)
				event.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := l.publisher.PublishSystem(event); err != nil {
				logger.Warn("failed to publish shutdown event", "err", err)
			} else {
				logger.Info("published shutdown event")
			}
			return nil

		case <-tick:
			t := l.now()
			sample, err := l.board.Read()
			if err != nil {
				logger.Warn("gpio read error", "err", err)
				continue
			}

			l.dispatch(l.ctrl.Step(game.Input{
				Levels: game.Levels(sample),
				Tick:   l.clock.Now(),
			}))

			if l.heartbeat > 0 && t.Sub(lastHeartbeat) >= l.heartbeat {
				lastHeartbeat = t
				l.sendHeartbeat(t)
			}
		}
	}
}

// dispatch publishes events and updates every consumer. The tracker is
// refreshed on every tick so the status page follows the LEDs.
func (l *loop) dispatch(events []game.Event) {
	for _, e := range events {
		logger.Debug("event", "type", e.Type, "level", e.Level, "score", e.Score, "leds", e.LEDs)
		if err := l.publisher.Publish(e); err != nil {
			logger.Warn("publish error", "err", err)
			// Don't stop the game on publish failure
		}
	}
	if len(events) > 0 {
		for _, observe := range l.observers {
			observe(events)
		}
	}
	l.refreshTracker(events)
}

func (l *loop) refreshTracker(events []game.Event) {
	if l.tracker == nil {
		return
	}
	l.tracker.Update(l.ctrl.State(), events)
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

func (l *loop) sendHeartbeat(t time.Time) {
	st := l.ctrl.State()
	logger.Info("heartbeat", "status", st.Status, "games", st.Stats.GamesStarted, "best", st.Stats.BestScore)

	hbEvent := mqtt.SystemEvent{
		Timestamp: t,
		Event:     "HEARTBEAT",
	}
	if l.tracker != nil {
		// Refresh network info for heartbeat
		if net := readNetworkInfo(); net != nil {
			l.tracker.SetNetwork(net)
		}
		hbEvent.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "HEARTBEAT", "")
	}
	if err := l.publisher.PublishSystem(hbEvent); err != nil {
		logger.Warn("heartbeat publish error", "err", err)
	}
}

// openTranscript returns the transcript sink: stdout, or the named file or
// serial device opened for appending.
func openTranscript(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open transcript %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// formatSample renders raw levels with the game's polarity applied:
// play buttons are pressed when low, stop when high.
func formatSample(s gpio.Sample) string {
	var b strings.Builder
	for i, high := range s.Play {
		fmt.Fprintf(&b, "P%d: %s, ", i+1, pressedString(!high))
	}
	fmt.Fprintf(&b, "STOP: %s", pressedString(s.Stop))
	return b.String()
}

func pressedString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "released"
}
