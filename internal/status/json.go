package status

import (
	"encoding/json"
	"strings"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Game          string       `json:"game"`
	Level         int          `json:"level"`
	Score         int          `json:"score"`
	LEDs          []int        `json:"leds"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Stats         StatsJSON    `json:"stats"`
	Recent        []string     `json:"recent,omitempty"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// StatsJSON is the JSON representation of the session statistics.
type StatsJSON struct {
	GamesStarted  int `json:"games_started"`
	GamesFinished int `json:"games_finished"`
	GamesStopped  int `json:"games_stopped"`
	Hits          int `json:"hits"`
	Misses        int `json:"misses"`
	MolesSpawned  int `json:"moles_spawned"`
	BestScore     int `json:"best_score"`
	LastScore     int `json:"last_score"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of controller config.
type ConfigJSON struct {
	PollMs     int64  `json:"poll_ms"`
	DebounceMs int64  `json:"debounce_ms"`
	Broker     string `json:"broker"`
	HTTPPort   string `json:"http_port"`
	Seed       uint64 `json:"seed"`
	Chip       string `json:"chip"`
	PlayPins   string `json:"play_pins"`
	StopPin    int    `json:"stop_pin"`
	LEDPins    string `json:"led_pins"`
}

func buildInner(snap Snapshot) StatusInner {
	st := string(snap.Game.Status)
	if st == "" {
		st = "UNKNOWN"
	}
	leds := snap.LitLEDs()
	if leds == nil {
		leds = []int{}
	}
	var recent []string
	for _, line := range snap.Recent {
		recent = append(recent, strings.TrimSpace(line))
	}
	s := snap.Game.Stats

	return StatusInner{
		Game:          st,
		Level:         snap.Game.Level,
		Score:         snap.Game.Score,
		LEDs:          leds,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Stats: StatsJSON{
			GamesStarted:  s.GamesStarted,
			GamesFinished: s.GamesFinished,
			GamesStopped:  s.GamesStopped,
			Hits:          s.Hits,
			Misses:        s.Misses,
			MolesSpawned:  s.MolesSpawned,
			BestScore:     s.BestScore,
			LastScore:     s.LastScore,
		},
		Recent: recent,
		Config: ConfigJSON{
			PollMs:     snap.Config.PollMs,
			DebounceMs: snap.Config.DebounceMs,
			Broker:     snap.Config.Broker,
			HTTPPort:   snap.Config.HTTPPort,
			Seed:       snap.Config.Seed,
			Chip:       snap.Config.Chip,
			PlayPins:   snap.Config.PlayPins,
			StopPin:    snap.Config.StopPin,
			LEDPins:    snap.Config.LEDPins,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
// The transcript is left out to keep retained messages small.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	inner.Recent = nil
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
