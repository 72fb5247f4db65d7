// Package config loads runtime settings from an optional .env file and
// MOLE_* environment variables. The result seeds the command-line flag
// defaults, so flags still take precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sweeney/whack-a-mole/internal/gpio"
	"github.com/sweeney/whack-a-mole/internal/logger"
)

// Environment variable names.
const (
	EnvPoll       = "MOLE_POLL"
	EnvBroker     = "MOLE_BROKER"
	EnvHTTP       = "MOLE_HTTP"
	EnvSeed       = "MOLE_SEED"
	EnvLogLevel   = "MOLE_LOG_LEVEL"
	EnvLogJSON    = "MOLE_LOG_JSON"
	EnvChip       = "MOLE_CHIP"
	EnvPinPlay    = "MOLE_PIN_PLAY"
	EnvPinStop    = "MOLE_PIN_STOP"
	EnvPinLED     = "MOLE_PIN_LED"
	EnvTranscript = "MOLE_TRANSCRIPT"
	EnvHeartbeat  = "MOLE_HEARTBEAT"
)

// Config holds the controller settings.
type Config struct {
	Poll       time.Duration
	Broker     string
	HTTPAddr   string
	Seed       uint64 // 0 seeds from the wall clock
	LogLevel   string
	LogJSON    bool
	Transcript string // empty writes the transcript to stdout
	Heartbeat  time.Duration
	Pins       gpio.Pins
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Poll:      5 * time.Millisecond,
		Broker:    "tcp://192.168.1.200:1883",
		HTTPAddr:  ":80",
		LogLevel:  "info",
		Heartbeat: 15 * time.Minute,
		Pins:      gpio.DefaultPins(),
	}
}

// Load reads .env if present and applies the environment over Default.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv(Default())
}

// FromEnv applies MOLE_* variables over base. Malformed values are logged
// and the base value is kept.
func FromEnv(base Config) Config {
	c := base

	if v := os.Getenv(EnvPoll); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Poll = d
		} else {
			invalid(EnvPoll, v)
		}
	}
	if v := os.Getenv(EnvBroker); v != "" {
		c.Broker = v
	}
	if v, ok := os.LookupEnv(EnvHTTP); ok {
		c.HTTPAddr = v // empty disables
	}
	if v := os.Getenv(EnvSeed); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Seed = n
		} else {
			invalid(EnvSeed, v)
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogJSON); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.LogJSON = b
		} else {
			invalid(EnvLogJSON, v)
		}
	}
	if v := os.Getenv(EnvTranscript); v != "" {
		c.Transcript = v
	}
	if v := os.Getenv(EnvHeartbeat); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			c.Heartbeat = d
		} else {
			invalid(EnvHeartbeat, v)
		}
	}

	if v := os.Getenv(EnvChip); v != "" {
		c.Pins.Chip = v
	}
	if v := os.Getenv(EnvPinPlay); v != "" {
		if pins, err := ParsePins(v); err == nil {
			c.Pins.Play = pins
		} else {
			invalid(EnvPinPlay, v)
		}
	}
	if v := os.Getenv(EnvPinLED); v != "" {
		if pins, err := ParsePins(v); err == nil {
			c.Pins.LED = pins
		} else {
			invalid(EnvPinLED, v)
		}
	}
	if v := os.Getenv(EnvPinStop); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Pins.Stop = n
		} else {
			invalid(EnvPinStop, v)
		}
	}

	return c
}

// ParsePins parses a comma-separated list of exactly gpio.NumButtons line
// offsets, e.g. "17,27,22,23".
func ParsePins(s string) ([gpio.NumButtons]int, error) {
	var out [gpio.NumButtons]int
	parts := strings.Split(s, ",")
	if len(parts) != gpio.NumButtons {
		return out, fmt.Errorf("want %d pins, got %d", gpio.NumButtons, len(parts))
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return out, fmt.Errorf("pin %d: %w", i+1, err)
		}
		if n < 0 {
			return out, fmt.Errorf("pin %d: negative offset %d", i+1, n)
		}
		out[i] = n
	}
	return out, nil
}

// FormatPins renders pins in the form accepted by ParsePins.
func FormatPins(pins [gpio.NumButtons]int) string {
	parts := make([]string, len(pins))
	for i, p := range pins {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

func invalid(name, value string) {
	logger.Warn("ignoring invalid environment value", "var", name, "value", value)
}
