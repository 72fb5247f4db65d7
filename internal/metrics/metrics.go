// Package metrics exposes game counters in Prometheus format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/whack-a-mole/internal/game"
)

// Metrics holds the game collectors.
type Metrics struct {
	Games        *prometheus.CounterVec
	Presses      *prometheus.CounterVec
	MolesSpawned prometheus.Counter
	Score        prometheus.Gauge
	Level        prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Games: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whackamole_games_total",
				Help: "Games by outcome (started, finished, stopped)",
			},
			[]string{"outcome"},
		),
		Presses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whackamole_presses_total",
				Help: "Accepted play presses during a game by result (hit, miss)",
			},
			[]string{"result"},
		),
		MolesSpawned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "whackamole_moles_spawned_total",
			Help: "Total moles lit",
		}),
		Score: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "whackamole_score",
			Help: "Score of the game in progress",
		}),
		Level: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "whackamole_level",
			Help: "Current level, 1-based; 0 when idle",
		}),
	}

	reg.MustRegister(m.Games, m.Presses, m.MolesSpawned, m.Score, m.Level)

	// Pre-create label values so they export as zero before the first game.
	for _, o := range []string{"started", "finished", "stopped"} {
		m.Games.WithLabelValues(o)
	}
	for _, r := range []string{"hit", "miss"} {
		m.Presses.WithLabelValues(r)
	}
	return m
}

// Observe updates the collectors from a batch of controller events.
func (m *Metrics) Observe(events []game.Event) {
	for _, e := range events {
		switch e.Type {
		case game.EventStarted:
			m.Games.WithLabelValues("started").Inc()
			m.Score.Set(0)
			m.Level.Set(float64(e.Level))
		case game.EventPopped:
			m.MolesSpawned.Add(float64(len(e.LEDs)))
		case game.EventHit:
			m.Presses.WithLabelValues("hit").Inc()
			m.Score.Set(float64(e.Score))
		case game.EventMiss:
			m.Presses.WithLabelValues("miss").Inc()
		case game.EventLevel:
			m.Level.Set(float64(e.Level))
		case game.EventFinished:
			m.Games.WithLabelValues("finished").Inc()
		case game.EventStopped:
			m.Games.WithLabelValues("stopped").Inc()
		case game.EventIdle:
			m.Score.Set(0)
			m.Level.Set(0)
		}
	}
}
