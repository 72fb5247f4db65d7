package game

import (
	"io"

	"github.com/sweeney/whack-a-mole/internal/clock"
	"github.com/sweeney/whack-a-mole/internal/logger"
)

// State is a point-in-time view of the controller for status consumers.
type State struct {
	Status Status
	Level  int // 1-based; 0 while idle
	Score  int
	LEDs   [NumLEDs]bool
	Stats  Stats
}

// Controller is the game state machine. It is not safe for concurrent use;
// a single run loop owns it and calls Step once per poll.
type Controller struct {
	input     *InputReader
	board     *Board
	spawner   *Spawner
	presenter *Presenter

	status     Status
	level      int // 0-based index into levels
	levelStart clock.Tick
	lastSpawn  clock.Tick
	score      int
	stats      Stats
}

// NewController creates an idle controller. Transcript text is written to sink
// (nil discards it).
func NewController(leds LEDWriter, rng Rand, sink io.Writer) *Controller {
	if sink == nil {
		sink = io.Discard
	}
	return &Controller{
		input:     NewInputReader(DebounceWindow),
		board:     NewBoard(leds),
		spawner:   NewSpawner(rng),
		presenter: NewPresenter(sink),
		status:    StatusIdle,
	}
}

// Boot puts the hardware in the idle state and shows the banner.
// Call once before the first Step.
func (c *Controller) Boot(now clock.Tick) []Event {
	return c.enterIdle(now, nil)
}

// Step evaluates one poll of the inputs and timers and returns the events
// it produced, in the order they were presented.
func (c *Controller) Step(in Input) []Event {
	if c.status == StatusIdle {
		return c.stepIdle(in)
	}
	return c.stepPlaying(in)
}

// stepIdle never blocks: with no accepted press it returns nothing and the
// caller polls again on its next tick.
func (c *Controller) stepIdle(in Input) []Event {
	now := in.Tick
	if _, ok := c.input.PollPlay(now, in.Levels); ok {
		return c.start(now)
	}
	// A stop press while idle is consumed and ignored.
	c.input.PollStop(now, in.Levels)
	return nil
}

func (c *Controller) start(now clock.Tick) []Event {
	c.score = 0
	c.level = 0
	c.levelStart = now
	c.lastSpawn = now
	c.status = StatusPlaying
	c.stats.GamesStarted++

	events := c.emit(nil, Event{Tick: now, Type: EventStarted, Level: 1})
	return c.spawn(now, events)
}

func (c *Controller) stepPlaying(in Input) []Event {
	now := in.Tick
	var events []Event

	if c.input.PollStop(now, in.Levels) {
		c.board.Clear()
		c.stats.GamesStopped++
		c.recordScore()
		events = c.emit(events, Event{Tick: now, Type: EventStopped, Level: c.level + 1, Score: c.score})
		return c.enterIdle(now, events)
	}

	lvl := levels[c.level]
	if clock.Since(now, c.levelStart) >= clock.Ms(lvl.Duration) {
		c.level++
		if c.level >= len(levels) {
			c.board.Clear()
			c.stats.GamesFinished++
			c.recordScore()
			events = c.emit(events, Event{Tick: now, Type: EventFinished, Level: len(levels), Score: c.score})
			return c.enterIdle(now, events)
		}
		c.levelStart = now
		c.lastSpawn = now
		return c.emit(events, Event{Tick: now, Type: EventLevel, Level: c.level + 1, Score: c.score})
	}

	if c.board.Empty() || clock.Since(now, c.lastSpawn) >= clock.Ms(lvl.Interval) {
		events = c.spawn(now, events)
	}

	led, ok := c.input.PollPlay(now, in.Levels)
	if !ok {
		return events
	}
	if c.board.Lit(led) {
		c.board.Set(led, false)
		c.score++
		c.stats.Hits++
		events = c.emit(events, Event{Tick: now, Type: EventHit, Level: c.level + 1, LED: led, Score: c.score, LEDs: c.board.Active()})
	} else {
		c.stats.Misses++
		events = c.emit(events, Event{Tick: now, Type: EventMiss, Level: c.level + 1, LED: led, Score: c.score})
	}

	if c.board.Empty() {
		// Backdate the spawn time so the next step respawns whatever the interval.
		c.lastSpawn = now - clock.Tick(clock.Ms(lvl.Interval))
	}
	return events
}

func (c *Controller) spawn(now clock.Tick, events []Event) []Event {
	c.board.Clear()
	leds := c.spawner.Spawn()
	for _, i := range leds {
		c.board.Set(i, true)
	}
	c.stats.MolesSpawned += len(leds)
	c.lastSpawn = now
	return c.emit(events, Event{Tick: now, Type: EventPopped, Level: c.level + 1, Score: c.score, LEDs: leds})
}

func (c *Controller) enterIdle(now clock.Tick, events []Event) []Event {
	c.board.Clear()
	c.score = 0
	c.level = 0
	c.status = StatusIdle
	return c.emit(events, Event{Tick: now, Type: EventIdle})
}

func (c *Controller) recordScore() {
	c.stats.LastScore = c.score
	if c.score > c.stats.BestScore {
		c.stats.BestScore = c.score
	}
}

func (c *Controller) emit(events []Event, e Event) []Event {
	if err := c.presenter.Present(e); err != nil {
		logger.Warn("transcript write error", "event", e.Type, "err", err)
	}
	return append(events, e)
}

// Status returns the current top-level state.
func (c *Controller) Status() Status {
	return c.status
}

// Score returns the running score.
func (c *Controller) Score() int {
	return c.score
}

// Level returns the 1-based level being played, or 0 while idle.
func (c *Controller) Level() int {
	if c.status == StatusIdle {
		return 0
	}
	return c.level + 1
}

// Board returns the LED driver. Callers must not mutate it.
func (c *Controller) Board() *Board {
	return c.board
}

// State returns a copy of the controller's observable state.
func (c *Controller) State() State {
	return State{
		Status: c.status,
		Level:  c.Level(),
		Score:  c.score,
		LEDs:   c.board.Snapshot(),
		Stats:  c.stats,
	}
}

// Shutdown turns every LED off. Used on process exit.
func (c *Controller) Shutdown() {
	c.board.Clear()
}
