package game

import (
	"fmt"
	"io"
	"strings"
)

// Banner is shown whenever the game returns to idle.
const Banner = "==== Whack-a-Mole Game ====\r\nPress any play button to start!\r\n"

// Presenter writes the player-facing transcript, one chunk per event.
type Presenter struct {
	w io.Writer
}

// NewPresenter creates a Presenter writing to w.
func NewPresenter(w io.Writer) *Presenter {
	return &Presenter{w: w}
}

// Present renders e and writes it to the sink.
func (p *Presenter) Present(e Event) error {
	text := Render(e)
	if text == "" {
		return nil
	}
	_, err := io.WriteString(p.w, text)
	return err
}

// Render formats a single event. LED numbers are shown 1-based.
func Render(e Event) string {
	switch e.Type {
	case EventIdle:
		return Banner
	case EventStarted:
		return fmt.Sprintf("Game Started! Level %d\n", e.Level)
	case EventPopped:
		return "\r\nMole popped on LED(s):" + ledList(e.LEDs) + "\r\n"
	case EventHit:
		remaining := ledList(e.LEDs)
		if remaining == "" {
			remaining = " None"
		}
		return fmt.Sprintf("Hit LED %d! Score=%d | Remaining LEDs:%s\r\n", e.LED+1, e.Score, remaining)
	case EventMiss:
		return fmt.Sprintf("Miss! Pressed %d\r\n", e.LED+1)
	case EventLevel:
		return fmt.Sprintf("\r\nStarting Level %d!\r\n", e.Level)
	case EventFinished:
		return fmt.Sprintf("\r\nGame Finished! Total Score=%d\r\n", e.Score)
	case EventStopped:
		return fmt.Sprintf("\r\nGame Stopped! Total Score=%d\r\n", e.Score)
	}
	return ""
}

func ledList(leds []int) string {
	var b strings.Builder
	for _, i := range leds {
		fmt.Fprintf(&b, " %d", i+1)
	}
	return b.String()
}
