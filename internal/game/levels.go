package game

import "time"

// Level defines one phase of a game.
type Level struct {
	Interval time.Duration // time between spawns
	Duration time.Duration // total length of the level
}

// levels is fixed for the life of the process.
var levels = [...]Level{
	{Interval: 5000 * time.Millisecond, Duration: 60000 * time.Millisecond},
	{Interval: 3000 * time.Millisecond, Duration: 60000 * time.Millisecond},
	{Interval: 1000 * time.Millisecond, Duration: 60000 * time.Millisecond},
}

// LevelCount returns the number of levels in a game.
func LevelCount() int {
	return len(levels)
}

// GetLevel returns the level at the given 0-based index.
// Returns false if index is out of range.
func GetLevel(index int) (Level, bool) {
	if index < 0 || index >= len(levels) {
		return Level{}, false
	}
	return levels[index], true
}
