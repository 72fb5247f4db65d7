package game

// MaxMoles is the most moles a single spawn can light.
const MaxMoles = 3

// Spawner picks which moles pop up next.
type Spawner struct {
	rng Rand
}

// NewSpawner creates a Spawner drawing from rng.
func NewSpawner(rng Rand) *Spawner {
	return &Spawner{rng: rng}
}

// Spawn returns 1..MaxMoles distinct LED indices in draw order.
// It is a partial Fisher-Yates shuffle over the LED indices, so it always terminates.
func (s *Spawner) Spawn() []int {
	count := 1 + s.rng.IntN(MaxMoles)

	pool := [NumLEDs]int{}
	for i := range pool {
		pool[i] = i
	}

	out := make([]int, count)
	for i := 0; i < count; i++ {
		j := i + s.rng.IntN(NumLEDs-i)
		pool[i], pool[j] = pool[j], pool[i]
		out[i] = pool[i]
	}
	return out
}
