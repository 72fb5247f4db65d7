package mqtt

import "github.com/sweeney/whack-a-mole/internal/logger"

// outboxCapacity bounds how many messages are held while the broker is away.
// A full game at level 3 produces roughly 200 events.
const outboxCapacity = 512

// pendingMsg is a serialized MQTT message waiting for a connection.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox is a fixed-capacity FIFO that keeps the newest messages.
// Not safe for concurrent use; RealPublisher guards it with its mutex.
type outbox struct {
	slots   []pendingMsg
	next    int // slot the next push writes
	size    int
	dropped int // messages overwritten since the last drain
}

func newOutbox(capacity int) *outbox {
	return &outbox{slots: make([]pendingMsg, capacity)}
}

func (o *outbox) push(msg pendingMsg) {
	if o.size == len(o.slots) {
		if o.dropped == 0 {
			logger.Warn("mqtt outbox full, dropping oldest", "capacity", len(o.slots))
		}
		o.dropped++
	} else {
		o.size++
	}
	o.slots[o.next] = msg
	o.next = (o.next + 1) % len(o.slots)
}

// drain returns the held messages oldest first along with how many were
// dropped, and empties the outbox.
func (o *outbox) drain() ([]pendingMsg, int) {
	dropped := o.dropped
	if o.size == 0 {
		o.dropped = 0
		return nil, dropped
	}

	out := make([]pendingMsg, 0, o.size)
	first := (o.next - o.size + len(o.slots)) % len(o.slots)
	for i := 0; i < o.size; i++ {
		out = append(out, o.slots[(first+i)%len(o.slots)])
	}

	o.slots = make([]pendingMsg, len(o.slots))
	o.next, o.size, o.dropped = 0, 0, 0
	return out, dropped
}

func (o *outbox) len() int {
	return o.size
}
