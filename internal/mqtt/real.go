package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/whack-a-mole/internal/game"
	"github.com/sweeney/whack-a-mole/internal/logger"
)

const (
	connectTimeout = 10 * time.Second
	eventTimeout   = 250 * time.Millisecond // keep the game loop responsive
	systemTimeout  = 5 * time.Second
)

// RealPublisher publishes to an actual MQTT broker.
// While the connection is down, messages are held in an outbox and replayed
// in order once the client reconnects.
type RealPublisher struct {
	client paho.Client
	now    func() time.Time

	mu            sync.Mutex
	outbox        *outbox
	everConnected bool
}

// NewRealPublisher creates a publisher for the given broker.
// An unreachable broker is not fatal: the client keeps retrying in the
// background and messages queue in the outbox meanwhile.
func NewRealPublisher(broker string) (*RealPublisher, error) {
	p := &RealPublisher{
		now:    time.Now,
		outbox: newOutbox(outboxCapacity),
	}

	will, err := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: "OFFLINE"})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("mqtt connection lost", "err", err)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		logger.Warn("mqtt broker not reachable yet, retrying in background", "broker", broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// onConnect runs on paho's goroutine; it must not wait on tokens.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	reconnect := p.everConnected
	p.everConnected = true
	pending, dropped := p.outbox.drain()
	p.mu.Unlock()

	if reconnect {
		payload, err := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"})
		if err == nil {
			c.Publish(TopicSystem, 1, false, payload)
		}
	}
	for _, m := range pending {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
	logger.Info("mqtt connected", "replayed", len(pending), "dropped", dropped)
}

// Publish sends a game event to the MQTT broker.
func (p *RealPublisher) Publish(event game.Event) error {
	payload, err := FormatPayload(event, p.now())
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return p.send(pendingMsg{topic: Topic, payload: payload}, eventTimeout)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	return p.send(pendingMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained}, systemTimeout)
}

func (p *RealPublisher) send(m pendingMsg, timeout time.Duration) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.outbox.push(m)
		p.mu.Unlock()
		return nil
	}

	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish %s timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Pending returns how many messages are waiting for a connection.
func (p *RealPublisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outbox.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
