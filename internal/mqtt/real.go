package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/sweeney/burner-controller/internal/log"
	"github.com/sweeney/burner-controller/internal/logic"
)

// Options configures a RealPublisher.
type Options struct {
	Broker   string
	ClientID string
	// BufferSize is how many messages are held while disconnected.
	BufferSize int
	// OnConnectionChange, if set, is called whenever the connection comes up
	// or drops.
	OnConnectionChange func(connected bool)
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the broker is unreachable are buffered and replayed, oldest first, on
// reconnection.
type RealPublisher struct {
	client paho.Client
	opts   Options
	logger zerolog.Logger

	mu       sync.Mutex
	buffer   *ringBuffer
	commands func(payload []byte)
}

// NewRealPublisher connects to the broker. If the broker cannot be reached
// within the connect timeout the publisher is still returned: paho keeps
// retrying in the background and messages are buffered meanwhile.
func NewRealPublisher(opts Options) (*RealPublisher, error) {
	if opts.Broker == "" {
		return nil, fmt.Errorf("broker address is empty")
	}
	if opts.ClientID == "" {
		opts.ClientID = "burner-controller"
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 256
	}

	p := &RealPublisher{
		opts:   opts,
		logger: log.WithComponent("mqtt"),
		buffer: newRingBuffer(opts.BufferSize),
	}

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE", Reason: "LWT"})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	clientOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(clientOpts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		p.logger.Warn().Str("broker", opts.Broker).Msg("broker not reachable yet, buffering until connected")
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.logger.Info().Str("broker", p.opts.Broker).Msg("connected")

	p.mu.Lock()
	handler := p.commands
	pending := p.buffer.drainAll()
	p.mu.Unlock()

	if handler != nil {
		p.subscribe(c, handler)
	}
	for _, m := range pending {
		token := c.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
			p.logger.Warn().Str("topic", m.topic).Msg("replay failed")
		}
	}
	if len(pending) > 0 {
		p.logger.Info().Int("messages", len(pending)).Msg("replayed buffered messages")
	}
	if p.opts.OnConnectionChange != nil {
		p.opts.OnConnectionChange(true)
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.logger.Warn().Err(err).Msg("connection lost")
	if p.opts.OnConnectionChange != nil {
		p.opts.OnConnectionChange(false)
	}
}

func (p *RealPublisher) subscribe(c paho.Client, handler func([]byte)) {
	token := c.Subscribe(TopicCommand, 1, func(_ paho.Client, msg paho.Message) {
		handler(msg.Payload())
	})
	if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		p.logger.Error().Err(token.Error()).Str("topic", TopicCommand).Msg("subscribe failed")
	}
}

// publish sends a message, or buffers it while disconnected.
func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// PublishTransition sends a transition event (QoS 1).
func (p *RealPublisher) PublishTransition(ev logic.TransitionEvent, cycleID string) error {
	payload, err := FormatTransitionPayload(ev, cycleID)
	if err != nil {
		return fmt.Errorf("format transition payload: %w", err)
	}
	return p.publish(TopicEvents, 1, false, payload)
}

// PublishTelemetry sends a telemetry sample (QoS 0, retained so new
// subscribers see the latest state).
func (p *RealPublisher) PublishTelemetry(t Telemetry) error {
	payload, err := FormatTelemetryPayload(t)
	if err != nil {
		return fmt.Errorf("format telemetry payload: %w", err)
	}
	return p.publish(TopicTelemetry, 0, true, payload)
}

// PublishSystem sends a system lifecycle event (QoS 1).
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

// SubscribeCommands registers handler for TopicCommand. The subscription is
// renewed on every reconnect.
func (p *RealPublisher) SubscribeCommands(handler func(payload []byte)) error {
	p.mu.Lock()
	p.commands = handler
	p.mu.Unlock()
	if p.client.IsConnectionOpen() {
		p.subscribe(p.client, handler)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
