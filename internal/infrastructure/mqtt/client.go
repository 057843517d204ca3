package mqtt

import (
	"fmt"
	"sync"
	"sync/atomic"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/doordrop-scanner/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang as a poll-driven broker transport.
//
// Unlike a typical long-lived paho client, each Connect call is a single
// attempt with its own client ID and no automatic reconnection. Inbound
// messages are queued by paho's goroutines and only handed to the
// registered MessageHandler from ServiceTraffic, so the handler always runs
// on the caller's goroutine.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - The MessageHandler is only invoked from ServiceTraffic.
type Client struct {
	cfg config.MQTTConfig

	client   pahomqtt.Client
	clientMu sync.RWMutex

	// connected tracks current connection state.
	connected bool
	connMu    sync.RWMutex

	inbound chan inboundMessage
	dropped atomic.Uint64

	handler   MessageHandler
	handlerMu sync.RWMutex

	// logger for error/panic logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// MessageHandler is the callback signature for received messages.
//
// Parameters:
//   - topic: The topic the message was received on
//   - payload: The raw message payload
//
// Returns:
//   - error: Logged but does not affect message acknowledgment
type MessageHandler func(topic string, payload []byte) error

// inboundMessage is a received message waiting for ServiceTraffic.
type inboundMessage struct {
	topic   string
	payload []byte
}

// New creates a disconnected client for the configured broker.
//
// Parameters:
//   - cfg: MQTT configuration from config.yaml
//
// Returns:
//   - *Client: Client ready for Connect
func New(cfg config.MQTTConfig) *Client {
	return &Client{
		cfg:     cfg,
		inbound: make(chan inboundMessage, inboundQueueSize),
	}
}

// Connect performs one connection attempt.
//
// Any previous session is torn down first. The attempt is bounded by the
// transport connect timeout.
//
// Parameters:
//   - clientID: Identifier presented to the broker for this attempt
//   - username: Broker username (empty for anonymous)
//   - password: Broker password
//
// Returns:
//   - error: nil on success; *ConnectError (matching ErrConnectionFailed)
//     carrying the broker return code on refusal
func (c *Client) Connect(clientID, username, password string) error {
	c.teardown()

	opts := buildClientOptions(c.cfg, clientID, username, password)
	opts.SetDefaultPublishHandler(c.enqueue)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(err)
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		client.Disconnect(0)
		return fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return &ConnectError{Code: returnCode(token), Err: err}
	}

	c.clientMu.Lock()
	c.client = client
	c.clientMu.Unlock()

	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	return nil
}

// returnCode extracts the CONNACK return code from a connect token.
func returnCode(token pahomqtt.Token) byte {
	if ct, ok := token.(*pahomqtt.ConnectToken); ok {
		return ct.ReturnCode()
	}
	return 0
}

// teardown disconnects and forgets any existing session.
func (c *Client) teardown() {
	c.clientMu.Lock()
	old := c.client
	c.client = nil
	c.clientMu.Unlock()

	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	if old != nil && old.IsConnectionOpen() {
		old.Disconnect(defaultDisconnectQuiesce)
	}

	if n := c.drainInbound(); n > 0 {
		if logger := c.getLogger(); logger != nil {
			logger.Warn("MQTT discarded messages from ended session", "count", n)
		}
	}
}

// drainInbound discards messages queued by a session that has ended, so
// a stale decision is never applied on the next session.
func (c *Client) drainInbound() int {
	discarded := 0
	for {
		select {
		case <-c.inbound:
			discarded++
		default:
			return discarded
		}
	}
}

// handleDisconnect is called by paho when the connection is lost.
func (c *Client) handleDisconnect(err error) {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	if logger := c.getLogger(); logger != nil {
		logger.Warn("MQTT connection lost", "error", err)
	}
}

// Close gracefully disconnects from the MQTT broker.
//
// Returns:
//   - error: Always nil (connection already closed is not an error)
func (c *Client) Close() error {
	c.teardown()
	return nil
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	connected := c.connected
	c.connMu.RUnlock()
	if !connected {
		return false
	}

	c.clientMu.RLock()
	defer c.clientMu.RUnlock()
	return c.client != nil && c.client.IsConnected()
}

// SetMessageHandler registers the handler ServiceTraffic delivers to.
// Messages received while no handler is set are discarded on delivery.
func (c *Client) SetMessageHandler(handler func(topic string, payload []byte) error) {
	c.handlerMu.Lock()
	c.handler = handler
	c.handlerMu.Unlock()
}

// SetLogger sets a logger for error and panic logging.
// If not set, errors in handlers are silently ignored.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// Dropped returns how many inbound messages were discarded because the
// queue was full.
func (c *Client) Dropped() uint64 {
	return c.dropped.Load()
}

// enqueue is the paho handler for every subscription. It never blocks:
// when the queue is full the message is counted and dropped.
func (c *Client) enqueue(_ pahomqtt.Client, msg pahomqtt.Message) {
	in := inboundMessage{
		topic:   msg.Topic(),
		payload: append([]byte(nil), msg.Payload()...),
	}

	select {
	case c.inbound <- in:
	default:
		c.dropped.Add(1)
		if logger := c.getLogger(); logger != nil {
			logger.Warn("MQTT inbound queue full, message dropped", "topic", in.topic)
		}
	}
}

// ServiceTraffic delivers every queued inbound message to the handler on
// the calling goroutine. Keep-alives are driven by paho itself.
//
// Returns:
//   - int: Number of messages delivered
func (c *Client) ServiceTraffic() int {
	delivered := 0
	for {
		select {
		case in := <-c.inbound:
			c.dispatch(in)
			delivered++
		default:
			return delivered
		}
	}
}

// dispatch invokes the handler with panic recovery and optional logging.
func (c *Client) dispatch(in inboundMessage) {
	c.handlerMu.RLock()
	handler := c.handler
	c.handlerMu.RUnlock()
	if handler == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Error("MQTT handler panic recovered",
					"topic", in.topic,
					"panic", r,
				)
			}
		}
	}()

	if err := handler(in.topic, in.payload); err != nil {
		if logger := c.getLogger(); logger != nil {
			logger.Warn("MQTT handler returned error",
				"topic", in.topic,
				"error", err,
			)
		}
	}
}
