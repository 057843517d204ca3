package link

import (
	"fmt"
	"sync"
)

// Transport is the broker session collaborator. The protocol itself
// (framing, keep-alives, acknowledgements) lives behind it.
type Transport interface {
	// Connect performs one session attempt with the given identity.
	Connect(clientID, username, password string) error

	// Subscribe registers interest in topic on the current session.
	Subscribe(topic string) error

	// Publish sends payload on topic without retrying.
	Publish(topic string, payload []byte) error

	// SetMessageHandler registers the function ServiceTraffic delivers to.
	SetMessageHandler(handler func(topic string, payload []byte) error)

	// IsConnected reports whether the session is still alive.
	IsConnected() bool

	// ServiceTraffic delivers pending inbound messages on the caller's
	// goroutine and returns how many were delivered.
	ServiceTraffic() int

	// Close ends the session.
	Close() error
}

// Diagnostics receives the human-readable connection trail.
type Diagnostics interface {
	Append(text string)
}

// Logger defines the logging interface for the manager.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Manager owns the broker session lifecycle: connect attempts, liveness
// detection and the subscribe-on-connect sequence.
//
// Connection State is only changed by Connect and CheckLiveness.
//
// Thread Safety: All methods are safe for concurrent use; in practice they
// are driven from the supervisor goroutine.
type Manager struct {
	cfg       Config
	transport Transport
	diag      Diagnostics

	mu        sync.RWMutex
	state     State
	failures  int
	onConnect func()
	logger    Logger

	newClientID func(prefix string) string
}

// NewManager creates a Disconnected manager.
//
// Parameters:
//   - cfg: Connection configuration, fixed for the manager's lifetime
//   - transport: Broker session implementation
//   - diag: Diagnostic trail for connect, subscribe and publish failures
//
// Returns:
//   - *Manager: Manager ready for Connect
func NewManager(cfg Config, transport Transport, diag Diagnostics) *Manager {
	return &Manager{
		cfg:         cfg,
		transport:   transport,
		diag:        diag,
		state:       Disconnected,
		logger:      noopLogger{},
		newClientID: NewClientID,
	}
}

// SetLogger sets the structured logger.
func (m *Manager) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	m.mu.Lock()
	m.logger = logger
	m.mu.Unlock()
}

// SetOnConnect registers fn to run once after every successful connect,
// after the status subscription. The heartbeat publisher hooks in here.
func (m *Manager) SetOnConnect(fn func()) {
	m.mu.Lock()
	m.onConnect = fn
	m.mu.Unlock()
}

// SetMessageHandler registers the inbound message handler on the transport.
func (m *Manager) SetMessageHandler(handler func(topic string, payload []byte) error) {
	m.transport.SetMessageHandler(handler)
}

// Config returns the connection configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// State returns the current Connection State.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsConnected reports whether the state is Connected.
func (m *Manager) IsConnected() bool {
	return m.State() == Connected
}

// Failures returns the number of consecutive failed connect attempts.
func (m *Manager) Failures() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.failures
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) getLogger() Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.logger
}

// Connect performs a single session attempt with a fresh client ID.
//
// On success the manager moves to Connected, subscribes to the status
// topic, runs the on-connect hook and records the connection. On failure
// it moves back to Disconnected and records the reason; retrying is the
// caller's decision.
//
// Returns:
//   - error: nil on success, the wrapped transport error otherwise
func (m *Manager) Connect() error {
	clientID := m.newClientID(m.cfg.ClientIDPrefix)
	logger := m.getLogger()

	m.setState(Connecting)
	if err := m.transport.Connect(clientID, m.cfg.Username, m.cfg.Password); err != nil {
		m.mu.Lock()
		m.state = Disconnected
		m.failures++
		attempt := m.failures
		m.mu.Unlock()

		m.diag.Append(fmt.Sprintf("MQTT connect failed: %v", err))
		logger.Warn("MQTT connect failed",
			"client_id", clientID,
			"attempt", attempt,
			"error", err,
		)
		return fmt.Errorf("connecting as %s: %w", clientID, err)
	}

	m.mu.Lock()
	m.state = Connected
	m.failures = 0
	hook := m.onConnect
	m.mu.Unlock()

	// The session stays up without the subscription so heartbeats still flow.
	_ = m.Subscribe(m.cfg.Topics.Status) //nolint:errcheck // Failure recorded by Subscribe

	if hook != nil {
		hook()
	}

	m.diag.Append("MQTT connected as " + clientID)
	logger.Info("MQTT connected", "client_id", clientID)
	return nil
}

// CheckLiveness moves Connected to Disconnected when the transport reports
// the session has dropped.
//
// Returns:
//   - bool: true if the manager is Connected after the check
func (m *Manager) CheckLiveness() bool {
	if !m.IsConnected() {
		return false
	}
	if m.transport.IsConnected() {
		return true
	}

	m.setState(Disconnected)
	m.diag.Append("MQTT connection lost")
	m.getLogger().Warn("MQTT connection lost")
	return false
}

// Publish sends payload on topic once. Failures are recorded and returned
// but never retried.
//
// Returns:
//   - error: ErrNotConnected while Disconnected, the wrapped transport
//     error on failure, nil on success
func (m *Manager) Publish(topic string, payload []byte) error {
	if !m.IsConnected() {
		m.diag.Append(fmt.Sprintf("publish to %s skipped: not connected", topic))
		return fmt.Errorf("publishing to %s: %w", topic, ErrNotConnected)
	}

	if err := m.transport.Publish(topic, payload); err != nil {
		m.diag.Append(fmt.Sprintf("publish to %s failed: %v", topic, err))
		m.getLogger().Warn("MQTT publish failed", "topic", topic, "error", err)
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers interest in topic on the current session.
//
// Returns:
//   - error: ErrNotConnected while Disconnected, the wrapped transport
//     error on failure, nil on success
func (m *Manager) Subscribe(topic string) error {
	if !m.IsConnected() {
		m.diag.Append(fmt.Sprintf("subscribe to %s skipped: not connected", topic))
		return fmt.Errorf("subscribing to %s: %w", topic, ErrNotConnected)
	}

	if err := m.transport.Subscribe(topic); err != nil {
		m.diag.Append(fmt.Sprintf("subscribe to %s failed: %v", topic, err))
		m.getLogger().Warn("MQTT subscribe failed", "topic", topic, "error", err)
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	m.diag.Append("subscribed to " + topic)
	return nil
}

// ServiceTraffic delivers pending inbound messages to the registered
// handler. It does nothing while Disconnected.
//
// Returns:
//   - int: Number of messages delivered
func (m *Manager) ServiceTraffic() int {
	if !m.IsConnected() {
		return 0
	}
	return m.transport.ServiceTraffic()
}

// Close ends the session and moves to Disconnected.
func (m *Manager) Close() error {
	m.setState(Disconnected)
	if err := m.transport.Close(); err != nil {
		return fmt.Errorf("closing transport: %w", err)
	}
	return nil
}
