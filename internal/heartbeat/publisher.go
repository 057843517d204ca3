package heartbeat

import (
	"fmt"
	"sync"
	"time"
)

// DefaultInterval is the period between heartbeats.
const DefaultInterval = 60 * time.Second

// Clock supplies the wall-clock time stamped into heartbeats. It must
// answer before the first network time sync.
type Clock interface {
	Now() time.Time
}

// Network reports the state of the device's network link.
type Network interface {
	IsLinkUp() bool
	LocalAddress() string
}

// Sender publishes heartbeats on the broker session. Publish records its
// own failures, including a skip while disconnected, in the diagnostic
// log; the publisher records only its successes.
type Sender interface {
	IsConnected() bool
	Publish(topic string, payload []byte) error
}

// Recorder receives one sample per heartbeat emission, published or not.
type Recorder interface {
	WriteHeartbeat(linkUp, brokerUp, published bool, at time.Time)
}

// Diagnostics receives the outcome of every emission.
type Diagnostics interface {
	Append(text string)
}

// Logger defines the logging interface for the publisher.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Options configures a Publisher.
type Options struct {
	// Topic is the state topic heartbeats are published on.
	Topic string

	// Interval between heartbeats. Non-positive uses DefaultInterval.
	Interval time.Duration
}

// Publisher emits the periodic health heartbeat.
//
// The interval timer restarts on every emission whether or not the publish
// succeeded, so a failure waits a full interval instead of retrying on the
// next tick.
//
// Thread Safety: All methods are safe for concurrent use.
type Publisher struct {
	opts    Options
	clock   Clock
	network Network
	sender  Sender
	diag    Diagnostics

	// now drives the interval timer; it is independent of Clock so a time
	// sync never makes a heartbeat look overdue.
	now func() time.Time

	mu       sync.Mutex
	last     time.Time
	emitted  bool
	recorder Recorder
	logger   Logger
}

// NewPublisher creates a Publisher that has not emitted yet, so the first
// MaybePublish call is always due.
//
// Parameters:
//   - opts: Topic and interval
//   - clock: Wall-clock source for the timestamp
//   - network: Link status and address
//   - sender: Broker session
//   - diag: Diagnostic trail for emission outcomes
//
// Returns:
//   - *Publisher: Publisher ready for use
func NewPublisher(opts Options, clock Clock, network Network, sender Sender, diag Diagnostics) *Publisher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Publisher{
		opts:    opts,
		clock:   clock,
		network: network,
		sender:  sender,
		diag:    diag,
		now:     time.Now,
		logger:  noopLogger{},
	}
}

// SetRecorder attaches an optional telemetry sink.
func (p *Publisher) SetRecorder(r Recorder) {
	p.mu.Lock()
	p.recorder = r
	p.mu.Unlock()
}

// SetLogger sets the structured logger.
func (p *Publisher) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	p.mu.Lock()
	p.logger = logger
	p.mu.Unlock()
}

// MaybePublish emits a heartbeat if none has been emitted yet or at least
// one interval has passed since the last emission.
//
// Parameters:
//   - now: Current monotonic time from the supervisor tick
//
// Returns:
//   - bool: true if a heartbeat was emitted (successfully or not)
func (p *Publisher) MaybePublish(now time.Time) bool {
	p.mu.Lock()
	if p.emitted && now.Sub(p.last) < p.opts.Interval {
		p.mu.Unlock()
		return false
	}
	p.last = now
	p.emitted = true
	p.mu.Unlock()

	p.emit()
	return true
}

// PublishNow emits a heartbeat immediately and restarts the interval
// timer. It is the on-connect hook.
func (p *Publisher) PublishNow() {
	p.mu.Lock()
	p.last = p.now()
	p.emitted = true
	p.mu.Unlock()

	p.emit()
}

// emit builds, publishes and records one heartbeat.
func (p *Publisher) emit() {
	p.mu.Lock()
	recorder := p.recorder
	logger := p.logger
	p.mu.Unlock()

	at := p.clock.Now()
	linkUp := p.network.IsLinkUp()
	brokerUp := p.sender.IsConnected()
	payload := NewPayload(at, linkUp, brokerUp, p.network.LocalAddress())

	published := false
	data, err := payload.Marshal()
	if err != nil {
		p.diag.Append(fmt.Sprintf("heartbeat encoding failed: %v", err))
		logger.Warn("heartbeat encoding failed", "error", err)
	} else if pubErr := p.sender.Publish(p.opts.Topic, data); pubErr != nil {
		logger.Warn("heartbeat publish failed", "topic", p.opts.Topic, "error", pubErr)
	} else {
		published = true
		p.diag.Append("heartbeat published")
		logger.Debug("heartbeat published", "topic", p.opts.Topic, "payload", string(data))
	}

	if recorder != nil {
		recorder.WriteHeartbeat(linkUp, brokerUp, published, at)
	}
}
