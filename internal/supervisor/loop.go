package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/doordrop-scanner/internal/link"
)

// DefaultTickInterval is the period between supervisor ticks.
const DefaultTickInterval = 250 * time.Millisecond

// Link is the broker session as the supervisor drives it.
// *link.Manager implements it.
type Link interface {
	link.Connector
	CheckLiveness() bool
	IsConnected() bool
	ServiceTraffic() int
	Publish(topic string, payload []byte) error
	Close() error
}

// Indicator is initialised once at start-up.
type Indicator interface {
	Initialize() error
}

// TimeSync keeps the wall clock synchronised.
type TimeSync interface {
	Maintain(now time.Time) error
}

// Network reports whether the device's network link is up.
type Network interface {
	IsLinkUp() bool
}

// Heartbeat emits the periodic health report when due.
type Heartbeat interface {
	MaybePublish(now time.Time) bool
}

// ScanRecorder receives one sample per relayed scan.
type ScanRecorder interface {
	WriteScan(codeLength int, published bool)
}

// SinkHealth is an optional telemetry sink pinged on a fixed period.
// A failing sink pauses itself; the loop only records the transitions.
type SinkHealth interface {
	HealthCheck(ctx context.Context) error
}

// Diagnostics is the human-readable event trail.
type Diagnostics interface {
	Append(text string)
}

// Logger defines the logging interface for the loop.
type Logger interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Components are the collaborators a Loop drives.
type Components struct {
	Link      Link
	Policy    link.ReconnectPolicy
	Indicator Indicator
	Clock     TimeSync
	Network   Network
	Heartbeat Heartbeat
	Diag      Diagnostics
}

// Options configures a Loop.
type Options struct {
	// TickInterval between ticks. Non-positive uses DefaultTickInterval.
	TickInterval time.Duration

	// PublishTopic carries relayed scans.
	PublishTopic string
}

// Loop is the single control flow of the scanner agent.
//
// Every tick runs, in order: liveness check and reconnect, inbound
// traffic and scan relay, time maintenance and the heartbeat, then the
// optional telemetry sink check. Inbound
// authorization decisions are therefore applied before any heartbeat of
// the same tick, and a reconnect is attempted before any publish.
//
// Thread Safety: Tick and Run must be called from one goroutine.
type Loop struct {
	c    Components
	opts Options

	scans    <-chan string
	recorder ScanRecorder
	logger   Logger

	sink         SinkHealth
	sinkInterval time.Duration
	sinkChecked  bool
	sinkLast     time.Time
	sinkDown     bool
}

// New creates a Loop.
//
// Parameters:
//   - c: Collaborators, all required
//   - opts: Tick interval and publish topic
//
// Returns:
//   - *Loop: Loop ready for Run
func New(c Components, opts Options) *Loop {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if c.Policy == nil {
		c.Policy = link.NonBlocking{}
	}
	return &Loop{
		c:      c,
		opts:   opts,
		logger: noopLogger{},
	}
}

// SetScanSource attaches the channel of scanned codes to relay.
func (l *Loop) SetScanSource(codes <-chan string) {
	l.scans = codes
}

// SetScanRecorder attaches an optional telemetry sink for scans.
func (l *Loop) SetScanRecorder(r ScanRecorder) {
	l.recorder = r
}

// SetSinkHealth attaches a telemetry sink to ping every interval. A
// non-positive interval checks on every tick.
func (l *Loop) SetSinkHealth(sink SinkHealth, interval time.Duration) {
	l.sink = sink
	l.sinkInterval = interval
}

// SetLogger sets the structured logger.
func (l *Loop) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	l.logger = logger
}

// Run initialises the indicator, performs the start-up time sync, then
// ticks until ctx is cancelled. The broker session is closed on the way
// out.
//
// Returns:
//   - error: Always nil; failures inside a tick never stop the loop
func (l *Loop) Run(ctx context.Context) error {
	if err := l.c.Indicator.Initialize(); err != nil {
		l.c.Diag.Append(fmt.Sprintf("indicator init failed: %v", err))
		l.logger.Warn("indicator init failed", "error", err)
	}

	l.syncTime(time.Now())

	l.logger.Info("supervisor started",
		"tick_interval", l.opts.TickInterval,
		"reconnect_policy", l.c.Policy.Name(),
	)

	l.Tick(ctx, time.Now())

	ticker := time.NewTicker(l.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return l.shutdown()
		case now := <-ticker.C:
			l.Tick(ctx, now)
		}
	}
}

// shutdown closes the broker session.
func (l *Loop) shutdown() error {
	if err := l.c.Link.Close(); err != nil {
		l.logger.Warn("closing broker session", "error", err)
	}
	l.c.Diag.Append("supervisor stopped")
	l.logger.Info("supervisor stopped")
	return nil
}

// Tick runs one pass of the control flow.
//
// Parameters:
//   - ctx: Cancels a blocking reconnect
//   - now: Monotonic tick time
func (l *Loop) Tick(ctx context.Context, now time.Time) {
	if !l.c.Link.CheckLiveness() {
		if err := l.c.Policy.Reconnect(ctx, l.c.Link); err != nil {
			l.logger.Debug("reconnect attempt failed", "policy", l.c.Policy.Name(), "error", err)
		}
	}

	if n := l.c.Link.ServiceTraffic(); n > 0 {
		l.logger.Debug("inbound messages processed", "count", n)
	}
	l.relayScans()

	if l.c.Network.IsLinkUp() {
		l.syncTime(now)
	}
	l.c.Heartbeat.MaybePublish(now)
	l.checkSink(ctx, now)
}

// checkSink pings the telemetry sink when due and records a change of
// health once per transition.
func (l *Loop) checkSink(ctx context.Context, now time.Time) {
	if l.sink == nil {
		return
	}
	if l.sinkChecked && now.Sub(l.sinkLast) < l.sinkInterval {
		return
	}
	l.sinkChecked = true
	l.sinkLast = now

	err := l.sink.HealthCheck(ctx)
	switch {
	case err != nil && !l.sinkDown:
		l.sinkDown = true
		l.c.Diag.Append(fmt.Sprintf("telemetry sink unhealthy: %v", err))
		l.logger.Warn("telemetry sink unhealthy, points dropped", "error", err)
	case err == nil && l.sinkDown:
		l.sinkDown = false
		l.c.Diag.Append("telemetry sink recovered")
		l.logger.Info("telemetry sink recovered")
	}
}

// syncTime runs time maintenance and records a failed attempt.
func (l *Loop) syncTime(now time.Time) {
	if err := l.c.Clock.Maintain(now); err != nil {
		l.c.Diag.Append(fmt.Sprintf("time sync failed: %v", err))
		l.logger.Warn("time sync failed", "error", err)
	}
}

// relayScans publishes every queued code without blocking.
func (l *Loop) relayScans() {
	if l.scans == nil {
		return
	}
	for {
		select {
		case code, ok := <-l.scans:
			if !ok {
				l.scans = nil
				l.logger.Warn("scan source closed")
				return
			}
			l.relay(code)
		default:
			return
		}
	}
}

// relay publishes one code. Codes scanned while disconnected are dropped,
// not replayed later.
func (l *Loop) relay(code string) {
	published := false
	defer func() {
		if l.recorder != nil {
			l.recorder.WriteScan(len(code), published)
		}
	}()

	if !l.c.Link.IsConnected() {
		l.c.Diag.Append("scan dropped: not connected")
		return
	}

	if err := l.c.Link.Publish(l.opts.PublishTopic, []byte(code)); err != nil {
		l.logger.Warn("scan publish failed", "topic", l.opts.PublishTopic, "error", err)
		return
	}

	published = true
	l.c.Diag.Append("scan published to " + l.opts.PublishTopic)
}
