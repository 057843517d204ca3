package authz

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/doordrop-scanner/internal/indicator"
	"github.com/nerrad567/doordrop-scanner/internal/infrastructure/config"
)

// Indicator is the visual output the tracker drives.
type Indicator interface {
	SetColor(c indicator.Color) error
}

// Diagnostics receives the audit trail of accepted transitions.
type Diagnostics interface {
	Append(text string)
}

// Logger defines the logging interface for the tracker.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Colors maps each State to the indicator color shown for it.
type Colors struct {
	Authorized   indicator.Color
	Unauthorized indicator.Color
	Unknown      indicator.Color
}

// DefaultColors shows green for Authorized, red for Unauthorized and white
// before any decision.
func DefaultColors() Colors {
	return Colors{
		Authorized:   indicator.Green,
		Unauthorized: indicator.Red,
		Unknown:      indicator.White,
	}
}

// ColorsFromConfig reads the decision colors from the indicator settings.
// Unknown always shows white, the power-on color.
func ColorsFromConfig(cfg config.IndicatorConfig) Colors {
	return Colors{
		Authorized:   indicator.ParseColor(cfg.AuthorizedColor),
		Unauthorized: indicator.ParseColor(cfg.UnauthorizedColor),
		Unknown:      indicator.White,
	}
}

// For returns the color configured for s.
func (c Colors) For(s State) indicator.Color {
	switch s {
	case Authorized:
		return c.Authorized
	case Unauthorized:
		return c.Unauthorized
	default:
		return c.Unknown
	}
}

// Tracker follows authorization decisions published on the status topic.
//
// It is purely reactive: it never publishes, and messages on other topics
// or with unrecognised payloads leave the state untouched.
type Tracker struct {
	statusTopic string
	indicator   Indicator
	diag        Diagnostics
	colors      Colors

	mu     sync.RWMutex
	state  State
	logger Logger
}

// NewTracker creates a Tracker in the Unknown state.
//
// Parameters:
//   - statusTopic: The only topic whose messages are considered
//   - ind: Indicator updated on every accepted decision
//   - diag: Audit trail for transitions
//   - colors: Color shown for each state
//
// Returns:
//   - *Tracker: Tracker ready to be registered as the message handler
func NewTracker(statusTopic string, ind Indicator, diag Diagnostics, colors Colors) *Tracker {
	return &Tracker{
		statusTopic: statusTopic,
		indicator:   ind,
		diag:        diag,
		colors:      colors,
		state:       Unknown,
		logger:      noopLogger{},
	}
}

// SetLogger sets the structured logger.
func (t *Tracker) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	t.mu.Lock()
	t.logger = logger
	t.mu.Unlock()
}

// State returns the current authorization state.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// HandleMessage is the inbound message handler.
//
// A message on the status topic whose trimmed payload is exactly
// "Authorized" or "Unauthorized" sets the state, records the transition
// and refreshes the indicator. Everything else is ignored.
//
// Returns:
//   - error: Always nil; an indicator failure is recorded, not returned
func (t *Tracker) HandleMessage(topic string, payload []byte) error {
	if topic != t.statusTopic {
		return nil
	}

	next, ok := parsePayload(strings.TrimSpace(string(payload)))
	if !ok {
		return nil
	}

	t.mu.Lock()
	prev := t.state
	t.state = next
	logger := t.logger
	t.mu.Unlock()

	t.diag.Append(fmt.Sprintf("authorization: %s -> %s", prev, next))
	logger.Info("authorization changed", "from", prev.String(), "to", next.String())

	color := t.colors.For(next)
	if err := t.indicator.SetColor(color); err != nil {
		t.diag.Append(fmt.Sprintf("indicator update to %s failed: %v", color, err))
		logger.Warn("indicator update failed", "color", color.String(), "error", err)
	}
	return nil
}
