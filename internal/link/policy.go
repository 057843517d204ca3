package link

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/doordrop-scanner/internal/infrastructure/config"
)

// DefaultRetryDelay is the pause between blocking reconnect attempts.
const DefaultRetryDelay = 5 * time.Second

// Connector performs a single connect attempt. *Manager implements it.
type Connector interface {
	Connect() error
}

// ReconnectPolicy decides how the supervisor restores a lost session.
type ReconnectPolicy interface {
	// Reconnect is called by the supervisor while Disconnected.
	Reconnect(ctx context.Context, c Connector) error

	// Name identifies the policy in logs.
	Name() string
}

// Blocking retries Connect with a fixed delay until it succeeds.
//
// The supervisor does no other work while Blocking is retrying; only
// context cancellation ends the loop early.
type Blocking struct {
	Delay time.Duration

	// wait pauses between attempts; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewBlocking creates a Blocking policy. A non-positive delay uses
// DefaultRetryDelay.
func NewBlocking(delay time.Duration) *Blocking {
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	return &Blocking{Delay: delay, wait: sleepContext}
}

// Name implements ReconnectPolicy.
func (b *Blocking) Name() string { return config.PolicyBlocking }

// Reconnect implements ReconnectPolicy.
//
// Returns:
//   - error: nil once connected, the context error if cancelled first
func (b *Blocking) Reconnect(ctx context.Context, c Connector) error {
	wait := b.wait
	if wait == nil {
		wait = sleepContext
	}

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("reconnect aborted: %w", err)
		}
		if err := c.Connect(); err == nil {
			return nil
		}
		if err := wait(ctx, b.Delay); err != nil {
			return fmt.Errorf("reconnect aborted: %w", err)
		}
	}
}

// NonBlocking makes exactly one attempt per call and returns its outcome,
// so the rest of the tick keeps running during an outage.
type NonBlocking struct{}

// Name implements ReconnectPolicy.
func (NonBlocking) Name() string { return config.PolicyNonBlocking }

// Reconnect implements ReconnectPolicy.
func (NonBlocking) Reconnect(_ context.Context, c Connector) error {
	return c.Connect()
}

// PolicyFromConfig selects the reconnect policy named in the configuration.
// Unknown names fall back to NonBlocking; config validation rejects them
// before this point.
func PolicyFromConfig(cfg *config.Config) ReconnectPolicy {
	if cfg.MQTT.Reconnect.Policy == config.PolicyBlocking {
		return NewBlocking(cfg.GetReconnectDelay())
	}
	return NonBlocking{}
}

// sleepContext waits for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
