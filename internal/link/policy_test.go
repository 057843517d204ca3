package link

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/doordrop-scanner/internal/diaglog"
	"github.com/nerrad567/doordrop-scanner/internal/infrastructure/config"
)

type countingConnector struct {
	failures int
	attempts int
}

func (c *countingConnector) Connect() error {
	c.attempts++
	if c.attempts <= c.failures {
		return errors.New("refused")
	}
	return nil
}

func TestBlocking_RetriesUntilConnected(t *testing.T) {
	var waits []time.Duration
	policy := NewBlocking(5 * time.Second)
	policy.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	conn := &countingConnector{failures: 3}
	if err := policy.Reconnect(context.Background(), conn); err != nil {
		t.Fatalf("Reconnect() error = %v", err)
	}
	if conn.attempts != 4 {
		t.Errorf("attempts = %d, want 4", conn.attempts)
	}
	if len(waits) != 3 {
		t.Fatalf("waits = %d, want 3", len(waits))
	}
	for _, d := range waits {
		if d != 5*time.Second {
			t.Errorf("wait = %v, want 5s", d)
		}
	}
}

func TestBlocking_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := NewBlocking(time.Second)
	policy.wait = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	conn := &countingConnector{failures: 100}
	err := policy.Reconnect(ctx, conn)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Reconnect() error = %v, want context.Canceled", err)
	}
	if conn.attempts != 1 {
		t.Errorf("attempts = %d, want 1", conn.attempts)
	}
}

func TestBlocking_DefaultDelay(t *testing.T) {
	if got := NewBlocking(0).Delay; got != DefaultRetryDelay {
		t.Errorf("NewBlocking(0).Delay = %v, want %v", got, DefaultRetryDelay)
	}
}

func TestNonBlocking_SingleAttempt(t *testing.T) {
	conn := &countingConnector{failures: 100}
	if err := (NonBlocking{}).Reconnect(context.Background(), conn); err == nil {
		t.Error("Reconnect() expected error, got nil")
	}
	if conn.attempts != 1 {
		t.Errorf("attempts = %d, want 1", conn.attempts)
	}
}

func TestBlocking_WithManager(t *testing.T) {
	transport := newFakeTransport()
	transport.failConnects = 3
	diag := diaglog.New(20)
	mgr := NewManager(testConfig(), transport, diag)

	policy := NewBlocking(time.Second)
	policy.wait = func(context.Context, time.Duration) error { return nil }

	if err := policy.Reconnect(context.Background(), mgr); err != nil {
		t.Fatalf("Reconnect() error = %v", err)
	}
	if mgr.State() != Connected {
		t.Errorf("State() = %v, want Connected", mgr.State())
	}
	if mgr.Failures() != 0 {
		t.Errorf("Failures() = %d, want 0 after success", mgr.Failures())
	}
}

func TestPolicyFromConfig(t *testing.T) {
	tests := []struct {
		policy string
		want   string
	}{
		{config.PolicyBlocking, config.PolicyBlocking},
		{config.PolicyNonBlocking, config.PolicyNonBlocking},
		{"", config.PolicyNonBlocking},
	}

	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.policy, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.MQTT.Reconnect.Policy = tt.policy
			cfg.MQTT.Reconnect.Delay = 2
			got := PolicyFromConfig(cfg)
			if got.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", got.Name(), tt.want)
			}
			if b, ok := got.(*Blocking); ok && b.Delay != 2*time.Second {
				t.Errorf("Delay = %v, want 2s", b.Delay)
			}
		})
	}
}
