//go:build integration

package clock

import (
	"testing"
	"time"
)

// Integration tests against public NTP servers.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/clock/...

func TestIntegration_Synchronize(t *testing.T) {
	c := New(Options{QueryTimeout: 3 * time.Second})
	if err := c.Synchronize([]string{"pool.ntp.org", "time.google.com"}); err != nil {
		t.Skipf("no NTP server reachable: %v", err)
	}

	if !c.Synced() {
		t.Fatal("Synced() = false after successful Synchronize")
	}
	if drift := time.Since(c.Now()); drift > time.Minute || drift < -time.Minute {
		t.Errorf("Now() differs from system clock by %v", drift)
	}
}
