package influxdb_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/doordrop-scanner/internal/infrastructure/config"
	"github.com/nerrad567/doordrop-scanner/internal/infrastructure/influxdb"
)

const testDeviceID = "scanner-test"

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "doordrop-dev-token",
		Org:           "doordrop",
		Bucket:        "scanner",
		BatchSize:     20,
		FlushInterval: 1, // 1 second for faster test feedback
	}
}

// skipIfNoInfluxDB skips the test if InfluxDB is not running.
func skipIfNoInfluxDB(t *testing.T) {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION") == "" {
		client, err := influxdb.Connect(testConfig(), testDeviceID)
		if err != nil {
			t.Skip("InfluxDB not available, skipping integration test")
		}
		client.Close()
	}
}

// connectWithErrors connects and records async write errors.
func connectWithErrors(t *testing.T) (*influxdb.Client, func() error) {
	t.Helper()
	client, err := influxdb.Connect(testConfig(), testDeviceID)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })

	var writeErr error
	var mu sync.Mutex
	client.SetOnError(func(err error) {
		mu.Lock()
		writeErr = err
		mu.Unlock()
	})

	return client, func() error {
		mu.Lock()
		defer mu.Unlock()
		return writeErr
	}
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestConnect(t *testing.T) {
	skipIfNoInfluxDB(t)

	client, err := influxdb.Connect(testConfig(), testDeviceID)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.Writable() {
		t.Error("Writable() = false after Connect()")
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg, testDeviceID)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_InvalidURL(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999" // Non-existent port

	_, err := influxdb.Connect(cfg, testDeviceID)
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_DefaultBatchSettings(t *testing.T) {
	skipIfNoInfluxDB(t)
	cfg := testConfig()
	cfg.BatchSize = 0
	cfg.FlushInterval = -1

	client, err := influxdb.Connect(cfg, testDeviceID)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.Writable() {
		t.Error("Writable() = false after Connect() with default batch settings")
	}
}

// =============================================================================
// Health Check Tests
// =============================================================================

func TestHealthCheck_Live(t *testing.T) {
	skipIfNoInfluxDB(t)
	client, _ := connectWithErrors(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if !client.Writable() {
		t.Error("Writable() = false after a passing health check")
	}
}

func TestHealthCheck_Cancelled(t *testing.T) {
	skipIfNoInfluxDB(t)
	client, _ := connectWithErrors(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.HealthCheck(ctx)
	if !errors.Is(err, influxdb.ErrUnhealthy) {
		t.Errorf("HealthCheck() error = %v, want ErrUnhealthy", err)
	}
	if client.Writable() {
		t.Error("Writable() = true after a failed health check")
	}
}

// =============================================================================
// Write Tests
// =============================================================================

func TestWriteHeartbeat(t *testing.T) {
	skipIfNoInfluxDB(t)
	client, writeErr := connectWithErrors(t)

	client.WriteHeartbeat(true, false, false, time.Now())
	client.Close()

	if err := writeErr(); err != nil {
		t.Errorf("Write error = %v", err)
	}
}

func TestWriteScan(t *testing.T) {
	skipIfNoInfluxDB(t)
	client, writeErr := connectWithErrors(t)

	client.WriteScan(13, true)
	client.Close()

	if err := writeErr(); err != nil {
		t.Errorf("Write error = %v", err)
	}
}

// =============================================================================
// Close Tests
// =============================================================================

func TestClose(t *testing.T) {
	skipIfNoInfluxDB(t)

	client, err := influxdb.Connect(testConfig(), testDeviceID)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	client.WriteScan(8, true)

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.Writable() {
		t.Error("Writable() = true after Close()")
	}

	// Writes after close are dropped.
	client.WriteHeartbeat(true, true, true, time.Now())

	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() after Close error = %v, want ErrNotConnected", err)
	}
}
