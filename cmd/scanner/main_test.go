package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "test-config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("SCANNER_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("run() error = %v, want loading config failure", err)
	}
}

// TestRun_MissingScannerDevice verifies run fails when the scanner device
// cannot be opened.
func TestRun_MissingScannerDevice(t *testing.T) {
	configPath := writeTestConfig(t, `
device:
  id: test-scanner
mqtt:
  broker:
    host: "127.0.0.1"
    port: 1
scanner:
  enabled: true
  device: "/nonexistent/ttyACM9"
logging:
  level: error
`)
	t.Setenv("SCANNER_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail when scanner device is missing")
	}
	if !strings.Contains(err.Error(), "opening scanner") {
		t.Errorf("run() error = %v, want opening scanner failure", err)
	}
}

// TestRun_ShutsDownOnCancel verifies an unreachable broker never stops
// start-up and a cancelled context ends run cleanly.
func TestRun_ShutsDownOnCancel(t *testing.T) {
	configPath := writeTestConfig(t, `
device:
  id: test-scanner
mqtt:
  broker:
    host: "127.0.0.1"
    port: 1
time:
  ntp_servers: ["127.0.0.1"]
  query_timeout: 1
logging:
  level: error
`)
	t.Setenv("SCANNER_CONFIG", configPath)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := run(ctx); err != nil {
		t.Errorf("run() error = %v, want nil", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("SCANNER_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("SCANNER_CONFIG", "/etc/doordrop/config.yaml")
	if got := getConfigPath(); got != "/etc/doordrop/config.yaml" {
		t.Errorf("getConfigPath() = %q, want /etc/doordrop/config.yaml", got)
	}
}

func TestOpenScanner_Stdin(t *testing.T) {
	src, err := openScanner(stdinDevice)
	if err != nil {
		t.Fatalf("openScanner(-) error = %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
