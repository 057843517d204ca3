//go:build integration

package mqtt

import (
	"errors"
	"testing"
	"time"
)

// Integration tests against a live broker.
// These tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func TestIntegration_ConnectPublishSubscribe(t *testing.T) {
	client := New(testConfig())
	if err := client.Connect("doordrop-int-roundtrip", "", ""); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Fatal("IsConnected() = false after Connect")
	}

	received := make(chan string, 1)
	client.SetMessageHandler(func(_ string, payload []byte) error {
		received <- string(payload)
		return nil
	})

	topic := "doordrop/int/status"
	if err := client.Subscribe(topic); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := client.Publish(topic, []byte("Authorized")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		client.ServiceTraffic()
		select {
		case got := <-received:
			if got != "Authorized" {
				t.Errorf("received %q, want Authorized", got)
			}
			return
		case <-deadline:
			t.Fatal("timed out waiting for message")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestIntegration_ConnectInvalidBroker(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19999

	client := New(cfg)
	err := client.Connect("doordrop-int-invalid", "", "")
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after failed Connect")
	}
}

func TestIntegration_ReconnectReplacesSession(t *testing.T) {
	client := New(testConfig())
	if err := client.Connect("doordrop-int-first", "", ""); err != nil {
		t.Fatalf("first Connect() error = %v", err)
	}
	if err := client.Connect("doordrop-int-second", "", ""); err != nil {
		t.Fatalf("second Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after reconnect")
	}

	client.Close()
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
}
