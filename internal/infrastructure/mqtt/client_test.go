package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/nerrad567/doordrop-scanner/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:           "127.0.0.1",
			Port:           1883,
			ClientIDPrefix: "doordrop-test",
		},
		QoS: 1,
		Topics: config.MQTTTopicsConfig{
			Publish: "doordrop/test/scan",
			Status:  "doordrop/test/status",
			State:   "doordrop/test/state",
		},
	}
}

// fakeMessage implements pahomqtt.Message for handler tests.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

// recordingLogger captures warnings and errors.
type recordingLogger struct {
	mu       sync.Mutex
	warnings []string
	errors   []string
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, msg)
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

// =============================================================================
// Option Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()

	opts := buildClientOptions(cfg, "doordrop-test-1a2b3c4d", "scanner", "secret")

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want [tcp://127.0.0.1:1883]", opts.Servers)
	}
	if opts.ClientID != "doordrop-test-1a2b3c4d" {
		t.Errorf("ClientID = %q, want %q", opts.ClientID, "doordrop-test-1a2b3c4d")
	}
	if opts.Username != "scanner" || opts.Password != "secret" {
		t.Errorf("credentials = %q/%q, want scanner/secret", opts.Username, opts.Password)
	}
	if opts.AutoReconnect {
		t.Error("AutoReconnect = true, want false")
	}
	if opts.ConnectRetry {
		t.Error("ConnectRetry = true, want false")
	}
	if !opts.CleanSession {
		t.Error("CleanSession = false, want true")
	}
	if opts.ConnectTimeout != defaultConnectTimeout {
		t.Errorf("ConnectTimeout = %v, want %v", opts.ConnectTimeout, defaultConnectTimeout)
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg, "id", "", "")

	if opts.Servers[0].String() != "ssl://127.0.0.1:8883" {
		t.Errorf("Servers[0] = %v, want ssl://127.0.0.1:8883", opts.Servers[0])
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLSConfig not set with minimum version")
	}
	if opts.Username != "" {
		t.Errorf("Username = %q, want empty for anonymous", opts.Username)
	}
}

// =============================================================================
// Error Tests
// =============================================================================

func TestConnectError(t *testing.T) {
	cause := errors.New("not Authorized")
	err := error(&ConnectError{Code: 5, Err: cause})

	if !errors.Is(err, ErrConnectionFailed) {
		t.Error("errors.Is(err, ErrConnectionFailed) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	want := "mqtt: connection failed: rc=5: not Authorized"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := fmt.Errorf("connect attempt: %w", err)
	var ce *ConnectError
	if !errors.As(wrapped, &ce) || ce.Code != 5 {
		t.Errorf("errors.As did not recover code 5 from %v", wrapped)
	}
}

// =============================================================================
// Disconnected Client Tests
// =============================================================================

func TestNew_Disconnected(t *testing.T) {
	client := New(testConfig())

	if client.IsConnected() {
		t.Error("IsConnected() = true before Connect")
	}
	if err := client.Publish("doordrop/test/scan", []byte("code")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if err := client.Subscribe("doordrop/test/status"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestPublishEmptyTopic(t *testing.T) {
	client := New(testConfig())

	if err := client.Publish("", []byte("x")); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish() error = %v, want ErrInvalidTopic", err)
	}
}

func TestPublishOversizedPayload(t *testing.T) {
	client := New(testConfig())

	err := client.Publish("doordrop/test/scan", make([]byte, maxPayloadSize+1))
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

func TestSubscribeEmptyTopic(t *testing.T) {
	client := New(testConfig())

	if err := client.Subscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe() error = %v, want ErrInvalidTopic", err)
	}
}

func TestCloseNeverConnected(t *testing.T) {
	client := New(testConfig())
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

// =============================================================================
// Inbound Queue Tests
// =============================================================================

func TestServiceTraffic_DeliversInOrder(t *testing.T) {
	client := New(testConfig())

	var got []string
	client.SetMessageHandler(func(topic string, payload []byte) error {
		got = append(got, topic+"="+string(payload))
		return nil
	})

	client.enqueue(nil, fakeMessage{topic: "doordrop/test/status", payload: []byte("Authorized")})
	client.enqueue(nil, fakeMessage{topic: "doordrop/test/status", payload: []byte("Unauthorized")})

	if n := client.ServiceTraffic(); n != 2 {
		t.Fatalf("ServiceTraffic() = %d, want 2", n)
	}
	want := []string{"doordrop/test/status=Authorized", "doordrop/test/status=Unauthorized"}
	if len(got) != len(want) {
		t.Fatalf("delivered %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("delivered[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if n := client.ServiceTraffic(); n != 0 {
		t.Errorf("second ServiceTraffic() = %d, want 0", n)
	}
}

func TestServiceTraffic_CopiesPayload(t *testing.T) {
	client := New(testConfig())

	var got []byte
	client.SetMessageHandler(func(_ string, payload []byte) error {
		got = payload
		return nil
	})

	buf := []byte("Authorized")
	client.enqueue(nil, fakeMessage{topic: "t", payload: buf})
	copy(buf, "XXXXXXXXXX")
	client.ServiceTraffic()

	if string(got) != "Authorized" {
		t.Errorf("payload = %q, want %q", got, "Authorized")
	}
}

func TestEnqueue_DropsWhenFull(t *testing.T) {
	client := New(testConfig())
	logger := &recordingLogger{}
	client.SetLogger(logger)

	for i := 0; i < inboundQueueSize+3; i++ {
		client.enqueue(nil, fakeMessage{topic: "t", payload: []byte("p")})
	}

	if got := client.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
	if len(logger.warnings) != 3 {
		t.Errorf("warnings = %d, want 3", len(logger.warnings))
	}
	if n := client.ServiceTraffic(); n != inboundQueueSize {
		t.Errorf("ServiceTraffic() = %d, want %d", n, inboundQueueSize)
	}
}

func TestClose_DiscardsQueuedMessages(t *testing.T) {
	client := New(testConfig())
	logger := &recordingLogger{}
	client.SetLogger(logger)

	delivered := 0
	client.SetMessageHandler(func(string, []byte) error {
		delivered++
		return nil
	})

	client.enqueue(nil, fakeMessage{topic: "doordrop/test/status", payload: []byte("Authorized")})
	client.enqueue(nil, fakeMessage{topic: "doordrop/test/status", payload: []byte("Unauthorized")})

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if n := client.ServiceTraffic(); n != 0 || delivered != 0 {
		t.Errorf("ServiceTraffic() = %d, delivered = %d, want 0 after session ended", n, delivered)
	}
	if len(logger.warnings) != 1 {
		t.Errorf("warnings = %v, want one discard warning", logger.warnings)
	}
}

func TestServiceTraffic_NoHandler(t *testing.T) {
	client := New(testConfig())

	client.enqueue(nil, fakeMessage{topic: "t", payload: []byte("p")})

	if n := client.ServiceTraffic(); n != 1 {
		t.Errorf("ServiceTraffic() = %d, want 1 (drained without handler)", n)
	}
}

func TestServiceTraffic_HandlerErrorAndPanic(t *testing.T) {
	client := New(testConfig())
	logger := &recordingLogger{}
	client.SetLogger(logger)

	calls := 0
	client.SetMessageHandler(func(topic string, _ []byte) error {
		calls++
		if topic == "panic" {
			panic("boom")
		}
		return errors.New("rejected")
	})

	client.enqueue(nil, fakeMessage{topic: "panic"})
	client.enqueue(nil, fakeMessage{topic: "error"})
	client.ServiceTraffic()

	if calls != 2 {
		t.Errorf("handler calls = %d, want 2 (panic must not stop draining)", calls)
	}
	if len(logger.errors) != 1 {
		t.Errorf("logged errors = %d, want 1 panic", len(logger.errors))
	}
	if len(logger.warnings) != 1 {
		t.Errorf("logged warnings = %d, want 1 handler error", len(logger.warnings))
	}
}
