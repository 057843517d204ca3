package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/doordrop-scanner/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 2 * time.Second

	defaultBatchSize     = 20
	defaultFlushInterval = 10 // seconds
)

// Client records scanner heartbeats and scan relays in InfluxDB v2.
//
// Points go through the library's non-blocking write API. While the server
// fails HealthCheck the client is paused: points are dropped instead of
// queued, so an unreachable sink costs the scanner nothing but the ping.
//
// Thread Safety: all methods are safe for concurrent use.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	deviceID string

	// ping reports server readiness; it is the client's Ping outside tests.
	ping func(ctx context.Context) (bool, error)

	mu      sync.RWMutex
	open    bool
	paused  bool
	onError func(err error)
}

// Connect pings the configured server and opens a batched write API on
// its org and bucket. The ping must succeed; a sink that is down at
// start-up is reported to the caller, which runs without telemetry.
//
// Parameters:
//   - cfg: InfluxDB section of the scanner configuration
//   - deviceID: Tag added to every point
//
// Returns:
//   - *Client: Open, unpaused client
//   - error: ErrDisabled when the sink is turned off, ErrConnectionFailed
//     when the server cannot be reached or is not ready
func Connect(cfg config.InfluxDBConfig, deviceID string) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}

	// #nosec G115 -- both values are positive here
	opts := influxdb2.DefaultOptions().
		SetBatchSize(uint(batchSize)).
		SetFlushInterval(uint(time.Duration(flushInterval) * time.Second / time.Millisecond))
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	ready, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	if !ready {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, errNotReady)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		deviceID: deviceID,
		ping:     client.Ping,
		open:     true,
	}
	go c.forwardWriteErrors(c.writeAPI.Errors())

	return c, nil
}

// forwardWriteErrors hands batch failures to the OnError callback.
func (c *Client) forwardWriteErrors(errs <-chan error) {
	for err := range errs {
		c.mu.RLock()
		callback := c.onError
		c.mu.RUnlock()

		if callback != nil {
			callback(err)
		}
	}
}

// SetOnError registers a callback for asynchronous batch write failures.
func (c *Client) SetOnError(callback func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = callback
}

// HealthCheck pings the server and pauses or resumes writes to match.
//
// Parameters:
//   - ctx: Bounds the ping, which is further capped at two seconds
//
// Returns:
//   - error: nil when the server is ready, ErrUnhealthy when it is not,
//     ErrNotConnected after Close
func (c *Client) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	open := c.open
	c.mu.RUnlock()
	if !open {
		return ErrNotConnected
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	ready, err := c.ping(pingCtx)
	if err == nil && !ready {
		err = errNotReady
	}

	c.mu.Lock()
	c.paused = err != nil
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	return nil
}

// Writable reports whether points are currently accepted: the client is
// open and its last health check passed.
func (c *Client) Writable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open && !c.paused
}

// Close flushes buffered points and releases the client. Later writes are
// dropped.
//
// Returns:
//   - error: Always nil
func (c *Client) Close() error {
	c.mu.Lock()
	wasOpen := c.open
	c.open = false
	c.mu.Unlock()

	if !wasOpen || c.client == nil {
		return nil
	}

	c.writeAPI.Flush()
	c.client.Close()
	return nil
}
