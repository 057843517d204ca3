package clock

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/beevik/ntp"
)

// Defaults applied when Options leave a duration unset.
const (
	defaultQueryTimeout   = 5 * time.Second
	defaultResyncInterval = time.Hour

	// unsyncedRetryInterval paces attempts until the first sync succeeds.
	unsyncedRetryInterval = time.Minute
)

// Logger defines the logging interface for the clock.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// queryFunc asks one server for the local clock's offset.
type queryFunc func(host string, timeout time.Duration) (time.Duration, error)

// Options configures a Clock.
type Options struct {
	// Servers are tried in order on every synchronisation.
	Servers []string

	// UTCOffset is the fixed zone timestamps are reported in. Zero is UTC.
	UTCOffset time.Duration

	// ResyncInterval between synchronisations once synced.
	ResyncInterval time.Duration

	// QueryTimeout bounds each server query.
	QueryTimeout time.Duration
}

// Clock is a wall-clock corrected against network time.
//
// Until the first successful Synchronize, Now reports the Unix epoch so
// callers always get a well-formed, obviously unsynchronised timestamp.
//
// Thread Safety: All methods are safe for concurrent use.
type Clock struct {
	opts  Options
	zone  *time.Location
	query queryFunc
	local func() time.Time

	mu          sync.RWMutex
	offset      time.Duration
	synced      bool
	lastAttempt time.Time
	attempted   bool
	logger      Logger
}

// New creates an unsynchronised Clock.
//
// Parameters:
//   - opts: Servers, zone and timing
//
// Returns:
//   - *Clock: Clock reporting the epoch until synchronised
func New(opts Options) *Clock {
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = defaultQueryTimeout
	}
	if opts.ResyncInterval <= 0 {
		opts.ResyncInterval = defaultResyncInterval
	}

	return &Clock{
		opts:   opts,
		zone:   zoneFor(opts.UTCOffset),
		query:  queryNTP,
		local:  time.Now,
		logger: noopLogger{},
	}
}

// zoneFor returns UTC or a fixed zone named like "UTC+01:00".
func zoneFor(offset time.Duration) *time.Location {
	if offset == 0 {
		return time.UTC
	}
	sign := '+'
	abs := offset
	if offset < 0 {
		sign = '-'
		abs = -offset
	}
	name := fmt.Sprintf("UTC%c%02d:%02d", sign, int(abs.Hours()), int(abs.Minutes())%60)
	return time.FixedZone(name, int(offset.Seconds()))
}

// queryNTP performs one SNTP exchange with host.
func queryNTP(host string, timeout time.Duration) (time.Duration, error) {
	resp, err := ntp.QueryWithOptions(host, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return 0, err
	}
	if err := resp.Validate(); err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}

// SetLogger sets the structured logger.
func (c *Clock) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}

// Synchronize queries servers in order and adopts the first valid answer.
//
// Parameters:
//   - servers: NTP hostnames
//
// Returns:
//   - error: ErrNoServers, or ErrSyncFailed wrapping every server's error
func (c *Clock) Synchronize(servers []string) error {
	if len(servers) == 0 {
		return ErrNoServers
	}

	c.mu.RLock()
	logger := c.logger
	c.mu.RUnlock()

	var errs []error
	for _, host := range servers {
		offset, err := c.query(host, c.opts.QueryTimeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", host, err))
			logger.Warn("ntp query failed", "server", host, "error", err)
			continue
		}

		c.mu.Lock()
		c.offset = offset
		c.synced = true
		c.mu.Unlock()

		logger.Info("clock synchronised", "server", host, "offset", offset)
		return nil
	}

	return fmt.Errorf("%w: %w", ErrSyncFailed, errors.Join(errs...))
}

// Maintain resynchronises against the configured servers when due: every
// ResyncInterval once synced, every minute before that.
//
// Parameters:
//   - now: Current monotonic time from the supervisor tick
//
// Returns:
//   - error: The sync error when an attempt was made and failed
func (c *Clock) Maintain(now time.Time) error {
	c.mu.Lock()
	interval := unsyncedRetryInterval
	if c.synced {
		interval = c.opts.ResyncInterval
	}
	if c.attempted && now.Sub(c.lastAttempt) < interval {
		c.mu.Unlock()
		return nil
	}
	c.attempted = true
	c.lastAttempt = now
	c.mu.Unlock()

	return c.Synchronize(c.opts.Servers)
}

// Now returns the corrected time in the configured zone, or the Unix epoch
// before the first successful sync.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	synced := c.synced
	offset := c.offset
	c.mu.RUnlock()

	if !synced {
		return time.Unix(0, 0).In(c.zone)
	}
	return c.local().Add(offset).In(c.zone)
}

// Synced reports whether at least one synchronisation has succeeded.
func (c *Clock) Synced() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.synced
}
