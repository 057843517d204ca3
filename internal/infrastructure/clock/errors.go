package clock

import "errors"

// Sentinel errors for time synchronisation.
var (
	// ErrNoServers indicates Synchronize was called without any NTP server.
	ErrNoServers = errors.New("clock: no ntp servers configured")

	// ErrSyncFailed indicates every configured server failed to answer.
	ErrSyncFailed = errors.New("clock: synchronisation failed")
)
