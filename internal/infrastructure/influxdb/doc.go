// Package influxdb provides the scanner's optional InfluxDB telemetry sink.
//
// It wraps the official influxdb-client-go v2 library for batched writes
// and periodic health pings. The supervisor calls HealthCheck on a fixed
// period; a failing sink is paused and its points are dropped until a
// later check passes. The sink is disabled
// by default; when enabled, every heartbeat emission and every scan relay
// attempt is recorded as a point tagged with the device ID.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Device.ID)
//	if err != nil {
//	    log.Warn("influxdb unavailable, telemetry disabled", "error", err)
//	}
//	defer client.Close()
//
//	client.WriteHeartbeat(true, true, true, time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are reported via the
// SetOnError callback. Connection and health check errors are returned
// directly. Writes made while paused or after Close are dropped.
package influxdb
