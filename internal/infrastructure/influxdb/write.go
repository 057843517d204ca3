package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the scanner.
const (
	measurementHeartbeat = "scanner_heartbeat"
	measurementScan      = "scanner_scan"
)

// WriteHeartbeat records the link state observed by one heartbeat emission.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - linkUp: Network link status at emission time
//   - brokerUp: Broker session status at emission time
//   - published: Whether the heartbeat reached the broker
//   - at: Heartbeat timestamp
func (c *Client) WriteHeartbeat(linkUp, brokerUp, published bool, at time.Time) {
	if !c.Writable() {
		return
	}
	c.writeAPI.WritePoint(heartbeatPoint(c.deviceID, linkUp, brokerUp, published, at))
}

// WriteScan records one scanned code relay attempt. The code itself is not
// stored, only its length.
//
// Parameters:
//   - codeLength: Length of the scanned code
//   - published: Whether the code reached the broker
func (c *Client) WriteScan(codeLength int, published bool) {
	if !c.Writable() {
		return
	}
	c.writeAPI.WritePoint(scanPoint(c.deviceID, codeLength, published, time.Now()))
}

func heartbeatPoint(deviceID string, linkUp, brokerUp, published bool, at time.Time) *write.Point {
	return write.NewPoint(
		measurementHeartbeat,
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"wifi_up":   linkUp,
			"mqtt_up":   brokerUp,
			"published": published,
		},
		at,
	)
}

func scanPoint(deviceID string, codeLength int, published bool, at time.Time) *write.Point {
	return write.NewPoint(
		measurementScan,
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"code_length": codeLength,
			"published":   published,
		},
		at,
	)
}
