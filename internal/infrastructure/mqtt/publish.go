package mqtt

import (
	"fmt"
)

// Maximum payload size for MQTT messages (256KB).
// Barcodes and heartbeats are tiny; anything larger is a bug.
const maxPayloadSize = 256 << 10

// Publish sends a message to the specified MQTT topic at the configured
// QoS, not retained. It does not retry.
//
// Parameters:
//   - topic: The topic to publish to (e.g., "doordrop/state")
//   - payload: The message payload
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
//
// Example:
//
//	err := client.Publish("doordrop/scan", []byte("JJD000390007123456"))
func (c *Client) Publish(topic string, payload []byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.clientMu.RLock()
	client := c.client
	c.clientMu.RUnlock()
	if client == nil {
		return ErrNotConnected
	}

	// #nosec G115 -- QoS validated to 0..2 by config.Validate
	token := client.Publish(topic, byte(c.cfg.QoS), false, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}
