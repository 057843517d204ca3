package mqtt

import (
	"fmt"
)

// Subscribe asks the broker for messages on the specified topic at the
// configured QoS. Received messages are queued and delivered to the
// MessageHandler from ServiceTraffic.
//
// Subscriptions belong to the current session. The broker session is clean,
// so the caller must subscribe again after every successful Connect.
//
// Parameters:
//   - topic: The topic pattern to subscribe to
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Subscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
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
	token := client.Subscribe(topic, byte(c.cfg.QoS), c.enqueue)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	return nil
}
