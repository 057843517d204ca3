package mqtt

import (
	"errors"
	"fmt"
)

// Domain-specific errors for MQTT operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations on a disconnected client.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed is returned when a connection attempt fails.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrInvalidTopic is returned when an empty or invalid topic is provided.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)

// ConnectError reports a connection attempt the broker refused or that
// failed at the transport level.
//
// Code holds the MQTT CONNACK return code (0 when the failure happened
// before the broker answered, e.g. a TCP error).
type ConnectError struct {
	Code byte
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("%v: rc=%d: %v", ErrConnectionFailed, e.Code, e.Err)
}

// Unwrap allows errors.Is to match both ErrConnectionFailed and the
// underlying paho error.
func (e *ConnectError) Unwrap() []error {
	return []error{ErrConnectionFailed, e.Err}
}
