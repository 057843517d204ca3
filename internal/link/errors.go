package link

import "errors"

var (
	// ErrNotConnected is returned by operations attempted while Disconnected.
	ErrNotConnected = errors.New("link: not connected")
)
