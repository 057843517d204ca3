package indicator

import (
	"fmt"
	"strings"
	"sync"
)

// ChannelOrder is the byte order a strip expects on the wire.
type ChannelOrder int

const (
	OrderRGB ChannelOrder = iota
	OrderGRB
)

// ParseChannelOrder resolves "rgb" or "grb"; anything else is GRB, the
// order of WS2812B strips.
func ParseChannelOrder(s string) ChannelOrder {
	if strings.EqualFold(strings.TrimSpace(s), "rgb") {
		return OrderRGB
	}
	return OrderGRB
}

// Bytes returns c encoded in this channel order.
func (o ChannelOrder) Bytes(c RGB) [3]byte {
	if o == OrderGRB {
		return [3]byte{c.G, c.R, c.B}
	}
	return [3]byte{c.R, c.G, c.B}
}

// MemoryStrip is an in-memory Strip that records every committed frame.
//
// Thread Safety: All methods are safe for concurrent use.
type MemoryStrip struct {
	mu     sync.Mutex
	buffer []RGB
	frames [][]RGB
}

// NewMemoryStrip creates a strip of n pixels, all Off.
func NewMemoryStrip(n int) *MemoryStrip {
	return &MemoryStrip{buffer: make([]RGB, n)}
}

// Len implements Strip.
func (m *MemoryStrip) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buffer)
}

// SetPixel implements Strip. Out-of-range indices are ignored.
func (m *MemoryStrip) SetPixel(index int, c RGB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index >= 0 && index < len(m.buffer) {
		m.buffer[index] = c
	}
}

// Commit implements Strip.
func (m *MemoryStrip) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, append([]RGB(nil), m.buffer...))
	return nil
}

// Frames returns copies of every committed frame, oldest first.
func (m *MemoryStrip) Frames() [][]RGB {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]RGB, len(m.frames))
	for i, f := range m.frames {
		out[i] = append([]RGB(nil), f...)
	}
	return out
}

// DebugLogger defines the logging interface for LogStrip.
type DebugLogger interface {
	Debug(msg string, args ...any)
}

// LogStrip is a Strip for hosts without LED hardware: each commit is
// logged with the frame encoded in the configured channel order.
type LogStrip struct {
	pixels []RGB
	order  ChannelOrder
	logger DebugLogger
}

// NewLogStrip creates a logging strip of n pixels.
func NewLogStrip(n int, order ChannelOrder, logger DebugLogger) *LogStrip {
	return &LogStrip{
		pixels: make([]RGB, n),
		order:  order,
		logger: logger,
	}
}

// Len implements Strip.
func (s *LogStrip) Len() int { return len(s.pixels) }

// SetPixel implements Strip. Out-of-range indices are ignored.
func (s *LogStrip) SetPixel(index int, c RGB) {
	if index >= 0 && index < len(s.pixels) {
		s.pixels[index] = c
	}
}

// Commit implements Strip.
func (s *LogStrip) Commit() error {
	var b strings.Builder
	for i, p := range s.pixels {
		if i > 0 {
			b.WriteByte(' ')
		}
		raw := s.order.Bytes(p)
		fmt.Fprintf(&b, "%02x%02x%02x", raw[0], raw[1], raw[2])
	}
	s.logger.Debug("indicator frame", "pixels", len(s.pixels), "frame", b.String())
	return nil
}
