package indicator

import (
	"fmt"
	"time"
)

// DefaultSettleDelay is the pause between the reset and set commits.
const DefaultSettleDelay = 100 * time.Millisecond

// Strip is the LED hardware collaborator: a buffer of pixels that is only
// pushed to the LEDs on Commit.
type Strip interface {
	// Len returns the number of pixels.
	Len() int

	// SetPixel buffers a value for pixel index.
	SetPixel(index int, c RGB)

	// Commit pushes the buffered values to the hardware.
	Commit() error
}

// Logger defines the logging interface for the driver.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Driver applies logical colors to every pixel of a Strip.
//
// Every color change is written in two phases: all pixels Off and commit,
// a short settle delay, then all pixels to the target and commit. Strips
// that latch only part of a frame otherwise keep pixels of the previous
// color, so the reset phase is required even though it doubles the writes.
type Driver struct {
	strip  Strip
	settle time.Duration
	sleep  func(time.Duration)
	logger Logger
}

// NewDriver creates a Driver for strip. A negative settle delay is treated
// as zero.
func NewDriver(strip Strip, settle time.Duration) *Driver {
	if settle < 0 {
		settle = 0
	}
	return &Driver{
		strip:  strip,
		settle: settle,
		sleep:  time.Sleep,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger used for hardware write failures.
func (d *Driver) SetLogger(logger Logger) {
	d.logger = logger
}

// Initialize lights every pixel White, the power-on state shown until the
// first authorization decision arrives.
func (d *Driver) Initialize() error {
	return d.fill(White.RGB())
}

// SetColor shows c on every pixel using the reset-then-set sequence.
// Unrecognised colors are shown as White.
func (d *Driver) SetColor(c Color) error {
	if err := d.fill(Off.RGB()); err != nil {
		return fmt.Errorf("resetting strip: %w", err)
	}

	if d.settle > 0 {
		d.sleep(d.settle)
	}

	if err := d.fill(c.RGB()); err != nil {
		return fmt.Errorf("setting strip to %s: %w", c, err)
	}
	return nil
}

// fill sets every pixel to v and commits once.
func (d *Driver) fill(v RGB) error {
	for i := 0; i < d.strip.Len(); i++ {
		d.strip.SetPixel(i, v)
	}
	if err := d.strip.Commit(); err != nil {
		d.logger.Warn("indicator commit failed", "error", err)
		return err
	}
	return nil
}
