// Package scanner reads barcodes from a line-oriented scanner device.
//
// Most USB and serial barcode scanners emit one code per line. The Reader
// turns that stream into a bounded channel of codes the supervisor relays
// to the broker.
package scanner

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
)

// Defaults for Reader.
const (
	DefaultMaxCodeLength = 64

	queueSize = 16

	// readBufferSize bounds a single read from the device.
	readBufferSize = 4096

	// linePadding allows for CR/LF and surrounding blanks on a raw line.
	linePadding = 64
)

// Logger defines the logging interface for the reader.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Reader scans codes from an input stream.
//
// Thread Safety: Run executes on its own goroutine; Codes may be drained
// from any goroutine.
type Reader struct {
	src     io.Reader
	maxLen  int
	codes   chan string
	dropped atomic.Uint64
	logger  Logger
}

// New creates a Reader over src. A non-positive maxLen uses
// DefaultMaxCodeLength.
func New(src io.Reader, maxLen int) *Reader {
	if maxLen <= 0 {
		maxLen = DefaultMaxCodeLength
	}
	return &Reader{
		src:    src,
		maxLen: maxLen,
		codes:  make(chan string, queueSize),
		logger: noopLogger{},
	}
}

// SetLogger sets the structured logger. Call before Run.
func (r *Reader) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// Codes returns the channel of scanned codes. It is closed when Run returns.
func (r *Reader) Codes() <-chan string {
	return r.codes
}

// Dropped returns how many codes were discarded because the queue was full.
func (r *Reader) Dropped() uint64 {
	return r.dropped.Load()
}

// Run reads lines until the source ends or ctx is cancelled.
//
// Blank lines and lines longer than the configured maximum are skipped.
// An over-long line is discarded as it streams in, so a device emitting
// garbage never ends the read loop. Codes arriving while the queue is
// full are dropped, never blocking the scanner.
//
// Returns:
//   - error: nil at end of input or on cancellation, the read error otherwise
func (r *Reader) Run(ctx context.Context) error {
	defer close(r.codes)

	br := bufio.NewReaderSize(r.src, readBufferSize)
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, length, err := r.readLine(br)
		switch {
		case length > r.maxLen+linePadding:
			r.logger.Warn("scanned code too long, skipped", "length", length, "max", r.maxLen)
		case len(line) > 0:
			r.handle(string(line))
		}

		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// readLine returns the next line and its raw length. Bytes past
// maxLen+linePadding are counted but not kept.
func (r *Reader) readLine(br *bufio.Reader) ([]byte, int, error) {
	limit := r.maxLen + linePadding
	var line []byte
	length := 0
	for {
		chunk, err := br.ReadSlice('\n')
		length += len(chunk)
		if length <= limit {
			line = append(line, chunk...)
		} else {
			line = nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, length, err
	}
}

// handle trims one line and queues it as a code.
func (r *Reader) handle(raw string) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return
	}
	if len(code) > r.maxLen {
		r.logger.Warn("scanned code too long, skipped", "length", len(code), "max", r.maxLen)
		return
	}

	select {
	case r.codes <- code:
		r.logger.Debug("code scanned", "length", len(code))
	default:
		r.dropped.Add(1)
		r.logger.Warn("scan queue full, code dropped")
	}
}
