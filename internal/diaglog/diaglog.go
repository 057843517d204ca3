// Package diaglog keeps a bounded, in-memory trail of human-readable
// diagnostic events.
//
// The log holds at most Cap entries. Appending to a full log evicts the
// single oldest entry, so the log always contains the most recent entries
// in arrival order. Entries are never removed any other way, and nothing
// is persisted: the trail starts empty on every boot.
package diaglog

import "sync"

// Entry is one immutable diagnostic record.
type Entry struct {
	Text string
}

// Logger receives a mirror of every appended entry.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
}

// Log is a fixed-capacity FIFO of diagnostic entries.
//
// Thread Safety: All methods are safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	head    int // index of the oldest entry once the ring is full
	logger  Logger
}

// New creates a log holding at most capacity entries.
// A capacity below 1 is treated as 1.
func New(capacity int) *Log {
	if capacity < 1 {
		capacity = 1
	}
	return &Log{
		entries: make([]Entry, 0, capacity),
	}
}

// SetLogger mirrors every subsequent entry to logger at info level.
func (l *Log) SetLogger(logger Logger) {
	l.mu.Lock()
	l.logger = logger
	l.mu.Unlock()
}

// Append records text, evicting the oldest entry when the log is full.
func (l *Log) Append(text string) {
	l.mu.Lock()
	if len(l.entries) < cap(l.entries) {
		l.entries = append(l.entries, Entry{Text: text})
	} else {
		l.entries[l.head] = Entry{Text: text}
		l.head = (l.head + 1) % len(l.entries)
	}
	logger := l.logger
	l.mu.Unlock()

	if logger != nil {
		logger.Info(text, "component", "diagnostics")
	}
}

// Snapshot returns a copy of the entries, oldest first.
func (l *Log) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, 0, len(l.entries))
	out = append(out, l.entries[l.head:]...)
	out = append(out, l.entries[:l.head]...)
	return out
}

// Len returns the number of entries currently held.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Cap returns the fixed capacity.
func (l *Log) Cap() int {
	return cap(l.entries)
}
