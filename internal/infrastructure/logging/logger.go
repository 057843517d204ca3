package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/doordrop-scanner/internal/infrastructure/config"
)

// serviceName tags every entry so a log collector can tell scanners from
// the DoorDrop server.
const serviceName = "doordrop-scanner"

// Logger is the scanner's structured logger. Every entry carries the
// service name, build version and, once configuration is loaded, the
// device ID.
//
// Each package declares the subset of methods it needs (Info, Warn, ...)
// and *Logger satisfies all of them.
type Logger struct {
	*slog.Logger
}

// New builds the logger described by the logging section of the config.
//
// Parameters:
//   - cfg: Level (debug|info|warn|error), format (json|text) and output
//     (stdout|stderr)
//   - version: Build version stamped into every entry
//   - deviceID: Scanner identity; omitted when empty
//
// Returns:
//   - *Logger: Ready for use
func New(cfg config.LoggingConfig, version, deviceID string) *Logger {
	out := io.Writer(os.Stdout)
	if strings.EqualFold(cfg.Output, "stderr") {
		out = os.Stderr
	}
	return &Logger{Logger: slog.New(newHandler(out, cfg, version, deviceID))}
}

// newHandler builds the slog handler writing to w.
func newHandler(w io.Writer, cfg config.LoggingConfig, version, deviceID string) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	attrs := []slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	}
	if deviceID != "" {
		attrs = append(attrs, slog.String("device_id", deviceID))
	}
	return handler.WithAttrs(attrs)
}

// parseLevel maps a config level name to slog. Unknown names log at info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child logger carrying extra attributes.
//
// Example:
//
//	linkLog := log.With("component", "link")
//	linkLog.Warn("MQTT connection lost") // component=link
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default is the start-up logger used until the config file has been read:
// JSON on stdout at info level, without a device ID.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev", "")
}
