// Package logging provides structured logging configuration using log/slog.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Attribute keys added by this package.
const (
	// ServiceKey names the program emitting the record.
	ServiceKey = "service"
	// ComponentKey names the part of the program emitting the record.
	ComponentKey = "component"
)

// DefaultService is the service name attached by DefaultConfig.
const DefaultService = "voiceledger"

// Config holds logging configuration options.
type Config struct {
	// Service, when set, is attached to every record under ServiceKey.
	Service string
	// Level is the minimum log level to output.
	Level slog.Level
	// JSON enables JSON output format (for production).
	JSON bool
	// Output is the writer to write logs to. Defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns a default logging configuration suitable for development.
// It reads the LOG_LEVEL environment variable to set the logging level and
// LOG_FORMAT to choose between "text" (default) and "json" output.
// Valid levels: DEBUG, INFO, WARN, ERROR. Defaults to INFO.
func DefaultConfig() Config {
	level := slog.LevelInfo
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		level = ParseLevel(logLevel)
	}

	return Config{
		Service: DefaultService,
		Level:   level,
		JSON:    strings.EqualFold(os.Getenv("LOG_FORMAT"), "json"),
		Output:  os.Stderr,
	}
}

// ParseLevel converts a string log level to slog.Level. Unknown values map
// to INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the default slog logger with the given configuration.
func Setup(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: cfg.Level,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	if cfg.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String(ServiceKey, cfg.Service)})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// Component returns logger tagged with the component name. A nil logger
// means the default logger.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(ComponentKey, name)
}
