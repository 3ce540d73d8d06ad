package logging

import (
	"log/slog"
)

// LoggerHook hands each component its own logger derived from a base logger.
type LoggerHook interface {
	// LoggerForComponent wraps base for the component identified by id.
	LoggerForComponent(base *slog.Logger, id string) *slog.Logger
}

// CapturingLoggerHook creates loggers whose records are also stored in a
// LogCollector under the component id.
type CapturingLoggerHook struct {
	collector *LogCollector
}

// NewCapturingLoggerHook creates a hook that captures every component's logs.
func NewCapturingLoggerHook(collector *LogCollector) LoggerHook {
	return &CapturingLoggerHook{
		collector: collector,
	}
}

// LoggerForComponent returns a logger that captures into the collector and
// passes records on to base.
func (h *CapturingLoggerHook) LoggerForComponent(base *slog.Logger, id string) *slog.Logger {
	return slog.New(NewCapturingHandler(base.Handler(), h.collector, id))
}

// TaggingLoggerHook only adds a "component" attribute to each logger.
type TaggingLoggerHook struct{}

// LoggerForComponent implements LoggerHook.
func (TaggingLoggerHook) LoggerForComponent(base *slog.Logger, id string) *slog.Logger {
	return base.With("component", id)
}
