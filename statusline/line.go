package statusline

import (
	"log/slog"

	"github.com/nomis52/stagehand/component"
)

// Line reports status for one kind. A nil Line discards updates, so
// components built without a host can call it freely.
type Line struct {
	kind    component.Kind
	logger  *slog.Logger
	handler *Handler
}

// NewLine creates a Line bound to kind. handler may be nil, in which case
// updates are only logged.
func NewLine(kind component.Kind, logger *slog.Logger, handler *Handler) *Line {
	if logger == nil {
		logger = slog.Default()
	}
	return &Line{
		kind:    kind,
		logger:  logger,
		handler: handler,
	}
}

// Set logs status and records it as the kind's current status.
func (l *Line) Set(status string) {
	if l == nil {
		return
	}
	l.logger.Info(status, "kind", l.kind.ShortString())
	if l.handler != nil {
		l.handler.Set(l.kind, status)
	}
}

// CaptureError runs f and, if it fails, sets the error as the status.
func CaptureError(line *Line, f func() error) error {
	err := f()
	if err != nil {
		line.Set("❌ " + err.Error())
	}
	return err
}
