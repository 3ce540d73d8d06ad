package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Manager owns one Trigger per expression of a schedule. All triggers start
// the same Runnable.
type Manager struct {
	triggers []*Trigger
	logger   *slog.Logger
}

// NewManager creates a Manager from a schedule accepted by ParseSpecs.
func NewManager(schedule string, runnable Runnable, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	specs, err := ParseSpecs(schedule)
	if err != nil {
		return nil, err
	}

	triggers := make([]*Trigger, 0, len(specs))
	for _, spec := range specs {
		trigger, err := NewTrigger(spec, runnable, logger)
		if err != nil {
			return nil, fmt.Errorf("creating trigger for %q: %w", spec, err)
		}
		triggers = append(triggers, trigger)
		logger.Info("trigger registered", "schedule", spec, "next_run", trigger.NextRun())
	}

	return &Manager{triggers: triggers, logger: logger}, nil
}

// Start launches every trigger. It returns immediately; the triggers stop
// when ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	for _, trigger := range m.triggers {
		trigger.Start(ctx)
	}
}

// Specs returns the expressions, one per trigger.
func (m *Manager) Specs() []string {
	specs := make([]string, len(m.triggers))
	for i, t := range m.triggers {
		specs[i] = t.Spec()
	}
	return specs
}

// NextRun returns the earliest next run across all triggers, or the zero
// time if there are none.
func (m *Manager) NextRun() time.Time {
	var earliest time.Time
	for _, t := range m.triggers {
		if next := t.NextRun(); earliest.IsZero() || next.Before(earliest) {
			earliest = next
		}
	}
	return earliest
}
