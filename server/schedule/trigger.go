// Package schedule starts activation runs from cron expressions.
//
// A Trigger wraps a Runnable and runs it according to one cron schedule. It
// is started once and runs until its context is cancelled.
//
//	trigger, err := schedule.NewTrigger("0 2 * * *", runner, logger)
//	if err != nil {
//	    return err
//	}
//	trigger.Start(ctx) // returns immediately
package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidCronSpec is returned when a cron specification cannot be parsed.
var ErrInvalidCronSpec = errors.New("invalid cron spec")

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Runnable is anything a trigger can start.
type Runnable interface {
	Run() error
}

// RunnableFunc adapts a function to Runnable.
type RunnableFunc func() error

// Run calls f.
func (f RunnableFunc) Run() error {
	return f()
}

// Trigger runs a Runnable on a cron schedule.
type Trigger struct {
	spec     string
	schedule cron.Schedule
	runnable Runnable
	logger   *slog.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// NewTrigger creates a Trigger for a five-field cron spec (minute, hour, day
// of month, month, day of week). It returns ErrInvalidCronSpec if spec does
// not parse.
func NewTrigger(spec string, runnable Runnable, logger *slog.Logger) (*Trigger, error) {
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, errors.Join(ErrInvalidCronSpec, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Trigger{
		spec:     spec,
		schedule: sched,
		runnable: runnable,
		logger:   logger.With("schedule", spec),
		now:      time.Now,
		after:    time.After,
	}, nil
}

// Spec returns the cron expression.
func (t *Trigger) Spec() string {
	return t.spec
}

// Start launches the scheduling loop in a goroutine and returns immediately.
// The loop exits when ctx is cancelled.
func (t *Trigger) Start(ctx context.Context) {
	go t.loop(ctx)
}

// NextRun returns the next scheduled run time from now.
func (t *Trigger) NextRun() time.Time {
	return t.schedule.Next(t.now())
}

func (t *Trigger) loop(ctx context.Context) {
	for {
		next := t.NextRun()
		wait := next.Sub(t.now())

		t.logger.Debug("waiting for next scheduled run", "next_run", next, "wait_duration", wait)

		select {
		case <-ctx.Done():
			t.logger.Info("schedule trigger shutting down")
			return
		case <-t.after(wait):
			t.fire()
		}
	}
}

func (t *Trigger) fire() {
	t.logger.Info("starting scheduled activation run")

	if err := t.runnable.Run(); err != nil {
		t.logger.Warn("scheduled run not started", "error", err)
		return
	}
}
