// Package runner manages activation runs for the stagehand server.
//
// The runner handles:
//   - Starting runs in the background, or synchronously for the CLI
//   - Preventing concurrent runs
//   - Tracking the current run with live per-component logs
//   - Keeping a history of finished runs
//
// # Example
//
//	r := runner.New(logger, host)
//
//	if err := r.Run(); errors.Is(err, runner.ErrRunInProgress) {
//	    // a run is already going
//	}
//
//	status := r.Status()
//	if status.State == runner.RunStateRunning {
//	    for _, c := range status.Components {
//	        fmt.Println(c.Kind, len(c.Logs))
//	    }
//	}
//
//	history := r.History() // most recent first
package runner

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nomis52/stagehand/component"
	"github.com/nomis52/stagehand/logging"
	"github.com/nomis52/stagehand/statusline"
)

// ErrRunInProgress is returned when attempting to start a run while one is already running.
var ErrRunInProgress = errors.New("activation run already in progress")

// ErrRunPanicked is returned when a component panics during a run.
var ErrRunPanicked = errors.New("activation run panicked")

// Launcher performs one activation run, handing each component a logger from
// hook and a status line writing to statuses. It returns the report even
// when the run fails.
type Launcher interface {
	Launch(hook logging.LoggerHook, statuses *statusline.Handler) (*component.Report, error)
}

// Runner manages activation run execution.
type Runner struct {
	logger   *slog.Logger
	launcher Launcher
	store    StateStore
	now      func() time.Time

	mu      sync.Mutex
	state   RunState
	current *RunSummary // current or last run
	last    []ComponentExecution
	live    *liveRun      // nil when idle
	done    chan struct{} // closed when the current run ends
}

// liveRun is what a run in progress has reported so far.
type liveRun struct {
	logs     *logging.LogCollector
	statuses *statusline.Handler
}

// Option configures a Runner.
type Option func(*Runner)

// WithStateStore configures the runner to use the provided store for persistence.
func WithStateStore(store StateStore) Option {
	return func(r *Runner) {
		r.store = store
	}
}

// New creates a new Runner. History is kept in memory unless WithStateStore
// is given.
func New(logger *slog.Logger, launcher Launcher, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		logger:   logger,
		launcher: launcher,
		store:    NewMemoryStore(unlimited),
		now:      time.Now,
		state:    RunStateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts an activation run in the background.
// Returns ErrRunInProgress if a run is already in progress.
func (r *Runner) Run() error {
	live, err := r.tryStart()
	if err != nil {
		return err
	}

	go func() {
		report, err := r.launch(live)
		r.finish(live, report, err)
	}()
	return nil
}

// RunSync performs an activation run and waits for it. The summary is
// returned whenever a run took place, together with the run's error.
func (r *Runner) RunSync() (RunSummary, error) {
	live, err := r.tryStart()
	if err != nil {
		return RunSummary{}, err
	}

	report, err := r.launch(live)
	return r.finish(live, report, err), err
}

// launch runs the launcher, turning a panic into ErrRunPanicked so the run
// still finishes.
func (r *Runner) launch(live *liveRun) (report *component.Report, err error) {
	defer func() {
		if p := recover(); p != nil {
			report, err = nil, fmt.Errorf("%w: %v", ErrRunPanicked, p)
		}
	}()
	return r.launcher.Launch(logging.NewCapturingLoggerHook(live.logs), live.statuses)
}

// Wait blocks until the current run, if any, has finished.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Status returns the current state. While a run is in progress the
// component logs captured so far are included.
func (r *Runner) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := RunStatus{State: r.state}
	if r.current != nil {
		run := *r.current
		status.Run = &run
	}
	if r.state == RunStateRunning && r.live != nil {
		status.Components = r.live.executions()
	} else {
		status.Components = slices.Clone(r.last)
	}
	return status
}

// IsRunning returns true if a run is in progress.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == RunStateRunning
}

// History returns the finished runs, most recent first.
func (r *Runner) History() []RunSummary {
	return r.store.History()
}

// Logs returns the component executions of a finished run.
func (r *Runner) Logs(id string) []ComponentExecution {
	return r.store.Logs(id)
}

// tryStart transitions from idle to running.
func (r *Runner) tryStart() (*liveRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == RunStateRunning {
		return nil, ErrRunInProgress
	}

	now := r.now()
	r.state = RunStateRunning
	r.current = &RunSummary{
		ID:        uuid.NewString(),
		StartedAt: &now,
	}
	r.last = nil
	r.live = &liveRun{
		logs:     logging.NewLogCollector(),
		statuses: statusline.NewHandler(),
	}
	r.done = make(chan struct{})

	r.logger.Info("starting activation run", "run_id", r.current.ID)
	return r.live, nil
}

// finish transitions from running to idle and records the result.
func (r *Runner) finish(live *liveRun, report *component.Report, runErr error) RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	ended := r.now()
	summary := *r.current
	summary.EndedAt = &ended
	if report != nil {
		summary.Outcome = report.State.String()
		summary.Root = report.Root
		summary.Family = string(report.Family)
		summary.Announced = report.Announced
		summary.Built = report.Built
		summary.Pruned = report.Pruned
		summary.Notifications = report.Notifications
	}
	if runErr != nil {
		summary.Error = runErr.Error()
		if summary.Outcome == "" {
			summary.Outcome = component.Aborted.String()
		}
		r.logger.Error("activation run failed", "run_id", summary.ID, "error", runErr, "duration", summary.Duration())
	} else {
		r.logger.Info("activation run completed", "run_id", summary.ID, "duration", summary.Duration())
	}

	executions := live.final(report)
	if err := r.store.Save(summary, executions); err != nil {
		r.logger.Error("failed to save run to store", "run_id", summary.ID, "error", err)
	}

	r.state = RunStateIdle
	r.current = &summary
	r.last = executions
	r.live = nil
	close(r.done)
	return summary
}

// statusByID returns the reported statuses keyed by kind string.
func (l *liveRun) statusByID() map[string]string {
	out := make(map[string]string)
	for kind, status := range l.statuses.All() {
		out[kind.String()] = status
	}
	return out
}

// executions lists components in the order they first logged.
func (l *liveRun) executions() []ComponentExecution {
	statuses := l.statusByID()
	var out []ComponentExecution
	for _, id := range l.logs.Components() {
		out = append(out, ComponentExecution{Kind: id, Status: statuses[id], Logs: l.logs.GetLogs(id)})
	}
	return out
}

// final lists every component of the run's family in activation order, plus
// any other component that logged.
func (l *liveRun) final(report *component.Report) []ComponentExecution {
	if report == nil || len(report.Filtered) == 0 {
		return l.executions()
	}

	statuses := l.statusByID()
	seen := make(map[string]bool, len(report.Filtered))
	out := make([]ComponentExecution, 0, len(report.Filtered))
	for _, k := range report.Filtered {
		id := k.String()
		seen[id] = true
		out = append(out, ComponentExecution{
			Kind:   id,
			State:  report.StateOf(k).String(),
			Status: statuses[id],
			Logs:   l.logs.GetLogs(id),
		})
	}
	for _, id := range l.logs.Components() {
		if !seen[id] {
			out = append(out, ComponentExecution{Kind: id, Status: statuses[id], Logs: l.logs.GetLogs(id)})
		}
	}
	return out
}
