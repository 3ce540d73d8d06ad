package runner

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nomis52/stagehand/component"
	"github.com/nomis52/stagehand/logging"
)

// RunState is whether the runner is busy.
type RunState int

const (
	// RunStateIdle indicates no run is in progress.
	RunStateIdle RunState = iota
	// RunStateRunning indicates a run is in progress.
	RunStateRunning
)

// String returns the string representation of the run state.
func (s RunState) String() string {
	switch s {
	case RunStateIdle:
		return "idle"
	case RunStateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s RunState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *RunState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "idle":
		*s = RunStateIdle
	case "running":
		*s = RunStateRunning
	default:
		return fmt.Errorf("unknown run state %q", str)
	}
	return nil
}

// RunSummary records one activation run.
type RunSummary struct {
	// ID is a random UUID assigned when the run starts.
	ID string `json:"id"`
	// StartedAt is when the run started.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// EndedAt is when the run ended. Nil while the run is in progress.
	EndedAt *time.Time `json:"ended_at,omitempty"`
	// Outcome is "completed" or "aborted" once the run has ended.
	Outcome string `json:"outcome,omitempty"`
	// Error contains the error message if the run failed. Empty on success.
	Error string `json:"error,omitempty"`

	Root          component.Kind   `json:"root"`
	Family        string           `json:"family,omitempty"`
	Announced     []component.Kind `json:"announced,omitempty"`
	Built         []component.Kind `json:"built,omitempty"`
	Pruned        []component.Kind `json:"pruned,omitempty"`
	Notifications int              `json:"notifications"`
}

// Duration returns how long the run took, or zero if it has not ended.
func (s RunSummary) Duration() time.Duration {
	if s.StartedAt == nil || s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(*s.StartedAt)
}

// ComponentExecution is what happened to one component during a run.
type ComponentExecution struct {
	Kind string `json:"kind"`
	// State is the last state the component reached. Empty while the run is
	// in progress.
	State string `json:"state,omitempty"`
	// Status is the last line the component reported about itself.
	Status string             `json:"status,omitempty"`
	Logs   []logging.LogEntry `json:"logs,omitempty"`
}

// RunStatus is the runner's current state plus the current or last run.
type RunStatus struct {
	State      RunState             `json:"state"`
	Run        *RunSummary          `json:"run,omitempty"`
	Components []ComponentExecution `json:"components,omitempty"`
}

// runRecord is the unit persisted by the stores.
type runRecord struct {
	RunSummary
	Components []ComponentExecution `json:"components,omitempty"`
}
