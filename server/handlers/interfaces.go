// Package handlers provides HTTP handlers for the stagehand server.
//
// Each handler is in its own file and implements http.Handler.
// Handlers use interfaces to access server dependencies, avoiding
// circular imports.
package handlers

import (
	"time"

	"github.com/nomis52/stagehand/component"
	"github.com/nomis52/stagehand/config"
	"github.com/nomis52/stagehand/server/runner"
	"github.com/nomis52/stagehand/server/types"
)

// ConfigProvider provides access to the current configuration.
type ConfigProvider interface {
	Config() *config.Config
}

// Planner plans the activation of the configured root.
type Planner interface {
	Plan() (*component.Plan, error)
}

// Reloader re-reads state from disk. The server's configuration and a
// disk-backed run history are both Reloaders.
type Reloader interface {
	Reload() error
}

// ActivationRunner can start activation runs.
type ActivationRunner interface {
	Run() error
}

// StatusProvider provides what the status endpoint reports.
type StatusProvider interface {
	Status() runner.RunStatus
	NextRun() *time.Time
	Properties() types.ServerProperties
}

// HistoryProvider provides access to run history.
type HistoryProvider interface {
	History() []runner.RunSummary
	Logs(id string) []runner.ComponentExecution
}
