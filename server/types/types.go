// Package types provides shared types for the server package and its subpackages.
package types

import (
	"time"

	"github.com/nomis52/stagehand/buildinfo"
)

// ServerProperties holds metadata about the running server instance.
type ServerProperties struct {
	Build     buildinfo.Properties `json:"build"`
	StartedAt time.Time            `json:"started_at"`
	Hostname  string               `json:"hostname"`
	// ConfigPath is the configuration file the server reloads from.
	ConfigPath string `json:"config_path,omitempty"`
	// Root is the kind every run starts from.
	Root string `json:"root"`
	// Schedule lists the cron expressions that start runs.
	Schedule []string `json:"schedule,omitempty"`
}
