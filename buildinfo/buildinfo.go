// Package buildinfo provides build-time properties injected via ldflags:
//
//	go build -ldflags "-X github.com/nomis52/stagehand/buildinfo.version=v1.2.0 \
//	  -X github.com/nomis52/stagehand/buildinfo.gitCommit=$(git rev-parse HEAD)"
package buildinfo

import (
	"fmt"
	"runtime"
)

// Properties holds build-time properties injected via ldflags.
type Properties struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

// Package-level variables for ldflags injection (unexported).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// Get returns the current build properties.
func Get() Properties {
	return Properties{
		Version:   version,
		BuildTime: buildTime,
		GitCommit: gitCommit,
		GoVersion: runtime.Version(),
	}
}

// String renders the properties on one line.
func (p Properties) String() string {
	return fmt.Sprintf("stagehand %s (commit %s, built %s, %s)", p.Version, p.GitCommit, p.BuildTime, p.GoVersion)
}

// Labels returns the properties as metric labels.
func (p Properties) Labels() map[string]string {
	return map[string]string{
		"version":    p.Version,
		"git_commit": p.GitCommit,
		"go_version": p.GoVersion,
	}
}
