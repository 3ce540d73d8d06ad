package handlers

import (
	"net/http"
	"time"

	"github.com/nomis52/stagehand/server/runner"
	"github.com/nomis52/stagehand/server/types"
)

// NextRunResponse is the JSON response for the next run information.
type NextRunResponse struct {
	Scheduled bool       `json:"scheduled"`
	NextRun   *time.Time `json:"next_run,omitempty"`
}

// StatusResponse is the consolidated response for /api/status.
type StatusResponse struct {
	Server  types.ServerProperties `json:"server"`
	Run     runner.RunStatus       `json:"run"`
	NextRun NextRunResponse        `json:"next_run"`
}

// StatusHandler handles requests for the consolidated status endpoint.
type StatusHandler struct {
	provider StatusProvider
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(provider StatusProvider) *StatusHandler {
	return &StatusHandler{provider: provider}
}

// ServeHTTP implements http.Handler.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	next := h.provider.NextRun()
	writeJSON(w, http.StatusOK, StatusResponse{
		Server: h.provider.Properties(),
		Run:    h.provider.Status(),
		NextRun: NextRunResponse{
			Scheduled: next != nil,
			NextRun:   next,
		},
	})
}
