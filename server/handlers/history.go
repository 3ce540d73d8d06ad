package handlers

import (
	"net/http"

	"github.com/nomis52/stagehand/server/runner"
)

// HistoryHandler handles requests for the run history.
type HistoryHandler struct {
	provider HistoryProvider
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(provider HistoryProvider) *HistoryHandler {
	return &HistoryHandler{provider: provider}
}

// ServeHTTP implements http.Handler.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	history := h.provider.History()
	if history == nil {
		history = []runner.RunSummary{}
	}
	writeJSON(w, http.StatusOK, history)
}

// RunDetail is the JSON response for a single past run.
type RunDetail struct {
	Run        runner.RunSummary           `json:"run"`
	Components []runner.ComponentExecution `json:"components"`
}

// HistoryRunHandler handles requests for one past run, selected by the {id}
// path value.
type HistoryRunHandler struct {
	provider HistoryProvider
}

// NewHistoryRunHandler creates a new HistoryRunHandler.
func NewHistoryRunHandler(provider HistoryProvider) *HistoryRunHandler {
	return &HistoryRunHandler{provider: provider}
}

// ServeHTTP implements http.Handler.
func (h *HistoryRunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing run id")
		return
	}

	for _, run := range h.provider.History() {
		if run.ID != id {
			continue
		}
		components := h.provider.Logs(id)
		if components == nil {
			components = []runner.ComponentExecution{}
		}
		writeJSON(w, http.StatusOK, RunDetail{Run: run, Components: components})
		return
	}
	writeError(w, http.StatusNotFound, "unknown run "+id)
}
