package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nomis52/stagehand/server/runner"
)

// RunHandler handles requests to trigger an activation run.
type RunHandler struct {
	logger *slog.Logger
	runner ActivationRunner
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(logger *slog.Logger, r ActivationRunner) *RunHandler {
	return &RunHandler{logger: logger, runner: r}
}

// ServeHTTP implements http.Handler. It answers 202 once the run has started
// and 409 if one is already in progress.
func (h *RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.Run(); err != nil {
		if errors.Is(err, runner.ErrRunInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("failed to start run", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
