package handlers

import (
	"log/slog"
	"net/http"
)

// ReloadHandler calls Reload on one target, such as the configuration or
// the run history. It answers 204 on success. A failed reload keeps what
// was loaded before and answers 500.
type ReloadHandler struct {
	logger   *slog.Logger
	target   string
	reloader Reloader
}

// NewReloadHandler creates a ReloadHandler. target names what is reloaded
// in logs and error messages.
func NewReloadHandler(logger *slog.Logger, target string, reloader Reloader) *ReloadHandler {
	return &ReloadHandler{
		logger:   logger.With("target", target),
		target:   target,
		reloader: reloader,
	}
}

// ServeHTTP implements http.Handler.
func (h *ReloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("reloading")
	if err := h.reloader.Reload(); err != nil {
		h.logger.Error("reload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reload "+h.target+": "+err.Error())
		return
	}
	h.logger.Info("reloaded")
	w.WriteHeader(http.StatusNoContent)
}
