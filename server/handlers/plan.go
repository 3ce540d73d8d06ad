package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nomis52/stagehand/component"
)

// PlanStep is one kind of the activation order.
type PlanStep struct {
	Kind      string   `json:"kind"`
	DependsOn []string `json:"depends_on,omitempty"`
	// Ancestors are the kinds that depend on this one, directly or not.
	Ancestors []string `json:"ancestors,omitempty"`
}

// PlanResponse is the JSON response for GET /api/plan.
type PlanResponse struct {
	Root string `json:"root"`
	// Order lists dependencies before their dependents.
	Order []PlanStep `json:"order"`
}

// PlanHandler reports the dependency graph and activation order of the root.
type PlanHandler struct {
	logger  *slog.Logger
	planner Planner
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(logger *slog.Logger, planner Planner) *PlanHandler {
	return &PlanHandler{logger: logger, planner: planner}
}

// ServeHTTP implements http.Handler.
func (h *PlanHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	plan, err := h.planner.Plan()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, component.ErrCircularDependency) || errors.Is(err, component.ErrInvalidComponentKind) {
			status = http.StatusUnprocessableEntity
		}
		h.logger.Warn("planning failed", "error", err)
		writeError(w, status, err.Error())
		return
	}

	resp := PlanResponse{
		Root:  plan.Root.String(),
		Order: make([]PlanStep, 0, len(plan.Order)),
	}
	for _, k := range plan.Order {
		resp.Order = append(resp.Order, PlanStep{
			Kind:      k.String(),
			DependsOn: kindStrings(plan.Dependencies.Dependencies(k)),
			Ancestors: kindStrings(plan.Index.AncestorsOf(k)),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func kindStrings(kinds []component.Kind) []string {
	if len(kinds) == 0 {
		return nil
	}
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.String()
	}
	return out
}
