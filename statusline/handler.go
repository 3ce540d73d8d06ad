package statusline

import (
	"maps"
	"sync"

	"github.com/nomis52/stagehand/component"
)

// Handler stores the latest status of each kind. It is safe for concurrent
// use.
type Handler struct {
	mu       sync.RWMutex
	statuses map[component.Kind]string
}

// NewHandler creates an empty Handler.
func NewHandler() *Handler {
	return &Handler{
		statuses: make(map[component.Kind]string),
	}
}

// Set replaces the status of kind.
func (h *Handler) Set(kind component.Kind, status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses[kind] = status
}

// Get returns the status of kind, or "" if it never reported one.
func (h *Handler) Get(kind component.Kind) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.statuses[kind]
}

// All returns a copy of every status.
func (h *Handler) All() map[component.Kind]string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return maps.Clone(h.statuses)
}
