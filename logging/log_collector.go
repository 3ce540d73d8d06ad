package logging

import (
	"slices"
	"sync"
	"time"
)

// LogEntry represents a single captured log record.
type LogEntry struct {
	Time       time.Time      `json:"time"`
	Level      string         `json:"level"` // "DEBUG", "INFO", "WARN", "ERROR"
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// LogCollector stores captured log entries per component. It is safe for
// concurrent use.
type LogCollector struct {
	mu    sync.RWMutex
	logs  map[string][]LogEntry // component -> entries
	order []string
}

// NewLogCollector creates an empty LogCollector.
func NewLogCollector() *LogCollector {
	return &LogCollector{
		logs: make(map[string][]LogEntry),
	}
}

// AddLog appends an entry for component.
func (c *LogCollector) AddLog(component string, entry LogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.logs[component]; !ok {
		c.order = append(c.order, component)
	}
	c.logs[component] = append(c.logs[component], entry)
}

// GetLogs returns a copy of the entries captured for component, or nil.
func (c *LogCollector) GetLogs(component string) []LogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	logs, ok := c.logs[component]
	if !ok {
		return nil
	}
	return slices.Clone(logs)
}

// GetAllLogs returns a copy of every captured entry, grouped by component.
func (c *LogCollector) GetAllLogs() map[string][]LogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string][]LogEntry, len(c.logs))
	for component, logs := range c.logs {
		result[component] = slices.Clone(logs)
	}
	return result
}

// Components returns the components that logged, in order of their first entry.
func (c *LogCollector) Components() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.order)
}

// Len returns the total number of captured entries.
func (c *LogCollector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, logs := range c.logs {
		n += len(logs)
	}
	return n
}

// Clear removes all captured entries.
func (c *LogCollector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logs = make(map[string][]LogEntry)
	c.order = nil
}
