package runner

import (
	"fmt"
	"slices"
	"sync"
)

// MemoryStore keeps run history in memory only.
type MemoryStore struct {
	maxCount int
	runs     []runRecord // most recent first, protected by mu
	mu       sync.Mutex
}

// NewMemoryStore creates a store that keeps the maxCount most recent runs.
// A maxCount of zero keeps every run.
func NewMemoryStore(maxCount int) *MemoryStore {
	return &MemoryStore{maxCount: maxCount}
}

// History returns all runs as summaries.
func (s *MemoryStore) History() []RunSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]RunSummary, len(s.runs))
	for i, run := range s.runs {
		result[i] = run.RunSummary
	}
	return result
}

// Logs returns the component executions for a specific run.
func (s *MemoryStore) Logs(id string) []ComponentExecution {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, run := range s.runs {
		if run.ID == id {
			return slices.Clone(run.Components)
		}
	}
	return nil
}

// Save stores a run in memory.
func (s *MemoryStore) Save(summary RunSummary, components []ComponentExecution) error {
	if summary.ID == "" {
		return fmt.Errorf("cannot save run without an ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append([]runRecord{{RunSummary: summary, Components: components}}, s.runs...)
	if overLimit(len(s.runs), s.maxCount) {
		s.runs = s.runs[:s.maxCount]
	}
	return nil
}
