package runner

// StateStore manages persistence of run history.
type StateStore interface {
	// History returns all runs, most recent first.
	History() []RunSummary
	// Logs returns the component executions of a run, or nil if the run is unknown.
	Logs(id string) []ComponentExecution
	// Save persists a run.
	Save(summary RunSummary, components []ComponentExecution) error
}

// unlimited is the maxCount meaning "keep everything".
const unlimited = 0

func overLimit(n, maxCount int) bool {
	return maxCount != unlimited && n > maxCount
}
