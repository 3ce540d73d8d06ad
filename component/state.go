package component

// KindState is the per-kind state within a single activation run.
type KindState int

const (
	// Pending indicates the kind has not been visited by the run yet.
	Pending KindState = iota

	// Active indicates the kind accepted activation and is about to announce.
	Active

	// Pruned indicates the kind was rejected, or is only reachable through a
	// rejected kind. Pruned is terminal.
	Pruned

	// Announced indicates the announce phase has been dispatched to the kind.
	Announced

	// Built indicates the build phase has been dispatched to the kind.
	Built
)

// String returns a human-readable representation of the KindState
func (s KindState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Active:
		return "active"
	case Pruned:
		return "pruned"
	case Announced:
		return "announced"
	case Built:
		return "built"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s KindState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// RunState is the state of an activation run as a whole.
type RunState int

const (
	// NotStarted indicates the run has been created but planning has not begun.
	NotStarted RunState = iota

	// Running indicates the run is walking the phases.
	Running

	// Completed indicates both phases finished for every surviving kind.
	Completed

	// Aborted indicates the run stopped on an error. Components that already
	// announced or built are left as they are.
	Aborted
)

// String returns a human-readable representation of the RunState
func (s RunState) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s RunState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
