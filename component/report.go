package component

import "time"

// Report is the outcome of one activation run. It is returned whether or not
// the run succeeded.
type Report struct {
	Root   Kind     `json:"root"`
	Family Family   `json:"family,omitempty"`
	State  RunState `json:"state"`

	// Order is the full activation order, dependencies first.
	Order []Kind `json:"order"`
	// Filtered is Order restricted to the run's family.
	Filtered []Kind `json:"filtered"`

	Announced []Kind `json:"announced"`
	Built     []Kind `json:"built"`
	Pruned    []Kind `json:"pruned"`

	States        map[Kind]KindState `json:"states"`
	Notifications int                `json:"notifications"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// StateOf returns the state kind reached during the run. Kinds outside the
// plan report Pending.
func (r *Report) StateOf(kind Kind) KindState {
	return r.States[kind]
}

// IsPruned reports whether kind was pruned during the run.
func (r *Report) IsPruned(kind Kind) bool {
	return r.States[kind] == Pruned
}
