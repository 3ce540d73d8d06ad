package component

import "reflect"

// RunContext carries whatever the host needs components to see while deciding
// whether to activate.
type RunContext struct {
	// Family restricts the run to kinds of this family (plus family-less
	// kinds). Empty means no restriction.
	Family Family

	// Labels are free-form host attributes, e.g. {"env": "prod"}.
	Labels map[string]string
}

// Label returns the value of a label, or "" if unset. It is safe on a nil RunContext.
func (rc *RunContext) Label(key string) string {
	if rc == nil {
		return ""
	}
	return rc.Labels[key]
}

// Conditional is implemented by components that may decline activation.
// Components that do not implement it always activate.
type Conditional interface {
	CanActivate(rc *RunContext) bool
}

// Announcer receives the top-down announce phase of the service family.
type Announcer interface {
	Announce(rc *RunContext) error
}

// Builder receives the bottom-up build phase of the service family.
type Builder interface {
	Build(rc *RunContext) error
}

// Preparer receives the top-down phase of the presentation family.
type Preparer interface {
	Prepare(rc *RunContext) error
}

// Renderer receives the bottom-up phase of the presentation family.
type Renderer interface {
	Render(rc *RunContext) error
}

// Invocation describes a lifecycle method that has just run.
type Invocation struct {
	Kind     Kind
	Instance any
	Method   string
}

// DependencyObserver is implemented by components that want to hear about
// lifecycle methods invoked on themselves or anywhere below them in the
// dependency graph.
type DependencyObserver interface {
	ObserveInvocation(inv Invocation) error
}

var observerType = reflect.TypeFor[DependencyObserver]()

// Phase is one named lifecycle pass. Invoke calls the phase method on an
// instance and reports whether the instance defines it; an instance that does
// not is skipped without error.
type Phase struct {
	Name   string
	Invoke func(instance any, rc *RunContext) (bool, error)
}

// NewPhase returns a Phase that dispatches to instances implementing T.
//
//	component.NewPhase("Announce", component.Announcer.Announce)
func NewPhase[T any](name string, call func(T, *RunContext) error) Phase {
	return Phase{
		Name: name,
		Invoke: func(instance any, rc *RunContext) (bool, error) {
			capable, ok := instance.(T)
			if !ok {
				return false, nil
			}
			return true, call(capable, rc)
		},
	}
}

// Phases is the pair of phase definitions a run walks: Announce top-down,
// then Build bottom-up.
type Phases struct {
	Announce Phase
	Build    Phase
}

// ServicePhases returns the phases of the service family.
func ServicePhases() Phases {
	return Phases{
		Announce: NewPhase("Announce", Announcer.Announce),
		Build:    NewPhase("Build", Builder.Build),
	}
}

// PresentationPhases returns the phases of the presentation family.
func PresentationPhases() Phases {
	return Phases{
		Announce: NewPhase("Prepare", Preparer.Prepare),
		Build:    NewPhase("Render", Renderer.Render),
	}
}

// PhasesFor returns the phases used by family f. Unknown families use the
// service phases.
func PhasesFor(f Family) Phases {
	if f == FamilyPresentation {
		return PresentationPhases()
	}
	return ServicePhases()
}
