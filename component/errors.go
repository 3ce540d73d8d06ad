package component

import "errors"

var (
	// ErrInvalidComponentKind is returned when a kind reached while building the
	// dependency map is not registered, or has been excluded.
	ErrInvalidComponentKind = errors.New("invalid component kind")

	// ErrCircularDependency is returned when the dependency map contains a cycle.
	// No lifecycle method has run when this is returned.
	ErrCircularDependency = errors.New("circular dependency")

	// ErrActivationFailed is returned when a component instance cannot be
	// constructed or its configuration cannot be injected.
	ErrActivationFailed = errors.New("activation failed")

	// ErrHookInvocationFailed is returned when a DependencyObserver returns an error.
	ErrHookInvocationFailed = errors.New("hook invocation failed")

	// ErrPhaseFailed is returned when a lifecycle phase method returns an error.
	ErrPhaseFailed = errors.New("lifecycle phase failed")
)
