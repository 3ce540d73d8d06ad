// Package component provides dependency-aware, staged activation of
// components.
//
// A component is a struct registered with a Registry under a Kind. Each
// definition declares the kinds it depends on. Starting from a root kind the
// Engine builds the dependency map, rejects cycles, orders the kinds so every
// dependency precedes its dependents, and then activates them in two passes.
//
// # Component Kinds
//
// Components are identified by a Kind so that identically named structs from
// different packages never collide:
//
//	type Kind struct {
//		Module string // Full import path: "github.com/user/app/services"
//		Type   string // Struct name: "Database"
//	}
//
// Kinds declared as data (see the manifest package) use a namespace such as
// "manifest" as their Module.
//
// # Registration
//
//	reg := component.NewRegistry()
//	err := reg.Register(
//		component.Define[Database](),
//		component.Define[Service](component.KindFor[Database]()).
//			WithConstructors(NewService),
//	)
//
// Constructor parameters are resolved by type from the engine's
// ConfigSource. A *slog.Logger parameter gets a logger dedicated to the kind.
// Exported fields tagged `config:"a.b"` are filled from the configuration
// path, and fields tagged `config:""` are filled by type.
//
// # Activation
//
// A run walks the ordered kinds twice:
//
//  1. From the root toward the leaves. Each kind is created and, if it
//     implements Conditional, asked whether it can activate. A kind that
//     declines is pruned along with every dependency that no surviving kind
//     still reaches. Kinds that accept receive the first phase (Announce, or
//     Prepare for the presentation family).
//  2. From the leaves back to the root, each activated kind receives the
//     second phase (Build, or Render).
//
// Phase methods are optional. Whenever one runs, the kind itself and then
// each of its ancestors that implements DependencyObserver is told about it.
//
// # Error Handling
//
// All errors wrap one of the package sentinels and can be tested with
// errors.Is:
//   - ErrInvalidComponentKind: a kind in the graph is not registered
//   - ErrCircularDependency: the graph of the root contains a cycle
//   - ErrActivationFailed: an instance could not be created or configured
//   - ErrHookInvocationFailed: a DependencyObserver returned an error
//   - ErrPhaseFailed: a phase method returned an error
//
// Planning errors happen before any instance is created. Errors during the
// passes abort the run; kinds already announced or built stay that way.
//
// # Thread Safety
//
// A Registry and an Engine may be shared by concurrent runs once populated.
// An Activator belongs to a single run.
package component
