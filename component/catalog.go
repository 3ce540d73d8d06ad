package component

import (
	"fmt"
	"reflect"
	"slices"
)

// Family groups kinds that belong to the same kind of host. A run restricted to
// one family never activates kinds of another. The empty family is shared by all.
type Family string

const (
	// FamilyService is the headless service family.
	FamilyService Family = "service"

	// FamilyPresentation is the UI-flavoured family.
	FamilyPresentation Family = "presentation"
)

// Declarations is what the dependency map builder needs from the host.
type Declarations interface {
	// IsLegalKind reports whether kind may appear in a dependency map.
	IsLegalKind(kind Kind) bool

	// DependenciesOf returns the directly declared dependencies of kind,
	// in declaration order. It returns nil if there are none.
	DependenciesOf(kind Kind) []Kind
}

// Catalog extends Declarations with the construction details the engine needs.
type Catalog interface {
	Declarations

	// Definition returns the registered definition for kind.
	Definition(kind Kind) (Definition, bool)
}

// Definition describes a single component kind.
//
// Constructors are functions returning the instance (or the instance and an
// error). Their parameters are resolved from the ConfigSource by type. If
// ActivationConstructor is set it is always used; otherwise the constructor
// with the most parameters wins. With no constructors the zero value of the
// struct is used.
type Definition struct {
	// Kind is the identity. Derived from Type when left empty.
	Kind Kind

	// Type is the pointer type of instances. Derived from the first
	// constructor's return type when left nil.
	Type reflect.Type

	// Family is the family the kind belongs to. Empty means any family.
	Family Family

	// DependsOn lists the direct dependencies in declaration order.
	DependsOn []Kind

	Constructors          []any
	ActivationConstructor any
}

// Define returns a Definition for the component struct T, depending on deps.
//
//	reg.Register(component.Define[Database]())
//	reg.Register(component.Define[Service](component.KindFor[Database]()))
func Define[T any](deps ...Kind) Definition {
	return Definition{
		Type:      reflect.TypeFor[*T](),
		DependsOn: deps,
	}
}

// InFamily returns a copy of d assigned to family f.
func (d Definition) InFamily(f Family) Definition {
	d.Family = f
	return d
}

// WithConstructors returns a copy of d with the given constructors.
func (d Definition) WithConstructors(ctors ...any) Definition {
	d.Constructors = ctors
	return d
}

// WithActivationConstructor returns a copy of d that always constructs with ctor.
func (d Definition) WithActivationConstructor(ctor any) Definition {
	d.ActivationConstructor = ctor
	return d
}

var errorType = reflect.TypeFor[error]()

// validate fills in derived fields and checks that every constructor returns
// the instance type.
func (d *Definition) validate() error {
	if d.Type == nil {
		switch {
		case d.ActivationConstructor != nil:
			d.Type = constructorOutput(d.ActivationConstructor)
		case len(d.Constructors) > 0:
			d.Type = constructorOutput(d.Constructors[0])
		}
	}
	if d.Type == nil {
		return fmt.Errorf("definition %s has no instance type", d.Kind)
	}
	if d.Type.Kind() != reflect.Ptr || d.Type.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("component type %s must be a pointer to a struct", d.Type)
	}
	if !d.Kind.IsValid() {
		d.Kind = kindOfType(d.Type)
	}
	if !d.Kind.IsValid() {
		return fmt.Errorf("component type %s has no usable kind", d.Type)
	}

	ctors := d.Constructors
	if d.ActivationConstructor != nil {
		ctors = append(slices.Clip(ctors), d.ActivationConstructor)
	}
	for i, ctor := range ctors {
		if err := checkConstructor(ctor, d.Type); err != nil {
			return fmt.Errorf("component %s constructor %d: %w", d.Kind, i, err)
		}
	}
	return nil
}

func constructorOutput(ctor any) reflect.Type {
	t := reflect.TypeOf(ctor)
	if t == nil || t.Kind() != reflect.Func || t.NumOut() == 0 {
		return nil
	}
	return t.Out(0)
}

func checkConstructor(ctor any, instanceType reflect.Type) error {
	t := reflect.TypeOf(ctor)
	if t == nil || t.Kind() != reflect.Func {
		return fmt.Errorf("expected a function, got %T", ctor)
	}
	if t.IsVariadic() {
		return fmt.Errorf("variadic constructors are not supported")
	}
	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != errorType {
			return fmt.Errorf("second return value must be error, got %s", t.Out(1))
		}
	default:
		return fmt.Errorf("must return the instance and optionally an error")
	}
	if !t.Out(0).AssignableTo(instanceType) {
		return fmt.Errorf("returns %s, not assignable to %s", t.Out(0), instanceType)
	}
	return nil
}

// Registry is the table of component definitions. It implements Catalog.
//
// A Registry is not safe for concurrent registration. Once populated it may be
// read by any number of runs.
type Registry struct {
	definitions map[Kind]Definition
	order       []Kind
	excluded    map[Kind]bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[Kind]Definition),
		excluded:    make(map[Kind]bool),
	}
}

// Register adds one or more definitions. It fails if a definition is malformed
// or its kind is already registered.
func (r *Registry) Register(defs ...Definition) error {
	for _, def := range defs {
		if err := def.validate(); err != nil {
			return err
		}
		if _, exists := r.definitions[def.Kind]; exists {
			return fmt.Errorf("component %s already registered", def.Kind)
		}
		def.DependsOn = slices.Clone(def.DependsOn)
		r.definitions[def.Kind] = def
		r.order = append(r.order, def.Kind)
	}
	return nil
}

// Exclude marks kinds as illegal even if registered. Use it for base kinds
// that exist only to be embedded.
func (r *Registry) Exclude(kinds ...Kind) {
	for _, k := range kinds {
		r.excluded[k] = true
	}
}

// IsLegalKind implements Declarations.
func (r *Registry) IsLegalKind(kind Kind) bool {
	if r.excluded[kind] {
		return false
	}
	_, ok := r.definitions[kind]
	return ok
}

// DependenciesOf implements Declarations. The returned slice is a copy.
func (r *Registry) DependenciesOf(kind Kind) []Kind {
	def, ok := r.definitions[kind]
	if !ok || len(def.DependsOn) == 0 {
		return nil
	}
	return slices.Clone(def.DependsOn)
}

// Definition implements Catalog.
func (r *Registry) Definition(kind Kind) (Definition, bool) {
	def, ok := r.definitions[kind]
	return def, ok
}

// Kinds returns every registered kind in registration order.
func (r *Registry) Kinds() []Kind {
	return slices.Clone(r.order)
}
