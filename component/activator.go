package component

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/nomis52/stagehand/logging"
)

// ConfigSource supplies values for constructor parameters and tagged fields.
type ConfigSource interface {
	// Resolve returns a value for the given type, or false if nothing is
	// registered for it.
	Resolve(shape reflect.Type) (any, bool)

	// Lookup returns the value at a dot-separated configuration path,
	// converted to shape. It returns false if the path does not exist and an
	// error if the value cannot be converted.
	Lookup(path string, shape reflect.Type) (any, bool, error)
}

var loggerType = reflect.TypeFor[*slog.Logger]()

// Activator creates component instances, one per kind. The first instance
// created for a kind is returned on every later request.
//
// Configuration is injected in two ways:
//
//	type Database struct {
//		Host   string       `config:"database.host"` // by path
//		Pool   *pgxpool.Pool `config:""`             // by type
//	}
//
// Constructor parameters are always resolved by type. A *slog.Logger
// parameter or field receives a logger dedicated to the kind.
//
// An Activator belongs to a single run and is not safe for concurrent use.
type Activator struct {
	catalog   Catalog
	source    ConfigSource
	logger    *slog.Logger
	logHook   logging.LoggerHook
	factories map[reflect.Type]func(Kind) reflect.Value
	instances map[Kind]any
	created   []Kind
}

// NewActivator returns an Activator with an empty cache. source may be nil.
func NewActivator(catalog Catalog, source ConfigSource) *Activator {
	return &Activator{
		catalog:   catalog,
		source:    source,
		logger:    slog.Default(),
		factories: make(map[reflect.Type]func(Kind) reflect.Value),
		instances: make(map[Kind]any),
	}
}

// SetLogHook replaces the hook that hands each kind its logger. It affects
// instances created afterwards.
func (a *Activator) SetLogHook(hook logging.LoggerHook) {
	a.logHook = hook
}

// ProvideFactory registers factory for values of type T. It is called with
// the kind being created each time a constructor parameter or a `config:""`
// field of type T is resolved, and takes precedence over the config source.
func ProvideFactory[T any](a *Activator, factory func(kind Kind) T) {
	a.factories[reflect.TypeFor[T]()] = func(kind Kind) reflect.Value {
		return reflect.ValueOf(factory(kind))
	}
}

// GetOrCreate returns the instance for kind, constructing it on first use.
func (a *Activator) GetOrCreate(kind Kind) (any, error) {
	if inst, ok := a.instances[kind]; ok {
		return inst, nil
	}

	def, ok := a.catalog.Definition(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not registered", ErrActivationFailed, kind)
	}

	inst, err := a.construct(def)
	if err != nil {
		return nil, err
	}
	if err := a.injectFields(def, inst); err != nil {
		return nil, err
	}

	a.instances[kind] = inst.Interface()
	a.created = append(a.created, kind)
	a.logger.Debug("component instance created", "kind", kind.String())
	return a.instances[kind], nil
}

// Instance returns the cached instance for kind without creating it.
func (a *Activator) Instance(kind Kind) (any, bool) {
	inst, ok := a.instances[kind]
	return inst, ok
}

// Instances returns the kinds created so far, in creation order.
func (a *Activator) Instances() []Kind {
	return slices.Clone(a.created)
}

// selectConstructor returns the designated constructor, else the one with the
// most parameters (first declared wins a tie), else nil.
func selectConstructor(def Definition) any {
	if def.ActivationConstructor != nil {
		return def.ActivationConstructor
	}
	var best any
	bestArity := -1
	for _, ctor := range def.Constructors {
		if n := reflect.TypeOf(ctor).NumIn(); n > bestArity {
			best, bestArity = ctor, n
		}
	}
	return best
}

func (a *Activator) construct(def Definition) (reflect.Value, error) {
	ctor := selectConstructor(def)
	if ctor == nil {
		return reflect.New(def.Type.Elem()), nil
	}

	fn := reflect.ValueOf(ctor)
	fnType := fn.Type()
	args := make([]reflect.Value, fnType.NumIn())
	for i := range args {
		shape := fnType.In(i)
		if v, ok := a.resolve(def.Kind, shape); ok {
			args[i] = v
		} else {
			args[i] = reflect.Zero(shape)
		}
	}

	out := fn.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: %s: %w", ErrActivationFailed, def.Kind, out[1].Interface().(error))
	}
	inst := out[0]
	if inst.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: %s: constructor returned nil", ErrActivationFailed, def.Kind)
	}
	return inst.Convert(def.Type), nil
}

// resolve finds a value of the given type for kind.
func (a *Activator) resolve(kind Kind, shape reflect.Type) (reflect.Value, bool) {
	if shape == loggerType && a.logHook != nil {
		return reflect.ValueOf(a.logHook.LoggerForComponent(a.logger, kind.String())), true
	}
	if factory, ok := a.factories[shape]; ok {
		if v := factory(kind); v.IsValid() {
			return v, true
		}
	}
	if a.source != nil {
		if v, ok := a.source.Resolve(shape); ok && v != nil {
			rv := reflect.ValueOf(v)
			if rv.Type().AssignableTo(shape) {
				return rv, true
			}
		}
	}
	if shape == loggerType {
		return reflect.ValueOf(a.logger.With("kind", kind.ShortString())), true
	}
	return reflect.Value{}, false
}

// injectFields fills every exported field carrying a config tag.
func (a *Activator) injectFields(def Definition, inst reflect.Value) error {
	value := inst.Elem()
	typ := value.Type()

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fieldValue := value.Field(i)

		path, tagged := field.Tag.Lookup("config")
		if !tagged || !fieldValue.CanSet() {
			continue
		}

		if path == "" {
			if v, ok := a.resolve(def.Kind, field.Type); ok {
				fieldValue.Set(v)
				a.logger.Debug("field injected by type", "kind", def.Kind.String(), "field", field.Name)
			}
			continue
		}

		if a.source == nil {
			continue
		}
		v, ok, err := a.source.Lookup(path, field.Type)
		if err != nil {
			return fmt.Errorf("%w: %s field %s (config %q): %w", ErrActivationFailed, def.Kind, field.Name, path, err)
		}
		if !ok || v == nil {
			a.logger.Debug("no config value for field", "kind", def.Kind.String(), "field", field.Name, "config_path", path)
			continue
		}
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(field.Type) {
			return fmt.Errorf("%w: %s field %s (config %q): type %s not assignable to %s",
				ErrActivationFailed, def.Kind, field.Name, path, rv.Type(), field.Type)
		}
		fieldValue.Set(rv)
		a.logger.Debug("field injected from config", "kind", def.Kind.String(), "field", field.Name, "config_path", path)
	}
	return nil
}
