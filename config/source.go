package config

import (
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source supplies values to components. Values are found either by their Go
// type (see Provide) or by a dot-separated path through one or more roots.
//
// Roots may be structs, maps with string keys, or pointers to either. Struct
// fields match a path segment by exact name, capitalized name, upper-case
// name, or yaml tag, in that order.
//
// A Source is not safe for concurrent modification; populate it before use.
type Source struct {
	roots  []any
	values map[reflect.Type]any
	order  []reflect.Type
}

// NewSource creates a Source that looks up paths in roots, first match wins.
func NewSource(roots ...any) *Source {
	return &Source{
		roots:  roots,
		values: make(map[reflect.Type]any),
	}
}

// Provide registers values to be resolved by type. Each type may be provided
// once.
func (s *Source) Provide(values ...any) error {
	for _, v := range values {
		if v == nil {
			continue
		}
		t := reflect.TypeOf(v)
		if _, exists := s.values[t]; exists {
			return fmt.Errorf("value of type %s already provided", t)
		}
		s.values[t] = v
		s.order = append(s.order, t)
	}
	return nil
}

// Resolve returns the value provided for shape. If shape is an interface, the
// first provided value implementing it is returned.
func (s *Source) Resolve(shape reflect.Type) (any, bool) {
	if v, ok := s.values[shape]; ok {
		return v, true
	}
	if shape.Kind() != reflect.Interface {
		return nil, false
	}
	for _, t := range s.order {
		if t.Implements(shape) {
			return s.values[t], true
		}
	}
	return nil, false
}

// Lookup returns the value at path converted to shape. It returns false if no
// root has the path, and an error if the value cannot be converted.
func (s *Source) Lookup(path string, shape reflect.Type) (any, bool, error) {
	if path == "" {
		return nil, false, fmt.Errorf("empty config path")
	}
	parts := strings.Split(path, ".")
	for _, root := range s.roots {
		v, ok := walk(reflect.ValueOf(root), parts)
		if !ok {
			continue
		}
		out, err := convert(v, shape)
		if err != nil {
			return nil, false, fmt.Errorf("config path %s: %w", path, err)
		}
		return out, true, nil
	}
	return nil, false, nil
}

func walk(value reflect.Value, parts []string) (reflect.Value, bool) {
	for _, part := range parts {
		value = indirect(value)
		if !value.IsValid() {
			return reflect.Value{}, false
		}
		switch value.Kind() {
		case reflect.Struct:
			value = fieldByPathPart(value, part)
		case reflect.Map:
			if value.Type().Key().Kind() != reflect.String {
				return reflect.Value{}, false
			}
			value = value.MapIndex(reflect.ValueOf(part).Convert(value.Type().Key()))
		default:
			return reflect.Value{}, false
		}
		if !value.IsValid() {
			return reflect.Value{}, false
		}
	}
	value = indirect(value)
	return value, value.IsValid()
}

// indirect unwraps interfaces and non-nil pointers.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func fieldByPathPart(value reflect.Value, part string) reflect.Value {
	if part == "" {
		return reflect.Value{}
	}
	typ := value.Type()
	for _, name := range []string{part, strings.ToUpper(part[:1]) + part[1:], strings.ToUpper(part)} {
		if f, ok := typ.FieldByName(name); ok && f.IsExported() {
			return value.FieldByIndex(f.Index)
		}
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if name, _, _ := strings.Cut(f.Tag.Get("yaml"), ","); f.IsExported() && name == part {
			return value.Field(i)
		}
	}
	return reflect.Value{}
}

// convert returns v as shape. Values that are not directly assignable are
// passed through YAML, so a settings map can fill a struct and "5s" can fill
// a time.Duration.
func convert(v reflect.Value, shape reflect.Type) (any, error) {
	if v.Type().AssignableTo(shape) {
		return v.Interface(), nil
	}
	if shape.Kind() == reflect.Ptr && v.Type().AssignableTo(shape.Elem()) {
		ptr := reflect.New(shape.Elem())
		ptr.Elem().Set(v)
		return ptr.Interface(), nil
	}

	data, err := yaml.Marshal(v.Interface())
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", v.Type(), err)
	}
	out := reflect.New(shape)
	if err := yaml.Unmarshal(data, out.Interface()); err != nil {
		return nil, fmt.Errorf("converting %s to %s: %w", v.Type(), shape, err)
	}
	return out.Elem().Interface(), nil
}
