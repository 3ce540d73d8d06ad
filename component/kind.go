package component

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind identifies a component "class" and is the node type of the dependency graph.
// It combines the import path of the package declaring the component with the
// component's struct name so that identically named components from different
// packages never collide.
//
// Examples:
//   - Kind{Module: "github.com/user/app/services", Type: "Database"}
//   - Kind{Module: "manifest", Type: "db"}
type Kind struct {
	// Module is the full import path of the package containing the component,
	// or a namespace such as "manifest" for components declared as data.
	Module string

	// Type is the struct name of the component, or the declared name.
	Type string
}

// String returns "Module.Type".
func (k Kind) String() string {
	return fmt.Sprintf("%s.%s", k.Module, k.Type)
}

// MarshalText implements encoding.TextMarshaler so that kinds render as
// "Module.Type" in JSON, including as map keys.
func (k Kind) MarshalText() ([]byte, error) {
	if k == (Kind{}) {
		return []byte{}, nil
	}
	return []byte(k.String()), nil
}

// UnmarshalText parses "Module.Type". The type is everything after the last
// dot. Empty text is the zero Kind.
func (k *Kind) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		*k = Kind{}
		return nil
	}
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return fmt.Errorf("malformed kind %q", s)
	}
	k.Module, k.Type = s[:i], s[i+1:]
	return nil
}

// IsValid returns true if both Module and Type are populated.
func (k Kind) IsValid() bool {
	return k.Module != "" && k.Type != ""
}

// Equal returns true if both Module and Type match.
func (k Kind) Equal(other Kind) bool {
	return k.Module == other.Module && k.Type == other.Type
}

// ShortString returns the last path element of the module plus the type,
// which is what log lines and tables use.
//
// Example: "github.com/user/app/services.Database" becomes "services.Database"
func (k Kind) ShortString() string {
	if k.Module == "" {
		return k.Type
	}
	pkg := k.Module
	if i := strings.LastIndex(pkg, "/"); i >= 0 && i < len(pkg)-1 {
		pkg = pkg[i+1:]
	}
	return pkg + "." + k.Type
}

// KindOf returns the Kind of a component instance. Pointers are dereferenced
// so that KindOf(&Database{}) and KindOf(Database{}) agree.
func KindOf(v any) Kind {
	return kindOfType(reflect.TypeOf(v))
}

// KindFor returns the Kind of the component type T.
func KindFor[T any]() Kind {
	return kindOfType(reflect.TypeFor[T]())
}

func kindOfType(t reflect.Type) Kind {
	if t == nil {
		return Kind{}
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return Kind{Module: t.PkgPath(), Type: t.Name()}
}

// kindStrings is a logging helper.
func kindStrings(kinds []Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.ShortString()
	}
	return out
}
