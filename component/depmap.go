package component

import (
	"fmt"
	"slices"
	"strings"
)

// DependencyMap maps each kind to its declared dependencies. Keys keep the
// order in which they were inserted, which fixes the topological order and
// therefore the phase order. A map is immutable once built.
type DependencyMap struct {
	keys []Kind
	deps map[Kind][]Kind
}

func newDependencyMap() *DependencyMap {
	return &DependencyMap{deps: make(map[Kind][]Kind)}
}

func (m *DependencyMap) insert(kind Kind, deps []Kind) {
	m.keys = append(m.keys, kind)
	m.deps[kind] = deps
}

// Keys returns the kinds in insertion order.
func (m *DependencyMap) Keys() []Kind {
	return slices.Clone(m.keys)
}

// Dependencies returns the declared dependencies of kind.
func (m *DependencyMap) Dependencies(kind Kind) []Kind {
	return slices.Clone(m.deps[kind])
}

// Has reports whether kind is a key.
func (m *DependencyMap) Has(kind Kind) bool {
	_, ok := m.deps[kind]
	return ok
}

// Len returns the number of keys.
func (m *DependencyMap) Len() int {
	return len(m.keys)
}

// Equal reports whether both maps have the same keys in the same order and the
// same dependency lists.
func (m *DependencyMap) Equal(other *DependencyMap) bool {
	if other == nil || !slices.Equal(m.keys, other.keys) {
		return false
	}
	for _, k := range m.keys {
		if !slices.Equal(m.deps[k], other.deps[k]) {
			return false
		}
	}
	return true
}

// BuildDependencyMap walks the declarations starting at root. A kind is
// inserted before its dependencies are expanded, and each kind is expanded at
// most once.
func BuildDependencyMap(root Kind, decls Declarations) (*DependencyMap, error) {
	m := newDependencyMap()
	if err := m.expand(root, Kind{}, decls); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DependencyMap) expand(kind, requiredBy Kind, decls Declarations) error {
	if m.Has(kind) {
		return nil
	}
	if !decls.IsLegalKind(kind) {
		if requiredBy.IsValid() {
			return fmt.Errorf("%w: %s (required by %s)", ErrInvalidComponentKind, kind, requiredBy)
		}
		return fmt.Errorf("%w: %s", ErrInvalidComponentKind, kind)
	}

	deps := decls.DependenciesOf(kind)
	m.insert(kind, deps)
	for _, dep := range deps {
		if err := m.expand(dep, kind, decls); err != nil {
			return err
		}
	}
	return nil
}

// HasCycle reports whether the map contains a cycle.
func HasCycle(m *DependencyMap) bool {
	return FindCycle(m) != nil
}

// FindCycle returns the first cycle found as a path that starts and ends with
// the same kind, or nil if the map is acyclic.
//
// Kinds already proven acyclic are not walked again; the on-path set is
// per branch and is unwound when backtracking.
func FindCycle(m *DependencyMap) []Kind {
	visited := make(map[Kind]bool, m.Len())
	onPath := make(map[Kind]bool)
	var path []Kind

	var visit func(k Kind) []Kind
	visit = func(k Kind) []Kind {
		if onPath[k] {
			start := slices.Index(path, k)
			return append(slices.Clone(path[start:]), k)
		}
		if visited[k] {
			return nil
		}
		visited[k] = true
		onPath[k] = true
		path = append(path, k)

		for _, dep := range m.deps[k] {
			if cycle := visit(dep); cycle != nil {
				return cycle
			}
		}

		path = path[:len(path)-1]
		delete(onPath, k)
		return nil
	}

	for _, k := range m.keys {
		if cycle := visit(k); cycle != nil {
			return cycle
		}
	}
	return nil
}

// formatCycle renders a cycle as "A -> B -> A".
func formatCycle(cycle []Kind) string {
	return strings.Join(kindStrings(cycle), " -> ")
}

// TopologicalSort returns every key of an acyclic map such that each kind
// comes after all of its dependencies. Keys are visited in insertion order and
// dependencies in declaration order, so the result is deterministic.
//
// The result is meaningless for a cyclic map; check HasCycle first.
func TopologicalSort(m *DependencyMap) []Kind {
	visited := make(map[Kind]bool, m.Len())
	order := make([]Kind, 0, m.Len())

	var visit func(k Kind)
	visit = func(k Kind) {
		visited[k] = true
		for _, dep := range m.deps[k] {
			if !visited[dep] {
				visit(dep)
			}
		}
		order = append(order, k)
	}

	for _, k := range m.keys {
		if !visited[k] {
			visit(k)
		}
	}
	return order
}
