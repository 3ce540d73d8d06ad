package component

// RelationshipIndex holds, for every kind of a dependency map, the transitive
// set of its ancestors (kinds that depend on it directly or through a chain)
// and of its descendants (kinds it depends on).
//
// The closure is computed once when the index is built; the map must be
// acyclic. Query results follow the key order of the dependency map.
type RelationshipIndex struct {
	keys        []Kind
	ancestors   map[Kind][]Kind
	descendants map[Kind][]Kind
}

// BuildIndex computes the relationship index for an acyclic dependency map.
func BuildIndex(m *DependencyMap) *RelationshipIndex {
	directAncestors := make(map[Kind][]Kind, m.Len())
	directDescendants := make(map[Kind][]Kind, m.Len())
	for _, k := range m.keys {
		for _, dep := range m.deps[k] {
			directAncestors[dep] = appendUnique(directAncestors[dep], k)
			directDescendants[k] = appendUnique(directDescendants[k], dep)
		}
	}

	idx := &RelationshipIndex{
		keys:        m.Keys(),
		ancestors:   make(map[Kind][]Kind, m.Len()),
		descendants: make(map[Kind][]Kind, m.Len()),
	}
	for _, k := range m.keys {
		idx.ancestors[k] = idx.ordered(closure(k, directAncestors))
		idx.descendants[k] = idx.ordered(closure(k, directDescendants))
	}
	return idx
}

// AncestorsOf returns every kind that depends on kind, directly or transitively.
func (idx *RelationshipIndex) AncestorsOf(kind Kind) []Kind {
	return append([]Kind(nil), idx.ancestors[kind]...)
}

// DescendantsOf returns every kind that kind depends on, directly or transitively.
func (idx *RelationshipIndex) DescendantsOf(kind Kind) []Kind {
	return append([]Kind(nil), idx.descendants[kind]...)
}

// IsAncestor reports whether a depends on d, directly or transitively.
func (idx *RelationshipIndex) IsAncestor(a, d Kind) bool {
	for _, k := range idx.ancestors[d] {
		if k == a {
			return true
		}
	}
	return false
}

// closure returns the set reachable from start over edges, excluding start.
func closure(start Kind, edges map[Kind][]Kind) map[Kind]bool {
	seen := make(map[Kind]bool)
	stack := append([]Kind(nil), edges[start]...)
	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[k] {
			continue
		}
		seen[k] = true
		stack = append(stack, edges[k]...)
	}
	delete(seen, start)
	return seen
}

// ordered turns a set into a slice in dependency map key order.
func (idx *RelationshipIndex) ordered(set map[Kind]bool) []Kind {
	if len(set) == 0 {
		return nil
	}
	out := make([]Kind, 0, len(set))
	for _, k := range idx.keys {
		if set[k] {
			out = append(out, k)
		}
	}
	return out
}

func appendUnique(list []Kind, k Kind) []Kind {
	for _, existing := range list {
		if existing == k {
			return list
		}
	}
	return append(list, k)
}
