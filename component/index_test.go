package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestIndex(t *testing.T, root Kind, decls mapDecls) (*DependencyMap, *RelationshipIndex) {
	t.Helper()
	m, err := BuildDependencyMap(root, decls)
	require.NoError(t, err)
	require.False(t, HasCycle(m))
	return m, BuildIndex(m)
}

func TestRelationshipIndex(t *testing.T) {
	_, idx := buildTestIndex(t, tk("App"), mapDecls{
		tk("App"):    {tk("X"), tk("Y")},
		tk("X"):      {tk("Shared")},
		tk("Y"):      {tk("Shared")},
		tk("Shared"): nil,
	})

	t.Run("AncestorsOf", func(t *testing.T) {
		assert.Equal(t, []Kind{tk("App"), tk("X"), tk("Y")}, idx.AncestorsOf(tk("Shared")))
		assert.Equal(t, []Kind{tk("App")}, idx.AncestorsOf(tk("X")))
		assert.Empty(t, idx.AncestorsOf(tk("App")))
	})

	t.Run("DescendantsOf", func(t *testing.T) {
		assert.Equal(t, []Kind{tk("X"), tk("Shared"), tk("Y")}, idx.DescendantsOf(tk("App")))
		assert.Equal(t, []Kind{tk("Shared")}, idx.DescendantsOf(tk("Y")))
		assert.Empty(t, idx.DescendantsOf(tk("Shared")))
	})

	t.Run("IsAncestor", func(t *testing.T) {
		assert.True(t, idx.IsAncestor(tk("App"), tk("Shared")))
		assert.True(t, idx.IsAncestor(tk("X"), tk("Shared")))
		assert.False(t, idx.IsAncestor(tk("Shared"), tk("X")))
		assert.False(t, idx.IsAncestor(tk("X"), tk("Y")))
		assert.False(t, idx.IsAncestor(tk("App"), tk("App")))
	})

	t.Run("UnknownKind", func(t *testing.T) {
		assert.Empty(t, idx.AncestorsOf(tk("Nope")))
		assert.Empty(t, idx.DescendantsOf(tk("Nope")))
	})
}

func TestRelationshipIndex_Duality(t *testing.T) {
	m, idx := buildTestIndex(t, tk("A"), mapDecls{
		tk("A"): {tk("B"), tk("C")},
		tk("B"): {tk("C"), tk("D")},
		tk("C"): {tk("D")},
		tk("D"): {tk("E")},
		tk("E"): nil,
	})

	for _, a := range m.Keys() {
		for _, d := range m.Keys() {
			inDesc := contains(idx.DescendantsOf(a), d)
			inAnc := contains(idx.AncestorsOf(d), a)
			assert.Equal(t, inDesc, inAnc, "descendant/ancestor mismatch for %s and %s", a, d)
			assert.Equal(t, inAnc, idx.IsAncestor(a, d))
		}
	}

	assert.Equal(t, []Kind{tk("B"), tk("C"), tk("D"), tk("E")}, idx.DescendantsOf(tk("A")))
	assert.Equal(t, []Kind{tk("A"), tk("B"), tk("C"), tk("D")}, idx.AncestorsOf(tk("E")))
}

func TestRelationshipIndex_ResultsAreCopies(t *testing.T) {
	_, idx := buildTestIndex(t, tk("A"), mapDecls{
		tk("A"): {tk("B")},
		tk("B"): nil,
	})

	got := idx.DescendantsOf(tk("A"))
	got[0] = tk("Z")
	assert.Equal(t, []Kind{tk("B")}, idx.DescendantsOf(tk("A")))
}

func contains(kinds []Kind, kind Kind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
