package dependencies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGraph_DependenciesAndDependents tests direct edge queries
func TestGraph_DependenciesAndDependents(t *testing.T) {
	g := NewGraph()
	g.AddNode("app-core", nil)
	g.AddNode("flow-designer", []string{"app-core"})
	g.AddNode("chart-widgets", []string{"app-core"})

	assert.Equal(t, []string{"app-core"}, g.Dependencies("flow-designer"))
	assert.Empty(t, g.Dependencies("app-core"))
	assert.ElementsMatch(t, []string{"flow-designer", "chart-widgets"}, g.Dependents("app-core"))
	assert.Empty(t, g.Dependents("flow-designer"))
}

// TestGraph_AddNodeReplacesEdges tests re-registration semantics
func TestGraph_AddNodeReplacesEdges(t *testing.T) {
	g := NewGraph()
	g.AddNode("flow-designer", []string{"app-core"})
	g.AddNode("flow-designer", []string{"chart-widgets"})

	assert.Equal(t, []string{"chart-widgets"}, g.Dependencies("flow-designer"))
}

// TestGraph_RemoveNode tests node removal leaves dangling edges intact
func TestGraph_RemoveNode(t *testing.T) {
	g := NewGraph()
	g.AddNode("app-core", nil)
	g.AddNode("flow-designer", []string{"app-core"})

	g.RemoveNode("app-core")

	assert.False(t, g.Has("app-core"))
	assert.True(t, g.Has("flow-designer"))
	assert.Equal(t, []string{"app-core"}, g.Dependencies("flow-designer"))
}

// TestGraph_TransitiveDependencies tests reachability traversal
func TestGraph_TransitiveDependencies(t *testing.T) {
	g := NewGraph()
	g.AddNode("base", nil)
	g.AddNode("mid", []string{"base"})
	g.AddNode("top", []string{"mid", "base"})

	assert.Equal(t, []string{"mid", "base"}, g.TransitiveDependencies("top"))
	assert.Equal(t, []string{"base"}, g.TransitiveDependencies("mid"))
	assert.Empty(t, g.TransitiveDependencies("base"))
}

// TestGraph_DetectCycle tests cycle detection and path reconstruction
func TestGraph_DetectCycle(t *testing.T) {
	g := NewGraph()
	g.AddNode("ext-a", []string{"ext-b"})
	g.AddNode("ext-b", []string{"ext-c"})
	g.AddNode("ext-c", []string{"ext-a"})

	cycle, found := g.DetectCycle([]string{"ext-a", "ext-b", "ext-c"})
	require.True(t, found)
	require.NotEmpty(t, cycle)

	// Path runs from the repeated id back to itself.
	assert.Equal(t, cycle[0], cycle[len(cycle)-1])
	assert.Len(t, cycle, 4)
}

// TestGraph_DetectCycle_SelfLoop tests the minimal cycle
func TestGraph_DetectCycle_SelfLoop(t *testing.T) {
	g := NewGraph()
	g.AddNode("ext-a", []string{"ext-a"})

	cycle, found := g.DetectCycle([]string{"ext-a"})
	require.True(t, found)
	assert.Equal(t, []string{"ext-a", "ext-a"}, cycle)
}

// TestGraph_DetectCycle_Acyclic tests the no-cycle case
func TestGraph_DetectCycle_Acyclic(t *testing.T) {
	g := NewGraph()
	g.AddNode("base", nil)
	g.AddNode("mid", []string{"base"})
	g.AddNode("top", []string{"mid"})

	cycle, found := g.DetectCycle([]string{"top", "mid", "base"})
	assert.False(t, found)
	assert.Nil(t, cycle)
}

// TestGraph_TopologicalSort tests dependency-before-dependent ordering
func TestGraph_TopologicalSort(t *testing.T) {
	g := NewGraph()
	g.AddNode("base", nil)
	g.AddNode("mid", []string{"base"})
	g.AddNode("top", []string{"mid"})

	result, cycle, ok := g.TopologicalSort([]string{"top", "mid", "base"})
	require.True(t, ok)
	assert.Nil(t, cycle)
	assert.Equal(t, []string{"base", "mid", "top"}, result)
}

// TestGraph_TopologicalSort_DeterministicTies tests that independent nodes keep input order
func TestGraph_TopologicalSort_DeterministicTies(t *testing.T) {
	g := NewGraph()
	g.AddNode("ext-c", nil)
	g.AddNode("ext-a", nil)
	g.AddNode("ext-b", nil)

	result, _, ok := g.TopologicalSort([]string{"ext-c", "ext-a", "ext-b"})
	require.True(t, ok)
	assert.Equal(t, []string{"ext-c", "ext-a", "ext-b"}, result)
}

// TestGraph_TopologicalSort_SubsetResult tests that only requested ids appear
func TestGraph_TopologicalSort_SubsetResult(t *testing.T) {
	g := NewGraph()
	g.AddNode("base", nil)
	g.AddNode("top", []string{"base"})

	result, _, ok := g.TopologicalSort([]string{"top"})
	require.True(t, ok)
	assert.Equal(t, []string{"top"}, result)
}

// TestGraph_TopologicalSort_Cycle tests batch rejection on cyclic input
func TestGraph_TopologicalSort_Cycle(t *testing.T) {
	g := NewGraph()
	g.AddNode("ext-a", []string{"ext-b"})
	g.AddNode("ext-b", []string{"ext-a"})

	result, cycle, ok := g.TopologicalSort([]string{"ext-a", "ext-b"})
	assert.False(t, ok)
	assert.Nil(t, result)
	assert.NotEmpty(t, cycle)
}
