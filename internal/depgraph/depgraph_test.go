package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelsLinearChain(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("b")
	g.AddNode("c")
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")

	levels, ok := g.Levels()
	require.True(t, ok)
	require.Len(t, levels, 3)
	assert.Equal(t, []string{"c"}, levels[0])
	assert.Equal(t, []string{"b"}, levels[1])
	assert.Equal(t, []string{"a"}, levels[2])
}

func TestLevelsParallelizableLevel(t *testing.T) {
	g := New()
	g.AddNode("app")
	g.AddNode("libA")
	g.AddNode("libB")
	g.AddEdge("app", "libA")
	g.AddEdge("app", "libB")

	levels, ok := g.Levels()
	require.True(t, ok)
	require.Len(t, levels, 2)
	assert.ElementsMatch(t, []string{"libA", "libB"}, levels[0])
	assert.Equal(t, []string{"app"}, levels[1])
}

func TestLevelsDetectsCycle(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("b")
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")

	levels, ok := g.Levels()
	require.False(t, ok)
	require.Len(t, levels, 1)
	assert.ElementsMatch(t, []string{"a", "b"}, levels[0])

	cycle := g.FindCycle("a")
	assert.NotEmpty(t, cycle)
}

func TestSelfEdgeDropped(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddEdge("a", "a")

	levels, ok := g.Levels()
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, levels[0])
}

func TestReposWithDependencies(t *testing.T) {
	g := New()
	g.AddNode("isolated")
	g.AddNode("app")
	g.AddNode("lib")
	g.AddEdge("app", "lib")

	assert.ElementsMatch(t, []string{"app", "lib"}, g.ReposWithDependencies())
}

func TestEdges(t *testing.T) {
	g := New()
	g.AddNode("app")
	g.AddNode("lib")
	g.AddEdge("app", "lib")

	edges := g.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, Edge{From: "app", To: "lib"}, edges[0])
}
