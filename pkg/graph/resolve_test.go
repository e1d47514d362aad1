package graph

import (
	"testing"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(nodes []*models.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}

	return out
}

func build(t *testing.T, nodes []*models.Node, edges []*models.Edge) (*Graph, *Graph) {
	t.Helper()

	forward, err := ConstructGraphs(nodes, edges, false)
	require.NoError(t, err)

	reverse, err := ConstructGraphs(nodes, edges, true)
	require.NoError(t, err)

	return forward, reverse
}

func TestLinearARFlow(t *testing.T) {
	t.Parallel()

	nodes, edges := chainFlow()
	forward, reverse := build(t, nodes, edges)

	ending := GetEndingNodes(forward.DependencyCounts, forward, nodes, ARDomain)
	assert.Equal(t, []string{"C"}, ids(ending))

	starting, err := GetStartingNodes(reverse, "C")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, starting.IDs)
	assert.Equal(t, map[string]int{"C": 0, "B": 1, "A": 2}, starting.Depths)

	position := map[string]int{"A": 0, "B": 1, "C": 2}
	assert.Equal(t, []string{"A", "B", "C"}, starting.Sorted(position))
}

func TestGetEndingNodes_NoMatchReturnsEmpty(t *testing.T) {
	t.Parallel()

	nodes, edges := chainFlow()
	forward, _ := build(t, nodes, edges)

	for _, domain := range []Domain{TextDomain, SceneDomain} {
		ending := GetEndingNodes(forward.DependencyCounts, forward, nodes, domain)
		require.NotNil(t, ending)
		assert.Empty(t, ending)
	}

	empty, err := ConstructGraphs(nil, nil, false)
	require.NoError(t, err)
	assert.Empty(t, GetEndingNodes(empty.DependencyCounts, empty, nil, ARDomain))
}

func TestGetEndingNodes_TwoARTerminals(t *testing.T) {
	t.Parallel()

	nodes := []*models.Node{
		node("A1", "updlObject", models.CategoryUPDL),
		node("C1", "arMarker", models.CategoryAR),
		node("A2", "updlObject", models.CategoryUPDL),
		node("C2", "arMarker", models.CategoryAR),
	}
	edges := []*models.Edge{edge("A1", "C1"), edge("A2", "C2")}
	forward, _ := build(t, nodes, edges)

	ending := GetEndingNodes(forward.DependencyCounts, forward, nodes, ARDomain)
	assert.Equal(t, []string{"C1", "C2"}, ids(ending))

	selected, ok := SelectTerminal(ending, ARDomain)
	require.True(t, ok)
	assert.Equal(t, "C2", selected.ID)
}

func TestGetEndingNodes_TwoARSceneTerminals(t *testing.T) {
	t.Parallel()

	nodes := []*models.Node{
		node("A1", "updlObject", models.CategoryUPDL),
		node("C1", "arScene", models.CategoryAR),
		node("A2", "updlObject", models.CategoryUPDL),
		node("C2", "arScene", models.CategoryAR),
	}
	edges := []*models.Edge{edge("A1", "C1"), edge("A2", "C2")}
	forward, _ := build(t, nodes, edges)

	ending := GetEndingNodes(forward.DependencyCounts, forward, nodes, ARDomain)
	assert.Equal(t, []string{"C1", "C2"}, ids(ending))

	selected, ok := SelectTerminal(ending, ARDomain)
	require.True(t, ok)
	assert.Equal(t, "C2", selected.ID)
}

func TestGetEndingNodes_PrefersDomainName(t *testing.T) {
	t.Parallel()

	nodes := []*models.Node{
		node("obj", "updlObject", models.CategoryUPDL),
		node("scene_0", "scene", models.CategoryUPDL),
		node("light", "updlLight", models.CategoryUPDL),
		node("cam", "updlCamera", models.CategoryUPDL),
	}
	edges := []*models.Edge{edge("obj", "scene_0"), edge("obj", "light"), edge("cam", "light")}
	forward, _ := build(t, nodes, edges)

	ending := GetEndingNodes(forward.DependencyCounts, forward, nodes, SceneDomain)
	assert.Equal(t, []string{"scene_0"}, ids(ending))

	// The text domain has no preferred name: every text leaf is kept.
	text := []*models.Node{
		node("model", "chatOpenAI", models.CategoryLLM),
		node("c1", "llmChain", models.CategoryChain),
		node("c2", "llmChain", models.CategoryChain),
	}
	forward, _ = build(t, text, []*models.Edge{edge("model", "c1"), edge("model", "c2")})
	assert.Equal(t, []string{"c1", "c2"}, ids(GetEndingNodes(forward.DependencyCounts, forward, text, TextDomain)))
}

func TestGetEndingNodes_SingleNode(t *testing.T) {
	t.Parallel()

	nodes := []*models.Node{node("only", "llmChain", models.CategoryChain)}
	forward, _ := build(t, nodes, nil)

	assert.Equal(t, []string{"only"}, ids(GetEndingNodes(forward.DependencyCounts, forward, nodes, TextDomain)))
	assert.Empty(t, GetEndingNodes(forward.DependencyCounts, forward, nodes, ARDomain))
}

func TestGetEndingNodes_IsolatedNodeIsNotTerminal(t *testing.T) {
	t.Parallel()

	nodes := []*models.Node{
		node("p", "promptTemplate", models.CategoryPrompt),
		node("c", "llmChain", models.CategoryChain),
		node("lonely", "llmChain", models.CategoryChain),
	}
	forward, _ := build(t, nodes, []*models.Edge{edge("p", "c")})

	assert.Equal(t, []string{"c"}, ids(GetEndingNodes(forward.DependencyCounts, forward, nodes, TextDomain)))
}

func TestSelectTerminal(t *testing.T) {
	t.Parallel()

	_, ok := SelectTerminal(nil, SceneDomain)
	assert.False(t, ok)

	candidates := []*models.Node{
		node("s1", "scene", models.CategoryUPDL),
		node("s2", "updlObject", models.CategoryUPDL),
	}
	selected, ok := SelectTerminal(candidates, SceneDomain)
	require.True(t, ok)
	assert.Equal(t, "s1", selected.ID)

	selected, ok = SelectTerminal(candidates, TextDomain)
	require.True(t, ok)
	assert.Equal(t, "s2", selected.ID)

	candidates = append(candidates, node("s3", "scene", models.CategoryUPDL), node("s4", "updlLight", models.CategoryUPDL))
	selected, ok = SelectTerminal(candidates, SceneDomain)
	require.True(t, ok)
	assert.Equal(t, "s3", selected.ID)
}

func TestDomainFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ar", DomainFor(models.FlowTypeAR).Name)
	assert.Equal(t, "scene", DomainFor(models.FlowTypeUPDL).Name)
	assert.Equal(t, "text", DomainFor(models.FlowTypeChat).Name)
	assert.Equal(t, "text", DomainFor("").Name)
}

func TestGetStartingNodes_DepthInvariant(t *testing.T) {
	t.Parallel()

	// a feeds d both directly and through b -> c, so the short path is found first.
	nodes := []*models.Node{
		node("a", "x", models.CategoryUtility),
		node("b", "x", models.CategoryUtility),
		node("c", "x", models.CategoryUtility),
		node("d", "x", models.CategoryChain),
		node("unrelated", "x", models.CategoryUtility),
	}
	edges := []*models.Edge{edge("a", "d"), edge("a", "b"), edge("b", "c"), edge("c", "d")}
	_, reverse := build(t, nodes, edges)

	starting, err := GetStartingNodes(reverse, "d")
	require.NoError(t, err)

	assert.Len(t, starting.IDs, 4, "each ancestor appears once")
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, starting.IDs)
	assert.False(t, starting.Contains("unrelated"))

	for _, e := range edges {
		if starting.Contains(e.Target) {
			assert.Greater(t, starting.Depths[e.Source], starting.Depths[e.Target], "%s -> %s", e.Source, e.Target)
		}
	}

	assert.Equal(t, 3, starting.Depths["a"])
}

func TestGetStartingNodes_Errors(t *testing.T) {
	t.Parallel()

	nodes, edges := chainFlow()
	_, reverse := build(t, nodes, edges)

	_, err := GetStartingNodes(reverse, "missing")
	assert.ErrorIs(t, err, ErrUnknownNode)

	cyclic := []*models.Node{
		node("x", "x", models.CategoryUtility),
		node("y", "x", models.CategoryUtility),
		node("z", "x", models.CategoryChain),
	}
	_, reverse = build(t, cyclic, []*models.Edge{edge("x", "y"), edge("y", "x"), edge("y", "z")})

	_, err = GetStartingNodes(reverse, "z")
	assert.ErrorIs(t, err, ErrCycleDetected)
}

func TestUnionStartingNodes_MaxDepthWins(t *testing.T) {
	t.Parallel()

	// shared feeds t1 directly and t2 through mid.
	nodes := []*models.Node{
		node("shared", "x", models.CategoryUPDL),
		node("mid", "x", models.CategoryUPDL),
		node("t1", "x", models.CategoryAR),
		node("t2", "x", models.CategoryAR),
	}
	edges := []*models.Edge{edge("shared", "t1"), edge("shared", "mid"), edge("mid", "t2")}
	_, reverse := build(t, nodes, edges)

	union, err := UnionStartingNodes(reverse, []string{"t1", "t2"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"shared", "mid", "t1", "t2"}, union.IDs)
	assert.Equal(t, 2, union.Depths["shared"])
	assert.Equal(t, 1, union.Depths["mid"])
	assert.Equal(t, 0, union.Depths["t1"])

	_, err = UnionStartingNodes(reverse, []string{"t1", "nope"})
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestStartingNodes_SortedTieBreak(t *testing.T) {
	t.Parallel()

	s := &StartingNodes{
		IDs:    []string{"t", "q", "p", "r"},
		Depths: map[string]int{"t": 0, "q": 1, "p": 1, "r": 2},
	}
	position := map[string]int{"p": 0, "q": 1, "r": 2, "t": 3}

	assert.Equal(t, []string{"r", "p", "q", "t"}, s.Sorted(position))
}
