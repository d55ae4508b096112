package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct{}

func (fakeRunner) Run(inputs map[string]interface{}) (map[string]interface{}, error) {
	return inputs, nil
}

func TestTopologicalSort_LinearChain(t *testing.T) {
	g := New()
	g.UpsertPortNode("1", 0, 1)
	g.UpsertStepNode("2", fakeRunner{})
	g.UpsertStepNode("3", fakeRunner{})
	g.AddEdge("1", "2", 0)
	g.AddEdge("2", "3", 0)

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, order)
}

func TestTopologicalSort_Diamond(t *testing.T) {
	g := New()
	for _, id := range []string{"1", "2", "3", "4"} {
		g.UpsertStepNode(id, fakeRunner{})
	}
	g.AddEdge("1", "2", 0)
	g.AddEdge("1", "3", 0)
	g.AddEdge("2", "4", 0)
	g.AddEdge("3", "4", 1)

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	require.Len(t, order, 4)
	assert.Equal(t, "1", order[0])
	assert.Equal(t, "4", order[3])
}

func TestTopologicalSort_DetectsCycle(t *testing.T) {
	g := New()
	g.UpsertStepNode("a", fakeRunner{})
	g.UpsertStepNode("b", fakeRunner{})
	g.AddEdge("a", "b", 0)
	g.AddEdge("b", "a", 0)

	_, err := g.TopologicalSort()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCycleDetected))

	assert.Error(t, g.DetectCycles())
}

func TestTopologicalSort_EmptyGraph(t *testing.T) {
	g := New()
	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestInEdges_OrderedByPos(t *testing.T) {
	g := New()
	g.UpsertStepNode("target", fakeRunner{})
	g.UpsertPortNode("a", 0, nil)
	g.UpsertPortNode("b", 0, nil)
	g.AddEdge("b", "target", 1)
	g.AddEdge("a", "target", 0)

	edges := g.InEdges("target")
	require.Len(t, edges, 2)
	assert.Equal(t, "a", edges[0].Source)
	assert.Equal(t, "b", edges[1].Source)
}

func TestFinalize_DanglingReferenceSuggestsClosestID(t *testing.T) {
	g := New()
	g.UpsertPortNode("input_file", 0, nil)
	g.UpsertStepNode("step", fakeRunner{})
	g.AddEdge("input_fiel", "step", 0) // typo: dangling reference

	err := g.Finalize()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDanglingReference))
	assert.Contains(t, err.Error(), "input_file")
}

func TestFinalize_EmptyGraph(t *testing.T) {
	g := New()
	err := g.Finalize()
	assert.True(t, errors.Is(err, ErrEmptyGraph))
}

func TestFinalize_AcceptsForwardDeclaredEdges(t *testing.T) {
	g := New()
	// workflow outputs are wired before the steps they read from, so
	// AddEdge must tolerate the target/source not being declared yet.
	g.AddEdge("step/out", "wf_output", 0)
	g.UpsertPortNode("wf_output", 0, nil)
	g.UpsertStepNode("step", fakeRunner{})
	g.UpsertPortNode("step/out", 0, nil)

	assert.NoError(t, g.Finalize())
}

func TestFinalize_RejectsTooManyNodes(t *testing.T) {
	g := New()
	g.SetLimits(2, 0)
	g.UpsertPortNode("a", 0, nil)
	g.UpsertPortNode("b", 0, nil)
	g.UpsertPortNode("c", 0, nil)

	err := g.Finalize()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyNodes))
}

func TestFinalize_RejectsTooManyEdges(t *testing.T) {
	g := New()
	g.SetLimits(0, 1)
	g.UpsertStepNode("a", fakeRunner{})
	g.UpsertStepNode("b", fakeRunner{})
	g.UpsertStepNode("c", fakeRunner{})
	g.AddEdge("a", "b", 0)
	g.AddEdge("b", "c", 0)

	err := g.Finalize()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyEdges))
}

func TestGetTerminalNodes(t *testing.T) {
	g := New()
	g.UpsertPortNode("1", 0, nil)
	g.UpsertStepNode("2", fakeRunner{})
	g.UpsertStepNode("3", fakeRunner{})
	g.AddEdge("1", "2", 0)
	g.AddEdge("2", "3", 0)

	terminal := g.GetTerminalNodes()
	assert.Equal(t, []string{"3"}, terminal)
}
