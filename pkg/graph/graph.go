// Package graph provides the DAG representation shared by the workflow
// scheduler: port and step nodes, source->target data edges ordered by
// link position, and the construction-time acyclicity check.
package graph

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Kind distinguishes the two node flavours the spec's graph carries.
type Kind int

const (
	// PortNode is a workflow input, workflow output, or step input/output port.
	PortNode Kind = iota
	// StepNode is a workflow step backed by a Runner (a loaded runnable).
	StepNode
)

func (k Kind) String() string {
	if k == StepNode {
		return "step"
	}
	return "port"
}

// Status tracks a node's place in the round-based scheduler.
type Status string

const (
	StatusPending Status = ""
	StatusRunning Status = "running"
	StatusDone    Status = "done"
)

// Runner is the minimal shape a step node's implementation must satisfy.
// It is defined here, rather than imported from pkg/runnable, so that
// graph has no dependency on the runnable package; any type whose Run
// method matches this signature satisfies it structurally.
type Runner interface {
	Run(inputs map[string]interface{}) (map[string]interface{}, error)
}

// Node is one vertex of the workflow DAG.
type Node struct {
	ID     string
	Kind   Kind
	Depth  int         // declared nesting contract (ports) or unused (steps)
	Val    interface{} // composed input value, written once per round
	Status Status
	Result interface{} // output value, written once when Status becomes done
	Impl   Runner      // set for StepNode

	declared bool // false until an explicit Upsert*Node call names this id
}

// Edge is a directed data dependency: Source feeds Target. Pos orders
// multiple edges into the same target port (link declaration order).
type Edge struct {
	Source string
	Target string
	Pos    int
}

// Graph is the mutable DAG built by the document loader and consumed by
// the workflow scheduler.
type Graph struct {
	nodes map[string]*Node
	order []string // insertion order, for stable scheduler scans
	edges []Edge

	maxNodes int // 0 = unlimited
	maxEdges int // 0 = unlimited
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// SetLimits bounds the node and edge count Finalize will accept; 0 leaves
// either dimension unlimited.
func (g *Graph) SetLimits(maxNodes, maxEdges int) {
	g.maxNodes = maxNodes
	g.maxEdges = maxEdges
}

func (g *Graph) ensure(id string) *Node {
	if n, ok := g.nodes[id]; ok {
		return n
	}
	n := &Node{ID: id, Kind: PortNode}
	g.nodes[id] = n
	g.order = append(g.order, id)
	return n
}

// UpsertPortNode declares (or redeclares) a port node with a nesting
// depth and, optionally, a constant/user-supplied value. Declaring a
// node that was previously auto-created by AddEdge fills in its
// attributes without disturbing edges already attached to it.
func (g *Graph) UpsertPortNode(id string, depth int, val interface{}) *Node {
	n := g.ensure(id)
	n.Kind = PortNode
	n.Depth = depth
	n.Val = val
	n.declared = true
	return n
}

// UpsertStepNode declares (or redeclares) a step node backed by impl.
func (g *Graph) UpsertStepNode(id string, impl Runner) *Node {
	n := g.ensure(id)
	n.Kind = StepNode
	n.Impl = impl
	n.declared = true
	return n
}

// AddEdge records a data dependency from source to target at position
// pos. Either endpoint may not yet be declared; it is auto-vivified as
// an undeclared port node so construction can proceed in any order
// (workflow outputs are built before the steps whose outputs they
// reference). Finalize reports any endpoint that is still undeclared
// once construction completes.
func (g *Graph) AddEdge(source, target string, pos int) {
	g.ensure(source)
	g.ensure(target)
	g.edges = append(g.edges, Edge{Source: source, Target: target, Pos: pos})
}

// GetNode returns the node with the given id, or nil if absent.
func (g *Graph) GetNode(id string) *Node {
	return g.nodes[id]
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// InEdges returns edges targeting id, ordered by Pos (link order).
func (g *Graph) InEdges(id string) []Edge {
	var edges []Edge
	for _, e := range g.edges {
		if e.Target == id {
			edges = append(edges, e)
		}
	}
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].Pos < edges[j].Pos })
	return edges
}

// OutEdges returns edges sourced from id, insertion order.
func (g *Graph) OutEdges(id string) []Edge {
	var edges []Edge
	for _, e := range g.edges {
		if e.Source == id {
			edges = append(edges, e)
		}
	}
	return edges
}

// GetTerminalNodes returns nodes with no outgoing edges.
func (g *Graph) GetTerminalNodes() []string {
	terminal := make(map[string]bool, len(g.order))
	for _, id := range g.order {
		terminal[id] = true
	}
	for _, e := range g.edges {
		terminal[e.Source] = false
	}
	result := make([]string, 0, len(terminal))
	for _, id := range g.order {
		if terminal[id] {
			result = append(result, id)
		}
	}
	return result
}

// Finalize validates the graph is ready for scheduling: every node an
// edge refers to must have been explicitly declared, and the graph must
// be acyclic. A dangling reference gets a "did you mean" suggestion
// against the declared ids, since it is almost always a typo in a
// link's source or a step's run reference.
func (g *Graph) Finalize() error {
	if len(g.order) == 0 {
		return ErrEmptyGraph
	}
	if g.maxNodes > 0 && len(g.order) > g.maxNodes {
		return fmt.Errorf("%w: %d nodes, limit %d", ErrTooManyNodes, len(g.order), g.maxNodes)
	}
	if g.maxEdges > 0 && len(g.edges) > g.maxEdges {
		return fmt.Errorf("%w: %d edges, limit %d", ErrTooManyEdges, len(g.edges), g.maxEdges)
	}

	declared := make([]string, 0, len(g.order))
	for _, id := range g.order {
		if g.nodes[id].declared {
			declared = append(declared, id)
		}
	}
	for _, id := range g.order {
		n := g.nodes[id]
		if n.declared {
			continue
		}
		suggestion, best := "", -1
		for _, cand := range declared {
			if d := fuzzy.LevenshteinDistance(id, cand); best < 0 || d < best {
				suggestion, best = cand, d
			}
		}
		if suggestion != "" {
			return fmt.Errorf("%w: %q (did you mean %q?)", ErrDanglingReference, id, suggestion)
		}
		return fmt.Errorf("%w: %q", ErrDanglingReference, id)
	}

	if _, err := g.TopologicalSort(); err != nil {
		return err
	}
	return nil
}

// TopologicalSort performs Kahn's algorithm over the node/edge set,
// giving both a construction-time acyclicity check and a deterministic
// execution order.
func (g *Graph) TopologicalSort() ([]string, error) {
	numNodes := len(g.order)
	if numNodes == 0 {
		return []string{}, nil
	}

	inDegree := make(map[string]int, numNodes)
	adjacency := make(map[string][]string, numNodes)
	for _, id := range g.order {
		inDegree[id] = 0
	}
	for i := range g.edges {
		edge := &g.edges[i]
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
		inDegree[edge.Target]++
	}

	orphanNodes := make([]string, 0, numNodes)
	for _, id := range g.order {
		if inDegree[id] == 0 {
			orphanNodes = append(orphanNodes, id)
		}
	}
	insertionSort(orphanNodes)

	queue := make([]string, numNodes)
	queueStart := 0
	queueEnd := len(orphanNodes)
	copy(queue, orphanNodes)

	order := make([]string, 0, numNodes)
	for queueStart < queueEnd {
		current := queue[queueStart]
		queueStart++
		order = append(order, current)

		neighbors := adjacency[current]
		for _, neighbor := range neighbors {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue[queueEnd] = neighbor
				queueEnd++
			}
		}
	}

	if len(order) != numNodes {
		return nil, ErrCycleDetected
	}
	return order, nil
}

// insertionSort sorts small string slices in place; faster than the
// standard library sort for the handful of zero in-degree nodes typical
// of a workflow graph.
func insertionSort(arr []string) {
	for i := 1; i < len(arr); i++ {
		key := arr[i]
		j := i - 1
		for j >= 0 && arr[j] > key {
			arr[j+1] = arr[j]
			j--
		}
		arr[j+1] = key
	}
}

// DetectCycles reports whether the graph contains a cycle.
func (g *Graph) DetectCycles() error {
	_, err := g.TopologicalSort()
	return err
}
