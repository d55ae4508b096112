// Package workflow implements the Workflow variant: eager DAG
// construction from ports/steps/links at load time, and the round-based
// ready-set scheduler that drives execution (spec §4.6).
package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/cwl-core/cwlrun/pkg/config"
	"github.com/cwl-core/cwlrun/pkg/graph"
	"github.com/cwl-core/cwlrun/pkg/logging"
	"github.com/cwl-core/cwlrun/pkg/runnable"
	"github.com/cwl-core/cwlrun/pkg/telemetry"
	"github.com/cwl-core/cwlrun/pkg/wfError"
)

// Loader resolves a step's impl URL (relative to the workflow's own
// origin url) into a Runnable. pkg/loader supplies this so workflow
// never has to import it back (loader already imports workflow to
// instantiate the Workflow variant).
type Loader func(implURL, parentURL string) (runnable.Runnable, error)

// Flow is the Workflow body: spec §4.6.
type Flow struct {
	url    string
	g      *graph.Graph
	outs   []string // bare output names, in declaration order
	depths map[string]int

	logger   *telemetry.Provider
	log      *logging.Logger
	progress ProgressFunc
}

// ProgressFunc observes one scheduler step: nodeID is the node that just
// finished, done/total count nodes executed so far against the graph's
// total node count. A caller uses this to drive a live progress display.
type ProgressFunc func(nodeID string, done, total int)

// Option configures optional Flow collaborators.
type Option func(*Flow)

// WithTelemetry attaches a telemetry provider for workflow/node metrics.
func WithTelemetry(p *telemetry.Provider) Option { return func(f *Flow) { f.logger = p } }

// WithLogger attaches a logger for execution tracing.
func WithLogger(l *logging.Logger) Option { return func(f *Flow) { f.log = l } }

// WithProgress attaches a callback invoked once per node the scheduler
// completes, in execution order.
func WithProgress(p ProgressFunc) Option { return func(f *Flow) { f.progress = p } }

// New parses a normalized Workflow document, recursively loads every
// step's implementation via load, and builds the execution graph.
// Construction fails immediately if the graph is not acyclic, or exceeds
// cfg's node/edge guardrails. cfg may be nil, in which case
// config.Default()'s guardrails apply.
func New(doc map[string]interface{}, url string, load Loader, cfg *config.Config, opts ...Option) (runnable.Runnable, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	f := &Flow{
		url:    url,
		g:      graph.New(),
		depths: make(map[string]int),
		log:    logging.New(logging.DefaultConfig()),
	}
	f.g.SetLimits(cfg.MaxGraphNodes, cfg.MaxGraphEdges)
	for _, opt := range opts {
		opt(f)
	}

	var inputPorts, outputPorts []runnable.Port
	if raw, ok := doc["inputs"].([]interface{}); ok {
		inputPorts = runnable.ParsePorts(raw)
	}
	if raw, ok := doc["outputs"].([]interface{}); ok {
		outputPorts = runnable.ParsePorts(raw)
	}

	for _, p := range inputPorts {
		f.g.UpsertPortNode(p.ID, p.Depth, p.Value)
		f.depths[runnable.BareName(p.ID)] = p.Depth
	}

	for _, p := range outputPorts {
		f.g.UpsertPortNode(p.ID, p.Depth, nil)
		f.outs = append(f.outs, runnable.BareName(p.ID))
		for _, link := range p.Links {
			f.g.AddEdge(link.Source, p.ID, link.Position)
		}
	}

	steps, _ := doc["steps"].([]interface{})
	for _, raw := range steps {
		stepDoc, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		stepID, _ := stepDoc["id"].(string)
		implURL, _ := stepDoc["impl"].(string)

		impl, err := load(implURL, url)
		if err != nil {
			return nil, err
		}
		f.g.UpsertStepNode(stepID, runnerAdapter{impl})

		var stepInputs, stepOutputs []runnable.Port
		if raw, ok := stepDoc["inputs"].([]interface{}); ok {
			stepInputs = runnable.ParsePorts(raw)
		}
		if raw, ok := stepDoc["outputs"].([]interface{}); ok {
			stepOutputs = runnable.ParsePorts(raw)
		}

		for _, p := range stepInputs {
			f.g.UpsertPortNode(p.ID, p.Depth, p.Value)
			f.g.AddEdge(p.ID, stepID, 0)
			for _, link := range p.Links {
				f.g.AddEdge(link.Source, p.ID, link.Position)
			}
		}
		for _, p := range stepOutputs {
			f.g.UpsertPortNode(p.ID, p.Depth, nil)
			f.g.AddEdge(stepID, p.ID, 0)
		}
	}

	if err := f.g.Finalize(); err != nil {
		kind := wfError.KindCycleDetected
		if errors.Is(err, graph.ErrTooManyNodes) || errors.Is(err, graph.ErrTooManyEdges) {
			kind = wfError.KindMalformedDocument
		}
		return nil, wfError.Wrap(kind, url, "", "constructing workflow graph", err)
	}

	return runnable.Wrap(f, cfg.MaxScatterWidth), nil
}

// runnerAdapter satisfies graph.Runner for a loaded step Runnable.
type runnerAdapter struct{ r runnable.Runnable }

func (a runnerAdapter) Run(inputs map[string]interface{}) (map[string]interface{}, error) {
	return a.r.Run(inputs)
}

// DescribedNode is one node of a Flow's graph, for introspection callers
// (e.g. a `print-dag` CLI command) that have no business touching the
// scheduler's internal *graph.Node.
type DescribedNode struct {
	ID   string
	Kind string
	Deps []string
}

// Describe reports the Flow's graph in topological order: each node's id,
// kind (port or step), and the ids of the nodes that feed it.
func (f *Flow) Describe() ([]DescribedNode, error) {
	order, err := f.g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	out := make([]DescribedNode, 0, len(order))
	for _, id := range order {
		n := f.g.GetNode(id)
		var deps []string
		for _, e := range f.g.InEdges(id) {
			deps = append(deps, e.Source)
		}
		out = append(out, DescribedNode{ID: n.ID, Kind: n.Kind.String(), Deps: deps})
	}
	return out, nil
}

// URL implements runnable.Body.
func (f *Flow) URL() string { return f.url }

// InputDepth implements runnable.Body.
func (f *Flow) InputDepth(port string) (int, bool) {
	d, ok := f.depths[port]
	return d, ok
}

// RunOnce implements runnable.Body: seeds workflow input port values,
// drives the scheduler to completion, then projects declared outputs.
func (f *Flow) RunOnce(inputs map[string]interface{}) (map[string]interface{}, error) {
	start := time.Now()

	for _, n := range f.g.Nodes() {
		n.Status = graph.StatusPending
		n.Result = nil
	}
	for k, v := range inputs {
		if n := f.g.GetNode("#" + k); n != nil {
			n.Val = v
		}
	}

	total := len(f.g.Nodes())
	executed := 0
	for {
		node := f.nextReady()
		if node == nil {
			break
		}
		if err := f.execute(node); err != nil {
			if f.logger != nil {
				f.logger.RecordWorkflowExecution(context.Background(), f.url, time.Since(start), false, executed)
			}
			return nil, err
		}
		executed++
		if f.progress != nil {
			f.progress(node.ID, executed, total)
		}
	}

	result := make(map[string]interface{}, len(f.outs))
	for _, name := range f.outs {
		n := f.g.GetNode("#" + name)
		result[name] = n.Result
	}

	if f.logger != nil {
		f.logger.RecordWorkflowExecution(context.Background(), f.url, time.Since(start), true, executed)
	}
	return result, nil
}

// nextReady scans nodes in stable graph-iteration order and returns the
// first one with no status whose predecessors are all done.
func (f *Flow) nextReady() *graph.Node {
	for _, n := range f.g.Nodes() {
		if n.Status != graph.StatusPending {
			continue
		}
		ready := true
		for _, e := range f.g.InEdges(n.ID) {
			pred := f.g.GetNode(e.Source)
			if pred.Status != graph.StatusDone {
				ready = false
				break
			}
		}
		if ready {
			return n
		}
	}
	return nil
}

// execute computes a node's composed input value (make_val, spec
// §4.6.3), marks it running, runs it, and marks it done.
func (f *Flow) execute(n *graph.Node) error {
	start := time.Now()
	n.Val = f.makeVal(n)
	n.Status = graph.StatusRunning

	var err error
	if n.Kind == graph.PortNode {
		n.Result = n.Val
	} else {
		var out map[string]interface{}
		in, _ := n.Val.(map[string]interface{})
		out, err = n.Impl.Run(in)
		if err == nil {
			n.Result = out
		}
	}
	n.Status = graph.StatusDone

	if f.logger != nil {
		f.logger.RecordNodeExecution(context.Background(), n.ID, time.Since(start), err == nil)
	}
	if f.log != nil {
		f.log.WithNode(n.ID).Debug().Bool("success", err == nil).Msg("node executed")
	}
	return err
}

// makeVal implements the value composition table of spec §4.6.3.
func (f *Flow) makeVal(n *graph.Node) interface{} {
	pre := f.g.InEdges(n.ID)
	if len(pre) == 0 {
		return n.Val
	}

	if n.Kind == graph.PortNode && len(pre) == 1 {
		predNode := f.g.GetNode(pre[0].Source)
		if predNode.Kind == graph.PortNode {
			return predNode.Result
		}
		out, _ := predNode.Result.(map[string]interface{})
		return out[runnable.BareName(n.ID)]
	}

	if n.Kind == graph.PortNode && len(pre) > 1 {
		seq := make([]interface{}, len(pre))
		for i, e := range pre {
			seq[i] = f.g.GetNode(e.Source).Result
		}
		return seq
	}

	// n is a step: mapping of last_segment(p.id) -> p.result.
	composed := make(map[string]interface{}, len(pre))
	for _, e := range pre {
		predNode := f.g.GetNode(e.Source)
		composed[runnable.BareName(predNode.ID)] = predNode.Result
	}
	return composed
}
