// Package runnable defines the shared Runnable contract every loaded
// document variant (CommandLineTool, ExpressionTool, Workflow) exposes,
// and the implicit-scatter wrapper that sits in front of each variant's
// own execution body.
package runnable

import (
	"fmt"

	"github.com/cwl-core/cwlrun/pkg/value"
	"github.com/cwl-core/cwlrun/pkg/wfError"
)

// Runnable is the contract every loaded document exposes to its caller.
type Runnable interface {
	Run(inputs map[string]interface{}) (map[string]interface{}, error)
}

// Body is the variant-specific execution logic the scatter wrapper
// drives. CommandLineTool, ExpressionTool and Workflow each implement
// Body and are exposed to callers only as the wrapped Runnable Scatter
// produces.
type Body interface {
	// RunOnce executes the body once against a non-scattered input
	// mapping (the variant's own `_run`).
	RunOnce(inputs map[string]interface{}) (map[string]interface{}, error)
	// InputDepth returns the declared nesting depth for a bare input
	// port name, and whether that port is declared at all (undeclared
	// ports default to depth 0 but are not compared).
	InputDepth(port string) (depth int, declared bool)
	// URL identifies the document the body was loaded from, used to
	// annotate errors.
	URL() string
}

// Scatter wraps a Body with the implicit depth-based scatter policy of
// spec §4.3: a single level of over-nesting on at most one input port is
// expanded into a per-element invocation and the results re-aggregated.
type Scatter struct {
	Body Body
	// MaxWidth caps the number of elements a single scatter will fan out
	// over; 0 means unlimited.
	MaxWidth int
}

// Wrap returns the Runnable a loader hands to callers: Body's RunOnce
// behind the scatter policy, bounded to maxWidth elements (0 = unlimited).
func Wrap(b Body, maxWidth int) Runnable {
	return Scatter{Body: b, MaxWidth: maxWidth}
}

// Run implements Runnable.
func (s Scatter) Run(inputs map[string]interface{}) (map[string]interface{}, error) {
	type mismatch struct {
		port     string
		expected int
		actual   int
	}

	var over []mismatch
	var under []mismatch
	for port, v := range inputs {
		expected, declared := s.Body.InputDepth(port)
		if !declared {
			continue
		}
		actual := value.Depth(v)
		switch {
		case actual > expected:
			over = append(over, mismatch{port, expected, actual})
		case actual < expected:
			under = append(under, mismatch{port, expected, actual})
		}
	}

	if len(over) == 0 && len(under) == 0 {
		return s.Body.RunOnce(inputs)
	}

	if len(under) > 0 {
		return nil, wfError.New(wfError.KindUnderNested, s.Body.URL(), under[0].port,
			fmt.Sprintf("input has depth %d, less than declared depth %d", under[0].actual, under[0].expected))
	}

	if len(over) > 1 {
		ports := make([]string, len(over))
		for i, m := range over {
			ports[i] = m.port
		}
		return nil, wfError.New(wfError.KindScatterAmbiguous, s.Body.URL(), "",
			fmt.Sprintf("more than one over-nested input port: %v", ports))
	}

	m := over[0]
	if m.actual-m.expected != 1 {
		return nil, wfError.New(wfError.KindScatterUnsupported, s.Body.URL(), m.port,
			fmt.Sprintf("input is over-nested by %d levels, only one level of scatter is supported", m.actual-m.expected))
	}

	seq, _ := value.AsSequence(inputs[m.port])
	if s.MaxWidth > 0 && len(seq) > s.MaxWidth {
		return nil, wfError.New(wfError.KindScatterUnsupported, s.Body.URL(), m.port,
			fmt.Sprintf("scatter width %d exceeds the configured limit of %d", len(seq), s.MaxWidth))
	}
	results := make([]map[string]interface{}, len(seq))
	for i, elem := range seq {
		scattered := make(map[string]interface{}, len(inputs))
		for k, v := range inputs {
			scattered[k] = v
		}
		scattered[m.port] = elem
		r, err := s.Body.RunOnce(scattered)
		if err != nil {
			return nil, err
		}
		results[i] = r
	}

	keys := make(map[string]bool)
	for _, r := range results {
		for k := range r {
			keys[k] = true
		}
	}
	aggregated := make(map[string]interface{}, len(keys))
	for k := range keys {
		col := make([]interface{}, len(results))
		for i, r := range results {
			col[i] = r[k]
		}
		aggregated[k] = col
	}
	return aggregated, nil
}
