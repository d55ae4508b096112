// Package exprtool implements the ExpressionTool variant: a Runnable
// body whose execution is delegated entirely to the sandbox.
package exprtool

import (
	"fmt"

	"github.com/cwl-core/cwlrun/pkg/config"
	"github.com/cwl-core/cwlrun/pkg/runnable"
	"github.com/cwl-core/cwlrun/pkg/sandbox"
	"github.com/cwl-core/cwlrun/pkg/wfError"
)

// Tool is the ExpressionTool body: spec §4.4.
type Tool struct {
	url        string
	source     string
	eval       sandbox.Evaluator
	inputs     []runnable.Port
	depths     map[string]int
	defaults   map[string]interface{}
}

// New parses a normalized ExpressionTool document into a Tool, wrapped in
// the shared implicit-scatter Runnable. cfg may be nil, in which case
// config.Default()'s guardrails apply.
func New(doc map[string]interface{}, url string, eval sandbox.Evaluator, cfg *config.Config) (runnable.Runnable, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	expr, _ := doc["expression"].(map[string]interface{})
	source, _ := expr["value"].(string)
	if source == "" {
		return nil, wfError.New(wfError.KindMalformedDocument, url, "", "ExpressionTool is missing expression.value")
	}

	var inputs []runnable.Port
	if raw, ok := doc["inputs"].([]interface{}); ok {
		inputs = runnable.ParsePorts(raw)
	}

	t := &Tool{
		url:      url,
		source:   source,
		eval:     eval,
		inputs:   inputs,
		depths:   runnable.DepthIndex(inputs),
		defaults: runnable.DefaultsIndex(inputs),
	}
	return runnable.Wrap(t, cfg.MaxScatterWidth), nil
}

// URL implements runnable.Body.
func (t *Tool) URL() string { return t.url }

// InputDepth implements runnable.Body.
func (t *Tool) InputDepth(port string) (int, bool) {
	d, ok := t.depths[port]
	return d, ok
}

// RunOnce implements runnable.Body: builds the {"inputs": inputs} context
// and hands the tool's expression source to the sandbox.
func (t *Tool) RunOnce(inputs map[string]interface{}) (map[string]interface{}, error) {
	merged := make(map[string]interface{}, len(inputs)+len(t.defaults))
	for k, v := range t.defaults {
		merged[k] = v
	}
	for k, v := range inputs {
		merged[k] = v
	}

	evalCtx := map[string]interface{}{"inputs": merged}
	result, err := t.eval.Eval(evalCtx, t.source)
	if err != nil {
		return nil, wfError.Wrap(wfError.KindExpressionFailure, t.url, "",
			fmt.Sprintf("evaluating %q: %s", t.source, err), err)
	}

	out, ok := result.(map[string]interface{})
	if !ok {
		if result == nil {
			return map[string]interface{}{}, nil
		}
		return nil, wfError.New(wfError.KindExpressionFailure, t.url, "",
			fmt.Sprintf("expression %q did not evaluate to an output mapping, got %T", t.source, result))
	}
	return out, nil
}
