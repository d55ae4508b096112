// Package sandbox implements the engine's `eval(context, source) → Value`
// collaborator: a wall-clock-bounded, read-only expression evaluator
// backed by expr-lang/expr.
package sandbox

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator is the sandbox collaborator contract of spec §4.4.1.
type Evaluator interface {
	// Eval compiles and runs source against evalCtx (already shaped as
	// the caller wants it exposed, e.g. {"inputs": inputs}) and returns
	// the decoded result Value.
	Eval(evalCtx map[string]interface{}, source string) (interface{}, error)
}

// ExprEvaluator is the default Evaluator, backed by expr-lang/expr with a
// hard wall-clock timeout.
type ExprEvaluator struct {
	timeout time.Duration

	mu    sync.Mutex
	cache map[string]*vm.Program
}

// NewExprEvaluator returns an ExprEvaluator bounded by timeout.
func NewExprEvaluator(timeout time.Duration) *ExprEvaluator {
	return &ExprEvaluator{timeout: timeout, cache: make(map[string]*vm.Program)}
}

type evalResult struct {
	value interface{}
	err   error
}

// Eval implements Evaluator. Execution happens on a worker goroutine so a
// runaway expression can be abandoned at the deadline instead of blocking
// the caller forever; the spec does not require reclaiming that
// goroutine's resources, only that the caller stop waiting on it.
func (e *ExprEvaluator) Eval(evalCtx map[string]interface{}, source string) (interface{}, error) {
	body := wrapSource(source)
	env := e.buildEnvironment(evalCtx)

	program, err := e.compile(body, env)
	if err != nil {
		return nil, fmt.Errorf("compiling expression: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	resultCh := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- evalResult{nil, fmt.Errorf("expression panicked: %v", r)}
			}
		}()
		out, runErr := expr.Run(program, env)
		resultCh <- evalResult{out, runErr}
	}()

	select {
	case r := <-resultCh:
		if r.err != nil {
			return nil, fmt.Errorf("running expression: %w", r.err)
		}
		return r.value, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("expression exceeded %s timeout", e.timeout)
	}
}

func (e *ExprEvaluator) compile(body string, env map[string]interface{}) (*vm.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p, ok := e.cache[body]; ok {
		return p, nil
	}
	program, err := expr.Compile(body, expr.Env(env))
	if err != nil {
		return nil, err
	}
	e.cache[body] = program
	return program, nil
}

// wrapSource applies the §4.4.1 source-shaping rule. A snippet already
// beginning with "{" is a self-contained map-literal expression and is
// used verbatim. expr-lang has no separate "statement body" form the way
// the reference sandbox's host language does, so the "wrapped as
// { return (snippet); }" rule is honored in spirit rather than letter:
// a bare expression is parenthesized so it evaluates as a single value
// regardless of any operators it contains.
func wrapSource(source string) string {
	trimmed := strings.TrimSpace(source)
	if strings.HasPrefix(trimmed, "{") {
		return trimmed
	}
	return "(" + trimmed + ")"
}

func (e *ExprEvaluator) buildEnvironment(evalCtx map[string]interface{}) map[string]interface{} {
	env := make(map[string]interface{}, len(evalCtx)+16)
	for k, v := range evalCtx {
		env[k] = v
	}
	addHelpers(env)
	return env
}

// addHelpers installs the fixed preamble of helper functions available to
// every expression: string, math and array utilities in the style of a
// small standard library, since expr-lang's builtins cover only the
// basics.
func addHelpers(env map[string]interface{}) {
	env["contains"] = strings.Contains
	env["startsWith"] = strings.HasPrefix
	env["endsWith"] = strings.HasSuffix
	env["upper"] = strings.ToUpper
	env["lower"] = strings.ToLower
	env["trim"] = strings.TrimSpace
	env["split"] = strings.Split
	env["replace"] = strings.ReplaceAll
	env["join"] = func(arr []interface{}, sep string) string {
		parts := make([]string, len(arr))
		for i, v := range arr {
			parts[i] = fmt.Sprintf("%v", v)
		}
		return strings.Join(parts, sep)
	}

	env["pow"] = math.Pow
	env["sqrt"] = math.Sqrt
	env["round"] = math.Round
	env["floor"] = math.Floor
	env["ceil"] = math.Ceil
	env["abs"] = math.Abs

	env["first"] = func(arr []interface{}) interface{} {
		if len(arr) == 0 {
			return nil
		}
		return arr[0]
	}
	env["last"] = func(arr []interface{}) interface{} {
		if len(arr) == 0 {
			return nil
		}
		return arr[len(arr)-1]
	}
	env["reverse"] = func(arr []interface{}) []interface{} {
		out := make([]interface{}, len(arr))
		for i, v := range arr {
			out[len(arr)-1-i] = v
		}
		return out
	}
	env["flatten"] = func(arr []interface{}) []interface{} {
		var out []interface{}
		var rec func([]interface{})
		rec = func(items []interface{}) {
			for _, item := range items {
				if sub, ok := item.([]interface{}); ok {
					rec(sub)
				} else {
					out = append(out, item)
				}
			}
		}
		rec(arr)
		return out
	}
}
