// Package argv implements the engine's `build_argv(tool_doc, job) →
// (argv, stdin, stdout)` collaborator: turning a CommandLineTool
// document and a job record into an argument vector and optional
// redirection targets.
package argv

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cwl-core/cwlrun/pkg/value"
)

// Result is the collaborator's return tuple.
type Result struct {
	Argv   []string
	Stdin  string // "" if unset
	Stdout string // "" if unset
}

// Builder is the build_argv collaborator contract of spec §6.
type Builder interface {
	Build(tool map[string]interface{}, job map[string]interface{}) (Result, error)
}

// DefaultBuilder assembles argv from baseCmd, arguments and
// inputBindings: baseCmd forms the command name, then every argument/
// binding entry is placed by its declared position (stable, ties broken
// by declaration order), each drawing its value from the job's inputs
// when it names one.
type DefaultBuilder struct{}

type placed struct {
	position int
	tokens   []string
}

// Build implements Builder.
func (DefaultBuilder) Build(tool map[string]interface{}, job map[string]interface{}) (Result, error) {
	inputs, _ := job["inputs"].(map[string]interface{})

	argv := stringList(tool["baseCmd"])

	var entries []placed
	for i, raw := range sliceOf(tool["arguments"]) {
		switch a := raw.(type) {
		case string:
			entries = append(entries, placed{position: 1000 + i, tokens: []string{a}})
		case map[string]interface{}:
			pos, _ := intOf(a["position"])
			literal, _ := a["valueFrom"].(string)
			if literal != "" {
				entries = append(entries, placed{position: pos*10000 + i, tokens: []string{literal}})
			}
		}
	}
	for i, raw := range sliceOf(tool["inputBindings"]) {
		b, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := b["input"].(string)
		if name == "" {
			continue
		}
		v, present := inputs[name]
		if !present || v == nil {
			continue
		}
		pos, _ := intOf(b["position"])
		prefix, _ := b["prefix"].(string)
		tokens := stringifyValueTokens(v)
		if prefix != "" {
			tokens = append([]string{prefix}, tokens...)
		}
		entries = append(entries, placed{position: pos*10000 + i, tokens: tokens})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].position < entries[j].position })
	for _, e := range entries {
		argv = append(argv, e.tokens...)
	}

	result := Result{Argv: argv}
	if name, ok := tool["stdin"].(string); ok && name != "" {
		if v, present := inputs[name]; present {
			result.Stdin = pathOf(v)
		}
	}
	if name, ok := tool["stdout"].(string); ok && name != "" {
		if v, present := inputs[name]; present {
			result.Stdout = pathOf(v)
		}
	}
	return result, nil
}

// ShellJoin composes argv into a shell command line, single-quoting any
// token that needs it. The reference implementation joins argv with a
// bare space and performs no escaping at all; an implementation that
// shell-escapes tokens while preserving the same observable argv is the
// documented, safer deviation (see repo design notes).
func ShellJoin(argv []string) string {
	quoted := make([]string, len(argv))
	for i, tok := range argv {
		quoted[i] = shellQuote(tok)
	}
	return strings.Join(quoted, " ")
}

func shellQuote(tok string) string {
	if tok != "" && !strings.ContainsAny(tok, " \t\n'\"\\$`!*?[](){}|&;<>~#") {
		return tok
	}
	return "'" + strings.ReplaceAll(tok, "'", `'\''`) + "'"
}

func stringifyValueTokens(v interface{}) []string {
	if seq, ok := value.AsSequence(v); ok {
		tokens := make([]string, 0, len(seq))
		for _, e := range seq {
			tokens = append(tokens, stringify(e))
		}
		return tokens
	}
	return []string{stringify(v)}
}

func stringify(v interface{}) string {
	if value.IsFile(v) {
		return value.FilePath(v)
	}
	return fmt.Sprintf("%v", v)
}

func pathOf(v interface{}) string {
	if value.IsFile(v) {
		return value.FilePath(v)
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func sliceOf(v interface{}) []interface{} {
	seq, _ := value.AsSequence(v)
	return seq
}

func stringList(v interface{}) []string {
	var out []string
	for _, e := range sliceOf(v) {
		out = append(out, fmt.Sprintf("%v", e))
	}
	return out
}

func intOf(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
