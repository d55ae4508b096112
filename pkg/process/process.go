// Package process implements the CommandLineTool variant: building a job
// record, invoking build_argv, running the resulting command line in a
// fresh working directory, and collecting outputs (spec §4.5).
package process

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/cwl-core/cwlrun/pkg/argv"
	"github.com/cwl-core/cwlrun/pkg/config"
	"github.com/cwl-core/cwlrun/pkg/logging"
	"github.com/cwl-core/cwlrun/pkg/runnable"
	"github.com/cwl-core/cwlrun/pkg/telemetry"
	"github.com/cwl-core/cwlrun/pkg/value"
	"github.com/cwl-core/cwlrun/pkg/wfError"
)

const resultFileName = "result.cwl.json"
const jobFileName = "job.cwl.json"

// Tool is the CommandLineTool body.
type Tool struct {
	url     string
	doc     map[string]interface{}
	builder argv.Builder
	cfg     *config.Config
	logger  *logging.Logger
	tel     *telemetry.Provider

	inputs   []runnable.Port
	outputs  []runnable.Port
	depths   map[string]int
	defaults map[string]interface{}
}

// Option configures optional Tool collaborators.
type Option func(*Tool)

// WithBuilder overrides the default build_argv collaborator.
func WithBuilder(b argv.Builder) Option { return func(t *Tool) { t.builder = b } }

// WithLogger attaches a logger used for the tool's debug command trace.
func WithLogger(l *logging.Logger) Option { return func(t *Tool) { t.logger = l } }

// WithTelemetry attaches a telemetry provider for process-execution metrics.
func WithTelemetry(p *telemetry.Provider) Option { return func(t *Tool) { t.tel = p } }

// New parses a normalized CommandLineTool document into a Tool, wrapped
// in the shared implicit-scatter Runnable.
func New(doc map[string]interface{}, url string, cfg *config.Config, opts ...Option) (runnable.Runnable, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	var inputs, outputs []runnable.Port
	if raw, ok := doc["inputs"].([]interface{}); ok {
		inputs = runnable.ParsePorts(raw)
	}
	if raw, ok := doc["outputs"].([]interface{}); ok {
		outputs = runnable.ParsePorts(raw)
	}

	t := &Tool{
		url:      url,
		doc:      doc,
		builder:  argv.DefaultBuilder{},
		cfg:      cfg,
		logger:   logging.New(logging.DefaultConfig()),
		inputs:   inputs,
		outputs:  outputs,
		depths:   runnable.DepthIndex(inputs),
		defaults: runnable.DefaultsIndex(inputs),
	}
	for _, opt := range opts {
		opt(t)
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

// RunOnce implements runnable.Body.
func (t *Tool) RunOnce(inputs map[string]interface{}) (map[string]interface{}, error) {
	start := time.Now()
	merged := make(map[string]interface{}, len(inputs)+len(t.defaults))
	for k, v := range t.defaults {
		merged[k] = v
	}
	for k, v := range inputs {
		merged[k] = v
	}

	job := map[string]interface{}{
		"inputs": merged,
		"allocatedResources": map[string]interface{}{
			"cpu": t.cfg.DefaultCPU,
			"mem": t.cfg.DefaultMem,
		},
	}

	result, err := t.run(job)
	success := err == nil
	if t.tel != nil {
		t.tel.RecordProcessExecution(context.Background(), t.url, time.Since(start), success)
	}
	return result, err
}

func (t *Tool) run(job map[string]interface{}) (map[string]interface{}, error) {
	built, err := t.builder.Build(t.doc, job)
	if err != nil {
		return nil, wfError.Wrap(wfError.KindProcessFailed, t.url, "", "building argv", err)
	}

	line := argv.ShellJoin(built.Argv)
	if built.Stdin != "" {
		line += " < " + built.Stdin
	}
	if built.Stdout != "" {
		line += " > " + built.Stdout
	}

	workDir, err := os.MkdirTemp(t.cfg.WorkDirRoot, "cwl-")
	if err != nil {
		return nil, wfError.Wrap(wfError.KindProcessFailed, t.url, "", "creating working directory", err)
	}

	jobBytes, err := json.Marshal(job)
	if err != nil {
		return nil, wfError.Wrap(wfError.KindProcessFailed, t.url, "", "marshaling job record", err)
	}
	if err := os.WriteFile(filepath.Join(workDir, jobFileName), jobBytes, 0o644); err != nil {
		return nil, wfError.Wrap(wfError.KindProcessFailed, t.url, "", "writing job.cwl.json", err)
	}

	t.logger.Debug().Str("tool", t.url).Str("cmd", line).Msg("executing process")

	cmd := exec.Command("sh", "-c", line)
	cmd.Dir = workDir
	if err := cmd.Run(); err != nil {
		return nil, wfError.Wrap(wfError.KindProcessFailed, t.url, "", fmt.Sprintf("process exited non-zero: %s", line), err)
	}

	if selfDescribed, ok, err := readResultFile(workDir); err != nil {
		return nil, wfError.Wrap(wfError.KindProcessFailed, t.url, "", "decoding result.cwl.json", err)
	} else if ok {
		return selfDescribed, nil
	}

	return t.collectOutputs(workDir)
}

func readResultFile(workDir string) (map[string]interface{}, bool, error) {
	path := filepath.Join(workDir, resultFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var v map[string]interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (t *Tool) collectOutputs(workDir string) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(t.outputs))
	for _, out := range t.outputs {
		binding := out.OutputBinding
		typ := out.Type
		if binding == nil {
			if typeMap, ok := typ.(map[string]interface{}); ok {
				if ob, ok := typeMap["outputBinding"].(map[string]interface{}); ok {
					binding = ob
				}
			}
		}
		if binding == nil {
			continue
		}
		glob, _ := binding["glob"].(string)
		if glob == "" {
			continue
		}

		matches, err := filepath.Glob(filepath.Join(workDir, glob))
		if err != nil {
			return nil, wfError.Wrap(wfError.KindProcessFailed, t.url, out.ID, "evaluating output glob", err)
		}

		bareName := runnable.BareName(out.ID)
		switch {
		case isFileType(typ):
			if len(matches) == 0 {
				continue
			}
			abs, err := filepath.Abs(matches[0])
			if err != nil {
				return nil, wfError.Wrap(wfError.KindProcessFailed, t.url, out.ID, "resolving output path", err)
			}
			result[bareName] = value.NewFile(abs)
		case isArrayType(typ):
			files := make([]interface{}, 0, len(matches))
			for _, m := range matches {
				abs, err := filepath.Abs(m)
				if err != nil {
					return nil, wfError.Wrap(wfError.KindProcessFailed, t.url, out.ID, "resolving output path", err)
				}
				files = append(files, value.NewFile(abs))
			}
			result[bareName] = files
		}
	}
	return result, nil
}

func isFileType(typ interface{}) bool {
	if s, ok := typ.(string); ok {
		return s == "File"
	}
	if m, ok := typ.(map[string]interface{}); ok {
		s, _ := m["type"].(string)
		return s == "File"
	}
	return false
}

func isArrayType(typ interface{}) bool {
	m, ok := typ.(map[string]interface{})
	if !ok {
		return false
	}
	s, _ := m["type"].(string)
	return s == "array"
}
