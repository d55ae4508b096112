package main

import (
	"context"
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cwl-core/cwlrun/pkg/decode"
	"github.com/cwl-core/cwlrun/pkg/engine"
	"github.com/cwl-core/cwlrun/pkg/logging"
	"github.com/cwl-core/cwlrun/pkg/workflow"
)

type runOptions struct {
	docURL    string
	inputsURL string
	tui       bool
}

func newRunCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run <document>",
		Short: "Load and execute a document, printing its outputs as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.docURL = args[0]
			return runRun(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.inputsURL, "inputs", "", "path to a YAML/JSON document of input values")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "show a live progress view while the workflow executes")

	return cmd
}

func runRun(cmd *cobra.Command, root *rootFlags, opts runOptions) error {
	cfg := root.resolveConfig()
	logCfg := logging.DefaultConfig()
	if root.verbose {
		logCfg.Level = "debug"
	}
	log := logging.New(logCfg)

	inputs, err := readInputs(opts.inputsURL)
	if err != nil {
		return err
	}

	var program *tea.Program
	var progress workflow.ProgressFunc
	done := make(chan struct{})

	if opts.tui {
		model := newRunModel(opts.docURL)
		program = tea.NewProgram(model)
		progress = func(nodeID string, d, total int) {
			program.Send(nodeDoneMsg{nodeID: nodeID, done: d, total: total})
		}
		go func() {
			_, _ = program.Run()
			close(done)
		}()
	}

	eng := engine.New(
		engine.WithConfig(cfg),
		engine.WithLogger(log),
		engine.WithProgress(progress),
	)

	result, runErr := eng.Run(context.Background(), opts.docURL, inputs)

	if program != nil {
		program.Send(runFinishedMsg{err: runErr})
		<-done
	}
	if runErr != nil {
		return runErr
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"executionId": result.ExecutionID,
		"outputs":     result.Outputs,
		"durationMs":  result.Duration.Milliseconds(),
	})
}

func readInputs(path string) (map[string]interface{}, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := decode.Default().Decode(path)
	if err != nil {
		return nil, err
	}
	v, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("inputs document %s is not a mapping", path)
	}
	return v, nil
}
