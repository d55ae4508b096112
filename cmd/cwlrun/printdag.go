package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwl-core/cwlrun/pkg/loader"
	"github.com/cwl-core/cwlrun/pkg/logging"
	"github.com/cwl-core/cwlrun/pkg/runnable"
	"github.com/cwl-core/cwlrun/pkg/workflow"
	"github.com/cwl-core/cwlrun/pkg/wfError"
)

func newPrintDAGCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print-dag <document>",
		Short: "Load a Workflow document and print its node graph in topological order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.resolveConfig()
			logCfg := logging.DefaultConfig()
			if root.verbose {
				logCfg.Level = "debug"
			}
			ld := loader.New(cfg, loader.WithLogger(logging.New(logCfg)))

			r, err := ld.Load(args[0])
			if err != nil {
				return err
			}

			flow, ok := asFlow(r)
			if !ok {
				return wfError.New(wfError.KindUnknownClass, args[0], "", "document is not a Workflow, there is no step graph to print")
			}

			nodes, err := flow.Describe()
			if err != nil {
				return err
			}
			for _, n := range nodes {
				dep := "-"
				if len(n.Deps) > 0 {
					dep = strings.Join(n.Deps, ", ")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-6s %-30s <- %s\n", n.Kind, n.ID, dep)
			}
			return nil
		},
	}
	return cmd
}

// asFlow unwraps the scatter policy runnable.Wrap applies, returning the
// concrete *workflow.Flow underneath if the loaded document was a Workflow.
func asFlow(r runnable.Runnable) (*workflow.Flow, bool) {
	scatter, ok := r.(runnable.Scatter)
	if !ok {
		return nil, false
	}
	flow, ok := scatter.Body.(*workflow.Flow)
	return flow, ok
}
