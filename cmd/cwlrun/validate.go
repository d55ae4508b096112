package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwl-core/cwlrun/pkg/loader"
	"github.com/cwl-core/cwlrun/pkg/logging"
)

func newValidateCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Load a document without executing it, reporting any load error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.resolveConfig()
			logCfg := logging.DefaultConfig()
			if root.verbose {
				logCfg.Level = "debug"
			}
			ld := loader.New(cfg, loader.WithLogger(logging.New(logCfg)))

			if _, err := ld.Load(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", args[0])
			return nil
		},
	}
	return cmd
}
