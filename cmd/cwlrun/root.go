package main

import (
	"github.com/spf13/cobra"

	"github.com/cwl-core/cwlrun/pkg/config"
)

type rootFlags struct {
	profile string
	verbose bool
}

func (f *rootFlags) resolveConfig() *config.Config {
	switch f.profile {
	case "development":
		return config.Development()
	case "testing":
		return config.Testing()
	case "production":
		return config.Production()
	default:
		return config.Default()
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "cwlrun",
		Short:         "Load and execute CWL-like workflow documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.profile, "profile", "default",
		"config profile: default, development, testing, production")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newValidateCmd(flags))
	cmd.AddCommand(newPrintDAGCmd(flags))
	cmd.AddCommand(newServeCmd(flags))

	return cmd
}
