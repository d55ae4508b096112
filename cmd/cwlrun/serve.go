package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwl-core/cwlrun/pkg/engine"
	"github.com/cwl-core/cwlrun/pkg/logging"
	"github.com/cwl-core/cwlrun/pkg/server"
	"github.com/cwl-core/cwlrun/pkg/telemetry"
)

type serveOptions struct {
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func newServeCmd(root *rootFlags) *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an HTTP server exposing /v1/run, /v1/validate, /health and /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "server address")
	cmd.Flags().DurationVar(&opts.readTimeout, "read-timeout", 30*time.Second, "HTTP read timeout")
	cmd.Flags().DurationVar(&opts.writeTimeout, "write-timeout", 30*time.Second, "HTTP write timeout")

	return cmd
}

func runServe(root *rootFlags, opts serveOptions) error {
	cfg := root.resolveConfig()
	logCfg := logging.DefaultConfig()
	if root.verbose {
		logCfg.Level = "debug"
	}
	log := logging.New(logCfg)

	tel, err := telemetry.NewProvider(context.Background(), telemetry.DefaultConfig())
	if err != nil {
		return fmt.Errorf("starting telemetry: %w", err)
	}

	eng := engine.New(engine.WithConfig(cfg), engine.WithLogger(log), engine.WithTelemetry(tel))

	srvCfg := server.DefaultConfig()
	srvCfg.Address = opts.addr
	srvCfg.ReadTimeout = opts.readTimeout
	srvCfg.WriteTimeout = opts.writeTimeout
	srv := server.New(srvCfg, eng, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() { errChan <- srv.Start() }()

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		ctx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
		return tel.Shutdown(ctx)
	}
}
