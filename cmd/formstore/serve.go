package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/formstore/internal/errors"
	"github.com/vango-dev/formstore/pkg/ingest"
	"github.com/vango-dev/formstore/pkg/server"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the upload server",
		Long: `Start the HTTP upload server.

Routes:
  POST /upload    multipart/form-data upload
  GET  /healthz   liveness probe
  GET  /metrics   Prometheus metrics

Examples:
  formstore serve
  formstore serve --addr=:9000
  formstore serve --config=formstore.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")

	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, addr string) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	logger := cfg.Log.NewLogger(os.Stderr)

	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pipelineConfig, err := cfg.PipelineConfig()
	if err != nil {
		return err
	}
	pipeline, err := ingest.New(pipelineConfig, backend,
		ingest.WithLogger(logger),
		ingest.WithMetrics(ingest.NewMetrics(ingest.WithRegistry(registry))),
	)
	if err != nil {
		return errors.New("E202").Wrap(err)
	}

	srv := server.New(pipeline, cfg.HTTPServer(),
		server.WithLogger(logger),
		server.WithRegistry(registry),
	)

	success("Serving uploads on %s (%s storage)", cfg.Server.Addr, cfg.Storage.Backend)
	if cfg.Path() != "" {
		info("Config: %s", cfg.Path())
	}

	if err := srv.Run(ctx); err != nil {
		return errors.New("E303").Wrap(err)
	}
	return nil
}
