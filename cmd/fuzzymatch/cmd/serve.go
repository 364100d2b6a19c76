package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/fuzzymatch/internal/logging"
	"github.com/Aman-CERP/fuzzymatch/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the match tools over the Model Context Protocol",
		Long: `Start an MCP server exposing two tools:
  match         rank records by similarity to a target
  index_status  report which field indices are built

Stdout carries the protocol only; logs go to the log file.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipLogging: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, transport)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport (stdio)")

	return cmd
}

func runServe(cmd *cobra.Command, transport string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, cleanup, err := logging.SetupServeMode(loggingConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()
	slog.SetDefault(logger)

	set, err := openMatchingSet(ctx, cfg, nil)
	if err != nil {
		logger.Error("serve_open_failed", slog.String("error", err.Error()))
		return err
	}
	defer func() { _ = set.Close() }()

	srv, err := mcp.NewServer(set, mcp.WithLogger(logger))
	if err != nil {
		return err
	}
	return srv.Serve(ctx, transport)
}
