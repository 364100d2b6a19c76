package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/fuzzymatch/internal/match"
	"github.com/Aman-CERP/fuzzymatch/internal/table"
	"github.com/Aman-CERP/fuzzymatch/internal/ui"
)

func newCreateCmd() *cobra.Command {
	var (
		idColumn string
		noTUI    bool
	)

	cmd := &cobra.Command{
		Use:   "create <file>",
		Short: "Build the field indices from a CSV or JSON table",
		Long: `Build one encrypted index per configured field from a table of records.

The table is a CSV file with a header row, or a JSON array of objects.
Every configured field must be a column, as must the identity column.
Existing indices are replaced.

Use --no-tui for plain line-by-line progress.`,
		Example: `  # Index customers keyed by customer_id
  fuzzymatch create customers.csv --id-column customer_id

  # Plain output for scripts
  fuzzymatch create records.json --no-tui`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, args[0], idColumn, noTUI)
		},
	}

	cmd.Flags().StringVar(&idColumn, "id-column", "", "Identity column (default: id_column from config)")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Disable TUI mode, use plain text output")

	return cmd
}

func runCreate(cmd *cobra.Command, path, idColumn string, noTUI bool) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if idColumn == "" {
		idColumn = cfg.IDColumn
	}

	tbl, err := table.LoadFile(path)
	if err != nil {
		return err
	}
	slog.Info("create_file_loaded",
		slog.String("file", path),
		slog.Int("records", tbl.Len()),
		slog.String("id_column", idColumn))

	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(), ui.WithForcePlain(noTUI)))
	if err := renderer.Start(ctx, len(cfg.Fields)); err != nil {
		slog.Warn("failed to start progress renderer", slog.String("error", err.Error()))
	}
	defer func() { _ = renderer.Stop() }()

	failed := 0
	onProgress := func(p match.Progress) {
		if p.Err != nil {
			failed++
		}
		renderer.FieldDone(ui.FieldEvent{
			Field:     p.Field,
			Algorithm: p.Algorithm,
			Done:      p.Done,
			Total:     p.Total,
			Records:   p.Stats.Records,
			Indexed:   p.Stats.Indexed,
			Bytes:     p.Stats.Bytes,
			Duration:  p.Duration,
			Err:       p.Err,
		})
	}

	set, err := openMatchingSet(ctx, cfg, onProgress)
	if err != nil {
		return err
	}
	defer func() { _ = set.Close() }()

	start := time.Now()
	if err := set.Create(ctx, tbl, idColumn); err != nil {
		if failed > 0 {
			renderer.Complete(ui.Summary{Records: tbl.Len(), Fields: len(cfg.Fields), Failed: failed, Duration: time.Since(start)})
		}
		return fmt.Errorf("create failed: %w", err)
	}

	renderer.Complete(ui.Summary{
		Records:  tbl.Len(),
		Fields:   len(cfg.Fields),
		Duration: time.Since(start),
	})
	return nil
}
