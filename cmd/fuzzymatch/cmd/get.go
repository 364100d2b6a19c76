package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/fuzzymatch/internal/output"
	"github.com/Aman-CERP/fuzzymatch/internal/table"
)

func newGetCmd() *cobra.Command {
	var (
		targets    []string
		targetJSON string
		format     string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Find the records most similar to a target",
		Long: `Rank the indexed records by similarity to a target record.

The target needs a value for every configured field, given either as
repeated --target field=value flags or as a JSON object with
--target-json (a file, or - for stdin).

Only records every field could score are returned, best first.`,
		Example: `  fuzzymatch get --target name="Bob Jones" --target joined_date=15-06-2021

  echo '{"name":"Bob Jones","joined_date":"15-06-2021"}' | fuzzymatch get --target-json - --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGet(cmd, targets, targetJSON, format, limit)
		},
	}

	cmd.Flags().StringArrayVarP(&targets, "target", "t", nil, "Target value as field=value (repeatable)")
	cmd.Flags().StringVar(&targetJSON, "target-json", "", "Target as a JSON object file, - for stdin")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most n matches (default: top_n)")

	return cmd
}

func runGet(cmd *cobra.Command, pairs []string, targetJSON, format string, limit int) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q: use text or json", format)
	}
	if limit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}

	target, err := readTarget(cmd.InOrStdin(), pairs, targetJSON)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	set, err := openMatchingSet(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = set.Close() }()

	start := time.Now()
	matches, err := set.Get(ctx, target)
	if err != nil {
		return err
	}
	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	slog.Info("get_complete",
		slog.Int("matches", len(matches)),
		slog.Duration("duration", time.Since(start)))

	out := output.New(cmd.OutOrStdout())
	if format == "json" {
		return out.MatchesJSON(matches)
	}
	out.Matches(matches, set.Fields())
	return nil
}

// readTarget builds the target from --target pairs or --target-json.
func readTarget(stdin io.Reader, pairs []string, targetJSON string) (map[string]string, error) {
	switch {
	case targetJSON != "" && len(pairs) > 0:
		return nil, fmt.Errorf("--target and --target-json are mutually exclusive")
	case targetJSON == "-":
		return table.ReadTargetJSON(stdin)
	case targetJSON != "":
		f, err := os.Open(targetJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to open target: %w", err)
		}
		defer func() { _ = f.Close() }()
		return table.ReadTargetJSON(f)
	case len(pairs) > 0:
		return table.ParseTarget(pairs)
	default:
		return nil, fmt.Errorf("a target is required: use --target field=value or --target-json")
	}
}
