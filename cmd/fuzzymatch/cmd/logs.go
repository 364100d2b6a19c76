package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/fuzzymatch/internal/logging"
	"github.com/Aman-CERP/fuzzymatch/internal/ui"
)

func newLogsCmd() *cobra.Command {
	var (
		lines   int
		follow  bool
		level   string
		pattern string
		file    string
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View the fuzzymatch log",
		Long: `Print the last lines of the log file, optionally following it.

Entries can be filtered by minimum level and by a regular expression
matched against the raw JSON line.`,
		Example: `  fuzzymatch logs -n 50
  fuzzymatch logs -f --level warn
  fuzzymatch logs --pattern 'create_.*'`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipLogging: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				if cfg, err := loadConfig(); err == nil {
					file = cfg.Logging.File
				}
			}
			path, err := logging.FindLogFile(file)
			if err != nil {
				return err
			}

			var re *regexp.Regexp
			if pattern != "" {
				if re, err = regexp.Compile(pattern); err != nil {
					return fmt.Errorf("invalid pattern: %w", err)
				}
			}

			viewer := logging.NewViewer(logging.ViewerConfig{
				Level:   level,
				Pattern: re,
				NoColor: noColor || ui.DetectNoColor() || !ui.IsTTY(cmd.OutOrStdout()),
			}, cmd.OutOrStdout())

			entries, err := viewer.Tail(path, lines)
			if err != nil {
				return err
			}
			viewer.Print(entries)
			if !follow {
				return nil
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			ch := make(chan logging.LogEntry, 64)
			errc := make(chan error, 1)
			go func() { errc <- viewer.Follow(ctx, path, ch) }()
			for {
				select {
				case entry := <-ch:
					viewer.Print([]logging.LogEntry{entry})
				case err := <-errc:
					return err
				}
			}
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow the log as it grows")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level: debug, info, warn, error")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Only show lines matching this regular expression")
	cmd.Flags().StringVar(&file, "file", "", "Log file (default: ~/.fuzzymatch/logs/fuzzymatch.log)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colors")

	return cmd
}
