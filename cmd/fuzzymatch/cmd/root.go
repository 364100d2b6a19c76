// Package cmd provides the CLI commands for fuzzymatch.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/fuzzymatch/internal/config"
	fmerrors "github.com/Aman-CERP/fuzzymatch/internal/errors"
	"github.com/Aman-CERP/fuzzymatch/internal/logging"
	"github.com/Aman-CERP/fuzzymatch/internal/match"
	"github.com/Aman-CERP/fuzzymatch/internal/profiling"
	"github.com/Aman-CERP/fuzzymatch/pkg/version"
)

// skipLogging marks commands that set up logging themselves or need none.
const skipLogging = "skip-logging"

// Global flags
var (
	projectDir     string
	configPath     string
	debugMode      bool
	loggingCleanup func()
)

// Profiling flags
var (
	profilePaths profiling.Paths
	profile      *profiling.Session
)

// NewRootCmd creates the root command for the fuzzymatch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fuzzymatch",
		Short: "Multi-attribute fuzzy record matching",
		Long: `fuzzymatch finds the records most similar to a target record.

Each configured field is scored by its own algorithm: string distance,
vector similarity, date proximity or a null scorer. A record matches
only when every field can score it, and matches are ranked by the sum of
the weighted field scores. Field indices are stored encrypted.

Start with 'fuzzymatch config init', then 'fuzzymatch create <file>'.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("fuzzymatch version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "Project directory")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: .fuzzymatch.yaml in --dir)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to stderr and the log file")

	cmd.PersistentFlags().StringVar(&profilePaths.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profilePaths.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profilePaths.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newInfoCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		_, _ = fmt.Fprint(os.Stderr, fmerrors.FormatForCLI(err))
	}
	return err
}

// startProfilingAndLogging starts any requested profiles and routes slog
// to the configured log file. The config is loaded leniently so a broken
// file still gets logged.
func startProfilingAndLogging(cmd *cobra.Command, _ []string) error {
	if profilePaths.Enabled() {
		session, err := profiling.Start(profilePaths)
		if err != nil {
			return err
		}
		profile = session
	}

	if cmd.Annotations[skipLogging] == "true" {
		return nil
	}

	logCfg := loggingConfig(nil)
	if cfg, err := loadConfig(); err == nil {
		logCfg = loggingConfig(cfg)
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Debug("command_started",
		slog.String("command", cmd.CommandPath()),
		slog.String("version", version.Version))
	return nil
}

func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profile != nil {
		err = profile.Stop()
		profile = nil
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// loggingConfig derives the logging setup from cfg (nil means defaults).
func loggingConfig(cfg *config.Config) logging.Config {
	lc := logging.DefaultConfig()
	if cfg != nil {
		if cfg.Logging.Level != "" {
			lc.Level = cfg.Logging.Level
		}
		if cfg.Logging.File != "" {
			lc.FilePath = cfg.Logging.File
		}
		if cfg.Logging.MaxSizeMB > 0 {
			lc.MaxSizeMB = cfg.Logging.MaxSizeMB
		}
		if cfg.Logging.MaxFiles > 0 {
			lc.MaxFiles = cfg.Logging.MaxFiles
		}
	}
	if debugMode {
		lc.Level = "debug"
		lc.WriteToStderr = true
	}
	return lc
}

// loadConfig loads the configuration for --dir, honoring --config.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(projectDir, configPath)
	}
	return config.Load(projectDir)
}

// openMatchingSet opens the matching set described by cfg.
func openMatchingSet(ctx context.Context, cfg *config.Config, onProgress func(match.Progress)) (*match.MatchingSet, error) {
	key, err := cfg.EncryptionKey()
	if err != nil {
		return nil, err
	}
	return match.New(ctx, match.Options{
		TopN:          cfg.TopN,
		Fields:        cfg.ScorerSettings(),
		EncryptionKey: key,
		StoragePath:   cfg.Storage.Path,
		Workers:       cfg.Performance.Workers,
		Logger:        slog.Default(),
		OnProgress:    onProgress,
	})
}

// signalContext cancels on Ctrl+C or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
