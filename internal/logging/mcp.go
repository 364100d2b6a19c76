package logging

import (
	"log/slog"
)

// SetupServeMode initializes logging for the MCP server.
// Logs go ONLY to the file: stdout carries JSON-RPC and any stray write
// corrupts the protocol stream.
func SetupServeMode(cfg Config) (*slog.Logger, func(), error) {
	cfg.WriteToStderr = false
	if cfg.FilePath == "" {
		cfg.FilePath = DefaultLogPath()
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("serve_logging_initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))

	return logger, cleanup, nil
}
