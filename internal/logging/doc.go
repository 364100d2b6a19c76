// Package logging provides structured JSON logging for fuzzymatch with
// size-based rotation under ~/.fuzzymatch/logs/.
//
// CLI commands log to the file and stderr. The serve command logs to the
// file only, since stdout carries the MCP protocol stream.
package logging
