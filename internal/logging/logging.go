// SPDX-License-Identifier: MPL-2.0

// Package logging builds the process logger from the resolved configuration.
// The logger is constructed exactly once by the dispatcher and handed down
// as an explicit parameter; earlier phases (bootstrap, config) predate it
// and use the bootstrap trace function instead.
package logging

import (
	"io"

	"lattice-cli/internal/config"

	"github.com/charmbracelet/log"
)

// New creates the logger for this invocation. Precedence among the verbosity
// switches: silent discards everything, quiet raises the floor to warn,
// debug lowers it to debug, otherwise the configured level applies.
func New(cfg *config.ResolvedConfig, w io.Writer) *log.Logger {
	if cfg.Silent {
		w = io.Discard
	}

	level := log.InfoLevel
	if parsed, err := log.ParseLevel(cfg.LogLevel); err == nil {
		level = parsed
	}
	if cfg.Debug {
		level = log.DebugLevel
	}
	if cfg.Quiet && level < log.WarnLevel {
		level = log.WarnLevel
	}

	formatter := log.TextFormatter
	if cfg.LogFormat == config.LogFormatJSON {
		formatter = log.JSONFormatter
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: cfg.LogFormat == config.LogFormatJSON,
	})
}
