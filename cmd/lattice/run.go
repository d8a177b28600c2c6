// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"io"
	"os"

	"lattice-cli/internal/bootstrap"
	"lattice-cli/internal/config"
	"lattice-cli/internal/exitcode"
	"lattice-cli/internal/installer"
	"lattice-cli/internal/logging"
	"lattice-cli/internal/registry"
	"lattice-cli/internal/resolver"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// run drives one invocation through the fixed phase order: bootstrap parse,
// config resolution, dependency check, module resolution, tree build, cobra
// dispatch. It is the only place errors are mapped to process exit codes;
// inner phases return errors (or a restart Notification) and never exit.
func run(ctx context.Context, rawArgs []string, stdout, stderr io.Writer) int {
	opts := bootstrap.Parse(rawArgs, os.Getenv)
	bootstrap.Trace("bootstrap parsed: debug=%v root=%q help=%v version=%v",
		opts.Debug, opts.Root, opts.Help, opts.Version)

	cfg, err := config.Resolve(opts, os.Getenv)
	if err != nil {
		return renderError(stderr, err, opts.Debug)
	}

	applyColorMode(cfg.Color)

	logger := logging.New(cfg, stderr)
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	// Dependency phase. Help and version must answer without installing
	// anything, and without a project there is nothing to install.
	helpish := opts.Help || opts.Version
	if cfg.ProjectPresent && !helpish {
		if _, err := installer.Ensure(ctx, cfg, logger); err != nil {
			// A restart Notification unwinds here untouched; renderError
			// passes its code through silently.
			return renderError(stderr, err, cfg.Debug)
		}
	}

	tree := &registry.Tree{}
	var descriptors []*resolver.Descriptor
	if cfg.ProjectPresent {
		descriptors, err = resolver.ResolveAll(cfg)
		if err == nil {
			tree, err = registry.BuildTree(descriptors)
		}
		if err != nil {
			if !helpish {
				return renderError(stderr, err, cfg.Debug)
			}
			// Help must stay reachable even when modules are broken.
			logger.Warn("module loading failed; showing builtins only", "err", err)
			tree = &registry.Tree{}
		}
	}

	err = executeRoot(ctx, &appState{
		cfg:         cfg,
		tree:        tree,
		descriptors: descriptors,
		logger:      logger,
		stdout:      stdout,
		stderr:      stderr,
	}, rawArgs)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		var note *exitcode.Notification
		if errors.As(err, &note) {
			return int(note.Code)
		}
		// fang already rendered the error.
		return int(exitcode.UserError)
	}
	return int(exitcode.Success)
}

// applyColorMode forces the lipgloss color profile for explicit modes; auto
// leaves terminal detection alone.
func applyColorMode(mode config.ColorMode) {
	switch mode {
	case config.ColorNever:
		lipgloss.SetColorProfile(termenv.Ascii)
	case config.ColorAlways:
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}
