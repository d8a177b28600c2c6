// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"lattice-cli/internal/config"

	"github.com/spf13/cobra"
)

const starterConfig = `// lattice project configuration.
// Modules listed here are loaded in order; dependencies name shared packages
// that get installed on demand.

modules: [
	"./hello",
]

dependencies: []

log_level: "info"
color:     "auto"
`

const starterModule = `// Example lattice module. Delete or extend freely.

module: {
	group:       "hello"
	description: "Starter commands created by lattice init"
}

commands: [
	{
		name:        "world"
		description: "Print a friendly greeting"
		script:      "echo \"hello from lattice\""
	},
]
`

// newInitCommand scaffolds a fresh project: the marker directory, a starter
// config, and one example module. It works without an existing project.
func newInitCommand(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a .lattice project in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			markerDir := filepath.Join(wd, config.MarkerDirName)
			configPath := filepath.Join(markerDir, config.ConfigFileName)
			modulePath := filepath.Join(markerDir, config.ModulesDirName, "hello.cue")

			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists; not overwriting", configPath)
			}

			if err := os.MkdirAll(filepath.Join(markerDir, config.ModulesDirName), 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", markerDir, err)
			}
			if err := os.WriteFile(configPath, []byte(starterConfig), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", configPath, err)
			}
			if err := os.WriteFile(modulePath, []byte(starterModule), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", modulePath, err)
			}

			fmt.Fprintln(app.stdout, SuccessStyle.Render("✓")+" Created "+CmdStyle.Render(configPath))
			fmt.Fprintln(app.stdout, SuccessStyle.Render("✓")+" Created "+CmdStyle.Render(modulePath))
			fmt.Fprintln(app.stdout)
			fmt.Fprintln(app.stdout, SubtitleStyle.Render("Try it:")+" lattice hello world")
			return nil
		},
	}
}
