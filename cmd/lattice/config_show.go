// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// newConfigCommand returns the `config` command group with its `show`
// subcommand. It is project-independent: without a project it shows the
// defaults that apply.
func newConfigCommand(app *appState) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the lattice configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration for this invocation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(app)
		},
	}

	configCmd.AddCommand(showCmd)
	return configCmd
}

func showConfig(app *appState) error {
	cfg := app.cfg
	out := app.stdout

	fmt.Fprintln(out, TitleStyle.Render("Resolved configuration"))
	fmt.Fprintln(out)

	if cfg.ProjectPresent {
		fmt.Fprintf(out, "  %-14s %s\n", "project:", CmdStyle.Render(cfg.ProjectRoot))
	} else {
		fmt.Fprintf(out, "  %-14s %s\n", "project:", SubtitleStyle.Render("(none; defaults only)"))
	}
	fmt.Fprintf(out, "  %-14s %s\n", "home:", cfg.HomeDir)
	fmt.Fprintf(out, "  %-14s %s\n", "log level:", cfg.LogLevel)
	fmt.Fprintf(out, "  %-14s %s\n", "log format:", string(cfg.LogFormat))
	fmt.Fprintf(out, "  %-14s %s\n", "color:", string(cfg.Color))
	fmt.Fprintf(out, "  %-14s %v\n", "debug:", cfg.Debug)
	fmt.Fprintf(out, "  %-14s %v\n", "quiet:", cfg.Quiet)
	fmt.Fprintf(out, "  %-14s %v\n", "silent:", cfg.Silent)

	if len(cfg.Modules) > 0 {
		fmt.Fprintf(out, "  %-14s %s\n", "modules:", strings.Join(cfg.Modules, ", "))
	}
	if len(cfg.Dependencies) > 0 {
		fmt.Fprintf(out, "  %-14s %s\n", "dependencies:", strings.Join(cfg.Dependencies, ", "))
	}

	if len(cfg.Settings) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, TitleStyle.Render("Settings"))
		fmt.Fprintln(out)
		keys := make([]string, 0, len(cfg.Settings))
		for k := range cfg.Settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "  %-14s %v\n", k+":", cfg.Settings[k])
		}
	}

	for _, warning := range cfg.Warnings {
		fmt.Fprintln(out)
		fmt.Fprintln(out, WarningStyle.Render("Warning: ")+warning)
	}

	return nil
}
