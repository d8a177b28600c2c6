// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newModulesCommand lists the resolved modules with their origin and group.
// It is project-aware: without a project there is nothing to list.
func newModulesCommand(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List resolved command modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.cfg.ProjectPresent {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("No project found; run 'lattice init' to create one."))
				return nil
			}
			if len(app.descriptors) == 0 {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("No modules configured. Add specifiers to the 'modules' list in .lattice/config.cue."))
				return nil
			}

			fmt.Fprintln(app.stdout, TitleStyle.Render("Modules"))
			fmt.Fprintln(app.stdout)
			for _, desc := range app.descriptors {
				group, grouped := desc.GroupName()
				scope := "top level"
				if grouped {
					scope = "group " + group
				}
				fmt.Fprintf(app.stdout, "  %s %s\n",
					CmdStyle.Render(desc.Specifier),
					SubtitleStyle.Render(fmt.Sprintf("[%s, %s, %d commands]", desc.Origin, scope, len(desc.File.Commands))))
				fmt.Fprintf(app.stdout, "    %s\n", SubtitleStyle.Render(desc.Path))
			}
			return nil
		},
	}
}
