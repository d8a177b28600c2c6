// SPDX-License-Identifier: MPL-2.0

// The lattice binary assembles a namespaced CLI from the command modules a
// project declares, installing missing shared dependencies on the way and
// restarting itself (bounded) once they are available.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"lattice-cli/internal/config"
	"lattice-cli/internal/issue"
	"lattice-cli/internal/modfile"
	"lattice-cli/internal/registry"
	"lattice-cli/internal/resolver"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// appState bundles everything the cobra handlers need for one invocation.
type appState struct {
	cfg         *config.ResolvedConfig
	tree        *registry.Tree
	descriptors []*resolver.Descriptor
	logger      *log.Logger
	stdout      io.Writer
	stderr      io.Writer
}

// reservedNames are builtin command names module commands may not shadow.
var reservedNames = map[string]bool{
	"init":       true,
	"config":     true,
	"modules":    true,
	"help":       true,
	"completion": true,
}

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// executeRoot builds the cobra tree and runs it through fang.
func executeRoot(ctx context.Context, app *appState, rawArgs []string) error {
	root := newRootCommand(app)
	root.SetArgs(rawArgs)
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	return fang.Execute(
		ctx,
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
}

func newRootCommand(app *appState) *cobra.Command {
	root := &cobra.Command{
		Use:   "lattice",
		Short: "A dynamically extensible CLI assembled from command modules",
		Long: TitleStyle.Render("lattice") + SubtitleStyle.Render(" - a dynamically extensible CLI framework") + `

lattice builds its command tree from declarative module files: local ones
under ` + CmdStyle.Render(".lattice/modules/") + ` and shared packages installed into ~/.lattice/pkg.
Missing dependencies listed in the project config are installed on demand,
after which lattice restarts itself to pick them up.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run 'lattice init' in your project directory
  2. Declare commands in .lattice/modules/*.cue
  3. Run them with: lattice <group> <command>`,
		SilenceErrors: false,
	}

	// Bootstrap already consumed these semantically; cobra declares them so
	// they parse, show in help, and are rejected nowhere.
	flags := root.PersistentFlags()
	flags.BoolP("debug", "d", false, "enable debug output and full error chains")
	flags.BoolP("quiet", "q", false, "only log warnings and errors")
	flags.BoolP("silent", "s", false, "suppress all log output")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (pretty, json)")
	flags.String("color", "", "color mode (auto, always, never)")
	flags.Bool("no-color", false, "disable color output")
	flags.String("root", "", "project root directory (skips the upward marker search)")

	root.AddCommand(newInitCommand(app))
	root.AddCommand(newConfigCommand(app))
	root.AddCommand(newModulesCommand(app))

	bindTree(root, app)

	return root
}

// bindTree attaches the registry tree to the root command: one parent command
// per group, leaves for every module command.
func bindTree(root *cobra.Command, app *appState) {
	for _, entry := range app.tree.TopLevel {
		if reservedNames[entry.Command.Name] {
			app.logger.Warn("module command shadows a builtin; skipping",
				"command", entry.Command.Name, "module", entry.Module.Path)
			continue
		}
		root.AddCommand(buildLeafCommand(app, entry))
	}

	for _, group := range app.tree.Groups {
		if reservedNames[group.Name] {
			app.logger.Warn("module group shadows a builtin; skipping",
				"group", group.Name)
			continue
		}

		short := group.Description
		if short == "" {
			short = fmt.Sprintf("Commands from the %q module group", group.Name)
		}
		groupCmd := &cobra.Command{
			Use:   group.Name,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return cmd.Help()
			},
		}
		for _, entry := range group.Commands {
			groupCmd.AddCommand(buildLeafCommand(app, entry))
		}
		root.AddCommand(groupCmd)
	}
}

// buildLeafCommand creates the cobra command for one module command,
// declaring its typed flags and positional argument hints.
func buildLeafCommand(app *appState, entry *registry.Entry) *cobra.Command {
	spec := entry.Command

	leaf := &cobra.Command{
		Use:   buildUseString(&spec),
		Short: spec.Description,
		Long:  fmt.Sprintf("Run the %q command from %s", spec.Name, entry.Module.Path),
		Args:  buildArgsValidator(&spec),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runModuleCommand(cmd.Context(), app, entry, cmd, args)
			if err != nil {
				var exitErr *ExitError
				if errors.As(err, &exitErr) {
					cmd.SilenceErrors = true
					cmd.SilenceUsage = true
					return err
				}
				// An execution failure is not a usage mistake; show the
				// matching issue card instead of the flag summary.
				cmd.SilenceUsage = true
				if id, ok := issueFor(err); ok {
					if rendered, rerr := issue.Get(id).Render("dark"); rerr == nil {
						fmt.Fprint(app.stderr, rendered)
					}
				}
			}
			return err
		},
	}

	for _, fl := range spec.Flags {
		registerFlag(leaf.Flags(), fl)
		if fl.Required {
			_ = leaf.MarkFlagRequired(fl.Name)
		}
	}
	if len(spec.Args) > 0 {
		leaf.Long += "\n\nArguments:\n" + buildArgsDocumentation(spec.Args)
	}

	return leaf
}

func registerFlag(fs *pflag.FlagSet, fl modfile.Flag) {
	switch fl.Type {
	case modfile.FlagBool:
		def := fl.Default == "true"
		if fl.Short != "" {
			fs.BoolP(fl.Name, fl.Short, def, fl.Description)
		} else {
			fs.Bool(fl.Name, def, fl.Description)
		}
	case modfile.FlagInt:
		def := 0
		if fl.Default != "" {
			_, _ = fmt.Sscanf(fl.Default, "%d", &def)
		}
		if fl.Short != "" {
			fs.IntP(fl.Name, fl.Short, def, fl.Description)
		} else {
			fs.Int(fl.Name, def, fl.Description)
		}
	default:
		if fl.Short != "" {
			fs.StringP(fl.Name, fl.Short, fl.Default, fl.Description)
		} else {
			fs.String(fl.Name, fl.Default, fl.Description)
		}
	}
}

// buildUseString renders the cobra Use line including argument placeholders.
func buildUseString(spec *modfile.Command) string {
	if spec.Usage != "" {
		return spec.Usage
	}
	parts := []string{spec.Name}
	for _, arg := range spec.Args {
		switch {
		case arg.Variadic && arg.Required:
			parts = append(parts, fmt.Sprintf("<%s>...", arg.Name))
		case arg.Variadic:
			parts = append(parts, fmt.Sprintf("[%s]...", arg.Name))
		case arg.Required:
			parts = append(parts, fmt.Sprintf("<%s>", arg.Name))
		default:
			parts = append(parts, fmt.Sprintf("[%s]", arg.Name))
		}
	}
	return strings.Join(parts, " ")
}

func buildArgsDocumentation(args []modfile.Arg) string {
	var lines []string
	for _, arg := range args {
		status := "(optional)"
		if arg.Required {
			status = "(required)"
		}
		variadic := ""
		if arg.Variadic {
			variadic = " (variadic)"
		}
		lines = append(lines, fmt.Sprintf("  %-20s %s%s - %s", arg.Name, status, variadic, arg.Description))
	}
	return strings.Join(lines, "\n")
}

// buildArgsValidator enforces declared positional arity. Commands without
// argument hints accept anything for backward compatibility.
func buildArgsValidator(spec *modfile.Command) cobra.PositionalArgs {
	if len(spec.Args) == 0 {
		return cobra.ArbitraryArgs
	}

	minArgs := 0
	variadic := false
	for _, arg := range spec.Args {
		if arg.Required {
			minArgs++
		}
		if arg.Variadic {
			variadic = true
		}
	}
	if variadic {
		return cobra.MinimumNArgs(minArgs)
	}
	return cobra.RangeArgs(minArgs, len(spec.Args))
}
