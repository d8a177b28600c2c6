// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"lattice-cli/internal/modfile"
	"lattice-cli/internal/registry"
	"lattice-cli/internal/runtime"

	"github.com/spf13/cobra"
)

// runModuleCommand executes one module command's script. Declared flags are
// exported to the script as LATTICE_FLAG_<NAME> environment variables and
// positional arguments become the script's $1, $2, ...
func runModuleCommand(ctx context.Context, app *appState, entry *registry.Entry, cmd *cobra.Command, args []string) error {
	spec := entry.Command

	runner, err := runtime.ForName(spec.Runtime, app.cfg.Setting("runtime", runtime.NameVirtual))
	if err != nil {
		return err
	}
	if !runner.Available() {
		return &runtime.NotAvailableError{Runtime: runner.Name()}
	}

	env, err := flagEnv(cmd, spec.Flags)
	if err != nil {
		return err
	}

	app.logger.Debug("executing module command",
		"command", spec.Name, "module", entry.Module.Path, "runtime", runner.Name())

	result := runner.Run(ctx, runtime.Spec{
		Script: spec.Script,
		Dir:    app.cfg.ProjectRoot,
		Env:    env,
		Args:   args,
		Stdin:  os.Stdin,
		Stdout: app.stdout,
		Stderr: app.stderr,
	})
	if result.Err != nil {
		return &runtime.ExecError{Command: spec.Name, Err: result.Err}
	}
	if result.ExitCode != 0 {
		return &ExitError{Code: result.ExitCode}
	}
	return nil
}

// flagEnv extracts declared flag values from the parsed cobra command into
// environment variable form.
func flagEnv(cmd *cobra.Command, flags []modfile.Flag) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(flags))
	for _, fl := range flags {
		var val string
		switch fl.Type {
		case modfile.FlagBool:
			b, err := cmd.Flags().GetBool(fl.Name)
			if err != nil {
				return nil, err
			}
			val = fmt.Sprintf("%t", b)
		case modfile.FlagInt:
			n, err := cmd.Flags().GetInt(fl.Name)
			if err != nil {
				return nil, err
			}
			val = fmt.Sprintf("%d", n)
		default:
			s, err := cmd.Flags().GetString(fl.Name)
			if err != nil {
				return nil, err
			}
			val = s
		}
		env[flagEnvName(fl.Name)] = val
	}
	return env, nil
}

// flagEnvName maps a flag name to its exported variable: "dry-run" becomes
// LATTICE_FLAG_DRY_RUN.
func flagEnvName(name string) string {
	upper := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	return "LATTICE_FLAG_" + upper
}
