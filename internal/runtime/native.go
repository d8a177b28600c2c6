// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
)

// NativeRunner executes scripts with the system's default shell.
type NativeRunner struct {
	// Shell overrides shell detection when set.
	Shell string
}

// NewNativeRunner creates a native runner.
func NewNativeRunner() *NativeRunner {
	return &NativeRunner{}
}

// Name returns the runtime name.
func (r *NativeRunner) Name() string { return NameNative }

// Available reports whether a usable shell was found.
func (r *NativeRunner) Available() bool {
	_, err := r.shell()
	return err == nil
}

// Run executes the script via `<shell> -c`.
func (r *NativeRunner) Run(ctx context.Context, spec Spec) Result {
	shell, err := r.shell()
	if err != nil {
		return Result{ExitCode: 1, Err: err}
	}

	args := append(shellArgs(shell), spec.Script)
	if len(spec.Args) > 0 {
		// POSIX: first arg after the script becomes $0.
		args = append(args, "lattice")
		args = append(args, spec.Args...)
	}

	cmd := exec.CommandContext(ctx, shell, args...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), envSlice(spec.Env)...)
	cmd.Stdin = spec.Stdin
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return Result{ExitCode: exitErr.ExitCode()}
		}
		return Result{ExitCode: 1, Err: fmt.Errorf("failed to execute script: %w", err)}
	}
	return Result{}
}

// shell finds the shell to use: configured, $SHELL, then common fallbacks.
func (r *NativeRunner) shell() (string, error) {
	if r.Shell != "" {
		return r.Shell, nil
	}

	if goruntime.GOOS == "windows" {
		if pwsh, err := exec.LookPath("pwsh"); err == nil {
			return pwsh, nil
		}
		if ps, err := exec.LookPath("powershell"); err == nil {
			return ps, nil
		}
		return exec.LookPath("cmd")
	}

	if shell := os.Getenv("SHELL"); shell != "" {
		return shell, nil
	}
	if bash, err := exec.LookPath("bash"); err == nil {
		return bash, nil
	}
	if sh, err := exec.LookPath("sh"); err == nil {
		return sh, nil
	}
	return "", fmt.Errorf("no shell found")
}

func shellArgs(shell string) []string {
	base := strings.TrimSuffix(filepath.Base(shell), ".exe")
	switch base {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-Command"}
	default:
		return []string{"-c"}
	}
}
