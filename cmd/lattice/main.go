// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"lattice-cli/internal/exitcode"
	"lattice-cli/internal/issue"
)

// restartEnvVar counts consecutive install/restart cycles across the process
// chain. Each re-execution increments it; past exitcode.MaxRestarts a restart
// request becomes fatal.
const restartEnvVar = "LATTICE_RESTARTS"

func main() {
	code := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	if code == int(exitcode.Restart) {
		code = restartSelf()
	}
	os.Exit(code)
}

// shouldRestart reads the restart counter from the environment and decides
// whether another re-execution is permitted. When it is, next is the counter
// value to hand the child; when the ceiling is reached, next is the current
// count. An unparseable counter is treated as zero.
func shouldRestart(getenv func(string) string) (next int, ok bool) {
	restarts := 0
	if v := getenv(restartEnvVar); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			restarts = n
		}
	}
	if restarts >= exitcode.MaxRestarts {
		return restarts, false
	}
	return restarts + 1, true
}

// restartSelf re-executes the binary with the same arguments and a bumped
// restart counter, propagating the child's exit code. The child performs any
// further restarts itself, so one level of re-execution is enough here.
func restartSelf() int {
	next, ok := shouldRestart(os.Getenv)
	if !ok {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+
			fmt.Sprintf("dependency installation requested a restart %d times without converging", next+1))
		if rendered, err := issue.Get(issue.RestartLoopId).Render("dark"); err == nil {
			fmt.Fprint(os.Stderr, rendered)
		}
		return int(exitcode.InternalError)
	}

	exe, err := os.Executable()
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+
			fmt.Sprintf("cannot restart: failed to locate own executable: %v", err))
		return int(exitcode.InternalError)
	}

	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Env = append(os.Environ(), fmt.Sprintf("%s=%d", restartEnvVar, next))
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+
			fmt.Sprintf("restart failed: %v", err))
		return int(exitcode.InternalError)
	}
	return int(exitcode.Success)
}
