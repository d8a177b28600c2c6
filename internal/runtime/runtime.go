// SPDX-License-Identifier: MPL-2.0

// Package runtime executes module command scripts. Two runtimes exist: the
// native system shell and the virtual embedded interpreter (mvdan/sh). The
// configured default applies unless a command pins its own runtime.
package runtime

import (
	"context"
	"fmt"
	"io"
)

const (
	// NameNative is the system-shell runtime.
	NameNative = "native"
	// NameVirtual is the embedded-interpreter runtime.
	NameVirtual = "virtual"
)

type (
	// Spec describes one script execution.
	Spec struct {
		// Script is the shell script body.
		Script string
		// Dir is the working directory; empty means the process CWD.
		Dir string
		// Env holds extra environment variables (flag and argument
		// bindings), merged over the inherited environment.
		Env map[string]string
		// Args become the script's positional parameters ($1, $2, ...).
		Args []string

		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Result is the outcome of a script execution. A non-zero ExitCode
	// with a nil Err is a normal script failure, not a runtime failure.
	Result struct {
		ExitCode int
		Err      error
	}

	// Runner executes scripts for one runtime.
	Runner interface {
		Name() string
		Available() bool
		Run(ctx context.Context, spec Spec) Result
	}
)

// NotAvailableError reports a runtime that cannot run on this system.
type NotAvailableError struct {
	Runtime string
}

// Error implements the error interface.
func (e *NotAvailableError) Error() string {
	return fmt.Sprintf("runtime %q is not available on this system", e.Runtime)
}

// ExecError is a failure to run a script at all (command not found, bad
// permissions, syntax error), distinct from the script exiting non-zero.
type ExecError struct {
	Command string
	Err     error
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	return fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// ForName returns the runner for a runtime name; empty selects fallback.
func ForName(name, fallback string) (Runner, error) {
	if name == "" {
		name = fallback
	}
	switch name {
	case NameNative:
		return NewNativeRunner(), nil
	case NameVirtual:
		return NewVirtualRunner(), nil
	default:
		return nil, fmt.Errorf("unknown runtime %q (want %q or %q)", name, NameNative, NameVirtual)
	}
}

// envSlice flattens an env map into KEY=VALUE form.
func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
