// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRunner executes scripts with the embedded mvdan/sh interpreter. It
// is always available and behaves the same on every platform, which makes it
// the default runtime for module commands.
type VirtualRunner struct{}

// NewVirtualRunner creates a virtual runner.
func NewVirtualRunner() *VirtualRunner {
	return &VirtualRunner{}
}

// Name returns the runtime name.
func (r *VirtualRunner) Name() string { return NameVirtual }

// Available always reports true; the interpreter is built in.
func (r *VirtualRunner) Available() bool { return true }

// Run parses and interprets the script.
func (r *VirtualRunner) Run(ctx context.Context, spec Spec) Result {
	prog, err := syntax.NewParser().Parse(strings.NewReader(spec.Script), "script")
	if err != nil {
		return Result{ExitCode: 1, Err: fmt.Errorf("script syntax error: %w", err)}
	}

	env := append(os.Environ(), envSlice(spec.Env)...)

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(spec.Stdin, spec.Stdout, spec.Stderr),
	}
	if spec.Dir != "" {
		opts = append(opts, interp.Dir(spec.Dir))
	}
	if len(spec.Args) > 0 {
		opts = append(opts, interp.Params(append([]string{"--"}, spec.Args...)...))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return Result{ExitCode: 1, Err: fmt.Errorf("failed to create interpreter: %w", err)}
	}

	if err := runner.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return Result{ExitCode: int(status)}
		}
		return Result{ExitCode: 1, Err: err}
	}
	return Result{}
}
