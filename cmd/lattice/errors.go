// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"

	"lattice-cli/internal/config"
	"lattice-cli/internal/exitcode"
	"lattice-cli/internal/installer"
	"lattice-cli/internal/issue"
	"lattice-cli/internal/modfile"
	"lattice-cli/internal/registry"
	"lattice-cli/internal/resolver"
	"lattice-cli/internal/runtime"
)

// ExitError signals a non-zero exit code from a RunE handler without forcing
// os.Exit inside command logic.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// renderError writes a user-facing rendering of err to w and returns the
// process exit code. Known failure classes additionally get their glamour
// issue card; unknown failures get a hint to rerun with --debug.
func renderError(w io.Writer, err error, debug bool) int {
	code := exitCodeFor(err)

	var note *exitcode.Notification
	if errors.As(err, &note) {
		// Control signal, not a failure; nothing to render.
		return int(code)
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, debug))

	if id, ok := issueFor(err); ok {
		if rendered, rerr := issue.Get(id).Render("dark"); rerr == nil {
			fmt.Fprint(w, rendered)
		}
	}

	if code == int(exitcode.InternalError) && !debug {
		fmt.Fprintln(w, SubtitleStyle.Render("Rerun with --debug for the full error chain."))
	}
	return code
}

// formatErrorForDisplay prefers the ActionableError rendering when present;
// debug mode includes the full error chain.
func formatErrorForDisplay(err error, debug bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(debug)
	}
	return err.Error()
}

// exitCodeFor classifies an error into the exit code contract: restart
// notifications keep their own code, user and validation errors map to 1,
// everything unclassified maps to 2.
func exitCodeFor(err error) int {
	var note *exitcode.Notification
	if errors.As(err, &note) {
		return int(note.Code)
	}

	var (
		notFound    *resolver.NotFoundError
		parseErr    *modfile.ParseError
		installed   *installer.InstallError
		duplicate   *registry.DuplicateError
		notAvail    *runtime.NotAvailableError
		execFailure *runtime.ExecError
		exitErr     *ExitError
	)
	switch {
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.Is(err, config.ErrConfig),
		errors.As(err, &notFound),
		errors.As(err, &parseErr),
		errors.As(err, &installed),
		errors.As(err, &duplicate),
		errors.As(err, &notAvail),
		errors.As(err, &execFailure):
		return int(exitcode.UserError)
	}
	return int(exitcode.InternalError)
}

// issueFor maps known failure classes to their issue card.
func issueFor(err error) (issue.Id, bool) {
	var (
		notFound    *resolver.NotFoundError
		parseErr    *modfile.ParseError
		installed   *installer.InstallError
		duplicate   *registry.DuplicateError
		notAvail    *runtime.NotAvailableError
		execFailure *runtime.ExecError
	)
	switch {
	case errors.As(err, &notFound):
		return issue.ModuleNotFoundId, true
	case errors.As(err, &parseErr):
		return issue.ModuleParseErrorId, true
	case errors.As(err, &installed):
		return issue.DependencyInstallFailedId, true
	case errors.As(err, &duplicate):
		return issue.DuplicateCommandId, true
	case errors.As(err, &notAvail):
		return issue.RuntimeNotAvailableId, true
	case errors.As(err, &execFailure):
		return issue.ScriptExecutionFailedId, true
	case errors.Is(err, config.ErrConfig):
		return issue.ConfigLoadFailedId, true
	}
	return 0, false
}
