// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestCatalogIsComplete(t *testing.T) {
	ids := []Id{
		ConfigLoadFailedId,
		ModuleNotFoundId,
		ModuleParseErrorId,
		DependencyInstallFailedId,
		RestartLoopId,
		DuplicateCommandId,
		RuntimeNotAvailableId,
		ScriptExecutionFailedId,
	}

	for _, id := range ids {
		if Get(id) == nil {
			t.Errorf("issue %d missing from the catalog", id)
		}
	}
	if len(Values()) != len(ids) {
		t.Errorf("expected %d issues, got %d", len(ids), len(Values()))
	}
}

func TestIssueRender(t *testing.T) {
	rendered, err := Get(ModuleNotFoundId).Render("notty")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(rendered, "Module not found") {
		t.Errorf("expected the heading in the output, got %q", rendered)
	}
}

func TestActionableErrorBuilder(t *testing.T) {
	cause := errors.New("no such file")
	err := NewErrorContext().
		WithOperation("load project config").
		WithResource(".lattice/config.cue").
		WithSuggestion("Run 'lattice init' to create one").
		Wrap(cause).
		BuildError()

	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ActionableError, got %T", err)
	}
	if !errors.Is(err, cause) {
		t.Error("expected the cause to unwrap")
	}

	msg := ae.Error()
	if !strings.Contains(msg, "load project config") || !strings.Contains(msg, ".lattice/config.cue") {
		t.Errorf("unexpected message %q", msg)
	}

	formatted := ae.Format(false)
	if !strings.Contains(formatted, "lattice init") {
		t.Errorf("expected the suggestion, got %q", formatted)
	}
	if strings.Contains(formatted, "Error chain") {
		t.Error("expected no chain outside verbose mode")
	}

	verbose := ae.Format(true)
	if !strings.Contains(verbose, "Error chain") || !strings.Contains(verbose, "no such file") {
		t.Errorf("expected the full chain in verbose mode, got %q", verbose)
	}
}

func TestBuildErrorWithoutOperation(t *testing.T) {
	if err := NewErrorContext().WithResource("x").BuildError(); err != nil {
		t.Errorf("expected nil without an operation, got %v", err)
	}
}
