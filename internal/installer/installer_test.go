// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"lattice-cli/internal/config"
	"lattice-cli/internal/exitcode"
	"lattice-cli/internal/testutil"

	"github.com/charmbracelet/log"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// fakeInstaller writes an executable script standing in for the external
// install command and returns its path.
func fakeInstaller(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake installer scripts are POSIX only")
	}
	path := filepath.Join(t.TempDir(), "fake-installer")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("failed to write fake installer: %v", err)
	}
	return path
}

func testConfig(t *testing.T, deps []string, installerCmd string) *config.ResolvedConfig {
	t.Helper()
	home := t.TempDir()
	testutil.MustMkdirAll(t, home, 0o755)
	return &config.ResolvedConfig{
		HomeDir:      home,
		Dependencies: deps,
		Settings:     map[string]any{"installer": installerCmd},
	}
}

func TestEnsureNoDependencies(t *testing.T) {
	cfg := testConfig(t, nil, "unused")

	outcome, err := Ensure(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != OutcomeNoop {
		t.Errorf("expected noop, got %s", outcome.Kind)
	}
}

func TestEnsureAllAlreadyInstalled(t *testing.T) {
	cfg := testConfig(t, []string{"tools", "extras"}, "unused")

	manifest := NewManifest()
	manifest.Record("tools", "x", time.Now())
	manifest.Record("extras", "x", time.Now())
	if err := manifest.Save(cfg.HomeDir); err != nil {
		t.Fatalf("failed to seed manifest: %v", err)
	}

	outcome, err := Ensure(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("expected a silent noop, got %v", err)
	}
	if outcome.Kind != OutcomeNoop {
		t.Errorf("expected noop, got %s", outcome.Kind)
	}
}

func TestEnsureInstallsAndRequestsRestart(t *testing.T) {
	installerCmd := fakeInstaller(t, "exit 0")
	cfg := testConfig(t, []string{"tools"}, installerCmd)

	outcome, err := Ensure(context.Background(), cfg, testLogger())
	if err == nil {
		t.Fatal("expected a restart notification")
	}

	var note *exitcode.Notification
	if !errors.As(err, &note) {
		t.Fatalf("expected Notification, got %T: %v", err, err)
	}
	if note.Code != exitcode.Restart {
		t.Errorf("expected restart code %d, got %d", exitcode.Restart, note.Code)
	}
	if note.Reason != exitcode.ReasonRestartRequired {
		t.Errorf("expected restart-required reason, got %s", note.Reason)
	}
	if outcome.Kind != OutcomeInstalled {
		t.Errorf("expected installed outcome, got %s", outcome.Kind)
	}
	if len(outcome.State.Attempted) != 1 || outcome.State.Attempted[0] != "tools" {
		t.Errorf("expected tools attempted, got %+v", outcome.State)
	}

	manifest, err := LoadManifest(cfg.HomeDir)
	if err != nil {
		t.Fatalf("failed to reload manifest: %v", err)
	}
	if !manifest.Has("tools") {
		t.Error("expected tools recorded in the manifest")
	}

	// The second invocation sees a complete manifest: no restart, no loop.
	outcome, err = Ensure(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("expected the second pass to be a noop, got %v", err)
	}
	if outcome.Kind != OutcomeNoop {
		t.Errorf("expected noop on second pass, got %s", outcome.Kind)
	}
}

func TestEnsureInstallFailure(t *testing.T) {
	installerCmd := fakeInstaller(t, "echo 'package not found' >&2\nexit 1")
	cfg := testConfig(t, []string{"ghost-pkg"}, installerCmd)

	outcome, err := Ensure(context.Background(), cfg, testLogger())
	if err == nil {
		t.Fatal("expected an install failure")
	}

	var installErr *InstallError
	if !errors.As(err, &installErr) {
		t.Fatalf("expected InstallError, got %T: %v", err, err)
	}
	if len(installErr.Specifiers) != 1 || installErr.Specifiers[0] != "ghost-pkg" {
		t.Errorf("expected failed specifiers, got %+v", installErr.Specifiers)
	}
	if !strings.Contains(installErr.Error(), "package not found") {
		t.Errorf("expected installer output in the error, got %q", installErr.Error())
	}
	if outcome.Kind != OutcomeFailed {
		t.Errorf("expected failed outcome, got %s", outcome.Kind)
	}

	// No restart, and nothing recorded as installed.
	var note *exitcode.Notification
	if errors.As(err, &note) {
		t.Error("a failed install must never request a restart")
	}
	manifest, _ := LoadManifest(cfg.HomeDir)
	if manifest.Has("ghost-pkg") {
		t.Error("failed dependency must not be recorded in the manifest")
	}
}

func TestEnsureBatchesPendingSet(t *testing.T) {
	// The installer must be invoked once for the whole pending set; the fake
	// records its arguments for inspection.
	argsFile := filepath.Join(t.TempDir(), "args")
	installerCmd := fakeInstaller(t, `echo "$@" >> `+argsFile+"\nexit 0")
	cfg := testConfig(t, []string{"beta", "alpha", "beta"}, installerCmd)

	_, err := Ensure(context.Background(), cfg, testLogger())
	var note *exitcode.Notification
	if !errors.As(err, &note) {
		t.Fatalf("expected a restart notification, got %v", err)
	}

	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("fake installer was not invoked: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one installer invocation, got %d", len(lines))
	}
	// Sorted, deduplicated, after the add --dest prefix.
	if !strings.HasSuffix(lines[0], "alpha beta") {
		t.Errorf("expected sorted deduped set, got %q", lines[0])
	}
	if !strings.Contains(lines[0], "add --dest") {
		t.Errorf("expected add --dest invocation, got %q", lines[0])
	}
}

func TestPendingSet(t *testing.T) {
	manifest := NewManifest()
	manifest.Record("installed", "x", time.Now())

	got := pendingSet([]string{"zeta", "installed", "alpha", "zeta", ""}, manifest)
	if len(got) != 2 || got[0] != "alpha" || got[1] != "zeta" {
		t.Errorf("expected sorted pending [alpha zeta], got %v", got)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	home := t.TempDir()
	m := NewManifest()
	m.Record("tools", "lattice-pkg", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err := m.Save(home); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := LoadManifest(home)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !loaded.Has("tools") {
		t.Error("expected tools to survive the round trip")
	}
	if loaded.Installed["tools"].Installer != "lattice-pkg" {
		t.Errorf("expected installer command to round trip, got %+v", loaded.Installed["tools"])
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	m, err := LoadManifest(t.TempDir())
	if err != nil {
		t.Fatalf("missing manifest must not be an error: %v", err)
	}
	if len(m.Installed) != 0 {
		t.Errorf("expected empty manifest, got %+v", m.Installed)
	}
}
