// SPDX-License-Identifier: MPL-2.0

// Package installer detects shared dependencies the configured modules need
// but that are not yet installed, installs them by invoking the external
// package-install command once for the whole pending set, and signals a
// bounded process restart so the new packages are resolved from a clean
// module-resolution state. It never loads freshly installed packages into
// the current process image.
package installer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"lattice-cli/internal/config"
	"lattice-cli/internal/exitcode"

	"github.com/charmbracelet/log"
)

// OutcomeKind classifies the result of one install pass.
type OutcomeKind string

const (
	// OutcomeNoop means every dependency was already installed.
	OutcomeNoop OutcomeKind = "noop"
	// OutcomeInstalled means the pending set was installed and a restart
	// was requested.
	OutcomeInstalled OutcomeKind = "installed"
	// OutcomeFailed means the install command failed.
	OutcomeFailed OutcomeKind = "failed"
)

type (
	// State tracks one dependency-installation pass. It is discarded after
	// the pass completes or a restart is requested.
	State struct {
		Pending      []string
		Attempted    []string
		AttemptCount int
	}

	// Outcome reports what an install pass did.
	Outcome struct {
		Kind  OutcomeKind
		State State
	}

	// InstallError is a fatal install failure carrying the specifiers and
	// the underlying tool output.
	InstallError struct {
		Specifiers []string
		Output     string
		Err        error
	}
)

// Error implements the error interface.
func (e *InstallError) Error() string {
	msg := fmt.Sprintf("failed to install dependencies %s: %v", strings.Join(e.Specifiers, ", "), e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\ninstaller output:\n" + out
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *InstallError) Unwrap() error {
	return e.Err
}

// Ensure computes the pending set (configured dependencies minus the install
// manifest) and, when non-empty, installs it with a single synchronous
// invocation of the external installer under the advisory lock. On success
// it returns a restart Notification as the error: the notification must
// unwind untouched to the dispatcher, which exits with the restart code. A
// fully installed dependency set is a no-op and never requests a restart.
func Ensure(ctx context.Context, cfg *config.ResolvedConfig, logger *log.Logger) (Outcome, error) {
	if len(cfg.Dependencies) == 0 {
		return Outcome{Kind: OutcomeNoop}, nil
	}

	manifest, err := LoadManifest(cfg.HomeDir)
	if err != nil {
		return Outcome{Kind: OutcomeFailed}, err
	}

	pending := pendingSet(cfg.Dependencies, manifest)
	if len(pending) == 0 {
		logger.Debug("all dependencies installed", "count", len(cfg.Dependencies))
		return Outcome{Kind: OutcomeNoop}, nil
	}

	lock, err := acquireInstallLock(cfg.HomeDir)
	if err != nil {
		return Outcome{Kind: OutcomeFailed}, err
	}
	defer lock.Release()

	// Another invocation may have finished installing while this one waited
	// on the lock; recompute from a fresh manifest read.
	manifest, err = LoadManifest(cfg.HomeDir)
	if err != nil {
		return Outcome{Kind: OutcomeFailed}, err
	}
	pending = pendingSet(cfg.Dependencies, manifest)
	if len(pending) == 0 {
		return Outcome{Kind: OutcomeNoop}, nil
	}

	state := State{Pending: pending, AttemptCount: 1}
	logger.Warn("installing missing dependencies", "packages", strings.Join(pending, ", "))

	installerCmd := cfg.Installer()
	output, err := runInstaller(ctx, installerCmd, cfg.HomeDir, pending)
	state.Attempted = pending
	if err != nil {
		return Outcome{Kind: OutcomeFailed, State: state}, &InstallError{
			Specifiers: pending,
			Output:     output,
			Err:        err,
		}
	}

	now := time.Now().UTC()
	for _, spec := range pending {
		manifest.Record(spec, installerCmd, now)
	}
	if err := manifest.Save(cfg.HomeDir); err != nil {
		return Outcome{Kind: OutcomeFailed, State: state}, err
	}

	logger.Info("dependencies installed; restarting", "packages", strings.Join(pending, ", "))
	return Outcome{Kind: OutcomeInstalled, State: state}, exitcode.NewRestart()
}

// pendingSet returns the sorted set difference: configured dependencies not
// present in the manifest.
func pendingSet(dependencies []string, manifest *Manifest) []string {
	seen := make(map[string]bool, len(dependencies))
	var pending []string
	for _, spec := range dependencies {
		if spec == "" || seen[spec] || manifest.Has(spec) {
			continue
		}
		seen[spec] = true
		pending = append(pending, spec)
	}
	sort.Strings(pending)
	return pending
}

// runInstaller invokes the external installer once for the full pending set,
// a single atomic success/failure. Partial success is not modeled: any
// failure fails the whole pass.
func runInstaller(ctx context.Context, installerCmd, homeDir string, pending []string) (string, error) {
	pkgDir := filepath.Join(homeDir, "pkg")
	args := append([]string{"add", "--dest", pkgDir}, pending...)

	cmd := exec.CommandContext(ctx, installerCmd, args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		return output.String(), err
	}
	return output.String(), nil
}
