// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
)

const (
	// MarkerDirName is the directory whose presence marks a recognized
	// lattice project.
	MarkerDirName = ".lattice"
	// ConfigFileName is the project config file inside the marker directory.
	ConfigFileName = "config.cue"
	// ConfigFileNameTOML is the alternate TOML config file name.
	ConfigFileNameTOML = "config.toml"
	// ModulesDirName is the local module directory inside the marker directory.
	ModulesDirName = "modules"

	// HomeEnvVar overrides the framework home directory (default ~/.lattice).
	HomeEnvVar = "LATTICE_HOME"

	// DefaultInstaller is the external package-install command invoked for
	// missing shared dependencies.
	DefaultInstaller = "lattice-pkg"
)

// LogFormat selects the logger output format.
type LogFormat string

const (
	// LogFormatPretty is human-readable text output.
	LogFormatPretty LogFormat = "pretty"
	// LogFormatJSON is machine-readable JSON output.
	LogFormatJSON LogFormat = "json"
)

// IsValid reports whether the LogFormat is a known value.
func (f LogFormat) IsValid() bool {
	return f == LogFormatPretty || f == LogFormatJSON
}

// ColorMode controls terminal color output.
type ColorMode string

const (
	// ColorAuto detects terminal capabilities.
	ColorAuto ColorMode = "auto"
	// ColorAlways forces color output.
	ColorAlways ColorMode = "always"
	// ColorNever disables color output.
	ColorNever ColorMode = "never"
)

// IsValid reports whether the ColorMode is a known value.
func (m ColorMode) IsValid() bool {
	return m == ColorAuto || m == ColorAlways || m == ColorNever
}

// ErrorKind classifies config resolution failures.
type ErrorKind string

const (
	// KindParseFailure means the config file could not be parsed.
	KindParseFailure ErrorKind = "parse-failure"
	// KindInvalidStructure means the file parsed but holds invalid values.
	KindInvalidStructure ErrorKind = "invalid-structure"
)

// ErrConfig is the sentinel wrapped by every Error for errors.Is matching.
var ErrConfig = errors.New("config error")

// Error is a fatal configuration failure carrying the offending file path
// and the underlying parser message. Path is empty when the bad value came
// from the environment rather than a file.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("config %s: %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap supports errors.Is(err, ErrConfig) and unwrapping the cause.
func (e *Error) Unwrap() []error {
	return []error{ErrConfig, e.Err}
}

// ResolvedConfig is the single immutable configuration value for one process
// invocation. It is produced exactly once by Resolve and flows as an explicit
// parameter through every later phase; no phase mutates it and no phase reads
// ambient global state instead of it.
type ResolvedConfig struct {
	// ProjectPresent reports whether a project marker directory was found.
	// When false, ProjectRoot and ProjectDir are empty and only
	// project-independent builtins register.
	ProjectPresent bool
	// ProjectRoot is the directory containing the marker directory.
	ProjectRoot string
	// ProjectDir is the marker directory itself (<ProjectRoot>/.lattice).
	ProjectDir string
	// HomeDir is the per-user framework home holding shared packages and
	// the install manifest. Always set.
	HomeDir string

	Debug  bool
	Quiet  bool
	Silent bool

	LogLevel  string
	LogFormat LogFormat
	Color     ColorMode

	// Modules are the configured module specifiers, in declaration order.
	// Order governs group display order and override precedence.
	Modules []string
	// Dependencies are the shared packages the configured modules require.
	Dependencies []string
	// Settings carries free-form project settings (installer command,
	// default script runtime, and anything modules want to read).
	Settings map[string]any

	// Warnings collects non-fatal resolution notes (e.g. marker directory
	// present but config file missing). The dispatcher logs them once the
	// logger exists.
	Warnings []string
}

// Setting returns a string-typed settings value, or fallback when the key is
// absent or not a string.
func (c *ResolvedConfig) Setting(key, fallback string) string {
	if v, ok := c.Settings[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// Installer returns the configured external installer command.
func (c *ResolvedConfig) Installer() string {
	return c.Setting("installer", DefaultInstaller)
}
