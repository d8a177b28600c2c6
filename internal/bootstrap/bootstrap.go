// SPDX-License-Identifier: MPL-2.0

// Package bootstrap extracts the global options lattice needs before any
// configuration exists. It runs first, before logging is set up, so it must
// never fail: options it does not recognize are left for the full cobra
// parser to validate later, after the command tree has been assembled.
package bootstrap

import "strings"

// Getenv is the environment lookup used by the parser. Injecting it keeps
// parsing free of process-global reads in tests.
type Getenv func(string) string

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

// LogFormat selects the logger output format.
type LogFormat string

const (
	// FormatPretty is the human-readable text format.
	FormatPretty LogFormat = "pretty"
	// FormatJSON is the machine-readable JSON format.
	FormatJSON LogFormat = "json"
)

// Options holds the bootstrap-recognized global options. Fields record
// whether the flag was actually present so later config merging can tell
// "flag set to default" apart from "flag absent" (absent flags must not
// shadow env or config file values).
type Options struct {
	Debug     bool
	DebugSet  bool
	Quiet     bool
	QuietSet  bool
	Silent    bool
	SilentSet bool

	LogLevel     string
	LogLevelSet  bool
	LogFormat    LogFormat
	LogFormatSet bool
	Color        ColorMode
	ColorSet     bool

	// Root overrides the project root lookup (--root).
	Root    string
	RootSet bool

	// Help and Version are recorded so the dispatcher can short-circuit
	// before the dependency phase; rendering is left to cobra/fang.
	Help    bool
	Version bool
}

// Parse scans rawArgs permissively for the bootstrap option set. Unrecognized
// flags and positional arguments are ignored, never errors: the full parser
// validates them once the command tree exists. Scanning stops at a literal
// "--" terminator. The only environment reads are the color and debug
// conventions (NO_COLOR, LATTICE_COLOR, LATTICE_DEBUG).
//
// pflag cannot serve here: even with unknown-flag tolerance enabled it
// rejects unknown shorthand flags, and module commands are free to define
// any shorthand they like.
func Parse(rawArgs []string, getenv Getenv) Options {
	opts := Options{Color: ColorAuto, LogFormat: FormatPretty}

	// Environment conventions first; explicit flags below override them.
	if getenv("NO_COLOR") != "" {
		opts.Color = ColorNever
		opts.ColorSet = true
	}
	if mode := ColorMode(getenv("LATTICE_COLOR")); isColorMode(mode) {
		opts.Color = mode
		opts.ColorSet = true
	}
	if isTruthy(getenv("LATTICE_DEBUG")) {
		opts.Debug = true
		opts.DebugSet = true
	}

	for i := 0; i < len(rawArgs); i++ {
		arg := rawArgs[i]
		if arg == "--" {
			break
		}

		name, value, hasValue := splitFlag(arg)

		// takeValue consumes an inline "=value" or the following argument.
		takeValue := func() (string, bool) {
			if hasValue {
				return value, true
			}
			if i+1 < len(rawArgs) {
				i++
				return rawArgs[i], true
			}
			return "", false
		}

		switch name {
		case "--debug", "-d":
			opts.Debug = true
			opts.DebugSet = true
		case "--quiet", "-q":
			opts.Quiet = true
			opts.QuietSet = true
		case "--silent", "-s":
			opts.Silent = true
			opts.SilentSet = true
		case "--no-color":
			opts.Color = ColorNever
			opts.ColorSet = true
		case "--help", "-h":
			opts.Help = true
		case "--version":
			opts.Version = true
		case "--log-level":
			if v, ok := takeValue(); ok {
				opts.LogLevel = v
				opts.LogLevelSet = true
			}
		case "--log-format":
			if v, ok := takeValue(); ok && isLogFormat(LogFormat(v)) {
				opts.LogFormat = LogFormat(v)
				opts.LogFormatSet = true
			}
		case "--color":
			if v, ok := takeValue(); ok && isColorMode(ColorMode(v)) {
				opts.Color = ColorMode(v)
				opts.ColorSet = true
			}
		case "--root":
			if v, ok := takeValue(); ok {
				opts.Root = v
				opts.RootSet = true
			}
		}
	}

	return opts
}

// splitFlag separates "--flag=value" into name and value parts.
func splitFlag(arg string) (name, value string, hasValue bool) {
	if !strings.HasPrefix(arg, "-") {
		return arg, "", false
	}
	if idx := strings.IndexByte(arg, '='); idx >= 0 {
		return arg[:idx], arg[idx+1:], true
	}
	return arg, "", false
}

func isColorMode(m ColorMode) bool {
	return m == ColorAuto || m == ColorAlways || m == ColorNever
}

func isLogFormat(f LogFormat) bool {
	return f == FormatPretty || f == FormatJSON
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
