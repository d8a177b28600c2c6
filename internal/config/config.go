// SPDX-License-Identifier: MPL-2.0

// Package config resolves the single immutable ResolvedConfig for a process
// invocation by layering, highest precedence first: CLI bootstrap options,
// environment variables, the project config file, and compiled-in defaults.
// The layering itself is delegated to Viper; CUE (and TOML) files are parsed
// and schema-validated before being merged in.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"lattice-cli/internal/bootstrap"
	"lattice-cli/pkg/cueutil"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

//go:embed config_schema.cue
var configSchema []byte

// Getenv is the environment snapshot used during resolution.
type Getenv func(string) string

// Resolve produces the ResolvedConfig for this invocation. It walks upward
// from the working directory (or uses the --root override) looking for the
// project marker directory; absence of the marker is not an error. A marker
// directory without a config file is a warning, not an error. A config file
// that fails to parse is fatal.
//
// This phase runs before the logger exists and may only emit diagnostics
// through bootstrap.Trace.
func Resolve(opts bootstrap.Options, getenv Getenv) (*ResolvedConfig, error) {
	cfg := &ResolvedConfig{}

	home, err := frameworkHome(getenv)
	if err != nil {
		return nil, err
	}
	cfg.HomeDir = home

	if err := locateProject(cfg, opts, getenv); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	fileMap, filePath, err := loadProjectFile(cfg, v)
	if err != nil {
		return nil, err
	}

	applyBootstrapOptions(v, opts)

	cfg.Debug = v.GetBool("debug")
	cfg.Quiet = v.GetBool("quiet")
	cfg.Silent = v.GetBool("silent")
	cfg.LogLevel = v.GetString("log_level")
	cfg.LogFormat = LogFormat(v.GetString("log_format"))
	cfg.Color = ColorMode(v.GetString("color"))
	cfg.Modules = v.GetStringSlice("modules")
	cfg.Dependencies = v.GetStringSlice("dependencies")

	// Deep-merging arbitrary settings across layers is deliberately out of
	// scope: the settings map is taken wholesale from the project file when
	// present, else from defaults.
	if s, ok := fileMap["settings"].(map[string]any); ok {
		cfg.Settings = s
	} else {
		cfg.Settings = defaultSettings()
	}

	// Path names the config file when the value came from one; env-sourced
	// values bypass the file schema and leave it empty.
	if !cfg.LogFormat.IsValid() {
		return nil, &Error{Kind: KindInvalidStructure, Path: filePath, Err: fmt.Errorf("log_format: unknown log format %q", cfg.LogFormat)}
	}
	if !cfg.Color.IsValid() {
		return nil, &Error{Kind: KindInvalidStructure, Path: filePath, Err: fmt.Errorf("color: unknown color mode %q", cfg.Color)}
	}

	bootstrap.Trace("config resolved: project=%v root=%q modules=%d deps=%d",
		cfg.ProjectPresent, cfg.ProjectRoot, len(cfg.Modules), len(cfg.Dependencies))

	return cfg, nil
}

// frameworkHome returns the per-user framework home, honoring LATTICE_HOME.
func frameworkHome(getenv Getenv) (string, error) {
	if dir := getenv(HomeEnvVar); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, MarkerDirName), nil
}

// locateProject finds the project marker directory, either under the
// explicit --root override or by walking upward from the working directory.
func locateProject(cfg *ResolvedConfig, opts bootstrap.Options, getenv Getenv) error {
	if opts.RootSet {
		root, err := filepath.Abs(opts.Root)
		if err != nil {
			return fmt.Errorf("failed to resolve --root: %w", err)
		}
		if dirExists(filepath.Join(root, MarkerDirName)) {
			cfg.ProjectPresent = true
			cfg.ProjectRoot = root
			cfg.ProjectDir = filepath.Join(root, MarkerDirName)
		} else {
			cfg.Warnings = append(cfg.Warnings,
				fmt.Sprintf("--root %s has no %s directory; running without a project", root, MarkerDirName))
		}
		return nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	for dir := wd; ; dir = filepath.Dir(dir) {
		marker := filepath.Join(dir, MarkerDirName)
		if dirExists(marker) {
			cfg.ProjectPresent = true
			cfg.ProjectRoot = dir
			cfg.ProjectDir = marker
			return nil
		}
		if dir == filepath.Dir(dir) {
			break // filesystem root
		}
	}

	bootstrap.Trace("no %s marker found above %s", MarkerDirName, wd)
	return nil
}

// loadProjectFile merges the project config file (CUE preferred, TOML
// alternate) into v. It returns the raw file map so the caller can lift the
// settings block wholesale, plus the path of the file it loaded. A missing
// file under a present marker is a warning; a parse failure is fatal.
func loadProjectFile(cfg *ResolvedConfig, v *viper.Viper) (map[string]any, string, error) {
	if !cfg.ProjectPresent {
		return nil, "", nil
	}

	cuePath := filepath.Join(cfg.ProjectDir, ConfigFileName)
	tomlPath := filepath.Join(cfg.ProjectDir, ConfigFileNameTOML)

	var (
		fileMap map[string]any
		path    string
	)
	switch {
	case fileExists(cuePath):
		data, err := os.ReadFile(cuePath)
		if err != nil {
			return nil, "", &Error{Kind: KindParseFailure, Path: cuePath, Err: err}
		}
		fileMap, err = cueutil.DecodeFileToMap(configSchema, data, "#Config", cuePath)
		if err != nil {
			return nil, "", &Error{Kind: KindParseFailure, Path: cuePath, Err: err}
		}
		path = cuePath
	case fileExists(tomlPath):
		data, err := os.ReadFile(tomlPath)
		if err != nil {
			return nil, "", &Error{Kind: KindParseFailure, Path: tomlPath, Err: err}
		}
		fileMap = map[string]any{}
		if err := toml.Unmarshal(data, &fileMap); err != nil {
			return nil, "", &Error{Kind: KindParseFailure, Path: tomlPath, Err: err}
		}
		path = tomlPath
	default:
		cfg.Warnings = append(cfg.Warnings,
			fmt.Sprintf("project marker %s exists but has no %s; continuing with defaults", cfg.ProjectDir, ConfigFileName))
		return nil, "", nil
	}

	if err := v.MergeConfigMap(fileMap); err != nil {
		return nil, "", &Error{Kind: KindInvalidStructure, Path: path, Err: err}
	}

	bootstrap.Trace("merged project config %s", path)
	return fileMap, path, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("quiet", false)
	v.SetDefault("silent", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", string(LogFormatPretty))
	v.SetDefault("color", string(ColorAuto))
	v.SetDefault("modules", []string{})
	v.SetDefault("dependencies", []string{})
}

func defaultSettings() map[string]any {
	return map[string]any{
		"installer": DefaultInstaller,
		"runtime":   "virtual",
	}
}

// bindEnv wires the documented environment overrides. Viper ranks bound env
// vars above merged config files and below explicitly Set values, which is
// exactly the precedence contract: CLI > env > file > defaults.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("debug", "LATTICE_DEBUG")
	_ = v.BindEnv("log_level", "LATTICE_LOG_LEVEL")
	_ = v.BindEnv("log_format", "LATTICE_LOG_FORMAT")
	_ = v.BindEnv("color", "LATTICE_COLOR")
}

// applyBootstrapOptions lifts explicitly-provided CLI flags into the top
// precedence layer. Unset flags are skipped so they cannot shadow env or
// file values with their zero defaults.
func applyBootstrapOptions(v *viper.Viper, opts bootstrap.Options) {
	if opts.DebugSet {
		v.Set("debug", opts.Debug)
	}
	if opts.QuietSet {
		v.Set("quiet", opts.Quiet)
	}
	if opts.SilentSet {
		v.Set("silent", opts.Silent)
	}
	if opts.LogLevelSet {
		v.Set("log_level", opts.LogLevel)
	}
	if opts.LogFormatSet {
		v.Set("log_format", string(opts.LogFormat))
	}
	if opts.ColorSet {
		v.Set("color", string(opts.Color))
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
