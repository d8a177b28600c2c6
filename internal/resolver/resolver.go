// SPDX-License-Identifier: MPL-2.0

// Package resolver maps module specifier strings to concrete loadable module
// files. Resolution follows a fixed priority order, first match wins:
//
//  1. Local: relative specifiers (./name, ../name) probe the project module
//     directory with a fixed extension list.
//  2. Shared: bare names probe the installed-packages directory under the
//     user's framework home.
//
// Local always shadows shared. That is a policy invariant, not an accident:
// it lets a developer override an installed package during development
// without touching the shared store.
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lattice-cli/internal/bootstrap"
	"lattice-cli/internal/config"
	"lattice-cli/internal/modfile"
)

// Origin records where a module was resolved from.
type Origin string

const (
	// OriginLocal means the module came from the project module directory.
	OriginLocal Origin = "local"
	// OriginShared means the module came from the shared package store.
	OriginShared Origin = "shared"
)

// probeExtensions is the ordered extension list for local specifiers.
var probeExtensions = []string{".cue", ".json"}

// sharedFileNames is the ordered file list probed inside a shared package
// directory.
var sharedFileNames = []string{"module.cue", "module.json"}

// Descriptor is a resolved, parsed module. One Descriptor exists per
// specifier per process invocation; nothing is cached across invocations.
type Descriptor struct {
	// Specifier is the configured module specifier string.
	Specifier string
	// Path is the module file the specifier resolved to.
	Path string
	// Origin tells whether the module is local or shared.
	Origin Origin
	// File holds the parsed exports.
	File *modfile.File
}

// NotFoundError reports a specifier that resolved nowhere, with every probed
// location enumerated for diagnosability.
type NotFoundError struct {
	Specifier string
	Searched  []string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "module %q not found; searched:", e.Specifier)
	for _, loc := range e.Searched {
		sb.WriteString("\n  - ")
		sb.WriteString(loc)
	}
	return sb.String()
}

// Resolve maps one specifier to a parsed Descriptor. Resolution is pure with
// respect to the filesystem snapshot at call time.
func Resolve(specifier string, cfg *config.ResolvedConfig) (*Descriptor, error) {
	path, origin, err := locate(specifier, cfg)
	if err != nil {
		return nil, err
	}

	file, err := modfile.Parse(path)
	if err != nil {
		return nil, err
	}

	bootstrap.Trace("resolved module %q -> %s (%s)", specifier, path, origin)
	return &Descriptor{
		Specifier: specifier,
		Path:      path,
		Origin:    origin,
		File:      file,
	}, nil
}

// ResolveAll resolves every configured specifier in declaration order. Order
// matters downstream: it governs group display order and override
// precedence during registration.
func ResolveAll(cfg *config.ResolvedConfig) ([]*Descriptor, error) {
	descriptors := make([]*Descriptor, 0, len(cfg.Modules))
	for _, spec := range cfg.Modules {
		d, err := Resolve(spec, cfg)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// locate finds the module file for a specifier without parsing it.
func locate(specifier string, cfg *config.ResolvedConfig) (string, Origin, error) {
	var searched []string

	if isRelative(specifier) {
		if cfg.ProjectPresent {
			base := filepath.Join(cfg.ProjectDir, config.ModulesDirName, filepath.FromSlash(specifier))
			for _, ext := range probeExtensions {
				candidate := filepath.Clean(base + ext)
				searched = append(searched, candidate)
				if fileExists(candidate) {
					return candidate, OriginLocal, nil
				}
			}
		} else {
			searched = append(searched, fmt.Sprintf("(no project: local specifier %q needs a %s marker)", specifier, config.MarkerDirName))
		}
		// Relative specifiers never fall through to the shared store; a
		// path is a path.
		return "", "", &NotFoundError{Specifier: specifier, Searched: searched}
	}

	pkgDir := filepath.Join(cfg.HomeDir, "pkg", specifier)
	for _, name := range sharedFileNames {
		candidate := filepath.Join(pkgDir, name)
		searched = append(searched, candidate)
		if fileExists(candidate) {
			return candidate, OriginShared, nil
		}
	}

	return "", "", &NotFoundError{Specifier: specifier, Searched: searched}
}

// GroupName derives the registration group for a descriptor: the explicit
// override when present, or the last segment of the specifier. Returns
// ok=false for explicitly ungrouped modules.
func (d *Descriptor) GroupName() (string, bool) {
	if d.File.Ungrouped {
		return "", false
	}
	if d.File.HasGroup {
		return d.File.GroupOverride, true
	}
	base := filepath.Base(filepath.FromSlash(d.Specifier))
	for _, ext := range probeExtensions {
		base = strings.TrimSuffix(base, ext)
	}
	return base, true
}

func isRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") ||
		specifier == "." || specifier == ".."
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
