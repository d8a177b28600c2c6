// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"lattice-cli/internal/config"
	"lattice-cli/internal/modfile"
	"lattice-cli/internal/testutil"
)

const minimalModule = `
commands: [
	{name: "run", description: "d", script: "echo"},
]
`

// newEnv builds a ResolvedConfig over a temp project and framework home.
func newEnv(t *testing.T) *config.ResolvedConfig {
	t.Helper()
	root := t.TempDir()
	home := t.TempDir()
	projectDir := filepath.Join(root, config.MarkerDirName)
	testutil.MustMkdirAll(t, projectDir, 0o755)
	return &config.ResolvedConfig{
		ProjectPresent: true,
		ProjectRoot:    root,
		ProjectDir:     projectDir,
		HomeDir:        home,
	}
}

func writeLocal(t *testing.T, cfg *config.ResolvedConfig, name, content string) string {
	t.Helper()
	path := filepath.Join(cfg.ProjectDir, config.ModulesDirName, name)
	testutil.MustWriteFile(t, path, content)
	return path
}

func writeShared(t *testing.T, cfg *config.ResolvedConfig, pkg, fileName, content string) string {
	t.Helper()
	path := filepath.Join(cfg.HomeDir, "pkg", pkg, fileName)
	testutil.MustWriteFile(t, path, content)
	return path
}

func TestResolveLocalModule(t *testing.T) {
	cfg := newEnv(t)
	want := writeLocal(t, cfg, "website.cue", minimalModule)

	desc, err := Resolve("./website", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc.Origin != OriginLocal {
		t.Errorf("expected local origin, got %s", desc.Origin)
	}
	if desc.Path != want {
		t.Errorf("expected path %s, got %s", want, desc.Path)
	}
	if len(desc.File.Commands) != 1 {
		t.Errorf("expected parsed commands, got %+v", desc.File)
	}
}

func TestResolveLocalJSONFallback(t *testing.T) {
	cfg := newEnv(t)
	want := writeLocal(t, cfg, "api.json", `{"commands": [{"name": "run", "description": "d", "script": "echo"}]}`)

	desc, err := Resolve("./api", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc.Path != want {
		t.Errorf("expected .json probe to match, got %s", desc.Path)
	}
}

func TestResolveSharedModule(t *testing.T) {
	cfg := newEnv(t)
	want := writeShared(t, cfg, "shared-tools", "module.cue", minimalModule)

	desc, err := Resolve("shared-tools", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc.Origin != OriginShared {
		t.Errorf("expected shared origin, got %s", desc.Origin)
	}
	if desc.Path != want {
		t.Errorf("expected path %s, got %s", want, desc.Path)
	}
}

func TestRelativeSpecifierNeverFallsThroughToShared(t *testing.T) {
	cfg := newEnv(t)
	// A shared package with the same base name must not satisfy "./tools".
	writeShared(t, cfg, "tools", "module.cue", minimalModule)

	_, err := Resolve("./tools", cfg)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestNotFoundListsSearchedLocations(t *testing.T) {
	cfg := newEnv(t)

	_, err := Resolve("missing-pkg", cfg)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Specifier != "missing-pkg" {
		t.Errorf("expected specifier in error, got %q", notFound.Specifier)
	}
	msg := notFound.Error()
	if !strings.Contains(msg, "module.cue") || !strings.Contains(msg, "module.json") {
		t.Errorf("expected searched locations in message, got %q", msg)
	}
}

func TestResolveParseErrorPropagates(t *testing.T) {
	cfg := newEnv(t)
	writeLocal(t, cfg, "broken.cue", `commands: [`)

	_, err := Resolve("./broken", cfg)
	var parseErr *modfile.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestResolveAllPreservesOrder(t *testing.T) {
	cfg := newEnv(t)
	writeLocal(t, cfg, "b.cue", minimalModule)
	writeLocal(t, cfg, "a.cue", minimalModule)
	cfg.Modules = []string{"./b", "./a"}

	descriptors, err := ResolveAll(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(descriptors) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(descriptors))
	}
	if descriptors[0].Specifier != "./b" || descriptors[1].Specifier != "./a" {
		t.Errorf("expected declaration order, got %s, %s",
			descriptors[0].Specifier, descriptors[1].Specifier)
	}
}

func TestResolveAllFailsFast(t *testing.T) {
	cfg := newEnv(t)
	writeLocal(t, cfg, "ok.cue", minimalModule)
	cfg.Modules = []string{"./missing", "./ok"}

	_, err := ResolveAll(cfg)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for the first specifier, got %v", err)
	}
}

func TestGroupName(t *testing.T) {
	tests := []struct {
		name      string
		desc      *Descriptor
		wantName  string
		wantGroup bool
	}{
		{
			name: "derived from relative specifier",
			desc: &Descriptor{
				Specifier: "./website",
				File:      &modfile.File{},
			},
			wantName:  "website",
			wantGroup: true,
		},
		{
			name: "derived from bare specifier",
			desc: &Descriptor{
				Specifier: "shared-tools",
				File:      &modfile.File{},
			},
			wantName:  "shared-tools",
			wantGroup: true,
		},
		{
			name: "derived from nested specifier takes last segment",
			desc: &Descriptor{
				Specifier: "./nested/path/deploy",
				File:      &modfile.File{},
			},
			wantName:  "deploy",
			wantGroup: true,
		},
		{
			name: "explicit override wins over specifier",
			desc: &Descriptor{
				Specifier: "./website",
				File:      &modfile.File{GroupOverride: "custom", HasGroup: true},
			},
			wantName:  "custom",
			wantGroup: true,
		},
		{
			name: "explicitly ungrouped",
			desc: &Descriptor{
				Specifier: "./website",
				File:      &modfile.File{Ungrouped: true},
			},
			wantGroup: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, grouped := tt.desc.GroupName()
			if grouped != tt.wantGroup {
				t.Fatalf("expected grouped=%v, got %v", tt.wantGroup, grouped)
			}
			if name != tt.wantName {
				t.Errorf("expected group %q, got %q", tt.wantName, name)
			}
		})
	}
}

func TestRelativeSpecifierWithoutProject(t *testing.T) {
	cfg := &config.ResolvedConfig{HomeDir: t.TempDir()}

	_, err := Resolve("./tools", cfg)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if !strings.Contains(notFound.Error(), config.MarkerDirName) {
		t.Errorf("expected the error to explain the missing project, got %q", notFound.Error())
	}
}
