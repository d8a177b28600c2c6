// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is the install manifest under the framework home.
const ManifestFileName = "manifest.yaml"

type (
	// Manifest records which shared dependencies are already installed. It
	// is the single source of truth for the pending-set computation and is
	// only written after a successful install, under the advisory lock.
	Manifest struct {
		Version   string           `yaml:"version"`
		Installed map[string]Entry `yaml:"installed"`
	}

	// Entry describes one installed dependency.
	Entry struct {
		InstalledAt time.Time `yaml:"installed_at"`
		Installer   string    `yaml:"installer"`
	}
)

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{Version: "1", Installed: map[string]Entry{}}
}

// Has reports whether the dependency is recorded as installed.
func (m *Manifest) Has(specifier string) bool {
	_, ok := m.Installed[specifier]
	return ok
}

// Record marks a dependency as installed by the given installer command.
func (m *Manifest) Record(specifier, installerCmd string, now time.Time) {
	if m.Installed == nil {
		m.Installed = map[string]Entry{}
	}
	m.Installed[specifier] = Entry{InstalledAt: now, Installer: installerCmd}
}

// LoadManifest reads the manifest from the framework home. A missing file
// yields an empty manifest, not an error: first run is not a failure.
func LoadManifest(homeDir string) (*Manifest, error) {
	path := filepath.Join(homeDir, ManifestFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewManifest(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read install manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse install manifest %s: %w", path, err)
	}
	if m.Installed == nil {
		m.Installed = map[string]Entry{}
	}
	return &m, nil
}

// Save writes the manifest back to the framework home, creating the
// directory on first use.
func (m *Manifest) Save(homeDir string) error {
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return fmt.Errorf("failed to create framework home %s: %w", homeDir, err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode install manifest: %w", err)
	}

	path := filepath.Join(homeDir, ManifestFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write install manifest %s: %w", path, err)
	}
	return nil
}
