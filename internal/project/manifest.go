// Package project locates and loads the quill.toml project manifest.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file that marks a project root.
const ManifestName = "quill.toml"

// CheckerConfig holds checker options from the [checker] section.
type CheckerConfig struct {
	IncludeRefs    bool `toml:"include_refs"`
	MaxDiagnostics int  `toml:"max_diagnostics"`
	Jobs           int  `toml:"jobs"`
}

// Manifest is the parsed quill.toml.
type Manifest struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Checker CheckerConfig `toml:"checker"`
}

// DefaultManifest returns the options used when no manifest exists.
func DefaultManifest() Manifest {
	var m Manifest
	m.Checker = CheckerConfig{
		IncludeRefs:    true,
		MaxDiagnostics: 100,
	}
	return m
}

// FindManifest walks up from startDir to locate quill.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest parses a quill.toml, filling unset checker options with
// defaults.
func LoadManifest(path string) (Manifest, error) {
	m := DefaultManifest()
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return m, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if m.Checker.MaxDiagnostics <= 0 {
		m.Checker.MaxDiagnostics = 100
	}
	return m, nil
}
