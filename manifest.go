package uijs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// Package describes one installable application: metadata plus the main
// script source.
type Package struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name,omitempty"`
	Version     string `yaml:"version,omitempty"`
	Author      string `yaml:"author,omitempty"`
	Description string `yaml:"description,omitempty"`
	Main        string `yaml:"main,omitempty"` // script filename, default main.js

	MainJS string `yaml:"-"` // loaded script source
	Dir    string `yaml:"-"` // package directory, when loaded from disk
}

// LoadPackage reads <dir>/app.yaml and the main script it names.
func LoadPackage(dir string) (*Package, error) {
	data, err := os.ReadFile(filepath.Join(dir, "app.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read app.yaml: %w", err)
	}
	var pkg Package
	if err := yaml.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse app.yaml: %w", err)
	}
	pkg.Dir = dir
	main := pkg.Main
	if main == "" {
		main = "main.js"
	}
	src, err := os.ReadFile(filepath.Join(dir, main))
	if err != nil {
		return nil, fmt.Errorf("failed to read main script: %w", err)
	}
	pkg.MainJS = string(src)
	if err := pkg.Validate(); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// Validate checks the metadata: a dotted id, a semantic version when one
// is present, and a non-empty main script.
func (p *Package) Validate() error {
	if err := validateAppID(p.ID); err != nil {
		return err
	}
	if p.Version != "" && !semver.IsValid("v"+p.Version) {
		return fmt.Errorf("version %q is not a valid semantic version", p.Version)
	}
	if p.MainJS == "" {
		return fmt.Errorf("package %s has no main script", p.ID)
	}
	return nil
}

func validateAppID(id string) error {
	if !strings.Contains(id, ".") {
		return fmt.Errorf("id must contain at least one '.' (got %q)", id)
	}
	for _, segment := range strings.Split(id, ".") {
		if segment == "" {
			return fmt.Errorf("id %q contains an empty segment", id)
		}
		if segment[0] >= '0' && segment[0] <= '9' || segment[0] == '_' {
			return fmt.Errorf("id segment %q cannot start with %q", segment, segment[0])
		}
		for _, r := range segment {
			if !(r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
				return fmt.Errorf("id %q contains invalid character %q", id, r)
			}
		}
	}
	return nil
}
