package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest describes one batch run in YAML: where to run, which binary,
// which backend, the supported computation templates, and the ordered work
// items.
type Manifest struct {
	WorkDir   string             `yaml:"workdir"`
	Binary    string             `yaml:"binary"`
	Backend   string             `yaml:"backend"`
	Workers   int                `yaml:"workers"`
	TimeoutS  int                `yaml:"timeout_s"`
	Templates []ManifestTemplate `yaml:"templates"`
	Items     []ManifestItem     `yaml:"items"`
}

// ManifestTemplate declares the output suffixes of one computation kind.
type ManifestTemplate struct {
	Kind     string   `yaml:"kind"`
	Suffixes []string `yaml:"suffixes"`
}

// ManifestItem is one named work item pointing at a ready-to-run input script.
type ManifestItem struct {
	Name   string            `yaml:"name"`
	Kind   string            `yaml:"kind"`
	Script string            `yaml:"script"`
	Env    map[string]string `yaml:"env"`
}

// LoadManifest reads, decodes, and validates a YAML run manifest. Backend
// defaults to local and workers to 1 when omitted.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if m.Backend == "" {
		m.Backend = "local"
	}
	if m.Workers == 0 {
		m.Workers = 1
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if m.WorkDir == "" {
		return fmt.Errorf("workdir is required")
	}
	if m.Binary == "" {
		return fmt.Errorf("binary is required")
	}
	if m.Backend != "local" && m.Backend != "distributed" {
		return fmt.Errorf("backend must be local or distributed, got %q", m.Backend)
	}
	if m.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", m.Workers)
	}
	if m.TimeoutS < 0 {
		return fmt.Errorf("timeout_s must not be negative, got %d", m.TimeoutS)
	}
	if len(m.Items) == 0 {
		return fmt.Errorf("at least one item is required")
	}

	kinds := make(map[string]bool, len(m.Templates))
	for i, t := range m.Templates {
		if t.Kind == "" {
			return fmt.Errorf("template %d: kind is required", i)
		}
		if len(t.Suffixes) == 0 {
			return fmt.Errorf("template %q: at least one suffix is required", t.Kind)
		}
		kinds[t.Kind] = true
	}

	for i, item := range m.Items {
		if item.Name == "" {
			return fmt.Errorf("item %d: name is required", i)
		}
		if item.Script == "" {
			return fmt.Errorf("item %q: script is required", item.Name)
		}
		if !kinds[item.Kind] {
			return fmt.Errorf("item %q: kind %q is not declared in templates", item.Name, item.Kind)
		}
	}
	return nil
}
