package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a pipeline configuration from the given YAML file
// path. After parsing, it applies defaults to stages that don't specify
// their own values.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg File
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches for a pipeline config in standard locations and
// loads the first one found. Search order: ./datapipe.yaml,
// ~/.datapipe/config.yaml
func LoadDefault() (*File, error) {
	candidates := []string{"datapipe.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".datapipe", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return nil, fmt.Errorf("no pipeline config found (searched: %v)", candidates)
}

// applyDefaults merges pipeline-level defaults into stages that don't set
// their own values.
func applyDefaults(cfg *File) {
	p := &cfg.Pipeline

	if p.Workdir == "" {
		p.Workdir = "."
	}

	for i := range p.Stages {
		s := &p.Stages[i]

		if s.Timeout == "" && p.Defaults.Timeout != "" {
			s.Timeout = p.Defaults.Timeout
		}
		// The default codec only applies to stages that run a tool;
		// materialize-only stages keep their extracted files as-is.
		if s.Compress == "" && s.Command != "" && p.Defaults.Compress != "" {
			s.Compress = p.Defaults.Compress
		}
	}
}
