package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"k8s.io/klog/v2"

	"github.com/born-ml/torchscript"
)

// Settings is the optional YAML configuration file.
type Settings struct {
	// Metadata is the path of an operator schema document replacing the
	// built-in schemas.
	Metadata string `yaml:"metadata,omitempty"`
	// Limit caps the tensor elements printed by the tensor command.
	Limit           int   `yaml:"limit,omitempty"`
	TraceAttributes bool  `yaml:"traceAttributes,omitempty"`
	Color           *bool `yaml:"color,omitempty"`
}

func defaultSettings() *Settings {
	return &Settings{Limit: torchscript.DisplayLimit}
}

// loadSettings reads path over the defaults. An empty path yields the
// defaults.
func loadSettings(path string) (*Settings, error) {
	s := defaultSettings()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied on the command line
	if err != nil {
		return nil, fmt.Errorf("could not read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("error decoding config %q: %w", path, err)
	}
	if s.Limit <= 0 {
		s.Limit = torchscript.DisplayLimit
	}
	return s, nil
}

func (s *Settings) loadOptions() (torchscript.LoadOptions, error) {
	opts := torchscript.DefaultLoadOptions()
	opts.Logger = klog.Background()
	opts.TraceAttributes = s.TraceAttributes
	if s.Metadata != "" {
		meta, err := torchscript.LoadMetadata(s.Metadata)
		if err != nil {
			return opts, err
		}
		opts.Metadata = meta
	}
	return opts, nil
}
