// Package config loads the YAML generation config: which template folders
// to render, where their output goes, global values, marker overrides,
// iteration expressions, and formatter settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-templify/pkg/format"
	"github.com/goliatone/go-templify/pkg/sections"
)

// ErrRequiredData reports a required extra-data file that is missing or
// unparseable.
var ErrRequiredData = errors.New("config: required extra data unavailable")

// Config is the top-level generation config file.
type Config struct {
	Globals        map[string]any `yaml:"globals"`
	Templates      []TemplateSet  `yaml:"templates"`
	FlattenData    *bool          `yaml:"flatten_data"`
	ManualSections MarkerConfig   `yaml:"manual_sections"`
	ExtraData      []ExtraData    `yaml:"extra_data"`
	Format         format.Config  `yaml:"format"`
}

// TemplateSet names one template folder and its destination.
type TemplateSet struct {
	Name    string `yaml:"name"`
	Folder  string `yaml:"folder"`
	Output  string `yaml:"output"`
	Iterate string `yaml:"iterate"`
	Enabled *bool  `yaml:"enabled"`
}

// IsEnabled defaults to true when the flag is omitted.
func (t TemplateSet) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// MarkerConfig overrides the manual-section marker pair.
type MarkerConfig struct {
	StartMarker string `yaml:"start_marker"`
	EndMarker   string `yaml:"end_marker"`
}

// Markers converts the config block to the marker pair used by the
// pipeline, falling back to the defaults for empty fields.
func (m MarkerConfig) Markers() sections.Markers {
	markers := sections.DefaultMarkers()
	if m.StartMarker != "" {
		markers.Start = m.StartMarker
	}
	if m.EndMarker != "" {
		markers.End = m.EndMarker
	}
	return markers
}

// ExtraData points at an additional JSON or YAML file merged into the
// render context under Key.
type ExtraData struct {
	Key      string `yaml:"key"`
	Path     string `yaml:"path"`
	Required bool   `yaml:"required"`
}

// FlattenEnabled defaults to true: top-level data keys are exposed
// directly to template expressions.
func (c *Config) FlattenEnabled() bool {
	return c.FlattenData == nil || *c.FlattenData
}

// Load reads and parses a config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	for i, set := range cfg.Templates {
		if strings.TrimSpace(set.Folder) == "" {
			return nil, fmt.Errorf("config: template set %d has no folder", i)
		}
	}
	return &cfg, nil
}

// LoadDataFile reads a JSON or YAML value file. The extension picks the
// parser: .yaml/.yml go through the YAML decoder, everything else is JSON.
func LoadDataFile(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read data file %q: %w", path, err)
	}

	var value any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("config: parse YAML data %q: %w", path, err)
		}
		value = normalizeYAML(value)
	default:
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("config: parse JSON data %q: %w", path, err)
		}
	}
	return value, nil
}

// ResolveExtraData loads every extra-data file relative to baseDir.
// Optional files that are missing or unparseable are skipped with a nil
// entry; required ones fail.
func (c *Config) ResolveExtraData(baseDir string) (map[string]any, error) {
	if len(c.ExtraData) == 0 {
		return nil, nil
	}

	out := make(map[string]any, len(c.ExtraData))
	for _, extra := range c.ExtraData {
		path := extra.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		value, err := LoadDataFile(path)
		if err != nil {
			if extra.Required {
				return nil, fmt.Errorf("%w: %q: %v", ErrRequiredData, path, err)
			}
			continue
		}
		out[extra.Key] = value
	}
	return out, nil
}

// normalizeYAML converts yaml.v3 map values so the same shapes come out
// of both decoders.
func normalizeYAML(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return v
	}
}
