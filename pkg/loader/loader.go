// Package loader reads configurations and replay scripts from JSON or YAML.
//
// Documents are first decoded into generic values and then mapped onto the
// domain types with mapstructure, so the same path serves files, request
// bodies and trees built in memory by an embedding application.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/statelab/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format selects the document syntax.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// FormatFromPath picks JSON for ".json" files and YAML otherwise.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// ParseConfig decodes a configuration document.
func ParseConfig(data []byte, format Format) (*domain.Configuration, error) {
	raw, err := decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return FromMap(raw)
}

// FromMap maps a generic tree (as produced by JSON or YAML decoders) onto a configuration.
func FromMap(raw any) (*domain.Configuration, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidConfig)
	}
	var cfg domain.Configuration
	if err := mapDecode(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// LoadConfigFile reads a configuration file. The extension selects the format.
func LoadConfigFile(path string) (*domain.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	cfg, err := ParseConfig(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseScript decodes a replay script: a list of {event, input} items.
// A document with a top-level "steps" list is accepted as well.
func ParseScript(data []byte, format Format) ([]domain.ReplayStep, error) {
	raw, err := decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse replay script: %w", err)
	}
	if m, ok := raw.(map[string]any); ok {
		raw = m["steps"]
	}
	if raw == nil {
		return []domain.ReplayStep{}, nil
	}

	var steps []domain.ReplayStep
	if err := mapDecode(raw, &steps); err != nil {
		return nil, fmt.Errorf("failed to decode replay script: %w", err)
	}
	for i, step := range steps {
		if step.Event == "" {
			return nil, fmt.Errorf("replay step %d has no event", i)
		}
	}
	return steps, nil
}

// LoadScriptFile reads a replay script file. The extension selects the format.
func LoadScriptFile(path string) ([]domain.ReplayStep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read replay script: %w", err)
	}
	return ParseScript(data, FormatFromPath(path))
}

// FileLoader implements ports.ConfigLoader for a configuration file.
// The file is read on every call, so edits are picked up by Reset-style reloads.
type FileLoader struct {
	Path string
}

// Load reads the file.
func (l FileLoader) Load(ctx context.Context) (*domain.Configuration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadConfigFile(l.Path)
}

func decode(data []byte, format Format) (any, error) {
	var raw any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}
	return normalize(raw), nil
}

// normalize converts map[any]any nodes (YAML mappings with non-string keys)
// into map[string]any so contexts stay JSON-representable.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = normalize(child)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[fmt.Sprint(k)] = normalize(child)
		}
		return out
	case []any:
		for i, child := range t {
			t[i] = normalize(child)
		}
		return t
	default:
		return v
	}
}

// mapDecode maps input onto out. Keys without a matching field are ignored so
// documents can carry annotations such as a description.
func mapDecode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
