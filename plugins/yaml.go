package plugins

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/lattice-bot/module"
)

// ParseDefinitionYAML decodes and validates a single plugin definition payload.
func ParseDefinitionYAML(data []byte) (ModuleDefinition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return ModuleDefinition{}, fmt.Errorf("plugin: definition payload is empty")
	}
	var def ModuleDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return ModuleDefinition{}, fmt.Errorf("plugin: decode definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return ModuleDefinition{}, err
	}
	return def.Normalized(), nil
}

// LoadDefinitionFile reads a YAML file from disk and returns the parsed module definition.
func LoadDefinitionFile(path string) (ModuleDefinition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ModuleDefinition{}, fmt.Errorf("plugin: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return ModuleDefinition{}, fmt.Errorf("plugin: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ModuleDefinition{}, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	def, err := ParseDefinitionYAML(data)
	if err != nil {
		return ModuleDefinition{}, fmt.Errorf("plugin: %s: %w", filepath.Base(path), err)
	}
	return def, nil
}

// YAMLLoader turns *.yaml and *.yml definitions into declarative modules.
type YAMLLoader struct{}

// Accepts implements Loader.
func (YAMLLoader) Accepts(path string) bool {
	lower := strings.ToLower(strings.TrimSpace(path))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}

// Load implements Loader. A file holds exactly one definition.
func (YAMLLoader) Load(_ context.Context, path string) ([]module.BotModule, error) {
	def, err := LoadDefinitionFile(path)
	if err != nil {
		return nil, err
	}
	mod, err := NewDefinitionModule(def)
	if err != nil {
		return nil, err
	}
	return []module.BotModule{mod}, nil
}
