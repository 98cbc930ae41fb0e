package plugins

import (
	"fmt"
	"strings"

	"github.com/kingrea/lattice-bot/module"
)

// ModuleDefinition describes a declarative plugin module.
//
// The struct mirrors the on-disk schema of *.yaml files in the plugins
// directory and the maps returned by BotModules() in Go source plugins. It
// carries metadata plus static services so small plugins need no code.
type ModuleDefinition struct {
	Name        string         `json:"name" yaml:"name"`
	Version     string         `json:"version,omitempty" yaml:"version,omitempty"`
	Author      string         `json:"author,omitempty" yaml:"author,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Requires    []string       `json:"requires,omitempty" yaml:"requires,omitempty"`
	Optional    []string       `json:"optional,omitempty" yaml:"optional,omitempty"`
	Services    map[string]any `json:"services,omitempty" yaml:"services,omitempty"`
	Settings    module.Config  `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Normalized returns a trimmed, copy-on-write variant of the definition.
func (def ModuleDefinition) Normalized() ModuleDefinition {
	meta := def.Metadata().Normalized()
	clone := ModuleDefinition{
		Name:        meta.Name,
		Version:     meta.Version,
		Author:      meta.Author,
		Description: meta.Description,
		Requires:    meta.RequiredModules,
		Optional:    meta.OptionalModules,
	}
	if len(def.Services) > 0 {
		clone.Services = make(map[string]any, len(def.Services))
		for key, value := range def.Services {
			trimmed := strings.TrimSpace(key)
			if trimmed == "" {
				continue
			}
			clone.Services[trimmed] = value
		}
	}
	if len(def.Settings) > 0 {
		clone.Settings = module.Config{}.Merge(def.Settings)
	}
	return clone
}

// Metadata converts the definition into module metadata.
func (def ModuleDefinition) Metadata() module.Metadata {
	return module.Metadata{
		Name:            def.Name,
		Version:         def.Version,
		Author:          def.Author,
		Description:     def.Description,
		RequiredModules: append([]string(nil), def.Requires...),
		OptionalModules: append([]string(nil), def.Optional...),
	}
}

// Validate ensures the plugin definition is well-formed.
func (def ModuleDefinition) Validate() error {
	normalized := def.Normalized()
	if normalized.Name == "" {
		return fmt.Errorf("plugin: name is required")
	}
	if err := normalized.Metadata().Validate(); err != nil {
		return fmt.Errorf("plugin %s: %w", normalized.Name, err)
	}
	for key, value := range normalized.Services {
		if value == nil {
			return fmt.Errorf("plugin %s: service %s has no value", normalized.Name, key)
		}
		if strings.ContainsAny(key, " \t") {
			return fmt.Errorf("plugin %s: service name %q contains whitespace", normalized.Name, key)
		}
	}
	return nil
}
