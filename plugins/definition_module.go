package plugins

import (
	"fmt"
	"sort"

	"github.com/kingrea/lattice-bot/container"
	"github.com/kingrea/lattice-bot/module"
)

// SettingsSuffix names the value under which a declarative module's merged
// settings are supplied, e.g. "greeter.settings".
const SettingsSuffix = "settings"

// DefinitionModule is a BotModule backed by a ModuleDefinition. It supplies
// each declared service as a named value "<module>.<service>".
type DefinitionModule struct {
	module.Base
	definition ModuleDefinition
}

// NewDefinitionModule validates def and wraps it as a module.
func NewDefinitionModule(def ModuleDefinition) (*DefinitionModule, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	normalized := def.Normalized()
	return &DefinitionModule{
		Base:       module.NewBase(normalized.Metadata()),
		definition: normalized,
	}, nil
}

// Definition returns the normalized definition.
func (m *DefinitionModule) Definition() ModuleDefinition {
	return m.definition
}

// RegisterServices implements module.BotModule. Host settings override the
// defaults declared in the definition.
func (m *DefinitionModule) RegisterServices(services *container.Scope, cfg module.Config) error {
	if services == nil {
		return fmt.Errorf("plugin %s: services scope is required", m.definition.Name)
	}
	prefix := module.KeyOf(m.definition.Name)
	keys := make([]string, 0, len(m.definition.Services))
	for key := range m.definition.Services {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := services.Supply(prefix+"."+key, m.definition.Services[key]); err != nil {
			return err
		}
	}
	if merged := m.definition.Settings.Merge(cfg); len(merged) > 0 {
		if err := services.Supply(prefix+"."+SettingsSuffix, merged); err != nil {
			return err
		}
	}
	return nil
}
