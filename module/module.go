package module

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/kingrea/lattice-bot/container"
)

// Metadata describes a module's identity and its dependency edges.
type Metadata struct {
	Name        string
	Version     string
	Author      string
	Description string
	// RequiredModules must be discovered and activated before this module.
	RequiredModules []string
	// OptionalModules are activated first when present and enabled; their
	// absence is never an error.
	OptionalModules []string
}

// BotModule is the unit of pluggable bot functionality.
type BotModule interface {
	// Metadata must be cheap and free of side effects.
	Metadata() Metadata
	// RegisterServices wires the module's capabilities into the shared
	// container. It must not activate other modules.
	RegisterServices(services *container.Scope, cfg Config) error
}

// KeyOf folds a module name into the registry key used for lookups.
func KeyOf(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Key returns the case-insensitive identity of the module.
func (m Metadata) Key() string {
	return KeyOf(m.Name)
}

// Normalized returns a trimmed copy with empty and repeated dependency names
// removed. Declaration order is preserved.
func (m Metadata) Normalized() Metadata {
	return Metadata{
		Name:            strings.TrimSpace(m.Name),
		Version:         strings.TrimSpace(m.Version),
		Author:          strings.TrimSpace(m.Author),
		Description:     strings.TrimSpace(m.Description),
		RequiredModules: normalizeNames(m.RequiredModules),
		OptionalModules: normalizeNames(m.OptionalModules),
	}
}

// Validate ensures the metadata block is well-formed.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("module: name is required")
	}
	for idx, dep := range m.RequiredModules {
		if strings.TrimSpace(dep) == "" {
			return fmt.Errorf("module %s: required[%d] is empty", m.Name, idx)
		}
	}
	for idx, dep := range m.OptionalModules {
		if strings.TrimSpace(dep) == "" {
			return fmt.Errorf("module %s: optional[%d] is empty", m.Name, idx)
		}
	}
	return nil
}

// SemVer parses Version. Nil means the version is not semantic; versions are
// informational so callers treat that as a warning at most.
func (m Metadata) SemVer() *semver.Version {
	v, err := semver.NewVersion(strings.TrimSpace(m.Version))
	if err != nil {
		return nil
	}
	return v
}

// Requires reports whether name is a required dependency.
func (m Metadata) Requires(name string) bool {
	key := KeyOf(name)
	for _, dep := range m.RequiredModules {
		if KeyOf(dep) == key {
			return true
		}
	}
	return false
}

func normalizeNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		key := KeyOf(trimmed)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
