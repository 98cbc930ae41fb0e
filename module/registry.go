package module

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DuplicatePolicy decides what happens when two discovered modules share a name.
type DuplicatePolicy string

const (
	// DuplicatePermissive keeps the last discovered module and logs a warning.
	DuplicatePermissive DuplicatePolicy = "permissive"
	// DuplicateStrict rejects the second module with a DuplicateError.
	DuplicateStrict DuplicatePolicy = "strict"
	// DuplicateNewest keeps the module with the higher semantic version.
	DuplicateNewest DuplicatePolicy = "newest"
)

// ParseDuplicatePolicy maps a config value onto a policy. Empty means permissive.
func ParseDuplicatePolicy(value string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", DuplicatePermissive:
		return DuplicatePermissive, nil
	case DuplicateStrict:
		return DuplicateStrict, nil
	case DuplicateNewest:
		return DuplicateNewest, nil
	default:
		return "", fmt.Errorf("module: unknown duplicate policy %q (want strict, permissive or newest)", value)
	}
}

type registryEntry struct {
	module BotModule
	meta   Metadata
	source string
}

// Registry maps module names to discovered instances for one process.
type Registry struct {
	mu      sync.RWMutex
	policy  DuplicatePolicy
	logger  *zap.Logger
	entries map[string]registryEntry
}

// RegistryOption customizes registry construction.
type RegistryOption func(*Registry)

// WithDuplicatePolicy overrides the default permissive policy.
func WithDuplicatePolicy(policy DuplicatePolicy) RegistryOption {
	return func(r *Registry) {
		if policy != "" {
			r.policy = policy
		}
	}
}

// WithLogger routes registry warnings to logger.
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		policy:  DuplicatePermissive,
		logger:  zap.NewNop(),
		entries: map[string]registryEntry{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Policy returns the active duplicate policy.
func (r *Registry) Policy() DuplicatePolicy {
	return r.policy
}

// Add installs a discovered module. source identifies where it came from
// (e.g. "builtin" or a plugin file path) and is only used for diagnostics.
func (r *Registry) Add(source string, mod BotModule) error {
	if mod == nil {
		return fmt.Errorf("module: nil module from %s", source)
	}
	meta := mod.Metadata().Normalized()
	if err := meta.Validate(); err != nil {
		return fmt.Errorf("module: %s: %w", source, err)
	}
	if meta.Version != "" && meta.SemVer() == nil {
		r.logger.Warn("module version is not semantic",
			zap.String("module", meta.Name),
			zap.String("version", meta.Version),
			zap.String("source", source))
	}
	key := meta.Key()
	incoming := registryEntry{module: mod, meta: meta, source: source}

	r.mu.Lock()
	defer r.mu.Unlock()
	existing, dup := r.entries[key]
	if !dup {
		r.entries[key] = incoming
		return nil
	}
	switch r.policy {
	case DuplicateStrict:
		return &DuplicateError{Name: meta.Name, Existing: existing.source, Incoming: source}
	case DuplicateNewest:
		if olderThan(incoming.meta, existing.meta) {
			r.logger.Warn("duplicate module ignored, existing version is newer",
				zap.String("module", meta.Name),
				zap.String("kept", existing.source),
				zap.String("ignored", source))
			return nil
		}
	}
	r.logger.Warn("duplicate module replaced",
		zap.String("module", meta.Name),
		zap.String("replaced", existing.source),
		zap.String("kept", source))
	r.entries[key] = incoming
	return nil
}

// MustAdd panics if Add fails.
func (r *Registry) MustAdd(source string, mod BotModule) {
	if err := r.Add(source, mod); err != nil {
		panic(err)
	}
}

// Lookup returns the module registered under name (case-insensitive).
func (r *Registry) Lookup(name string) (BotModule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[KeyOf(name)]
	return entry.module, ok
}

// Metadata returns the normalized metadata captured when the module was added.
func (r *Registry) Metadata(name string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[KeyOf(name)]
	return entry.meta, ok
}

// Source reports where a module was discovered.
func (r *Registry) Source(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[KeyOf(name)].source
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Names returns the registered display names sorted case-insensitively.
func (r *Registry) Names() []string {
	metas := r.All()
	names := make([]string, len(metas))
	for i, meta := range metas {
		names[i] = meta.Name
	}
	return names
}

// All returns every module's metadata sorted by key.
func (r *Registry) All() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]Metadata, len(keys))
	for i, key := range keys {
		out[i] = r.entries[key].meta
	}
	return out
}

func olderThan(candidate, current Metadata) bool {
	cv, ev := candidate.SemVer(), current.SemVer()
	if cv == nil || ev == nil {
		return false
	}
	return cv.LessThan(ev)
}
