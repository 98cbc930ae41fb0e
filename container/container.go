// Package container is the service registration boundary handed to bot
// modules. Registrations are collected as fx options grouped per module and
// turned into a running application by the host once every enabled module has
// been activated.
package container

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/fx"
)

// Kind describes how a registration enters the application graph.
type Kind string

const (
	KindProvide Kind = "provide"
	KindInvoke  Kind = "invoke"
	KindSupply  Kind = "supply"
	KindOption  Kind = "option"
)

// Entry records a single registration for diagnostics.
type Entry struct {
	Module string
	Kind   Kind
	Name   string
	Type   string
}

// Container accumulates committed module scopes.
type Container struct {
	mu      sync.Mutex
	modules []string
	owners  map[string]string
	options []fx.Option
	entries []Entry
	values  map[string]any
}

// New returns an empty container.
func New() *Container {
	return &Container{
		owners: map[string]string{},
		values: map[string]any{},
	}
}

// Scope opens a registration scope for the named module. Nothing reaches the
// container until the scope is committed.
func (c *Container) Scope(module string) *Scope {
	return &Scope{
		parent: c,
		module: strings.TrimSpace(module),
		values: map[string]any{},
	}
}

// Options returns the committed fx options in commit order.
func (c *Container) Options() []fx.Option {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]fx.Option(nil), c.options...)
}

// Entries returns every committed registration in commit order.
func (c *Container) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry(nil), c.entries...)
}

// EntriesFor returns the registrations made by one module.
func (c *Container) EntriesFor(module string) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Entry
	for _, entry := range c.entries {
		if strings.EqualFold(entry.Module, module) {
			out = append(out, entry)
		}
	}
	return out
}

// Modules lists committed module names in commit order.
func (c *Container) Modules() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.modules...)
}

// Has reports whether the module already committed a scope.
func (c *Container) Has(module string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.owners[foldName(module)]
	return ok
}

// Value returns a named value supplied by any committed module.
func (c *Container) Value(name string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[name]
	return value, ok
}

// ValueNames returns the sorted names of all supplied values.
func (c *Container) ValueNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.values))
	for name := range c.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Container) commit(s *Scope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := foldName(s.module)
	if _, exists := c.owners[key]; exists {
		return fmt.Errorf("container: module %s already registered", s.module)
	}
	for name := range s.values {
		if _, exists := c.values[name]; exists {
			return fmt.Errorf("container: value %q already supplied", name)
		}
	}
	c.owners[key] = s.module
	c.modules = append(c.modules, s.module)
	if len(s.options) > 0 {
		c.options = append(c.options, fx.Module(s.module, s.options...))
	}
	c.entries = append(c.entries, s.entries...)
	for name, value := range s.values {
		c.values[name] = value
	}
	return nil
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
