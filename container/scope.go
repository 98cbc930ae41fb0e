package container

import (
	"fmt"
	"strings"

	"go.uber.org/fx"
)

// Scope collects the registrations of a single module.
type Scope struct {
	parent    *Container
	module    string
	options   []fx.Option
	entries   []Entry
	values    map[string]any
	committed bool
}

// Module returns the owning module name.
func (s *Scope) Module() string {
	return s.module
}

// Provide registers constructors with the application graph.
func (s *Scope) Provide(constructors ...any) {
	for _, ctor := range constructors {
		if ctor == nil {
			continue
		}
		s.options = append(s.options, fx.Provide(ctor))
		s.entries = append(s.entries, Entry{Module: s.module, Kind: KindProvide, Type: fmt.Sprintf("%T", ctor)})
	}
}

// Invoke registers functions that run when the application is built.
func (s *Scope) Invoke(funcs ...any) {
	for _, fn := range funcs {
		if fn == nil {
			continue
		}
		s.options = append(s.options, fx.Invoke(fn))
		s.entries = append(s.entries, Entry{Module: s.module, Kind: KindInvoke, Type: fmt.Sprintf("%T", fn)})
	}
}

// Supply registers a named value. Names are unique across the container.
func (s *Scope) Supply(name string, value any) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("container: %s: value name is required", s.module)
	}
	if value == nil {
		return fmt.Errorf("container: %s: value %q is nil", s.module, name)
	}
	if _, exists := s.values[name]; exists {
		return fmt.Errorf("container: %s: value %q supplied twice", s.module, name)
	}
	if _, exists := s.parent.Value(name); exists {
		return fmt.Errorf("container: value %q already supplied", name)
	}
	s.values[name] = value
	s.options = append(s.options, fx.Supply(fx.Annotated{Name: name, Target: value}))
	s.entries = append(s.entries, Entry{Module: s.module, Kind: KindSupply, Name: name, Type: fmt.Sprintf("%T", value)})
	return nil
}

// Option appends raw fx options for registrations the helpers do not cover.
func (s *Scope) Option(opts ...fx.Option) {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		s.options = append(s.options, opt)
		s.entries = append(s.entries, Entry{Module: s.module, Kind: KindOption, Type: fmt.Sprintf("%T", opt)})
	}
}

// Entries returns the registrations collected so far.
func (s *Scope) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

// Commit publishes the scope into its container. A scope commits once.
func (s *Scope) Commit() error {
	if s.committed {
		return fmt.Errorf("container: scope for %s already committed", s.module)
	}
	if s.module == "" {
		return fmt.Errorf("container: scope module name is required")
	}
	if err := s.parent.commit(s); err != nil {
		return err
	}
	s.committed = true
	return nil
}
