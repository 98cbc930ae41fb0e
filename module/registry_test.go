package module

import (
	"errors"
	"testing"

	"github.com/kingrea/lattice-bot/container"
)

type stubModule struct {
	Base
}

func newStub(name, version string, requires ...string) *stubModule {
	base := NewBase(Metadata{Name: name, Version: version})
	base.Requires(requires...)
	return &stubModule{Base: base}
}

func (m *stubModule) RegisterServices(*container.Scope, Config) error { return nil }

func TestRegistryLookupIsCaseInsensitive(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Add("builtin", newStub("OneBot", "1.0.0")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, ok := reg.Lookup("onebot"); !ok {
		t.Fatalf("expected lookup by folded name")
	}
	if _, ok := reg.Lookup("  ONEBOT "); !ok {
		t.Fatalf("expected lookup with whitespace and upper case")
	}
	if got := reg.Source("OneBot"); got != "builtin" {
		t.Fatalf("unexpected source %q", got)
	}
}

func TestRegistryPermissiveLastWins(t *testing.T) {
	reg := NewRegistry()
	reg.MustAdd("first", newStub("Gacha", "1.0.0"))
	reg.MustAdd("second", newStub("gacha", "0.9.0"))
	if reg.Len() != 1 {
		t.Fatalf("expected a single entry, got %d", reg.Len())
	}
	if got := reg.Source("Gacha"); got != "second" {
		t.Fatalf("expected last discovered module to win, got %s", got)
	}
}

func TestRegistryStrictRejectsDuplicates(t *testing.T) {
	reg := NewRegistry(WithDuplicatePolicy(DuplicateStrict))
	reg.MustAdd("first", newStub("Gacha", "1.0.0"))
	err := reg.Add("second", newStub("GACHA", "1.0.0"))
	if !errors.Is(err, ErrDuplicateModule) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if KindOf(err) != KindDuplicate {
		t.Fatalf("unexpected kind %q", KindOf(err))
	}
	if got := reg.Source("gacha"); got != "first" {
		t.Fatalf("strict registry must keep the first module, got %s", got)
	}
}

func TestRegistryNewestKeepsHigherVersion(t *testing.T) {
	reg := NewRegistry(WithDuplicatePolicy(DuplicateNewest))
	reg.MustAdd("plugin-v2", newStub("Polls", "2.1.0"))
	reg.MustAdd("plugin-v1", newStub("Polls", "1.4.0"))
	if got := reg.Source("polls"); got != "plugin-v2" {
		t.Fatalf("expected newer module kept, got %s", got)
	}
	reg.MustAdd("plugin-v3", newStub("Polls", "3.0.0"))
	if got := reg.Source("polls"); got != "plugin-v3" {
		t.Fatalf("expected newest module to replace, got %s", got)
	}
}

func TestRegistryRejectsInvalidMetadata(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Add("broken", newStub("  ", "1.0.0")); err == nil {
		t.Fatalf("expected empty name to be rejected")
	}
	if err := reg.Add("nil", nil); err == nil {
		t.Fatalf("expected nil module to be rejected")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := NewRegistry()
	reg.MustAdd("b", newStub("beta", ""))
	reg.MustAdd("a", newStub("Alpha", ""))
	reg.MustAdd("c", newStub("Charlie", ""))
	names := reg.Names()
	if len(names) != 3 || names[0] != "Alpha" || names[1] != "beta" || names[2] != "Charlie" {
		t.Fatalf("unexpected order: %v", names)
	}
}

func TestParseDuplicatePolicy(t *testing.T) {
	for input, want := range map[string]DuplicatePolicy{
		"":           DuplicatePermissive,
		"Strict":     DuplicateStrict,
		" newest ":   DuplicateNewest,
		"permissive": DuplicatePermissive,
	} {
		got, err := ParseDuplicatePolicy(input)
		if err != nil || got != want {
			t.Fatalf("ParseDuplicatePolicy(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := ParseDuplicatePolicy("loose"); err == nil {
		t.Fatalf("expected unknown policy to fail")
	}
}
