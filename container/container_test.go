package container

import (
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

type greeter struct{ greeting string }

func TestScopeCommitPublishesRegistrations(t *testing.T) {
	c := New()
	scope := c.Scope("Greeter")
	scope.Provide(func() *greeter { return &greeter{greeting: "hi"} })
	if err := scope.Supply("greeter.prefix", ">>"); err != nil {
		t.Fatalf("supply: %v", err)
	}
	if len(c.Entries()) != 0 {
		t.Fatalf("entries visible before commit")
	}
	if err := scope.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !c.Has("greeter") {
		t.Fatalf("expected case-insensitive module lookup")
	}
	entries := c.EntriesFor("Greeter")
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}
	if entries[0].Kind != KindProvide || entries[1].Kind != KindSupply {
		t.Fatalf("unexpected entry kinds: %+v", entries)
	}
	if value, ok := c.Value("greeter.prefix"); !ok || value != ">>" {
		t.Fatalf("unexpected value %v (%v)", value, ok)
	}
	if len(c.Options()) != 1 {
		t.Fatalf("expected one fx.Module option, got %d", len(c.Options()))
	}
}

func TestScopeCommitTwiceFails(t *testing.T) {
	c := New()
	scope := c.Scope("A")
	if err := scope.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := scope.Commit(); err == nil {
		t.Fatalf("expected second commit to fail")
	}
	if err := c.Scope("a").Commit(); err == nil {
		t.Fatalf("expected duplicate module commit to fail")
	}
}

func TestSupplyRejectsConflicts(t *testing.T) {
	c := New()
	first := c.Scope("First")
	if err := first.Supply("shared", 1); err != nil {
		t.Fatalf("supply: %v", err)
	}
	if err := first.Supply("shared", 2); err == nil {
		t.Fatalf("expected duplicate supply within scope to fail")
	}
	if err := first.Supply("nil", nil); err == nil {
		t.Fatalf("expected nil value to be rejected")
	}
	if err := first.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	second := c.Scope("Second")
	if err := second.Supply("shared", 3); err == nil {
		t.Fatalf("expected cross-module duplicate to fail")
	}
}

func TestOptionsBuildApplication(t *testing.T) {
	c := New()
	scope := c.Scope("Greeter")
	scope.Provide(func() *greeter { return &greeter{greeting: "hello"} })
	if err := scope.Supply("greeter.name", "lattice"); err != nil {
		t.Fatalf("supply: %v", err)
	}
	if err := scope.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	var got *greeter
	var name string
	app := fxtest.New(t,
		fx.Options(c.Options()...),
		fx.Populate(&got),
		fx.Invoke(fx.Annotate(func(n string) { name = n }, fx.ParamTags(`name:"greeter.name"`))),
	)
	app.RequireStart()
	app.RequireStop()
	if got == nil || got.greeting != "hello" {
		t.Fatalf("unexpected greeter %+v", got)
	}
	if name != "lattice" {
		t.Fatalf("unexpected supplied name %q", name)
	}
}
