package plugins

import (
	"testing"

	"github.com/kingrea/lattice-bot/container"
	"github.com/kingrea/lattice-bot/module"
)

func TestDefinitionModuleSuppliesServices(t *testing.T) {
	def, err := ParseDefinitionYAML([]byte(sampleDefinition))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	mod, err := NewDefinitionModule(def)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	c := container.New()
	scope := c.Scope("Greeter")
	if err := mod.RegisterServices(scope, module.Config{"prefix": "/", "lang": "en"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := scope.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if v, ok := c.Value("greeter.greeting"); !ok || v != "hello" {
		t.Fatalf("expected greeting service, got %v", v)
	}
	raw, ok := c.Value("greeter.settings")
	if !ok {
		t.Fatalf("expected merged settings")
	}
	settings := raw.(module.Config)
	if settings.String("prefix") != "/" || settings.String("lang") != "en" {
		t.Fatalf("host settings should override defaults: %v", settings)
	}
}

func TestDefinitionModuleWithoutSettings(t *testing.T) {
	mod, err := NewDefinitionModule(ModuleDefinition{Name: "Dice"})
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	c := container.New()
	scope := c.Scope("Dice")
	if err := mod.RegisterServices(scope, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(scope.Entries()) != 0 {
		t.Fatalf("expected no registrations, got %v", scope.Entries())
	}
	if _, err := NewDefinitionModule(ModuleDefinition{}); err == nil {
		t.Fatalf("expected nameless definition to fail")
	}
}
