package plugins

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const sampleDefinition = `name: Greeter
version: 1.0.0
author: lattice
description: Replies to greetings.
requires: [Core, " core "]
optional: [Scheduler]
services:
  greeting: hello
settings:
  prefix: "!"
`

func TestParseDefinitionYAML(t *testing.T) {
	def, err := ParseDefinitionYAML([]byte(sampleDefinition))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.Name != "Greeter" || def.Version != "1.0.0" {
		t.Fatalf("unexpected definition: %+v", def)
	}
	if len(def.Requires) != 1 || def.Requires[0] != "Core" {
		t.Fatalf("expected normalized requires, got %v", def.Requires)
	}
	if def.Services["greeting"] != "hello" {
		t.Fatalf("unexpected services: %v", def.Services)
	}
}

func TestParseDefinitionYAMLErrors(t *testing.T) {
	if _, err := ParseDefinitionYAML([]byte("")); err == nil {
		t.Fatalf("expected empty payload to fail")
	}
	if _, err := ParseDefinitionYAML([]byte("version: 1.0.0\n")); err == nil {
		t.Fatalf("expected missing name to fail")
	}
	if _, err := ParseDefinitionYAML([]byte("name: [broken\n")); err == nil {
		t.Fatalf("expected malformed yaml to fail")
	}
	if _, err := ParseDefinitionYAML([]byte("name: X\nservices:\n  empty:\n")); err == nil {
		t.Fatalf("expected nil service value to fail")
	}
}

func TestYAMLLoaderLoadsModule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greeter.yml")
	if err := os.WriteFile(path, []byte(sampleDefinition), 0644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	loader := YAMLLoader{}
	if !loader.Accepts(path) || loader.Accepts("greeter.go") {
		t.Fatalf("unexpected Accepts result")
	}
	mods, err := loader.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(mods) != 1 {
		t.Fatalf("expected 1 module, got %d", len(mods))
	}
	meta := mods[0].Metadata()
	if meta.Name != "Greeter" || len(meta.OptionalModules) != 1 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestLoadDefinitionFileRejectsDirectory(t *testing.T) {
	if _, err := LoadDefinitionFile(t.TempDir()); err == nil {
		t.Fatalf("expected directory to fail")
	}
}
