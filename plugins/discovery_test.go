package plugins

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kingrea/lattice-bot/container"
	"github.com/kingrea/lattice-bot/internal/metrics"
	"github.com/kingrea/lattice-bot/module"
)

type builtinModule struct {
	module.Base
}

func newBuiltin(name string) *builtinModule {
	return &builtinModule{Base: module.NewBase(module.Metadata{Name: name, Version: "1.0.0"})}
}

func (m *builtinModule) RegisterServices(*container.Scope, module.Config) error { return nil }

type panickyLoader struct{}

func (panickyLoader) Accepts(path string) bool { return filepath.Ext(path) == ".boom" }

func (panickyLoader) Load(context.Context, string) ([]module.BotModule, error) {
	panic("constructor exploded")
}

func names(candidates []Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Module.Metadata().Name
	}
	return out
}

func TestDirectoryMissingYieldsNothing(t *testing.T) {
	found, warnings := Directory(filepath.Join(t.TempDir(), "missing")).Discover(context.Background())
	if len(found) != 0 || len(warnings) != 0 {
		t.Fatalf("expected nothing, got %v / %v", found, warnings)
	}
}

func TestDirectorySkipsBrokenPlugins(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "a-greeter.yaml", sampleDefinition)
	writePlugin(t, dir, "b-broken.yaml", "name: [oops\n")
	writePlugin(t, dir, "c-weather.go", goPluginSource)
	writePlugin(t, dir, "d-native.so", "not an elf file")
	writePlugin(t, dir, "e-boom.boom", "x")
	writePlugin(t, dir, "README.md", "ignored")

	provider := Directory(dir, YAMLLoader{}, GoLoader{}, NativeLoader{}, panickyLoader{})
	found, warnings := provider.Discover(context.Background())

	got := names(found)
	want := []string{"Greeter", "Weather", "Dice"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if len(warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %d: %v", len(warnings), warnings)
	}
	if warnings[0].Source != filepath.Join(dir, "b-broken.yaml") {
		t.Fatalf("unexpected first warning source %s", warnings[0].Source)
	}
	if found[1].Source != filepath.Join(dir, "c-weather.go")+"#1" {
		t.Fatalf("unexpected multi-module source %s", found[1].Source)
	}
	if module.KindOf(warnings[2]) != module.KindDiscovery {
		t.Fatalf("expected discovery kind, got %q", module.KindOf(warnings[2]))
	}
}

func TestDiscoverConcatenatesProvidersAndLogs(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "greeter.yaml", sampleDefinition)
	writePlugin(t, dir, "broken.yaml", "")

	core, logs := observer.New(zap.WarnLevel)
	collectors := metrics.New()
	found, warnings := Discover(context.Background(), zap.New(core), collectors,
		InProcess(newBuiltin("Core"), nil, newBuiltin("Greeter")),
		Directory(dir),
	)
	got := names(found)
	if len(got) != 3 || got[0] != "Core" || got[1] != "Greeter" || got[2] != "Greeter" {
		t.Fatalf("expected builtins then plugins with duplicates kept, got %v", got)
	}
	if found[0].Source != BuiltinSource || found[2].Source != filepath.Join(dir, "greeter.yaml") {
		t.Fatalf("unexpected sources: %+v", found)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected nil builtin and broken yaml warnings, got %v", warnings)
	}
	if logs.FilterMessage("plugin skipped").Len() != 2 {
		t.Fatalf("expected 2 warning logs, got %d", logs.Len())
	}
}

func TestDiscoverStopsDirectoryOnCancel(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "greeter.yaml", sampleDefinition)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	found, warnings := Directory(dir).Discover(ctx)
	if len(found) != 0 {
		t.Fatalf("expected no candidates after cancel, got %d", len(found))
	}
	if len(warnings) != 1 || !errors.Is(warnings[0], context.Canceled) {
		t.Fatalf("expected cancellation warning, got %v", warnings)
	}
}
