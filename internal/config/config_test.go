package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/lattice-bot/module"
)

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if cfg.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", cfg.Project.Version)
	}
	if cfg.PluginsDir() != filepath.Join(projectDir, ".lattice", "plugins") {
		t.Fatalf("unexpected plugins dir %s", cfg.PluginsDir())
	}
	if cfg.GraphExportPath() != "module_graph.dot" {
		t.Fatalf("unexpected graph export %q", cfg.GraphExportPath())
	}
	if cfg.StartupTimeout() != 30*time.Second {
		t.Fatalf("unexpected startup timeout %s", cfg.StartupTimeout())
	}
	if cfg.DuplicatePolicy() != module.DuplicatePermissive {
		t.Fatalf("unexpected policy %s", cfg.DuplicatePolicy())
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	latticeDir := filepath.Join(projectDir, ".lattice")
	if err := os.MkdirAll(latticeDir, 0755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
modules:
  enabled: [Core, " OneBot ", ""]
  plugins_dir: /opt/latticebot/plugins
  duplicates: Strict
  graph_export: ""
  startup_timeout: 5s
  settings:
    OneBot:
      ws_url: ws://127.0.0.1:3001
logging:
  level: DEBUG
  file: false
diagnostics:
  enabled: true
  port: 9000
`)
	if err := os.WriteFile(filepath.Join(latticeDir, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if got := strings.Join(cfg.EnabledModules(), ","); got != "Core,OneBot" {
		t.Fatalf("unexpected enabled modules %q", got)
	}
	if cfg.PluginsDir() != "/opt/latticebot/plugins" {
		t.Fatalf("absolute plugins dir should be kept, got %s", cfg.PluginsDir())
	}
	if cfg.DuplicatePolicy() != module.DuplicateStrict {
		t.Fatalf("unexpected policy %s", cfg.DuplicatePolicy())
	}
	if cfg.GraphExportPath() != "" {
		t.Fatalf("explicit empty export should disable it, got %q", cfg.GraphExportPath())
	}
	if cfg.StartupTimeout() != 5*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.StartupTimeout())
	}
	if cfg.ModuleSettings("onebot").String("ws_url") != "ws://127.0.0.1:3001" {
		t.Fatalf("settings lookup should be case-insensitive: %v", cfg.ModuleSettings("onebot"))
	}
	if cfg.ModuleSettings("Telegram") != nil {
		t.Fatalf("expected nil settings for unconfigured module")
	}
	if cfg.Project.Logging.Level != "debug" || cfg.Project.Logging.File {
		t.Fatalf("unexpected logging config %+v", cfg.Project.Logging)
	}
	if cfg.DiagnosticsAddr() != "127.0.0.1:9000" {
		t.Fatalf("unexpected diagnostics addr %s", cfg.DiagnosticsAddr())
	}
}

func TestLoadProjectConfigRejectsInvalid(t *testing.T) {
	projectDir := t.TempDir()
	latticeDir := filepath.Join(projectDir, ".lattice")
	if err := os.MkdirAll(latticeDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(latticeDir, "config.yaml"), []byte("modules:\n  duplicates: sometimes\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewConfig(projectDir); err == nil || !strings.Contains(err.Error(), "modules.duplicates") {
		t.Fatalf("expected duplicate policy error, got %v", err)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitLatticeDir(projectDir); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Setenv("LATTICEBOT_MODULES_ENABLED", "Core,Telegram")
	t.Setenv("LATTICEBOT_MODULES_DUPLICATES", "newest")
	t.Setenv("LATTICEBOT_DIAGNOSTICS_PORT", "9100")
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if got := strings.Join(cfg.EnabledModules(), ","); got != "Core,Telegram" {
		t.Fatalf("env should override enabled modules, got %q", got)
	}
	if cfg.DuplicatePolicy() != module.DuplicateNewest {
		t.Fatalf("unexpected policy %s", cfg.DuplicatePolicy())
	}
	if cfg.Project.Diagnostics.Port != 9100 {
		t.Fatalf("unexpected port %d", cfg.Project.Diagnostics.Port)
	}
}

func TestInitLatticeDirWritesDefaultConfig(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitLatticeDir(projectDir); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, dir := range []string{"logs", "plugins", "state"} {
		if info, err := os.Stat(filepath.Join(projectDir, ".lattice", dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s dir: %v", dir, err)
		}
	}
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if got := strings.Join(cfg.EnabledModules(), ","); got != "Core" {
		t.Fatalf("unexpected default enabled modules %q", got)
	}
}

func TestSetEnabledModulesPersists(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitLatticeDir(projectDir); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if err := cfg.SetEnabledModules([]string{"Core", "core", " Discord ", ""}); err != nil {
		t.Fatalf("SetEnabledModules returned error: %v", err)
	}
	reloaded, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := strings.Join(reloaded.EnabledModules(), ","); got != "Core,Discord" {
		t.Fatalf("expected persisted modules, got %q", got)
	}
}
