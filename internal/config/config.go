// internal/config/config.go
//
// This package handles configuration and the .lattice directory structure.
// Every project that runs latticebot gets a .lattice/ folder in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/lattice-bot/module"
)

const (
	// LatticeDir is the name of the directory we create in each project
	LatticeDir = ".lattice"

	defaultPluginsDir      = "plugins"
	defaultGraphExport     = "module_graph.dot"
	defaultStartupTimeout  = 30 * time.Second
	defaultLogLevel        = "info"
	defaultDiagnosticsHost = "127.0.0.1"
	defaultDiagnosticsPort = 8766
)

const defaultProjectConfigYAML = `# latticebot project configuration
version: 1

modules:
  # Modules to activate, in order. Dependencies are pulled in automatically.
  enabled:
    - Core
  # Plugin files (*.yaml, *.go, *.so) are loaded from here, relative to .lattice.
  plugins_dir: plugins
  # What to do when two modules share a name: strict, permissive or newest.
  duplicates: permissive
  # Dependency graph written after startup. Set to "" to disable.
  graph_export: module_graph.dot
  startup_timeout: 30s
  # Per-module settings, keyed by module name.
  settings: {}
  # Example:
  #   onebot:
  #     ws_url: ws://127.0.0.1:3001
  #     access_token: ""

logging:
  level: info
  file: true

diagnostics:
  enabled: false
  host: 127.0.0.1
  port: 8766
`

// ModulesConfig selects and configures bot modules.
type ModulesConfig struct {
	Enabled        []string                  `yaml:"enabled" env:"LATTICEBOT_MODULES_ENABLED"`
	PluginsDir     string                    `yaml:"plugins_dir" env:"LATTICEBOT_MODULES_PLUGINS_DIR"`
	Duplicates     string                    `yaml:"duplicates" env:"LATTICEBOT_MODULES_DUPLICATES"`
	GraphExport    string                    `yaml:"graph_export" env:"LATTICEBOT_MODULES_GRAPH_EXPORT"`
	StartupTimeout time.Duration             `yaml:"startup_timeout" env:"LATTICEBOT_MODULES_STARTUP_TIMEOUT"`
	Settings       map[string]map[string]any `yaml:"settings,omitempty"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level" env:"LATTICEBOT_LOG_LEVEL"`
	File  bool   `yaml:"file" env:"LATTICEBOT_LOG_FILE"`
}

// DiagnosticsConfig controls the local diagnostics HTTP server.
type DiagnosticsConfig struct {
	Enabled bool   `yaml:"enabled" env:"LATTICEBOT_DIAGNOSTICS_ENABLED"`
	Host    string `yaml:"host" env:"LATTICEBOT_DIAGNOSTICS_HOST"`
	Port    int    `yaml:"port" env:"LATTICEBOT_DIAGNOSTICS_PORT"`
}

// ProjectConfig models .lattice/config.yaml.
type ProjectConfig struct {
	Version     int               `yaml:"version"`
	Modules     ModulesConfig     `yaml:"modules"`
	Logging     LoggingConfig     `yaml:"logging"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

// Config holds the runtime configuration for latticebot.
type Config struct {
	// ProjectDir is the directory latticebot runs against
	ProjectDir string

	// LatticeProjectDir is ProjectDir/.lattice
	LatticeProjectDir string

	Project ProjectConfig
}

// InitLatticeDir creates the .lattice directory structure in the given project directory.
//
// Structure created:
// .lattice/
// ├── config.yaml
// ├── logs/      <- latticebot.log
// ├── plugins/   <- plugin modules
// └── state/     <- runtime state
func InitLatticeDir(projectDir string) error {
	latticeDir := filepath.Join(projectDir, LatticeDir)
	dirs := []string{
		filepath.Join(latticeDir, "logs"),
		filepath.Join(latticeDir, "plugins"),
		filepath.Join(latticeDir, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(latticeDir, "config.yaml"))
}

// NewConfig loads .lattice/config.yaml (when present) and applies
// LATTICEBOT_* environment overrides on top.
func NewConfig(projectDir string) (*Config, error) {
	if strings.TrimSpace(projectDir) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("config: resolve working directory: %w", err)
		}
		projectDir = wd
	}
	cfg := &Config{
		ProjectDir:        projectDir,
		LatticeProjectDir: filepath.Join(projectDir, LatticeDir),
		Project:           defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.LatticeProjectDir, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.LatticeProjectDir, "state")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.LatticeProjectDir, "config.yaml")
}

// PluginsDir returns the resolved plugins directory.
func (c *Config) PluginsDir() string {
	return resolvePath(c.LatticeProjectDir, c.Project.Modules.PluginsDir)
}

// GraphExportPath returns where the dependency graph is written, or "" when
// the export is disabled. Relative paths are kept relative to the working
// directory.
func (c *Config) GraphExportPath() string {
	return strings.TrimSpace(c.Project.Modules.GraphExport)
}

// EnabledModules returns the configured resolution roots in order.
func (c *Config) EnabledModules() []string {
	return append([]string(nil), c.Project.Modules.Enabled...)
}

// StartupTimeout bounds module loading at startup.
func (c *Config) StartupTimeout() time.Duration {
	return c.Project.Modules.StartupTimeout
}

// DuplicatePolicy returns the configured registry duplicate policy.
func (c *Config) DuplicatePolicy() module.DuplicatePolicy {
	policy, err := module.ParseDuplicatePolicy(c.Project.Modules.Duplicates)
	if err != nil {
		return module.DuplicatePermissive
	}
	return policy
}

// ModuleSettings returns the settings block for a module. Lookup is
// case-insensitive to match module names.
func (c *Config) ModuleSettings(name string) module.Config {
	key := module.KeyOf(name)
	for candidate, values := range c.Project.Modules.Settings {
		if module.KeyOf(candidate) == key {
			return module.Config(values).Merge(nil)
		}
	}
	return nil
}

// DiagnosticsAddr returns host:port for the diagnostics server.
func (c *Config) DiagnosticsAddr() string {
	return fmt.Sprintf("%s:%d", c.Project.Diagnostics.Host, c.Project.Diagnostics.Port)
}

// SetEnabledModules replaces the resolution roots and persists the value back
// to .lattice/config.yaml.
func (c *Config) SetEnabledModules(names []string) error {
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" || contains(cleaned, trimmed) {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	c.Project.Modules.Enabled = cleaned
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	// Decode over defaults so absent keys keep them and explicit empties win.
	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) applyEnv() error {
	if err := env.Parse(&c.Project); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Modules: ModulesConfig{
			PluginsDir:     defaultPluginsDir,
			Duplicates:     string(module.DuplicatePermissive),
			GraphExport:    defaultGraphExport,
			StartupTimeout: defaultStartupTimeout,
		},
		Logging: LoggingConfig{
			Level: defaultLogLevel,
			File:  true,
		},
		Diagnostics: DiagnosticsConfig{
			Host: defaultDiagnosticsHost,
			Port: defaultDiagnosticsPort,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Modules.PluginsDir) == "" {
		pc.Modules.PluginsDir = defaultPluginsDir
	}
	if pc.Modules.StartupTimeout == 0 {
		pc.Modules.StartupTimeout = defaultStartupTimeout
	}
	if strings.TrimSpace(pc.Logging.Level) == "" {
		pc.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(pc.Diagnostics.Host) == "" {
		pc.Diagnostics.Host = defaultDiagnosticsHost
	}
	if pc.Diagnostics.Port == 0 {
		pc.Diagnostics.Port = defaultDiagnosticsPort
	}
}

func (pc *ProjectConfig) normalize() {
	enabled := make([]string, 0, len(pc.Modules.Enabled))
	for _, name := range pc.Modules.Enabled {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			enabled = append(enabled, trimmed)
		}
	}
	pc.Modules.Enabled = enabled
	pc.Modules.PluginsDir = strings.TrimSpace(pc.Modules.PluginsDir)
	pc.Modules.Duplicates = strings.ToLower(strings.TrimSpace(pc.Modules.Duplicates))
	pc.Modules.GraphExport = strings.TrimSpace(pc.Modules.GraphExport)
	pc.Logging.Level = strings.ToLower(strings.TrimSpace(pc.Logging.Level))
	pc.Diagnostics.Host = strings.TrimSpace(pc.Diagnostics.Host)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if _, err := module.ParseDuplicatePolicy(pc.Modules.Duplicates); err != nil {
		return fmt.Errorf("modules.duplicates: %w", err)
	}
	if pc.Modules.StartupTimeout < 0 {
		return fmt.Errorf("modules.startup_timeout must not be negative")
	}
	switch pc.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error")
	}
	if pc.Diagnostics.Port < 0 || pc.Diagnostics.Port > 65535 {
		return fmt.Errorf("diagnostics.port %d is out of range", pc.Diagnostics.Port)
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.LatticeProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure lattice dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
