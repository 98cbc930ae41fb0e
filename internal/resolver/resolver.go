package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kingrea/lattice-bot/container"
	"github.com/kingrea/lattice-bot/internal/graph"
	"github.com/kingrea/lattice-bot/internal/metrics"
	"github.com/kingrea/lattice-bot/module"
)

// ConfigFunc returns the settings handed to a module's RegisterServices.
type ConfigFunc func(name string) module.Config

// Activation describes one module activated during a pass.
type Activation struct {
	Name     string
	Version  string
	Source   string
	Duration time.Duration
}

// Report summarizes a successful resolution pass.
type Report struct {
	Requested []string
	Activated []Activation
}

// Names returns activated module names in activation order.
func (r Report) Names() []string {
	out := make([]string, len(r.Activated))
	for i, a := range r.Activated {
		out[i] = a.Name
	}
	return out
}

// Resolver activates modules from a registry into a container.
type Resolver struct {
	registry   *module.Registry
	graph      *graph.Graph
	services   *container.Container
	configFor  ConfigFunc
	logger     *zap.Logger
	metrics    *metrics.Collectors
	exportPath string
	clock      func() time.Time
}

// Option customizes resolver construction.
type Option func(*Resolver)

// WithConfig supplies per-module settings.
func WithConfig(fn ConfigFunc) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.configFor = fn
		}
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records activations and failures.
func WithMetrics(c *metrics.Collectors) Option {
	return func(r *Resolver) {
		r.metrics = c
	}
}

// WithExportPath writes the DOT graph to path after each successful pass.
// An empty path disables the export.
func WithExportPath(path string) Option {
	return func(r *Resolver) {
		r.exportPath = strings.TrimSpace(path)
	}
}

// WithClock allows tests to control activation timings.
func WithClock(clock func() time.Time) Option {
	return func(r *Resolver) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// New builds the dependency graph for every module in the registry.
func New(reg *module.Registry, services *container.Container, opts ...Option) (*Resolver, error) {
	if reg == nil {
		return nil, fmt.Errorf("resolver: module registry is required")
	}
	if services == nil {
		return nil, fmt.Errorf("resolver: service container is required")
	}
	r := &Resolver{
		registry:  reg,
		graph:     graph.Build(reg.All()),
		services:  services,
		configFor: func(string) module.Config { return nil },
		logger:    zap.NewNop(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Graph returns the full dependency graph of discovered modules.
func (r *Resolver) Graph() *graph.Graph {
	return r.graph
}

// Validate runs cycle detection over the required edges.
func (r *Resolver) Validate() error {
	return r.graph.DetectCycle()
}

// Resolve activates every enabled module and its required dependencies,
// dependencies first, each exactly once. The first failure aborts the pass;
// modules activated before it stay registered.
func (r *Resolver) Resolve(ctx context.Context, enabled []string) (Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	report := Report{Requested: append([]string(nil), enabled...)}
	if err := r.Validate(); err != nil {
		r.fail(err)
		return report, err
	}
	pass := &pass{
		ctx:      ctx,
		r:        r,
		enabled:  make(map[string]bool, len(enabled)),
		resolved: map[string]bool{},
		onStack:  map[string]bool{},
		report:   &report,
	}
	for _, name := range enabled {
		pass.enabled[module.KeyOf(name)] = true
	}
	for _, name := range enabled {
		if strings.TrimSpace(name) == "" {
			err := &module.NotFoundError{Name: name}
			r.fail(err)
			return report, err
		}
		if err := pass.resolve(name, ""); err != nil {
			r.fail(err)
			return report, err
		}
	}
	r.metrics.SetActive(len(report.Activated))
	r.logger.Info("modules resolved",
		zap.Strings("requested", report.Requested),
		zap.Strings("activated", report.Names()))
	r.export()
	return report, nil
}

func (r *Resolver) fail(err error) {
	r.metrics.Failed(string(module.KindOf(err)))
	r.logger.Error("module resolution failed",
		zap.String("kind", string(module.KindOf(err))),
		zap.Error(err))
}

func (r *Resolver) export() {
	if r.exportPath == "" {
		return
	}
	if err := graph.ExportDOT(r.exportPath, r.graph); err != nil {
		r.logger.Warn("module graph export failed",
			zap.String("kind", string(module.KindExport)),
			zap.String("path", r.exportPath),
			zap.Error(err))
		return
	}
	r.logger.Debug("module graph exported", zap.String("path", r.exportPath))
}

// pass holds the state of one Resolve call.
type pass struct {
	ctx      context.Context
	r        *Resolver
	enabled  map[string]bool
	resolved map[string]bool
	onStack  map[string]bool
	stack    []string
	report   *Report
}

func (p *pass) resolve(name, requiredBy string) error {
	key := module.KeyOf(name)
	if p.resolved[key] {
		return nil
	}
	mod, ok := p.r.registry.Lookup(key)
	if !ok {
		return &module.NotFoundError{Name: strings.TrimSpace(name), RequiredBy: requiredBy}
	}
	if p.onStack[key] {
		return p.cycle(key)
	}
	if err := p.ctx.Err(); err != nil {
		return fmt.Errorf("resolver: activation of %s interrupted: %w", name, err)
	}
	meta := mod.Metadata().Normalized()

	p.push(key)
	for _, dep := range meta.RequiredModules {
		if err := p.resolve(dep, meta.Name); err != nil {
			return err
		}
	}
	for _, opt := range meta.OptionalModules {
		if !p.prefer(opt) {
			continue
		}
		if err := p.resolve(opt, meta.Name); err != nil {
			return err
		}
	}
	p.pop()

	return p.activate(key, mod, meta)
}

// prefer decides whether an optional dependency is activated ahead of the
// module currently on top of the stack. It must be discovered and enabled,
// and must not lead back onto the stack through required edges.
func (p *pass) prefer(name string) bool {
	key := module.KeyOf(name)
	if !p.enabled[key] || p.resolved[key] || p.onStack[key] {
		return false
	}
	if _, ok := p.r.registry.Lookup(key); !ok {
		return false
	}
	for _, ancestor := range p.stack {
		if p.r.graph.Reaches(key, ancestor) {
			p.r.logger.Debug("optional ordering skipped",
				zap.String("module", p.r.graph.Name(p.stack[len(p.stack)-1])),
				zap.String("optional", p.r.graph.Name(key)))
			return false
		}
	}
	return true
}

func (p *pass) activate(key string, mod module.BotModule, meta module.Metadata) error {
	scope := p.r.services.Scope(meta.Name)
	start := p.r.clock()
	if err := register(mod, scope, p.r.configFor(meta.Name)); err != nil {
		return &module.RegistrationError{Name: meta.Name, Err: err}
	}
	if err := scope.Commit(); err != nil {
		return &module.RegistrationError{Name: meta.Name, Err: err}
	}
	took := p.r.clock().Sub(start)
	p.resolved[key] = true
	p.report.Activated = append(p.report.Activated, Activation{
		Name:     meta.Name,
		Version:  meta.Version,
		Source:   p.r.registry.Source(key),
		Duration: took,
	})
	p.r.metrics.Activated(meta.Name, took)
	p.r.logger.Info("module activated",
		zap.String("module", meta.Name),
		zap.String("version", meta.Version),
		zap.Int("services", len(scope.Entries())),
		zap.Duration("took", took))
	return nil
}

func register(mod module.BotModule, scope *container.Scope, cfg module.Config) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()
	return mod.RegisterServices(scope, cfg)
}

func (p *pass) push(key string) {
	p.onStack[key] = true
	p.stack = append(p.stack, key)
}

func (p *pass) pop() {
	last := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	p.onStack[last] = false
}

func (p *pass) cycle(key string) error {
	from := p.stack[len(p.stack)-1]
	start := len(p.stack) - 1
	for start > 0 && p.stack[start] != key {
		start--
	}
	path := make([]string, 0, len(p.stack)-start+1)
	for _, k := range p.stack[start:] {
		path = append(path, p.r.graph.Name(k))
	}
	path = append(path, p.r.graph.Name(key))
	return &module.CycleError{From: p.r.graph.Name(from), To: p.r.graph.Name(key), Path: path}
}
