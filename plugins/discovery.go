package plugins

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kingrea/lattice-bot/internal/metrics"
	"github.com/kingrea/lattice-bot/module"
)

// Candidate is a discovered module and where it came from.
type Candidate struct {
	Module module.BotModule
	Source string
}

// Warning records a plugin that could not be loaded. Warnings never abort
// discovery.
type Warning struct {
	Source string
	Err    error
}

func (w Warning) Error() string {
	return fmt.Sprintf("plugin: %s skipped: %v", w.Source, w.Err)
}

func (w Warning) Unwrap() error { return w.Err }

// Kind classifies the warning for logging and metrics.
func (w Warning) Kind() module.Kind { return module.KindDiscovery }

// Provider yields module candidates from one discovery mechanism.
type Provider interface {
	Name() string
	Discover(ctx context.Context) ([]Candidate, []Warning)
}

// Loader turns one plugin file into modules.
type Loader interface {
	Accepts(path string) bool
	Load(ctx context.Context, path string) ([]module.BotModule, error)
}

// DefaultLoaders returns the YAML, Go source and native plugin loaders.
func DefaultLoaders() []Loader {
	return []Loader{YAMLLoader{}, GoLoader{}, NativeLoader{}}
}

// BuiltinSource labels candidates compiled into the binary.
const BuiltinSource = "builtin"

type inProcess struct {
	modules []module.BotModule
}

// InProcess returns a provider over modules compiled into the binary.
func InProcess(catalog ...module.BotModule) Provider {
	return &inProcess{modules: append([]module.BotModule(nil), catalog...)}
}

func (p *inProcess) Name() string { return BuiltinSource }

func (p *inProcess) Discover(context.Context) ([]Candidate, []Warning) {
	var (
		out      []Candidate
		warnings []Warning
	)
	for idx, mod := range p.modules {
		if mod == nil {
			warnings = append(warnings, Warning{
				Source: fmt.Sprintf("%s[%d]", BuiltinSource, idx),
				Err:    fmt.Errorf("nil module"),
			})
			continue
		}
		out = append(out, Candidate{Module: mod, Source: BuiltinSource})
	}
	return out, warnings
}

type directory struct {
	dir     string
	loaders []Loader
}

// Directory returns a provider that loads every plugin file directly inside
// dir. Subdirectories are not scanned and a missing dir yields nothing.
func Directory(dir string, loaders ...Loader) Provider {
	if len(loaders) == 0 {
		loaders = DefaultLoaders()
	}
	return &directory{dir: strings.TrimSpace(dir), loaders: loaders}
}

func (p *directory) Name() string { return p.dir }

func (p *directory) Discover(ctx context.Context) ([]Candidate, []Warning) {
	if p.dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, []Warning{{Source: p.dir, Err: fmt.Errorf("read plugins dir: %w", err)}}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	var (
		out      []Candidate
		warnings []Warning
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(p.dir, entry.Name())
		loader := p.loaderFor(path)
		if loader == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			warnings = append(warnings, Warning{Source: path, Err: err})
			break
		}
		mods, err := safeLoad(ctx, loader, path)
		if err != nil {
			warnings = append(warnings, Warning{Source: path, Err: err})
			continue
		}
		for idx, mod := range mods {
			source := path
			if len(mods) > 1 {
				source = fmt.Sprintf("%s#%d", path, idx+1)
			}
			out = append(out, Candidate{Module: mod, Source: source})
		}
	}
	return out, warnings
}

func (p *directory) loaderFor(path string) Loader {
	for _, loader := range p.loaders {
		if loader != nil && loader.Accepts(path) {
			return loader
		}
	}
	return nil
}

func safeLoad(ctx context.Context, loader Loader, path string) (mods []module.BotModule, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			mods = nil
			err = fmt.Errorf("panic while loading: %v", recovered)
		}
	}()
	mods, err = loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	for idx, mod := range mods {
		if mod == nil {
			return nil, fmt.Errorf("module %d is nil", idx)
		}
		if err := mod.Metadata().Normalized().Validate(); err != nil {
			return nil, err
		}
	}
	return mods, nil
}

// Discover runs every provider in order and concatenates their candidates.
// Duplicate names are allowed here; the registry applies its policy later.
func Discover(ctx context.Context, logger *zap.Logger, collectors *metrics.Collectors, providers ...Provider) ([]Candidate, []Warning) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		candidates []Candidate
		warnings   []Warning
	)
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		found, skipped := provider.Discover(ctx)
		for _, w := range skipped {
			logger.Warn("plugin skipped",
				zap.String("provider", provider.Name()),
				zap.String("source", w.Source),
				zap.Error(w.Err))
			collectors.DiscoveryWarning()
		}
		logger.Debug("modules discovered",
			zap.String("provider", provider.Name()),
			zap.Int("count", len(found)))
		candidates = append(candidates, found...)
		warnings = append(warnings, skipped...)
	}
	collectors.Discovered(len(candidates))
	return candidates, warnings
}
