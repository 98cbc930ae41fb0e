package plugins

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/lattice-bot/module"
)

const goDefinitionFuncName = "BotModules"

// GoLoader evaluates Go source plugins with yaegi. Each file gets its own
// interpreter, so one plugin cannot see or break another.
type GoLoader struct{}

// Accepts implements Loader.
func (GoLoader) Accepts(path string) bool {
	return filepath.Ext(path) == ".go" && !strings.HasSuffix(path, "_test.go")
}

// Load implements Loader. The file must define
// BotModules() ([]map[string]any, error); each map uses the YAML schema.
func (GoLoader) Load(ctx context.Context, path string) ([]module.BotModule, error) {
	defs, err := loadGoDefinitionFile(ctx, path)
	if err != nil {
		return nil, err
	}
	mods := make([]module.BotModule, 0, len(defs))
	for idx, def := range defs {
		mod, err := NewDefinitionModule(def)
		if err != nil {
			return nil, fmt.Errorf("plugin: %s definition[%d]: %w", filepath.Base(path), idx, err)
		}
		mods = append(mods, mod)
	}
	return mods, nil
}

func loadGoDefinitionFile(ctx context.Context, path string) ([]ModuleDefinition, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, fmt.Errorf("plugin: %s is empty", path)
	}
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("plugin: prepare interpreter: %w", err)
	}
	if _, err := i.EvalPathWithContext(ctx, path); err != nil {
		return nil, fmt.Errorf("plugin: interpret %s: %w", path, err)
	}
	fnValue, err := i.EvalWithContext(ctx, goDefinitionFuncName)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s must define %s() ([]map[string]any, error): %w", path, goDefinitionFuncName, err)
	}
	raw, callErr := invokeDefinitionFunc(fnValue)
	if callErr != nil {
		return nil, fmt.Errorf("plugin: %s: %w", path, callErr)
	}
	defs := make([]ModuleDefinition, 0, len(raw))
	for idx, entry := range raw {
		payload, err := yaml.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("plugin: %s definition[%d]: %w", path, idx, err)
		}
		parsed, err := ParseDefinitionYAML(payload)
		if err != nil {
			return nil, fmt.Errorf("plugin: %s definition[%d]: %w", path, idx, err)
		}
		defs = append(defs, parsed)
	}
	return defs, nil
}

func invokeDefinitionFunc(value reflect.Value) ([]map[string]any, error) {
	if !value.IsValid() {
		return nil, fmt.Errorf("missing %s function", goDefinitionFuncName)
	}
	fn := value
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", goDefinitionFuncName)
	}
	results := fn.Call(nil)
	if len(results) == 0 || len(results) > 2 {
		return nil, fmt.Errorf("%s must return ([]map[string]any[, error])", goDefinitionFuncName)
	}
	defsVal := results[0]
	if len(results) == 2 && !results[1].IsNil() {
		if e, ok := results[1].Interface().(error); ok && e != nil {
			return nil, e
		}
		return nil, fmt.Errorf("%s returned non-error second value", goDefinitionFuncName)
	}
	if defs, ok := defsVal.Interface().([]map[string]any); ok {
		return defs, nil
	}
	if defsVal.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%s must return []map[string]any", goDefinitionFuncName)
	}
	result := make([]map[string]any, defsVal.Len())
	for i := 0; i < defsVal.Len(); i++ {
		m, ok := defsVal.Index(i).Interface().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] is not map[string]any", goDefinitionFuncName, i)
		}
		result[i] = m
	}
	return result, nil
}
