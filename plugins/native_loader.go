package plugins

import (
	"context"
	"fmt"
	"path/filepath"
	"plugin"

	"github.com/kingrea/lattice-bot/module"
)

const nativeSymbolName = "BotModules"

// NativeLoader opens Go plugins built with -buildmode=plugin. The shared
// object must import github.com/kingrea/lattice-bot/module and export:
//
//	var BotModules func() []module.BotModule
//
// or a function with that signature.
type NativeLoader struct{}

// Accepts implements Loader.
func (NativeLoader) Accepts(path string) bool {
	return filepath.Ext(path) == ".so"
}

// Load implements Loader.
func (NativeLoader) Load(_ context.Context, path string) ([]module.BotModule, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: open %s: %w", path, err)
	}
	sym, err := p.Lookup(nativeSymbolName)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s: %w", path, err)
	}
	mods, err := nativeModules(sym)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s: %w", path, err)
	}
	return mods, nil
}

// nativeModules converts a looked-up BotModules symbol into modules.
// plugin.Lookup returns a pointer for package variables and the value
// itself for functions, so both shapes are accepted.
func nativeModules(sym any) ([]module.BotModule, error) {
	var entry func() []module.BotModule
	switch fn := sym.(type) {
	case func() []module.BotModule:
		entry = fn
	case *func() []module.BotModule:
		if fn == nil || *fn == nil {
			return nil, fmt.Errorf("%s is nil", nativeSymbolName)
		}
		entry = *fn
	default:
		return nil, fmt.Errorf("%s has type %T, want func() []module.BotModule", nativeSymbolName, sym)
	}
	if entry == nil {
		return nil, fmt.Errorf("%s is nil", nativeSymbolName)
	}
	var mods []module.BotModule
	for idx, mod := range entry() {
		if mod == nil {
			return nil, fmt.Errorf("%s()[%d] is nil", nativeSymbolName, idx)
		}
		mods = append(mods, mod)
	}
	return mods, nil
}
