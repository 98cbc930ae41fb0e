package plugins

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const goPluginSource = `package main

func BotModules() ([]map[string]any, error) {
	return []map[string]any{
		{
			"name":     "Weather",
			"version":  "0.3.0",
			"requires": []string{"Core"},
			"services": map[string]any{"endpoint": "https://wttr.in"},
		},
		{
			"name":    "Dice",
			"version": "1.0.0",
		},
	}, nil
}`

func writePlugin(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write plugin: %v", err)
	}
	return path
}

func TestGoLoaderEvaluatesBotModules(t *testing.T) {
	path := writePlugin(t, t.TempDir(), "weather.go", goPluginSource)
	mods, err := GoLoader{}.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load go plugin: %v", err)
	}
	if len(mods) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(mods))
	}
	weather := mods[0].Metadata()
	if weather.Name != "Weather" || len(weather.RequiredModules) != 1 || weather.RequiredModules[0] != "Core" {
		t.Fatalf("unexpected metadata: %+v", weather)
	}
	if mods[1].Metadata().Name != "Dice" {
		t.Fatalf("unexpected second module: %+v", mods[1].Metadata())
	}
}

func TestGoLoaderMissingFunc(t *testing.T) {
	path := writePlugin(t, t.TempDir(), "broken.go", "package main\n")
	if _, err := (GoLoader{}).Load(context.Background(), path); err == nil {
		t.Fatalf("expected error for missing BotModules function")
	}
}

func TestGoLoaderPropagatesPluginError(t *testing.T) {
	src := `package main

import "errors"

func BotModules() ([]map[string]any, error) {
	return nil, errors.New("not configured")
}`
	path := writePlugin(t, t.TempDir(), "failing.go", src)
	if _, err := (GoLoader{}).Load(context.Background(), path); err == nil {
		t.Fatalf("expected plugin error to surface")
	}
}

func TestGoLoaderIgnoresTestFiles(t *testing.T) {
	if (GoLoader{}).Accepts("weather_test.go") {
		t.Fatalf("test files must not be loaded")
	}
	if !(GoLoader{}).Accepts("weather.go") {
		t.Fatalf("expected .go files to be accepted")
	}
}
