package module

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestMetadataNormalizedDropsDuplicates(t *testing.T) {
	meta := Metadata{
		Name:            "  Gifts ",
		RequiredModules: []string{"Core", " core", "", "Economy"},
		OptionalModules: []string{"Achievements", "achievements "},
	}.Normalized()
	if meta.Name != "Gifts" {
		t.Fatalf("unexpected name %q", meta.Name)
	}
	if len(meta.RequiredModules) != 2 || meta.RequiredModules[0] != "Core" || meta.RequiredModules[1] != "Economy" {
		t.Fatalf("unexpected required modules %v", meta.RequiredModules)
	}
	if len(meta.OptionalModules) != 1 {
		t.Fatalf("unexpected optional modules %v", meta.OptionalModules)
	}
	if !meta.Requires("ECONOMY") {
		t.Fatalf("expected case-insensitive Requires")
	}
}

func TestMetadataValidate(t *testing.T) {
	if err := (Metadata{}).Validate(); err == nil {
		t.Fatalf("expected missing name to fail")
	}
	if err := (Metadata{Name: "A", RequiredModules: []string{" "}}).Validate(); err == nil {
		t.Fatalf("expected blank dependency to fail")
	}
	if err := (Metadata{Name: "A", Version: "not-semver"}).Validate(); err != nil {
		t.Fatalf("version is informational, got %v", err)
	}
}

func TestMetadataSemVer(t *testing.T) {
	if v := (Metadata{Version: "1.2.3"}).SemVer(); v == nil || v.Major() != 1 {
		t.Fatalf("expected parsed version, got %v", v)
	}
	if v := (Metadata{Version: "latest"}).SemVer(); v != nil {
		t.Fatalf("expected nil for non-semver, got %v", v)
	}
}

func TestBaseMetadataReturnsCopies(t *testing.T) {
	base := NewBase(Metadata{Name: "Polls"})
	base.Requires("Core")
	first := base.Metadata()
	first.RequiredModules[0] = "mutated"
	if got := base.Metadata().RequiredModules[0]; got != "Core" {
		t.Fatalf("metadata must not alias internal state, got %q", got)
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := Config{
		"url":      " ws://localhost ",
		"retries":  float64(3),
		"enabled":  "true",
		"interval": "45s",
		"timeout":  10,
		"owners":   []any{"1001", 1002},
		"groups":   "a, b,,c",
	}
	if cfg.String("url") != "ws://localhost" {
		t.Fatalf("unexpected url %q", cfg.String("url"))
	}
	if cfg.StringOr("missing", "fallback") != "fallback" {
		t.Fatalf("expected fallback")
	}
	if cfg.Int("retries", 0) != 3 {
		t.Fatalf("unexpected retries %d", cfg.Int("retries", 0))
	}
	if !cfg.Bool("enabled", false) {
		t.Fatalf("expected enabled")
	}
	if cfg.Duration("interval", 0) != 45*time.Second || cfg.Duration("timeout", 0) != 10*time.Second {
		t.Fatalf("unexpected durations")
	}
	if owners := cfg.Strings("owners"); len(owners) != 2 || owners[1] != "1002" {
		t.Fatalf("unexpected owners %v", owners)
	}
	if groups := cfg.Strings("groups"); len(groups) != 3 {
		t.Fatalf("unexpected groups %v", groups)
	}
}

func TestConfigDecode(t *testing.T) {
	var target struct {
		URL     string `yaml:"url"`
		Retries int    `yaml:"retries"`
	}
	if err := (Config{"url": "ws://x", "retries": 2}).Decode(&target); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if target.URL != "ws://x" || target.Retries != 2 {
		t.Fatalf("unexpected decode result %+v", target)
	}
}

func TestKindOfUnwrapsChains(t *testing.T) {
	err := fmt.Errorf("startup: %w", &RegistrationError{Name: "Gifts", Err: errors.New("bad config")})
	if KindOf(err) != KindRegistration {
		t.Fatalf("unexpected kind %q", KindOf(err))
	}
	if !errors.Is(err, ErrRegistrationFailed) {
		t.Fatalf("expected sentinel match")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatalf("plain errors are unclassified")
	}
	notFound := &NotFoundError{Name: "Z", RequiredBy: "A"}
	if !errors.Is(notFound, ErrModuleNotFound) || notFound.Error() != "module: Z (required by A) not found" {
		t.Fatalf("unexpected not-found error %v", notFound)
	}
}
