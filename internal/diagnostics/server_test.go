package diagnostics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/lattice-bot/internal/config"
	"github.com/kingrea/lattice-bot/internal/metrics"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		Requested: []string{"OneBot"},
		Modules: []ModuleInfo{
			{Name: "Core", Source: "builtin", Active: true, Order: 1},
			{Name: "OneBot", Source: "builtin", Requires: []string{"Core"}, Active: true, Order: 2},
			{Name: "Telegram", Source: "builtin", Requires: []string{"Core"}},
		},
		DOT: "digraph modules {\n  \"OneBot\" -> \"Core\";\n}\n",
	}
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Project.Diagnostics = config.DiagnosticsConfig{Enabled: true, Host: " ", Port: 70000}
	settings := SettingsFromConfig(cfg)
	if !settings.Enabled || settings.Host != DefaultHost || settings.Port != DefaultPort {
		t.Fatalf("unexpected settings %+v", settings)
	}
	if settings.URL() != "http://127.0.0.1:8766" {
		t.Fatalf("unexpected url %s", settings.URL())
	}
}

func TestHealthReportsActiveModules(t *testing.T) {
	srv := NewServer(Settings{}, WithSnapshot(sampleSnapshot))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ActiveModules != 2 || body.Status != string(StatusStarting) {
		t.Fatalf("unexpected health %+v", body)
	}
}

func TestHealthUnavailableAfterLoadError(t *testing.T) {
	srv := NewServer(Settings{}, WithSnapshot(func() Snapshot {
		return Snapshot{Error: "module: Z (required by A) not found"}
	}))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestModulesAndGraphEndpoints(t *testing.T) {
	srv := NewServer(Settings{}, WithSnapshot(sampleSnapshot))
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/modules", nil))
	var snap Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode modules: %v", err)
	}
	if len(snap.Modules) != 3 || snap.Modules[1].Requires[0] != "Core" {
		t.Fatalf("unexpected modules %+v", snap.Modules)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graph", nil))
	if !strings.HasPrefix(rec.Body.String(), "digraph modules {") {
		t.Fatalf("unexpected graph body %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graph", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	collectors := metrics.New()
	collectors.Activated("Core", time.Millisecond)
	srv := NewServer(Settings{}, WithGatherer(collectors.Registry))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `latticebot_module_activations_total{module="Core"} 1`) {
		t.Fatalf("expected activation counter in metrics output")
	}
}

func TestServerStartAndShutdown(t *testing.T) {
	srv := NewServer(Settings{Enabled: true, Host: "127.0.0.1", Port: 0}, WithSnapshot(sampleSnapshot))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	if err := srv.Start(context.Background()); err == nil {
		t.Fatalf("expected second start to fail")
	}
	resp, err := http.Get(srv.BaseURL() + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()
	payload, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(payload), `"status":"ready"`) {
		t.Fatalf("unexpected health payload %s", payload)
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if srv.Addr() != "" {
		t.Fatalf("expected listener to be released")
	}
}

func TestServerDisabled(t *testing.T) {
	srv := NewServer(Settings{})
	if err := srv.Start(context.Background()); !errors.Is(err, ErrServerDisabled) {
		t.Fatalf("expected disabled error, got %v", err)
	}
}
