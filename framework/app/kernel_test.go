package app_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-composer/framework/app"
	"github.com/km-arc/go-composer/framework/config"
	"github.com/km-arc/go-composer/framework/container"
)

const catalogYAML = `
modules:
  - id: root
    imports: [ModuleA, SelectorS]
  - id: ModuleA
    imports: [ComponentC]
  - id: ModuleB
    imports: [RegistrarR]
  - id: Loop
    imports: [Loop]
  - id: Clash
    imports: [ComponentC, Override]
components:
  - id: ComponentC
selectors:
  - id: SelectorS
    kind: fixed
    then: [ModuleB]
registrars:
  - id: RegistrarR
    kind: static
    entries:
      - name: special
  - id: Override
    kind: static
    entries:
      - name: ComponentC
`

func testConfig(t *testing.T, path string) *config.Config {
	t.Helper()
	return &config.Config{
		App:      config.AppConfig{Name: "Composer", Env: "testing", Port: "0"},
		Resolver: config.ResolverConfig{MaxSelectorDepth: container.DefaultMaxSelectorDepth, Root: "root"},
		Catalog:  config.CatalogConfig{Path: path},
		Log:      config.LogConfig{Level: "error"},
		Cache:    config.CacheConfig{Enabled: true},
	}
}

func newApp(t *testing.T) (*app.Application, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0644))

	a, err := app.New(testConfig(t, path), zerolog.Nop(), container.Properties{})
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, path
}

func get(t *testing.T, a *app.Application, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]any
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	}
	return rr, body
}

func TestHealthz(t *testing.T) {
	a, _ := newApp(t)

	rr, body := get(t, a, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, app.Version, body["version"])
	assert.Equal(t, float64(5), body["catalog"].(map[string]any)["modules"])
}

func TestRegistries_Index(t *testing.T) {
	a, _ := newApp(t)

	rr, body := get(t, a, "/registries")
	require.Equal(t, http.StatusOK, rr.Code)

	data := body["data"].(map[string]any)
	assert.Equal(t, "root", data["default"])
	assert.ElementsMatch(t, []any{"Clash", "Loop", "ModuleA", "ModuleB", "root"}, data["modules"])
}

func TestRegistries_Show(t *testing.T) {
	a, _ := newApp(t)

	rr, body := get(t, a, "/registries/root")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	data := body["data"].(map[string]any)
	assert.Equal(t, "root", data["root"])
	assert.NotEmpty(t, data["pass_id"])

	registry := data["registry"].(map[string]any)
	assert.Equal(t, "lenient", registry["policy"])

	var names []string
	for _, d := range registry["definitions"].([]any) {
		names = append(names, d.(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{"root", "ModuleA", "ComponentC", "ModuleB", "special"}, names)

	special := registry["definitions"].([]any)[4].(map[string]any)
	assert.Equal(t, []any{"root", "ModuleB"}, special["origin"])
}

func TestRegistries_ShowErrors(t *testing.T) {
	a, _ := newApp(t)

	tests := []struct {
		name    string
		target  string
		status  int
		failure string
	}{
		{"cycle", "/registries/Loop", http.StatusConflict, "cycle"},
		{"strict conflict", "/registries/Clash?policy=strict", http.StatusConflict, "conflict"},
		{"unknown root", "/registries/Nowhere", http.StatusNotFound, "unknown_target"},
		{"component as root", "/registries/ComponentC", http.StatusNotFound, "unknown_target"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, body := get(t, a, tt.target)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.failure, body["failure"])
		})
	}
}

func TestRegistries_LenientConflictDiagnostics(t *testing.T) {
	a, _ := newApp(t)

	rr, body := get(t, a, "/registries/Clash?policy=lenient")
	require.Equal(t, http.StatusOK, rr.Code)

	registry := body["data"].(map[string]any)["registry"].(map[string]any)
	assert.Len(t, registry["diagnostics"], 1)
}

func TestRegistries_BadQuery(t *testing.T) {
	a, _ := newApp(t)

	rr, body := get(t, a, "/registries/root?policy=loose")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, body["errors"], "policy")
}

func TestRegistries_Cached(t *testing.T) {
	a, _ := newApp(t)

	_, first := get(t, a, "/registries/root")
	_, second := get(t, a, "/registries/root")
	assert.Equal(t,
		first["data"].(map[string]any)["pass_id"],
		second["data"].(map[string]any)["pass_id"],
		"second request should be served from the cache")

	_, strict := get(t, a, "/registries/root?policy=strict")
	assert.NotEqual(t,
		first["data"].(map[string]any)["pass_id"],
		strict["data"].(map[string]any)["pass_id"])
}

func TestReloadSwapsCatalog(t *testing.T) {
	a, path := newApp(t)

	_, before := get(t, a, "/registries/root")

	updated := strings.Replace(catalogYAML, "then: [ModuleB]", "then: []", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

	require.NoError(t, a.Reload())

	rr, after := get(t, a, "/registries/root")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEqual(t, before["data"].(map[string]any)["pass_id"], after["data"].(map[string]any)["pass_id"])
	assert.Len(t, after["data"].(map[string]any)["registry"].(map[string]any)["definitions"], 3)
}

func TestMetricsEndpoint(t *testing.T) {
	a, _ := newApp(t)

	get(t, a, "/registries/root")
	get(t, a, "/registries/root")
	get(t, a, "/registries/Loop")

	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, `composer_resolutions_total{outcome="ok",root="root"} 1`)
	assert.Contains(t, out, `composer_resolutions_total{outcome="cycle",root="Loop"} 1`)
	assert.Contains(t, out, `composer_cache_requests_total{result="hit"} 1`)
}

func TestMetrics_UnknownRootsAddNoSeries(t *testing.T) {
	a, _ := newApp(t)

	for _, root := range []string{"Nowhere", "Elsewhere", "ComponentC"} {
		rr, _ := get(t, a, "/registries/"+root)
		require.Equal(t, http.StatusNotFound, rr.Code)
	}

	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	out := rr.Body.String()
	assert.NotContains(t, out, `root="Nowhere"`)
	assert.NotContains(t, out, `root="Elsewhere"`)
	assert.NotContains(t, out, `root="ComponentC"`)
	assert.NotContains(t, out, `composer_cache_requests_total{result="miss"}`)
}

func TestNew_MissingCatalog(t *testing.T) {
	_, err := app.New(testConfig(t, filepath.Join(t.TempDir(), "missing.yaml")), zerolog.Nop(), nil)
	assert.Error(t, err)
}

func TestReload_WithoutWatcher(t *testing.T) {
	a := app.NewWithCatalog(testConfig(t, ""), zerolog.Nop(), container.NewCatalog(), nil)
	assert.Error(t, a.Reload())
}

func TestNewWithCatalog_NoCache(t *testing.T) {
	c := container.NewCatalog()
	require.NoError(t, c.RegisterModule(container.Module{ID: "root"}))

	cfg := testConfig(t, "")
	cfg.Cache.Enabled = false
	a := app.NewWithCatalog(cfg, zerolog.Nop(), c, nil)

	first, err := a.Resolve(context.Background(), "root", container.Lenient)
	require.NoError(t, err)
	second, err := a.Resolve(context.Background(), "root", container.Lenient)
	require.NoError(t, err)
	assert.NotEqual(t, first.PassID, second.PassID)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	a, _ := newApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
