package metrics_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-composer/framework/container"
	"github.com/km-arc/go-composer/framework/metrics"
)

// family gathers reg and returns the named metric family.
func family(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func labels(m *dto.Metric) map[string]string {
	out := make(map[string]string)
	for _, l := range m.GetLabel() {
		out[l.GetName()] = l.GetValue()
	}
	return out
}

func TestObserveResolution_Success(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveResolution(container.Report{Root: "root", Duration: 3 * time.Millisecond, Definitions: 5, Diagnostics: 2})

	total := family(t, reg, "composer_resolutions_total")
	require.Len(t, total.GetMetric(), 1)
	assert.Equal(t, map[string]string{"root": "root", "outcome": "ok"}, labels(total.GetMetric()[0]))
	assert.Equal(t, 1.0, total.GetMetric()[0].GetCounter().GetValue())

	assert.Equal(t, 2.0, family(t, reg, "composer_conflicts_total").GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 5.0, family(t, reg, "composer_definitions").GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, uint64(1), family(t, reg, "composer_resolution_duration_seconds").GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestObserveResolution_Failure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	err := &container.CycleError{Chain: container.Chain{"A", "B", "A"}}
	m.ObserveResolution(container.Report{Root: "A", Err: err})

	total := family(t, reg, "composer_resolutions_total")
	assert.Equal(t, "cycle", labels(total.GetMetric()[0])["outcome"])

	families, gerr := reg.Gather()
	require.NoError(t, gerr)
	for _, f := range families {
		assert.NotEqual(t, "composer_definitions", f.GetName(), "failed passes must not set the gauge")
	}
}

func TestObserveCacheRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveCacheRequest(true)
	m.ObserveCacheRequest(false)
	m.ObserveCacheRequest(false)

	got := make(map[string]float64)
	for _, metric := range family(t, reg, "composer_cache_requests_total").GetMetric() {
		got[labels(metric)["result"]] = metric.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"hit": 1, "miss": 2}, got)
}

func TestObserveCatalogReload(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveCatalogReload(nil)
	m.ObserveCatalogReload(nil)
	m.ObserveCatalogReload(errors.New("bad yaml"))

	assert.Equal(t, 2.0, family(t, reg, "composer_catalog_reloads_total").GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 1.0, family(t, reg, "composer_catalog_reload_errors_total").GetMetric()[0].GetCounter().GetValue())
}

func TestCollector_AsResolverObserver(t *testing.T) {
	m := metrics.New()

	c := container.NewCatalog()
	require.NoError(t, c.RegisterModule(container.Module{ID: "root", Imports: []string{"X"}}))
	require.NoError(t, c.RegisterComponent("X", nil))

	_, err := container.NewResolver(c, container.WithObserver(m)).Resolve(context.Background(), "root")
	require.NoError(t, err)

	assert.Equal(t, 2.0, family(t, m.Registry(), "composer_definitions").GetMetric()[0].GetGauge().GetValue())
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.ObserveCacheRequest(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `composer_cache_requests_total{result="hit"} 1`)
}
