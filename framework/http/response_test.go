package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/km-arc/go-composer/framework/container"
	gohttp "github.com/km-arc/go-composer/framework/http"
	"github.com/km-arc/go-composer/framework/http/validation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newResponse(t *testing.T) (*gohttp.Response, *httptest.ResponseRecorder) {
	t.Helper()
	rr := httptest.NewRecorder()
	return gohttp.NewResponse(rr), rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&m); err != nil {
		t.Fatalf("decodeJSON: %v", err)
	}
	return m
}

// ── JSON ──────────────────────────────────────────────────────────────────────

func TestResponse_JSON(t *testing.T) {
	res, rr := newResponse(t)
	res.JSON(http.StatusOK, map[string]any{"key": "val"})

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q want application/json", ct)
	}
	m := decodeJSON(t, rr)
	if m["key"] != "val" {
		t.Errorf("body key: got %v want val", m["key"])
	}
}

func TestResponse_Success(t *testing.T) {
	res, rr := newResponse(t)
	res.Success(map[string]any{"id": float64(1)})

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d want 200", rr.Code)
	}
	m := decodeJSON(t, rr)
	data, ok := m["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data envelope, got %T", m["data"])
	}
	if data["id"] != float64(1) {
		t.Errorf("data.id: got %v want 1", data["id"])
	}
}

func TestResponse_Error(t *testing.T) {
	res, rr := newResponse(t)
	res.Error(http.StatusBadRequest, "Bad input")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d want 400", rr.Code)
	}
	if m := decodeJSON(t, rr); m["message"] != "Bad input" {
		t.Errorf("message: got %v", m["message"])
	}
}

func TestResponse_NotFound(t *testing.T) {
	res, rr := newResponse(t)
	res.NotFound()

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d want 404", rr.Code)
	}
	if m := decodeJSON(t, rr); m["message"] != "Not found." {
		t.Errorf("message: got %v", m["message"])
	}
}

func TestResponse_ServerError(t *testing.T) {
	res, rr := newResponse(t)
	res.ServerError("boom")

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d want 500", rr.Code)
	}
	if m := decodeJSON(t, rr); m["message"] != "boom" {
		t.Errorf("message: got %v", m["message"])
	}
}

func TestResponse_ValidationError(t *testing.T) {
	v := validation.Make(map[string]string{"policy": "loose"}, validation.Rules{"policy": "in:lenient,strict"})
	_ = v.Fails()

	res, rr := newResponse(t)
	res.ValidationError(v.Errors())

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d want 422", rr.Code)
	}
	m := decodeJSON(t, rr)
	bag, ok := m["errors"].(map[string]any)
	if !ok {
		t.Fatalf("expected errors object, got %T", m["errors"])
	}
	if _, ok := bag["policy"]; !ok {
		t.Errorf("expected policy key in bag, got %v", bag)
	}
}

// ── Resolution errors ────────────────────────────────────────────────────────

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"cycle", &container.CycleError{Chain: container.Chain{"A", "A"}}, http.StatusConflict},
		{"conflict", &container.ConflictError{Name: "x"}, http.StatusConflict},
		{"unknown", fmt.Errorf("root: %w", container.ErrUnknownTarget), http.StatusNotFound},
		{"selector", &container.PluginError{Kind: container.SelectorRef, ID: "S", Err: fmt.Errorf("x")}, http.StatusUnprocessableEntity},
		{"depth", container.ErrSelectorDepthExceeded, http.StatusUnprocessableEntity},
		{"cancelled", fmt.Errorf("%w: %w", container.ErrCancelled, context.Canceled), http.StatusServiceUnavailable},
		{"other", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gohttp.StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor: got %d want %d", got, tt.want)
			}
		})
	}
}

func TestResponse_ResolutionError_Cycle(t *testing.T) {
	res, rr := newResponse(t)
	res.ResolutionError(&container.CycleError{Chain: container.Chain{"A", "B", "A"}})

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d want 409", rr.Code)
	}
	m := decodeJSON(t, rr)
	if m["failure"] != "cycle" {
		t.Errorf("failure: got %v want cycle", m["failure"])
	}
	chain, ok := m["chain"].([]any)
	if !ok || len(chain) != 3 || chain[2] != "A" {
		t.Errorf("chain: got %v", m["chain"])
	}
}

func TestResponse_ResolutionError_Conflict(t *testing.T) {
	res, rr := newResponse(t)
	res.ResolutionError(&container.ConflictError{
		Name:     "dataSource",
		Existing: container.Definition{Name: "dataSource", Source: "A"},
		Incoming: container.Definition{Name: "dataSource", Source: "B"},
	})

	m := decodeJSON(t, rr)
	if m["name"] != "dataSource" {
		t.Errorf("name: got %v", m["name"])
	}
	incoming, ok := m["incoming"].(map[string]any)
	if !ok || incoming["source"] != "B" {
		t.Errorf("incoming: got %v", m["incoming"])
	}
}

func TestResponse_Raw(t *testing.T) {
	res, rr := newResponse(t)
	if res.Raw() != rr {
		t.Error("Raw() should return the wrapped ResponseWriter")
	}
}
