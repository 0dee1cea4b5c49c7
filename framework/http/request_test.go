package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	gohttp "github.com/km-arc/go-composer/framework/http"
	"github.com/km-arc/go-composer/framework/http/validation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newGetRequest(t *testing.T, rawQuery string) *gohttp.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/registries/root?"+rawQuery, nil)
	return gohttp.NewRequest(req)
}

// withRouteParam attaches a chi route context carrying key=value.
func withRouteParam(t *testing.T, req *http.Request, key, value string) *gohttp.Request {
	t.Helper()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return gohttp.NewRequest(req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx)))
}

// ── Query ────────────────────────────────────────────────────────────────────

func TestRequest_Query(t *testing.T) {
	req := newGetRequest(t, "policy=strict&format=json")

	if got := req.Query("policy"); got != "strict" {
		t.Errorf("Query(policy): got %q want strict", got)
	}
	if got := req.Query("format"); got != "json" {
		t.Errorf("Query(format): got %q want json", got)
	}
}

func TestRequest_Query_Fallback(t *testing.T) {
	req := newGetRequest(t, "")
	if got := req.Query("policy", "lenient"); got != "lenient" {
		t.Errorf("fallback: got %q want lenient", got)
	}
}

func TestRequest_All(t *testing.T) {
	req := newGetRequest(t, "a=1&b=2&a=3")
	all := req.All()

	if all["a"] != "1" {
		t.Errorf("All[a]: got %q want 1 (first value)", all["a"])
	}
	if all["b"] != "2" {
		t.Errorf("All[b]: got %q want 2", all["b"])
	}
}

func TestRequest_Has(t *testing.T) {
	req := newGetRequest(t, "policy=strict&empty=")

	if !req.Has("policy") {
		t.Error("Has(policy) should be true")
	}
	if req.Has("empty") {
		t.Error("Has(empty) should be false for empty value")
	}
	if req.Has("missing") {
		t.Error("Has(missing) should be false")
	}
}

// ── Route params ─────────────────────────────────────────────────────────────

func TestRequest_RouteParam(t *testing.T) {
	req := withRouteParam(t, httptest.NewRequest(http.MethodGet, "/registries/App", nil), "root", "App")
	if got := req.RouteParam("root"); got != "App" {
		t.Errorf("RouteParam: got %q want App", got)
	}
}

// ── Validate ─────────────────────────────────────────────────────────────────

func TestRequest_Validate(t *testing.T) {
	rules := validation.Rules{
		"root":   "required|identifier",
		"policy": "nullable|in:lenient,strict",
	}

	ok := withRouteParam(t, httptest.NewRequest(http.MethodGet, "/registries/App?policy=strict", nil), "root", "App")
	if err := ok.Validate(rules, "root"); err != nil {
		t.Errorf("expected valid request, got %v", err)
	}

	bad := withRouteParam(t, httptest.NewRequest(http.MethodGet, "/registries/App?policy=loose", nil), "root", "App")
	err := bad.Validate(rules, "root")
	var bag *validation.Errors
	if !errors.As(err, &bag) {
		t.Fatalf("expected *validation.Errors, got %v", err)
	}
	if bag.First("policy") == "" {
		t.Errorf("expected policy error, got %+v", bag.Bag)
	}
}

func TestRequest_Validate_RouteParamWins(t *testing.T) {
	req := withRouteParam(t, httptest.NewRequest(http.MethodGet, "/registries/App?root=1bad", nil), "root", "App")
	if err := req.Validate(validation.Rules{"root": "identifier"}, "root"); err != nil {
		t.Errorf("route param should override query value, got %v", err)
	}
}

// ── Headers & misc ───────────────────────────────────────────────────────────

func TestRequest_Header(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc")
	r := gohttp.NewRequest(req)

	if got := r.Header("X-Request-Id"); got != "abc" {
		t.Errorf("Header: got %q want abc", got)
	}
}

func TestRequest_WantsJSON(t *testing.T) {
	tests := []struct {
		accept string
		want   bool
	}{
		{"", true},
		{"application/json", true},
		{"*/*", true},
		{"text/plain", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.accept != "" {
			req.Header.Set("Accept", tt.accept)
		}
		if got := gohttp.NewRequest(req).WantsJSON(); got != tt.want {
			t.Errorf("WantsJSON(%q): got %v want %v", tt.accept, got, tt.want)
		}
	}
}

func TestRequest_MethodAndPath(t *testing.T) {
	r := newGetRequest(t, "")
	if r.Method() != http.MethodGet {
		t.Errorf("Method: got %q want GET", r.Method())
	}
	if r.Path() != "/registries/root" {
		t.Errorf("Path: got %q want /registries/root", r.Path())
	}
	if r.Raw() == nil {
		t.Error("Raw() returned nil")
	}
}
