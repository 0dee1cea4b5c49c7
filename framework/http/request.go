package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/km-arc/go-composer/framework/http/validation"
)

// Request wraps *http.Request with Laravel-style helpers.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// ── Input helpers ────────────────────────────────────────────────────────────

// Query returns a query-string value.
func (req *Request) Query(key string, fallback ...string) string {
	v := req.raw.URL.Query().Get(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// All returns the query string as a flat map, first value per key.
func (req *Request) All() map[string]string {
	out := make(map[string]string)
	for k, v := range req.raw.URL.Query() {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// Has returns true if the query key is present and non-empty.
func (req *Request) Has(key string) bool {
	return req.Query(key) != ""
}

// RouteParam returns a URL route parameter (chi).
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// Validate checks the query string and the given route parameters against
// rules. Route parameters win over query keys of the same name.
//
//	err := req.Validate(validation.Rules{"root": "required|identifier"}, "root")
func (req *Request) Validate(rules validation.Rules, routeParams ...string) error {
	data := req.All()
	for _, p := range routeParams {
		data[p] = req.RouteParam(p)
	}
	return validation.Make(data, rules).Validate()
}

// Header returns a request header value.
func (req *Request) Header(key string) string {
	return req.raw.Header.Get(key)
}

// Method returns the HTTP method.
func (req *Request) Method() string { return req.raw.Method }

// Path returns the URL path.
func (req *Request) Path() string { return req.raw.URL.Path }

// WantsJSON returns true unless the client explicitly asked for something
// other than JSON.
func (req *Request) WantsJSON() bool {
	accept := req.raw.Header.Get("Accept")
	return accept == "" ||
		strings.Contains(accept, "application/json") ||
		strings.Contains(accept, "*/*")
}
