package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/km-arc/go-composer/framework/container"
	"github.com/km-arc/go-composer/framework/http/validation"
)

// ── Response ─────────────────────────────────────────────────────────────────

// Response wraps http.ResponseWriter with Laravel-style helpers.
type Response struct {
	w http.ResponseWriter
}

// NewResponse wraps a ResponseWriter.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

// Raw returns the underlying ResponseWriter.
func (res *Response) Raw() http.ResponseWriter { return res.w }

// ── JSON responses ────────────────────────────────────────────────────────────

// JSON sends a JSON response.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) {
	res.w.Header().Set("Content-Type", "application/json")
	res.w.WriteHeader(status)
	_ = json.NewEncoder(res.w).Encode(data)
}

// Success sends 200 JSON: {"data": v}
func (res *Response) Success(v any) {
	res.JSON(http.StatusOK, envelope{"data": v})
}

// Error sends a JSON error response.
//
//	res.Error(http.StatusNotFound, "Resource not found")
func (res *Response) Error(status int, message string) {
	res.JSON(status, envelope{"message": message})
}

// NotFound sends 404.
func (res *Response) NotFound(message ...string) {
	msg := first(message, "Not found.")
	res.JSON(http.StatusNotFound, envelope{"message": msg})
}

// ServerError sends 500.
func (res *Response) ServerError(message ...string) {
	msg := first(message, "Server Error.")
	res.JSON(http.StatusInternalServerError, envelope{"message": msg})
}

// ValidationError sends 422 with the standard Laravel error bag.
//
//	res.ValidationError(validator.Errors())
func (res *Response) ValidationError(errors *validation.Errors) {
	res.JSON(http.StatusUnprocessableEntity, errors)
}

// ResolutionError sends a failed pass as JSON:
//
//	{"message": "...", "failure": "cycle", "chain": ["A", "B", "A"]}
//
// The status follows StatusFor.
func (res *Response) ResolutionError(err error) {
	body := envelope{
		"message": err.Error(),
		"failure": container.FailureKind(err),
	}

	var cycle *container.CycleError
	var conflict *container.ConflictError
	var plugin *container.PluginError
	switch {
	case errors.As(err, &cycle):
		body["chain"] = cycle.Chain
	case errors.As(err, &conflict):
		body["name"] = conflict.Name
		body["existing"] = conflict.Existing
		body["incoming"] = conflict.Incoming
	case errors.As(err, &plugin):
		body["plugin"] = plugin.ID
		body["chain"] = plugin.Chain
	}

	res.JSON(StatusFor(err), body)
}

// StatusFor maps a resolution error to an HTTP status.
func StatusFor(err error) int {
	switch container.FailureKind(err) {
	case "ok":
		return http.StatusOK
	case "cycle", "conflict":
		return http.StatusConflict
	case "unknown_target":
		return http.StatusNotFound
	case "selector", "registrar", "selector_depth":
		return http.StatusUnprocessableEntity
	case "cancelled":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

type envelope map[string]any

func first(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}
