// Package http provides Laravel-compatible request and response helpers for
// the inspection API.
//
// # Request
//
// Request wraps *http.Request with a fluent API mirroring Laravel's
// Illuminate\Http\Request.
//
//	req := gohttp.NewRequest(r)
//
//	policy := req.Query("policy", "lenient")
//	all    := req.All()          // map[string]string
//	ok     := req.Has("policy")
//
//	// Route params (requires Chi router)
//	root := req.RouteParam("root")
//
//	// Query + route params through validation rules
//	err := req.Validate(validation.Rules{"root": "required|identifier"}, "root")
//
// # Response
//
//	res := gohttp.NewResponse(w)
//
//	res.Success(result)                  // 200 {"data": ...}
//	res.NotFound()                       // 404 {"message": "Not found."}
//	res.ValidationError(v.Errors())      // 422 {"errors": {...}}
//	res.ResolutionError(err)             // 409 / 404 / 422 / 503 / 500
package http
