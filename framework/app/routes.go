package app

import (
	"errors"
	"net/http"

	"github.com/km-arc/go-composer/framework/container"
	gohttp "github.com/km-arc/go-composer/framework/http"
	"github.com/km-arc/go-composer/framework/http/validation"
)

func (a *Application) routes() {
	health := &HealthController{app: a}
	registries := &RegistryController{app: a}

	a.Router.Get("/healthz", health.Show)
	a.Router.Get("/registries", registries.Index)
	a.Router.Get("/registries/{root}", registries.Show)
	a.Router.Handle("/metrics", a.Metrics.Handler())
}

// ── Controller base ───────────────────────────────────────────────────────────

// Controller is an embeddable base for HTTP controllers.
type Controller struct{}

func (c *Controller) Request(r *http.Request) *gohttp.Request {
	return gohttp.NewRequest(r)
}
func (c *Controller) Response(w http.ResponseWriter) *gohttp.Response {
	return gohttp.NewResponse(w)
}

// ── Health ────────────────────────────────────────────────────────────────────

// HealthController reports liveness and the size of the served catalog.
type HealthController struct {
	Controller
	app *Application
}

func (h *HealthController) Show(w http.ResponseWriter, r *http.Request) {
	stats := h.app.Catalog().Stats()
	h.Response(w).JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": Version,
		"env":     h.app.Environment(),
		"catalog": map[string]int{
			"modules":    stats[container.ModuleRef],
			"components": stats[container.ComponentRef],
			"selectors":  stats[container.SelectorRef],
			"registrars": stats[container.RegistrarRef],
		},
	})
}

// ── Registries ────────────────────────────────────────────────────────────────

// RegistryController resolves registries on demand.
//
//	GET /registries                → identities of every catalog module
//	GET /registries/{root}?policy= → resolved registry for root
type RegistryController struct {
	Controller
	app *Application
}

var showRules = validation.Rules{
	"root":   "required|identifier|max:256",
	"policy": "nullable|in:lenient,strict",
}

func (c *RegistryController) Index(w http.ResponseWriter, r *http.Request) {
	cat := c.app.Catalog()

	modules := []string{}
	for _, id := range cat.Identities() {
		if kind, err := cat.Classify(id); err == nil && kind == container.ModuleRef {
			modules = append(modules, id)
		}
	}
	c.Response(w).Success(map[string]any{
		"default": c.app.Config.Resolver.Root,
		"modules": modules,
	})
}

func (c *RegistryController) Show(w http.ResponseWriter, r *http.Request) {
	req := c.Request(r)
	res := c.Response(w)

	if err := req.Validate(showRules, "root"); err != nil {
		var bag *validation.Errors
		if errors.As(err, &bag) {
			res.ValidationError(bag)
			return
		}
		res.ServerError(err.Error())
		return
	}

	policy := c.app.Config.Policy()
	if req.Has("policy") {
		// Already checked by showRules.
		policy, _ = container.ParsePolicy(req.Query("policy"))
	}

	result, err := c.app.Resolve(r.Context(), req.RouteParam("root"), policy)
	if err != nil {
		res.ResolutionError(err)
		return
	}
	res.Success(result)
}
