package container

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Result is the outcome of a successful resolution pass.
type Result struct {
	Root        string       `json:"root"`
	PassID      string       `json:"pass_id"`
	Registry    *Registry    `json:"registry"`
	Diagnostics []Diagnostic `json:"-"`
}

// Resolver walks import declarations from a root module and merges every
// reachable definition into a fresh Registry.
//
// A Resolver holds no per-pass state; concurrent Resolve calls are safe as
// long as the plugins in the catalog are.
type Resolver struct {
	catalog          *Catalog
	policy           Policy
	maxSelectorDepth int
	props            Properties
	logger           zerolog.Logger
	observers        []Observer
}

// NewResolver creates a resolver over catalog.
func NewResolver(catalog *Catalog, opts ...Option) *Resolver {
	r := &Resolver{
		catalog:          catalog,
		policy:           Lenient,
		maxSelectorDepth: DefaultMaxSelectorDepth,
		props:            Properties{},
		logger:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// With returns a copy of the resolver with extra options applied.
func (r *Resolver) With(opts ...Option) *Resolver {
	cp := *r
	cp.observers = append([]Observer(nil), r.observers...)
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// Policy returns the conflict policy applied to every pass.
func (r *Resolver) Policy() Policy { return r.policy }

// Catalog returns the catalog the resolver reads from.
func (r *Resolver) Catalog() *Catalog { return r.catalog }

// Resolve runs one resolution pass from root.
//
// Resolution is all-or-nothing: on any fatal error the returned Result is
// nil. Lenient-policy overrides are not fatal; they are returned in
// Result.Diagnostics.
func (r *Resolver) Resolve(ctx context.Context, root string) (*Result, error) {
	start := time.Now()
	passID := uuid.NewString()
	logger := r.logger.With().Str("pass", passID).Str("root", root).Logger()

	res, err := r.resolve(ctx, passID, root, logger)

	report := Report{
		Root:     root,
		PassID:   passID,
		Policy:   r.policy,
		Duration: time.Since(start),
		Err:      err,
	}
	if err != nil {
		logger.Error().Err(err).Str("failure", FailureKind(err)).Msg("resolution failed")
	} else {
		report.Definitions = res.Registry.Len()
		report.Diagnostics = len(res.Diagnostics)
		logger.Debug().
			Int("definitions", report.Definitions).
			Int("diagnostics", report.Diagnostics).
			Dur("elapsed", report.Duration).
			Msg("resolution finished")
	}
	for _, o := range r.observers {
		o.ObserveResolution(report)
	}
	return res, err
}

func (r *Resolver) resolve(ctx context.Context, passID, root string, logger zerolog.Logger) (*Result, error) {
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	m, ok := r.catalog.Module(root)
	if !ok {
		return nil, fmt.Errorf("%w: root %q is not a module", ErrUnknownTarget, root)
	}

	pass := newResolution(passID, root, r.policy, r.props)
	w := &walker{resolver: r, pass: pass, logger: logger}

	if err := w.merge(Definition{Name: m.ID, Kind: KindModule, Payload: m.Payload, Source: m.ID, Origin: Chain{}}); err != nil {
		return nil, err
	}
	if err := w.expand(ctx, m.ID); err != nil {
		return nil, err
	}

	return &Result{
		Root:        root,
		PassID:      passID,
		Registry:    pass.registry,
		Diagnostics: pass.registry.Diagnostics(),
	}, nil
}

func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}

// ── walker ────────────────────────────────────────────────────────────────────

// walker performs the depth-first, declaration-order traversal of one pass.
type walker struct {
	resolver *Resolver
	pass     *resolution
	logger   zerolog.Logger
}

// expand processes a module's declarations in order.
func (w *walker) expand(ctx context.Context, moduleID string) error {
	decls, err := w.resolver.catalog.Declarations(moduleID)
	if err != nil {
		return err
	}
	for _, d := range decls {
		if err := w.dispatch(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) dispatch(ctx context.Context, d Declaration) error {
	if err := checkCancelled(ctx); err != nil {
		return err
	}

	w.logger.Debug().
		Str("kind", d.Kind.String()).
		Str("target", d.Target).
		Str("declarer", d.Declarer).
		Str("chain", w.pass.chain.String()).
		Msg("dispatch")

	switch d.Kind {
	case ModuleRef:
		return w.importModule(ctx, d)
	case ComponentRef:
		return w.importComponent(d)
	case SelectorRef:
		return w.runSelector(ctx, d)
	case RegistrarRef:
		return w.runRegistrar(d)
	}
	return fmt.Errorf("declaration %q: unsupported kind %d", d.Target, int(d.Kind))
}

func (w *walker) importModule(ctx context.Context, d Declaration) error {
	pass := w.pass
	if pass.chain.Contains(d.Target) {
		return &CycleError{Chain: pass.chain.Push(d.Target)}
	}
	if pass.visited[d.Target] {
		return nil
	}

	m, ok := w.resolver.catalog.Module(d.Target)
	if !ok {
		return fmt.Errorf("%w: module %q", ErrUnknownTarget, d.Target)
	}
	pass.visited[m.ID] = true

	if err := w.merge(Definition{Name: m.ID, Kind: KindModule, Payload: m.Payload, Source: m.ID, Origin: pass.chain.Clone()}); err != nil {
		return err
	}

	// Selector depth counts consecutive selector expansions, so it restarts
	// below every module together with the active selector stack.
	parent, selectors := pass.chain, pass.selectors
	pass.chain, pass.selectors = parent.Push(m.ID), nil
	defer func() { pass.chain, pass.selectors = parent, selectors }()

	return w.expand(ctx, m.ID)
}

func (w *walker) importComponent(d Declaration) error {
	payload, ok := w.resolver.catalog.Component(d.Target)
	if !ok {
		return fmt.Errorf("%w: component %q", ErrUnknownTarget, d.Target)
	}
	return w.merge(Definition{
		Name:    d.Target,
		Kind:    KindComponent,
		Payload: payload,
		Source:  d.Target,
		Origin:  w.pass.chain.Clone(),
	})
}

func (w *walker) runSelector(ctx context.Context, d Declaration) error {
	pass := w.pass
	sel, ok := w.resolver.catalog.Selector(d.Target)
	if !ok {
		return fmt.Errorf("%w: selector %q", ErrUnknownTarget, d.Target)
	}
	if pass.selectors.Contains(d.Target) {
		cycle := pass.chain.Clone()
		for _, id := range pass.selectors {
			cycle = cycle.Push(id)
		}
		return &CycleError{Chain: cycle.Push(d.Target)}
	}
	if len(pass.selectors) >= w.resolver.maxSelectorDepth {
		return fmt.Errorf("%w: %q at depth %d under [%s]",
			ErrSelectorDepthExceeded, d.Target, len(pass.selectors), pass.chain)
	}

	targets, err := sel.Select(pass.snapshot())
	if err != nil {
		return &PluginError{Kind: SelectorRef, ID: d.Target, Chain: pass.chain.Clone(), Err: err}
	}

	w.logger.Debug().Str("selector", d.Target).Strs("targets", targets).Msg("selector evaluated")

	active := pass.selectors
	pass.selectors = active.Push(d.Target)
	defer func() { pass.selectors = active }()

	for _, target := range targets {
		kind, err := w.resolver.catalog.Classify(target)
		if err != nil {
			return fmt.Errorf("selector %q: %w", d.Target, err)
		}
		if err := w.dispatch(ctx, Declaration{Kind: kind, Target: target, Declarer: d.Target}); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) runRegistrar(d Declaration) error {
	pass := w.pass
	reg, ok := w.resolver.catalog.Registrar(d.Target)
	if !ok {
		return fmt.Errorf("%w: registrar %q", ErrUnknownTarget, d.Target)
	}

	sink := newSink(d.Target, pass.chain)
	if err := reg.Register(pass.snapshot(), sink); err != nil {
		return &PluginError{Kind: RegistrarRef, ID: d.Target, Chain: pass.chain.Clone(), Err: err}
	}

	for _, def := range sink.emitted {
		if def.Name == "" {
			return &PluginError{Kind: RegistrarRef, ID: d.Target, Chain: pass.chain.Clone(),
				Err: fmt.Errorf("emitted a definition without a name")}
		}
		if err := w.merge(def); err != nil {
			return err
		}
	}
	return nil
}

// merge applies the conflict policy and logs lenient overrides.
func (w *walker) merge(def Definition) error {
	reg := w.pass.registry
	before := len(reg.diagnostics)
	if err := reg.Merge(def); err != nil {
		return err
	}
	if len(reg.diagnostics) > before {
		d := reg.diagnostics[len(reg.diagnostics)-1]
		w.logger.Warn().
			Str("name", d.Name).
			Str("replaced_source", d.Replaced.Source).
			Str("replaced_origin", d.Replaced.Origin.String()).
			Str("winner_source", d.Winner.Source).
			Str("winner_origin", d.Winner.Origin.String()).
			Msg("definition overridden")
	}
	return nil
}
