package container

import (
	"fmt"
	"sort"
	"sync"
)

// Module is a configuration unit: an identity plus its ordered imports.
//
//	// Spring: @Configuration @Import({DataModule.class, CacheSelector.class})
//	catalog.RegisterModule(container.Module{
//	    ID:      "AppModule",
//	    Imports: []string{"DataModule", "CacheSelector"},
//	})
type Module struct {
	ID      string
	Imports []string
	Payload any
}

// Catalog is the lookup table every importable identity is registered in.
//
// Modules, components, selectors and registrars share one namespace so an
// identity always classifies to exactly one declaration kind. The resolver
// only reads from a Catalog; registrations may race with running passes but
// a pass sees each entry either fully registered or not at all.
type Catalog struct {
	mu sync.RWMutex

	modules    map[string]Module
	components map[string]any
	selectors  map[string]Selector
	registrars map[string]Registrar
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		modules:    make(map[string]Module),
		components: make(map[string]any),
		selectors:  make(map[string]Selector),
		registrars: make(map[string]Registrar),
	}
}

// ── Registration ──────────────────────────────────────────────────────────────

// RegisterModule adds a module. Its Imports slice is copied.
func (c *Catalog) RegisterModule(m Module) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.claim(m.ID); err != nil {
		return err
	}
	m.Imports = append([]string(nil), m.Imports...)
	c.modules[m.ID] = m
	return nil
}

// RegisterComponent adds a plain component with its payload.
func (c *Catalog) RegisterComponent(id string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.claim(id); err != nil {
		return err
	}
	c.components[id] = payload
	return nil
}

// RegisterSelector adds a selector plugin.
func (c *Catalog) RegisterSelector(id string, s Selector) error {
	if s == nil {
		return fmt.Errorf("selector %q: nil implementation", id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.claim(id); err != nil {
		return err
	}
	c.selectors[id] = s
	return nil
}

// RegisterRegistrar adds a registrar plugin.
func (c *Catalog) RegisterRegistrar(id string, r Registrar) error {
	if r == nil {
		return fmt.Errorf("registrar %q: nil implementation", id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.claim(id); err != nil {
		return err
	}
	c.registrars[id] = r
	return nil
}

// claim checks that id is usable and not yet taken (must hold mu.Lock).
func (c *Catalog) claim(id string) error {
	if id == "" {
		return fmt.Errorf("empty identity")
	}
	if _, _, ok := c.classify(id); ok {
		return fmt.Errorf("%w: %q", ErrDuplicateIdentity, id)
	}
	return nil
}

// ── Lookup ────────────────────────────────────────────────────────────────────

// Classify returns the declaration kind an identity resolves to.
func (c *Catalog) Classify(id string) (DeclKind, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	kind, _, ok := c.classify(id)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTarget, id)
	}
	return kind, nil
}

func (c *Catalog) classify(id string) (DeclKind, any, bool) {
	if m, ok := c.modules[id]; ok {
		return ModuleRef, m, true
	}
	if p, ok := c.components[id]; ok {
		return ComponentRef, p, true
	}
	if s, ok := c.selectors[id]; ok {
		return SelectorRef, s, true
	}
	if r, ok := c.registrars[id]; ok {
		return RegistrarRef, r, true
	}
	return 0, nil, false
}

// Module returns the module registered under id.
func (c *Catalog) Module(id string) (Module, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.modules[id]
	if ok {
		m.Imports = append([]string(nil), m.Imports...)
	}
	return m, ok
}

// Component returns the payload of the component registered under id.
func (c *Catalog) Component(id string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.components[id]
	return p, ok
}

// Selector returns the selector registered under id.
func (c *Catalog) Selector(id string) (Selector, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.selectors[id]
	return s, ok
}

// Registrar returns the registrar registered under id.
func (c *Catalog) Registrar(id string) (Registrar, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.registrars[id]
	return r, ok
}

// Declarations expands a module's imports into classified declarations.
func (c *Catalog) Declarations(moduleID string) ([]Declaration, error) {
	m, ok := c.Module(moduleID)
	if !ok {
		return nil, fmt.Errorf("%w: module %q", ErrUnknownTarget, moduleID)
	}
	decls := make([]Declaration, 0, len(m.Imports))
	for _, target := range m.Imports {
		kind, err := c.Classify(target)
		if err != nil {
			return nil, fmt.Errorf("module %q: %w", moduleID, err)
		}
		decls = append(decls, Declaration{Kind: kind, Target: target, Declarer: moduleID})
	}
	return decls, nil
}

// Identities returns every registered identity, sorted (for debugging).
func (c *Catalog) Identities() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.modules)+len(c.components)+len(c.selectors)+len(c.registrars))
	for k := range c.modules {
		out = append(out, k)
	}
	for k := range c.components {
		out = append(out, k)
	}
	for k := range c.selectors {
		out = append(out, k)
	}
	for k := range c.registrars {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Stats returns how many entries of each kind are registered.
func (c *Catalog) Stats() map[DeclKind]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return map[DeclKind]int{
		ModuleRef:    len(c.modules),
		ComponentRef: len(c.components),
		SelectorRef:  len(c.selectors),
		RegistrarRef: len(c.registrars),
	}
}
