package container

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ── Policy ────────────────────────────────────────────────────────────────────

// Policy decides what happens when two definitions share a name.
type Policy int

const (
	// Lenient keeps the later definition and records a Diagnostic.
	Lenient Policy = iota
	// Strict aborts the pass with a ConflictError.
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "lenient"
}

// MarshalText renders the policy by name.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ParsePolicy accepts "lenient", "strict" or "" (lenient).
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return Lenient, nil
	case "strict":
		return Strict, nil
	}
	return Lenient, fmt.Errorf("unknown conflict policy %q", s)
}

// Diagnostic records a lenient override: Replaced lost to Winner.
type Diagnostic struct {
	Name     string     `json:"name"`
	Replaced Definition `json:"replaced"`
	Winner   Definition `json:"winner"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("definition %q from %s [%s] overridden by %s [%s]",
		d.Name, d.Replaced.Source, d.Replaced.Origin, d.Winner.Source, d.Winner.Origin)
}

// ── Registry ──────────────────────────────────────────────────────────────────

// Registry is the name → Definition mapping produced by one resolution pass.
//
// Entries keep the order in which their names were first merged; an
// override replaces the definition in place. A Registry is not safe for
// concurrent mutation. Once Resolve returns it belongs to the caller.
type Registry struct {
	policy      Policy
	order       []string
	entries     map[string]Definition
	diagnostics []Diagnostic
}

// NewRegistry creates an empty registry with the given conflict policy.
func NewRegistry(policy Policy) *Registry {
	return &Registry{
		policy:  policy,
		entries: make(map[string]Definition),
	}
}

// Merge adds def, applying the conflict policy on a name collision.
//
// A definition produced by the same catalog entry with an equal payload is a
// re-declaration and leaves the registry untouched. Any other collision,
// including one entry emitting a name twice with different payloads, goes
// through the policy.
func (r *Registry) Merge(def Definition) error {
	existing, ok := r.entries[def.Name]
	if !ok {
		r.order = append(r.order, def.Name)
		r.entries[def.Name] = def
		return nil
	}

	if existing.sameUnit(def) {
		return nil
	}

	if r.policy == Strict {
		return &ConflictError{Name: def.Name, Existing: existing, Incoming: def}
	}

	r.entries[def.Name] = def
	r.diagnostics = append(r.diagnostics, Diagnostic{Name: def.Name, Replaced: existing, Winner: def})
	return nil
}

// Get returns the definition registered under name.
func (r *Registry) Get(name string) (Definition, bool) {
	def, ok := r.entries[name]
	return def, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.order) }

// Policy returns the conflict policy the registry was built with.
func (r *Registry) Policy() Policy { return r.policy }

// Names returns the registered names in merge order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Definitions returns the entries in merge order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name])
	}
	return out
}

// Diagnostics returns the lenient overrides recorded so far.
func (r *Registry) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(r.diagnostics))
	copy(out, r.diagnostics)
	return out
}

// snapshot copies the entries for a plugin view.
func (r *Registry) snapshot() ([]string, map[string]Definition) {
	entries := make(map[string]Definition, len(r.entries))
	for k, v := range r.entries {
		entries[k] = v
	}
	return r.Names(), entries
}

// MarshalJSON renders the registry as ordered definitions plus diagnostics.
func (r *Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Policy      Policy       `json:"policy"`
		Definitions []Definition `json:"definitions"`
		Diagnostics []Diagnostic `json:"diagnostics"`
	}{
		Policy:      r.policy,
		Definitions: r.Definitions(),
		Diagnostics: r.Diagnostics(),
	})
}
