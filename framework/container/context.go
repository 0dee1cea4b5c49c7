package container

import (
	"sort"
	"strconv"
	"strings"
)

// Properties is a read-only configuration snapshot threaded through a pass.
// Selectors consult it instead of reaching into process-wide state.
type Properties map[string]string

// Clone returns an independent copy.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// resolution is the per-pass state. It is created by Resolve, mutated while
// the graph is walked and dropped once the pass completes.
type resolution struct {
	id            string
	chain         Chain
	registry      *Registry
	visited       map[string]bool
	// selectors holds the selectors being expanded below the innermost
	// module; its length is the current selector depth. It never enters
	// origins.
	selectors Chain
	props         Properties
}

func newResolution(id, root string, policy Policy, props Properties) *resolution {
	return &resolution{
		id:       id,
		chain:    Chain{root},
		registry: NewRegistry(policy),
		visited:  map[string]bool{root: true},
		props:    props,
	}
}

// snapshot freezes the current state for a plugin invocation.
func (r *resolution) snapshot() Snapshot {
	names, entries := r.registry.snapshot()
	return Snapshot{
		passID:  r.id,
		chain:   r.chain.Clone(),
		names:   names,
		entries: entries,
		props:   r.props,
	}
}

// ── Snapshot ──────────────────────────────────────────────────────────────────

// Snapshot is the read-only view of a resolution pass handed to plugins:
// the import chain, the definitions merged so far and the properties.
type Snapshot struct {
	passID  string
	chain   Chain
	names   []string
	entries map[string]Definition
	props   Properties
}

// PassID identifies the resolution pass.
func (s Snapshot) PassID() string { return s.passID }

// Chain returns the import chain from the root to the current unit.
func (s Snapshot) Chain() Chain { return s.chain.Clone() }

// Current returns the unit whose declarations are being processed.
func (s Snapshot) Current() string { return s.chain.Last() }

// Has reports whether a definition named name has been merged so far.
func (s Snapshot) Has(name string) bool {
	_, ok := s.entries[name]
	return ok
}

// Lookup returns the definition merged so far under name.
func (s Snapshot) Lookup(name string) (Definition, bool) {
	def, ok := s.entries[name]
	return def, ok
}

// Names returns the names merged so far, in merge order.
func (s Snapshot) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Property returns a configuration value, or "" when unset.
func (s Snapshot) Property(key string) string {
	return s.props[key]
}

// PropertyOr returns a configuration value, falling back when unset.
func (s Snapshot) PropertyOr(key, fallback string) string {
	if v, ok := s.props[key]; ok && v != "" {
		return v
	}
	return fallback
}

// PropertyBool parses a property as a boolean; unset or invalid is false.
func (s Snapshot) PropertyBool(key string) bool {
	b, err := strconv.ParseBool(s.props[key])
	return err == nil && b
}

// PropertiesWithPrefix returns the property keys starting with prefix,
// sorted for determinism.
func (s Snapshot) PropertiesWithPrefix(prefix string) []string {
	var keys []string
	for k := range s.props {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
