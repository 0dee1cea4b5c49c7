package container

import (
	"encoding/json"
	"reflect"
	"strings"
)

// ── Kind ──────────────────────────────────────────────────────────────────────

// Kind tells where a Definition came from.
type Kind int

const (
	// KindModule is a configuration module reached through an import.
	KindModule Kind = iota
	// KindComponent is a plain component imported by reference.
	KindComponent
	// KindGenerated is a definition emitted programmatically by a Registrar.
	KindGenerated
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindComponent:
		return "component"
	case KindGenerated:
		return "generated"
	}
	return "unknown"
}

// MarshalText renders the kind by name so JSON output stays readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ── Chain ─────────────────────────────────────────────────────────────────────

// Chain is an ordered list of unit identities, root first.
//
// It records the import path that led to a unit and doubles as the
// ancestor set used for cycle detection.
type Chain []string

// Contains reports whether id is already part of the chain.
func (c Chain) Contains(id string) bool {
	for _, v := range c {
		if v == id {
			return true
		}
	}
	return false
}

// Push returns a new chain with id appended. The receiver is never modified,
// so chains captured as definition origins stay stable.
func (c Chain) Push(id string) Chain {
	out := make(Chain, len(c), len(c)+1)
	copy(out, c)
	return append(out, id)
}

// Clone returns an independent copy.
func (c Chain) Clone() Chain {
	if c == nil {
		return Chain{}
	}
	out := make(Chain, len(c))
	copy(out, c)
	return out
}

// Last returns the innermost identity, or "" for an empty chain.
func (c Chain) Last() string {
	if len(c) == 0 {
		return ""
	}
	return c[len(c)-1]
}

func (c Chain) String() string {
	return strings.Join(c, " -> ")
}

// MarshalJSON always emits an array, never null.
func (c Chain) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(c.Clone()))
}

// ── Definition ────────────────────────────────────────────────────────────────

// Definition describes one unit destined for later instantiation.
//
// Payload is opaque to the resolver: a type token, a factory description or
// whatever a Registrar chose to emit. Source is the catalog identity that
// produced the definition and Origin the import chain that introduced it.
type Definition struct {
	Name    string `json:"name"`
	Kind    Kind   `json:"kind"`
	Payload any    `json:"payload,omitempty"`
	Source  string `json:"source"`
	Origin  Chain  `json:"origin"`
}

// sameUnit reports whether other re-declares d: the same catalog entry
// reached again and producing an equal payload. Origin may differ when a
// registrar is imported on two paths.
func (d Definition) sameUnit(other Definition) bool {
	return d.Kind == other.Kind &&
		d.Source == other.Source &&
		reflect.DeepEqual(d.Payload, other.Payload)
}
