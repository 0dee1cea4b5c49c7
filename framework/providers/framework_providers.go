// Package providers contains the built-in selectors and registrars the
// catalog loader can instantiate by kind.
package providers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/km-arc/go-composer/framework/container"
)

// ── OnProperty ────────────────────────────────────────────────────────────────

// OnProperty imports Then when a property matches, Else otherwise.
//
// With an empty Value the property only has to be set to something other
// than a false-ish value ("", "0", "false", "off", "no").
//
// Spring equivalent:
//
//	@ConditionalOnProperty(name = "cache.driver", havingValue = "redis")
type OnProperty struct {
	Key   string
	Value string
	Then  []string
	Else  []string
}

func (p *OnProperty) Select(s container.Snapshot) ([]string, error) {
	if p.Key == "" {
		return nil, fmt.Errorf("on_property: key is required")
	}
	if p.matches(s.Property(p.Key)) {
		return targets(p.Then), nil
	}
	return targets(p.Else), nil
}

func (p *OnProperty) matches(actual string) bool {
	if p.Value != "" {
		return actual == p.Value
	}
	return truthy(actual)
}

// ── OnProfile ─────────────────────────────────────────────────────────────────

// OnProfile imports Then when the active profile is one of Profiles.
// The active profile is read from APP_ENV; a comma-separated list activates
// several profiles at once.
//
// Spring equivalent:
//
//	@Profile({"local", "testing"})
type OnProfile struct {
	Profiles []string
	Then     []string
	Else     []string
}

// ProfileKey is the property holding the active profile(s).
const ProfileKey = "APP_ENV"

func (p *OnProfile) Select(s container.Snapshot) ([]string, error) {
	for _, active := range strings.Split(s.Property(ProfileKey), ",") {
		active = strings.TrimSpace(active)
		if active == "" {
			continue
		}
		for _, want := range p.Profiles {
			if strings.EqualFold(active, want) {
				return targets(p.Then), nil
			}
		}
	}
	return targets(p.Else), nil
}

// ── OnMissing ─────────────────────────────────────────────────────────────────

// OnMissing imports Then only when no definition named Name has been merged
// yet in the current pass.
//
// Spring equivalent:
//
//	@ConditionalOnMissingBean(name = "dataSource")
type OnMissing struct {
	Name string
	Then []string
}

func (p *OnMissing) Select(s container.Snapshot) ([]string, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("on_missing: name is required")
	}
	if s.Has(p.Name) {
		return nil, nil
	}
	return targets(p.Then), nil
}

// ── Fixed ─────────────────────────────────────────────────────────────────────

// Fixed always imports the same targets. Useful to group imports under one
// identity that other selectors can return.
type Fixed struct {
	Targets []string
}

func (p *Fixed) Select(container.Snapshot) ([]string, error) {
	return targets(p.Targets), nil
}

// ── Static ────────────────────────────────────────────────────────────────────

// Entry is one definition a registrar emits.
type Entry struct {
	Name    string
	Payload any
}

// Static emits a fixed list of definitions.
//
// Laravel equivalent: a ServiceProvider whose register() only binds values.
type Static struct {
	Entries []Entry
}

func (p *Static) Register(_ container.Snapshot, sink *container.Sink) error {
	for _, e := range p.Entries {
		if e.Name == "" {
			return fmt.Errorf("static: entry without a name")
		}
		sink.Emit(e.Name, e.Payload)
	}
	return nil
}

// ── Prefixed ──────────────────────────────────────────────────────────────────

// Prefixed emits "<Prefix>.<name>" for every name, with the bare name as
// payload. Typical use: one definition per repository or per queue.
type Prefixed struct {
	Prefix string
	Names  []string
}

func (p *Prefixed) Register(_ container.Snapshot, sink *container.Sink) error {
	if p.Prefix == "" {
		return fmt.Errorf("prefixed: prefix is required")
	}
	for _, n := range p.Names {
		sink.Emit(p.Prefix+"."+n, n)
	}
	return nil
}

// ── PropertyBacked ────────────────────────────────────────────────────────────

// PropertyBacked emits one definition per property starting with Prefix.
// The definition name is the lower-cased key with the prefix stripped and
// underscores turned into dots; the payload is the property value.
//
//	DATASOURCE_PRIMARY=postgres://...  →  "datasource.primary"
type PropertyBacked struct {
	Prefix string
	Into   string // name prefix; defaults to the lower-cased Prefix
}

func (p *PropertyBacked) Register(s container.Snapshot, sink *container.Sink) error {
	if p.Prefix == "" {
		return fmt.Errorf("property_backed: prefix is required")
	}
	into := p.Into
	if into == "" {
		into = strings.ToLower(strings.TrimSuffix(p.Prefix, "_"))
	}
	for _, key := range s.PropertiesWithPrefix(p.Prefix) {
		suffix := strings.TrimPrefix(strings.TrimPrefix(key, p.Prefix), "_")
		if suffix == "" {
			continue
		}
		name := into + "." + strings.ReplaceAll(strings.ToLower(suffix), "_", ".")
		sink.Emit(name, s.Property(key))
	}
	return nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

// targets copies a configured identity list so callers cannot edit it.
func targets(ids []string) []string {
	return append([]string(nil), ids...)
}

func truthy(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	switch v {
	case "", "off", "no":
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return true
}
