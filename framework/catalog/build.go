package catalog

import (
	"fmt"

	"github.com/km-arc/go-composer/framework/container"
	"github.com/km-arc/go-composer/framework/providers"
)

// Build registers every entry of f into a fresh container.Catalog.
// Identities share one namespace across sections, so a duplicate anywhere
// fails with container.ErrDuplicateIdentity.
func Build(f *File) (*container.Catalog, error) {
	c := container.NewCatalog()

	for _, m := range f.Modules {
		if err := c.RegisterModule(container.Module{ID: m.ID, Imports: m.Imports, Payload: m.Payload}); err != nil {
			return nil, fmt.Errorf("module %q: %w", m.ID, err)
		}
	}

	for _, comp := range f.Components {
		if err := c.RegisterComponent(comp.ID, comp.Payload); err != nil {
			return nil, fmt.Errorf("component %q: %w", comp.ID, err)
		}
	}

	for _, s := range f.Selectors {
		sel, err := newSelector(s)
		if err != nil {
			return nil, fmt.Errorf("selector %q: %w", s.ID, err)
		}
		if err := c.RegisterSelector(s.ID, sel); err != nil {
			return nil, fmt.Errorf("selector %q: %w", s.ID, err)
		}
	}

	for _, r := range f.Registrars {
		reg, err := newRegistrar(r)
		if err != nil {
			return nil, fmt.Errorf("registrar %q: %w", r.ID, err)
		}
		if err := c.RegisterRegistrar(r.ID, reg); err != nil {
			return nil, fmt.Errorf("registrar %q: %w", r.ID, err)
		}
	}

	return c, nil
}

// LoadCatalog is Load followed by Build.
func LoadCatalog(path string) (*container.Catalog, error) {
	f, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Build(f)
}

func newSelector(s SelectorEntry) (container.Selector, error) {
	switch s.Kind {
	case SelectorOnProperty:
		return &providers.OnProperty{Key: s.Key, Value: s.Value, Then: s.Then, Else: s.Else}, nil
	case SelectorOnProfile:
		return &providers.OnProfile{Profiles: s.Profiles, Then: s.Then, Else: s.Else}, nil
	case SelectorOnMissing:
		return &providers.OnMissing{Name: s.Name, Then: s.Then}, nil
	case SelectorFixed:
		return &providers.Fixed{Targets: s.Then}, nil
	default:
		return nil, fmt.Errorf("unknown selector kind %q", s.Kind)
	}
}

func newRegistrar(r RegistrarEntry) (container.Registrar, error) {
	switch r.Kind {
	case RegistrarStatic:
		entries := make([]providers.Entry, len(r.Entries))
		for i, e := range r.Entries {
			entries[i] = providers.Entry{Name: e.Name, Payload: e.Payload}
		}
		return &providers.Static{Entries: entries}, nil
	case RegistrarPrefixed:
		return &providers.Prefixed{Prefix: r.Prefix, Names: r.Names}, nil
	case RegistrarPropertyBacked:
		return &providers.PropertyBacked{Prefix: r.Prefix, Into: r.Into}, nil
	default:
		return nil, fmt.Errorf("unknown registrar kind %q", r.Kind)
	}
}
