// Package catalog loads declarative catalogs from YAML and keeps them fresh.
//
// A catalog file lists the units of composition by identity:
//
//	modules:
//	  - id: root
//	    imports: [ModuleA, SelectorS]
//	  - id: ModuleA
//	    imports: [ComponentC]
//	  - id: ModuleB
//	    imports: [RegistrarR]
//	components:
//	  - id: ComponentC
//	    payload: {driver: redis}
//	selectors:
//	  - id: SelectorS
//	    kind: fixed
//	    then: [ModuleB]
//	registrars:
//	  - id: RegistrarR
//	    kind: static
//	    entries:
//	      - name: special
//
// ${VAR} references are expanded from the environment before decoding.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-composer/framework/http/validation"
)

// File is the decoded catalog document.
type File struct {
	Modules    []ModuleEntry    `yaml:"modules"`
	Components []ComponentEntry `yaml:"components"`
	Selectors  []SelectorEntry  `yaml:"selectors"`
	Registrars []RegistrarEntry `yaml:"registrars"`
}

// ModuleEntry declares a module and its ordered imports.
type ModuleEntry struct {
	ID      string   `yaml:"id"`
	Imports []string `yaml:"imports"`
	Payload any      `yaml:"payload,omitempty"`
}

// ComponentEntry declares a plain component.
type ComponentEntry struct {
	ID      string `yaml:"id"`
	Payload any    `yaml:"payload,omitempty"`
}

// SelectorEntry declares one of the built-in selectors.
type SelectorEntry struct {
	ID       string   `yaml:"id"`
	Kind     string   `yaml:"kind"` // on_property, on_profile, on_missing, fixed
	Key      string   `yaml:"key,omitempty"`
	Value    string   `yaml:"value,omitempty"`
	Profiles []string `yaml:"profiles,omitempty"`
	Name     string   `yaml:"name,omitempty"`
	Then     []string `yaml:"then,omitempty"`
	Else     []string `yaml:"else,omitempty"`
}

// RegistrarEntry declares one of the built-in registrars.
type RegistrarEntry struct {
	ID      string        `yaml:"id"`
	Kind    string        `yaml:"kind"` // static, prefixed, property_backed
	Prefix  string        `yaml:"prefix,omitempty"`
	Into    string        `yaml:"into,omitempty"`
	Names   []string      `yaml:"names,omitempty"`
	Entries []StaticEntry `yaml:"entries,omitempty"`
}

// StaticEntry is one definition of a static registrar.
type StaticEntry struct {
	Name    string `yaml:"name"`
	Payload any    `yaml:"payload,omitempty"`
}

// Selector and registrar kinds understood by Build.
const (
	SelectorOnProperty = "on_property"
	SelectorOnProfile  = "on_profile"
	SelectorOnMissing  = "on_missing"
	SelectorFixed      = "fixed"

	RegistrarStatic         = "static"
	RegistrarPrefixed       = "prefixed"
	RegistrarPropertyBacked = "property_backed"
)

const idRules = "required|identifier|max:256"

var (
	selectorKinds  = strings.Join([]string{SelectorOnProperty, SelectorOnProfile, SelectorOnMissing, SelectorFixed}, ",")
	registrarKinds = strings.Join([]string{RegistrarStatic, RegistrarPrefixed, RegistrarPropertyBacked}, ",")
)

// Load reads and validates a catalog file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*File, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	return &f, nil
}

// Validate checks every entry's shape. Cross references are checked when the
// catalog is resolved, not here: an import may name a unit another file adds.
func (f *File) Validate() error {
	for i, m := range f.Modules {
		if err := check(validation.Make(map[string]string{"id": m.ID}, validation.Rules{"id": idRules})); err != nil {
			return fmt.Errorf("modules[%d]: %w", i, err)
		}
		for j, imp := range m.Imports {
			if err := check(validation.Make(map[string]string{"import": imp}, validation.Rules{"import": idRules})); err != nil {
				return fmt.Errorf("modules[%d].imports[%d]: %w", i, j, err)
			}
		}
	}

	for i, c := range f.Components {
		if err := check(validation.Make(map[string]string{"id": c.ID}, validation.Rules{"id": idRules})); err != nil {
			return fmt.Errorf("components[%d]: %w", i, err)
		}
	}

	for i, s := range f.Selectors {
		rules := validation.Rules{
			"id":   idRules,
			"kind": "required|in:" + selectorKinds,
		}
		data := map[string]string{"id": s.ID, "kind": s.Kind}
		switch s.Kind {
		case SelectorOnProperty:
			rules["key"] = "required"
			data["key"] = s.Key
		case SelectorOnMissing:
			rules["name"] = "required|identifier"
			data["name"] = s.Name
		}
		if err := check(validation.Make(data, rules)); err != nil {
			return fmt.Errorf("selectors[%d]: %w", i, err)
		}
		if s.Kind == SelectorOnProfile && len(s.Profiles) == 0 {
			return fmt.Errorf("selectors[%d]: profiles is required", i)
		}
	}

	for i, r := range f.Registrars {
		rules := validation.Rules{
			"id":   idRules,
			"kind": "required|in:" + registrarKinds,
		}
		data := map[string]string{"id": r.ID, "kind": r.Kind}
		switch r.Kind {
		case RegistrarPrefixed, RegistrarPropertyBacked:
			rules["prefix"] = "required"
			data["prefix"] = r.Prefix
		}
		if err := check(validation.Make(data, rules)); err != nil {
			return fmt.Errorf("registrars[%d]: %w", i, err)
		}
		for j, e := range r.Entries {
			if strings.TrimSpace(e.Name) == "" {
				return fmt.Errorf("registrars[%d].entries[%d]: name is required", i, j)
			}
		}
	}

	return nil
}

// Stats counts the entries per section.
func (f *File) Stats() map[string]int {
	return map[string]int{
		"modules":    len(f.Modules),
		"components": len(f.Components),
		"selectors":  len(f.Selectors),
		"registrars": len(f.Registrars),
	}
}

func check(v *validation.Validator) error {
	return v.Validate()
}
