package template

import (
	"github.com/puran-water/dexpi-engine/internal/model"
)

// ComponentSpec is one internal component a template instantiates.
// TagExpr supports `${name|default}` substitution against the block Unit's
// params; Condition, when non-empty, gates whether the component (and its
// connections) are included.
type ComponentSpec struct {
	Alias     string
	Kind      string
	TagExpr   string
	Condition string
}

// ConnectionSpec wires two component aliases of the same template together
// by port index. A connection whose either alias was not instantiated is
// skipped; no alias names the template's boundary — the block's external
// connection points come from Boundary instead.
type ConnectionSpec struct {
	FromAlias string
	FromPort  int
	ToAlias   string
	ToPort    int
	Condition string
}

// Boundary names which internal alias/port stands in for the block's
// external inbound and outbound connection point.
type Boundary struct {
	InAlias  string
	InPort   int
	OutAlias string
	OutPort  int
}

// Template describes how a single block-list Unit kind expands into a
// cluster of Components and Connections (spec.md §4.4.1).
type Template struct {
	Name        string
	BlockKind   model.Kind
	Components  []ComponentSpec
	Connections []ConnectionSpec
	Boundary    Boundary
}

// Set is an immutable, named collection of Templates, looked up by the
// registry-resolved kind of the Unit being expanded.
type Set struct {
	byKind map[model.Kind]*Template
}

// NewSet builds a Set from templates, keyed by BlockKind. It validates
// nothing: a later template with the same BlockKind replaces an earlier
// one.
func NewSet(templates ...Template) *Set {
	s := &Set{byKind: make(map[model.Kind]*Template, len(templates))}
	for i := range templates {
		t := templates[i]
		s.byKind[t.BlockKind] = &t
	}
	return s
}

// Lookup returns the template registered for kind, if any.
func (s *Set) Lookup(kind model.Kind) (*Template, bool) {
	t, ok := s.byKind[kind]
	return t, ok
}

// LookupByName returns the template registered under the given Name, if
// any — the lookup path for callers (e.g. the instantiate_template
// operation) that name a template directly rather than going through its
// block kind.
func (s *Set) LookupByName(name string) (*Template, bool) {
	for _, t := range s.byKind {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Default returns the built-in template set shipped with the engine: a
// representative block template (a fired boiler package, expanding to a
// boiler drum plus its feedwater pump, and a blowdown valve only when the
// block's has_blowdown param is "true") grounding
// the mechanism end to end. Additional templates are a data addition, not
// a code change — see DESIGN.md "Deferred / trimmed".
func Default() *Set {
	return NewSet(
		Template{
			Name:      "boiler_package",
			BlockKind: "Boiler",
			Boundary: Boundary{
				InAlias: "feedwater_pump", InPort: 0,
				OutAlias: "boiler", OutPort: 1,
			},
			Components: []ComponentSpec{
				{Alias: "feedwater_pump", Kind: "pump", TagExpr: "${tag_prefix|BLR}-FWP"},
				{Alias: "boiler", Kind: "boiler", TagExpr: "${tag_prefix|BLR}-DRM"},
				{
					Alias: "blowdown_valve", Kind: "valve_control", TagExpr: "${tag_prefix|BLR}-BDV",
					Condition: `"${has_blowdown|false}" == "true"`,
				},
			},
			Connections: []ConnectionSpec{
				{FromAlias: "feedwater_pump", FromPort: 1, ToAlias: "boiler", ToPort: 0},
				{
					FromAlias: "boiler", FromPort: 2, ToAlias: "blowdown_valve", ToPort: 0,
					Condition: `"${has_blowdown|false}" == "true"`,
				},
			},
		},
	)
}

// DefaultBlockList is the set of kinds that trigger template expansion
// instead of a plain single-component instantiation (spec.md §4.4.1:
// "power blocks, solids handling, utility units, etc."). It is a plain
// set, configurable by the caller of Expand — the Conversion Engine never
// hardcodes this list past the default.
func DefaultBlockList() map[model.Kind]bool {
	return map[model.Kind]bool{
		"Boiler": true,
	}
}
