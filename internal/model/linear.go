package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/puran-water/dexpi-engine/internal/errs"
)

// Unit is a node in the Linear dialect: an ordered process unit carrying a
// bracketed kind token, e.g. "pump[pump_reciprocating]".
type Unit struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Kind   string            `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

// Stream is a directed edge between two Units, with an optional tag
// (spec.md §3: "Streams (directed edges with optional tags)").
type Stream struct {
	ID       string            `json:"id"`
	FromUnit string            `json:"from_unit"`
	ToUnit   string            `json:"to_unit"`
	Tag      string            `json:"tag,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
}

// Control is an instrumentation attachment on a Unit in the Linear dialect.
type Control struct {
	ID     string            `json:"id"`
	UnitID string            `json:"unit_id"`
	Kind   string            `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

// LinearModel is the string-notation dialect (spec.md §3, "SFILES").
type LinearModel struct {
	Meta

	Units    []*Unit    `json:"units"`
	Streams  []*Stream  `json:"streams"`
	Controls []*Control `json:"controls"`
}

// NewLinearModel creates an empty LinearModel.
func NewLinearModel(id string, typ ModelType) *LinearModel {
	return &LinearModel{Meta: Meta{ID: id, Type: typ}}
}

func (l *LinearModel) ModelID() string  { return l.Meta.ID }
func (l *LinearModel) Dialect() Dialect { return DialectLinear }
func (l *LinearModel) Type() ModelType  { return l.Meta.Type }

// Clone returns a deep copy of l.
func (l *LinearModel) Clone() Model {
	cp := NewLinearModel(l.Meta.ID, l.Meta.Type)
	cp.Meta = l.Meta
	for _, u := range l.Units {
		uu := *u
		if u.Params != nil {
			uu.Params = make(map[string]string, len(u.Params))
			for k, v := range u.Params {
				uu.Params[k] = v
			}
		}
		cp.Units = append(cp.Units, &uu)
	}
	for _, s := range l.Streams {
		ss := *s
		if s.Params != nil {
			ss.Params = make(map[string]string, len(s.Params))
			for k, v := range s.Params {
				ss.Params[k] = v
			}
		}
		cp.Streams = append(cp.Streams, &ss)
	}
	for _, c := range l.Controls {
		cc := *c
		if c.Params != nil {
			cc.Params = make(map[string]string, len(c.Params))
			for k, v := range c.Params {
				cc.Params[k] = v
			}
		}
		cp.Controls = append(cp.Controls, &cc)
	}
	return cp
}

// UnitByID looks up a unit by its id.
func (l *LinearModel) UnitByID(id string) (*Unit, bool) {
	for _, u := range l.Units {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}

// StreamByID looks up a stream by its id.
func (l *LinearModel) StreamByID(id string) (*Stream, bool) {
	for _, s := range l.Streams {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// UpdateStreamProperties merges updates into the stream's Params and,
// when tag is non-empty, replaces its Tag (spec.md §4.2: "update stream
// properties (linear dialect only)").
func (l *LinearModel) UpdateStreamProperties(streamID, tag string, updates map[string]string) error {
	s, ok := l.StreamByID(streamID)
	if !ok {
		return errs.Newf(errs.TargetNotFound, "stream %q not found", streamID)
	}
	if tag != "" {
		s.Tag = tag
	}
	if len(updates) > 0 {
		if s.Params == nil {
			s.Params = make(map[string]string, len(updates))
		}
		for k, v := range updates {
			s.Params[k] = v
		}
	}
	return nil
}

// AddControl attaches a control to its owning unit, which must already
// exist (spec.md §4.2 "add ... control loop").
func (l *LinearModel) AddControl(c *Control) error {
	if _, ok := l.UnitByID(c.UnitID); !ok {
		return errs.Newf(errs.TargetNotFound, "unit %q not found", c.UnitID)
	}
	l.Controls = append(l.Controls, c)
	return nil
}

// RemoveControl detaches the control with id (spec.md §4.2 "remove
// control loop").
func (l *LinearModel) RemoveControl(id string) error {
	for i, c := range l.Controls {
		if c.ID == id {
			l.Controls = append(l.Controls[:i], l.Controls[i+1:]...)
			return nil
		}
	}
	return errs.Newf(errs.TargetNotFound, "control %q not found", id)
}

// OutgoingStreams returns the streams leaving unitID, sorted by target unit
// name for deterministic traversal (spec.md §4.4.2 tie-break order).
func (l *LinearModel) OutgoingStreams(unitID string) []*Stream {
	var out []*Stream
	for _, s := range l.Streams {
		if s.FromUnit == unitID {
			out = append(out, s)
		}
	}
	name := func(id string) string {
		if u, ok := l.UnitByID(id); ok {
			return u.Name
		}
		return ""
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := name(out[i].ToUnit), name(out[j].ToUnit)
		if ni != nj {
			return ni < nj
		}
		return out[i].ToUnit < out[j].ToUnit
	})
	return out
}

// ControlsFor returns the controls attached to unitID, sorted by id.
func (l *LinearModel) ControlsFor(unitID string) []*Control {
	var out []*Control
	for _, c := range l.Controls {
		if c.UnitID == unitID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RootUnits returns units with no incoming stream, sorted by name — the
// entry points for topological traversal.
func (l *LinearModel) RootUnits() []*Unit {
	hasIncoming := make(map[string]bool, len(l.Units))
	for _, s := range l.Streams {
		hasIncoming[s.ToUnit] = true
	}
	var out []*Unit
	for _, u := range l.Units {
		if !hasIncoming[u.ID] {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// String renders a debug form of the linear model: "unit[kind]->unit[kind]".
// The canonical SFILES form used by the round-trip law is produced by
// internal/convert, which applies family-level generalisation on kinds;
// this method is a plain topological rendering used for diagnostics only.
func (l *LinearModel) String() string {
	var b strings.Builder
	visited := make(map[string]bool, len(l.Units))
	var walk func(id string)
	walk = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		u, ok := l.UnitByID(id)
		if !ok {
			return
		}
		fmt.Fprintf(&b, "%s[%s]", u.Name, u.Kind)
		for _, s := range l.OutgoingStreams(id) {
			b.WriteString("->")
			walk(s.ToUnit)
		}
	}
	for _, root := range l.RootUnits() {
		walk(root.ID)
	}
	return b.String()
}
