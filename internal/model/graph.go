package model

import (
	"fmt"
	"sort"

	"github.com/puran-water/dexpi-engine/internal/errs"
)

// Connection links (sourceItem, sourcePort) -> (targetItem, targetPort).
// Both ports are stored 0-based; spec.md §4.5 requires the 1-based
// XML/SFILES forms to be derived at the boundary, never stored.
type Connection struct {
	ID         string `json:"id"`
	SourceItem string `json:"source_item"`
	SourcePort int    `json:"source_port"`
	TargetItem string `json:"target_item"`
	TargetPort int    `json:"target_port"`
	SegmentID  string `json:"segment_id"`
	LineNumber string `json:"line_number,omitempty"`
}

// Segment is a contiguous chain of Connections within a Network.
type Segment struct {
	ID            string   `json:"id"`
	NetworkID     string   `json:"network_id"`
	ConnectionIDs []string `json:"connection_ids"`
}

// Network groups Segments that belong to the same piping network.
type Network struct {
	ID         string   `json:"id"`
	SegmentIDs []string `json:"segment_ids"`
}

// GraphModel is the typed node-and-port dialect (spec.md §3).
type GraphModel struct {
	Meta

	components   map[string]*Component
	tagToID      map[string]string
	connections  map[string]*Connection
	segments     map[string]*Segment
	networks     map[string]*Network
	instrFuncs   map[string]*InstrumentationFunction
	idCounters   map[string]int
}

// NewGraphModel creates an empty GraphModel with the given id and type.
// Models are created empty by the engine and mutated only through the
// Operation Registry (spec.md §3 Lifecycle).
func NewGraphModel(id string, typ ModelType) *GraphModel {
	return &GraphModel{
		Meta:        Meta{ID: id, Type: typ},
		components:  map[string]*Component{},
		tagToID:     map[string]string{},
		connections: map[string]*Connection{},
		segments:    map[string]*Segment{},
		networks:    map[string]*Network{},
		instrFuncs:  map[string]*InstrumentationFunction{},
		idCounters:  map[string]int{},
	}
}

func (g *GraphModel) ModelID() string  { return g.Meta.ID }
func (g *GraphModel) Dialect() Dialect { return DialectGraph }
func (g *GraphModel) Type() ModelType  { return g.Meta.Type }

// NextID returns a fresh, model-scoped component id for the given kind
// prefix (e.g. "C" for a generic component); ids generated this way are
// opaque and monotonic per prefix, distinct from the Proteus exporter's own
// per-category-prefix id space (spec.md §4.5 / SPEC_FULL.md §10).
func (g *GraphModel) NextID(prefix string) string {
	g.idCounters[prefix]++
	return fmt.Sprintf("%s-%d", prefix, g.idCounters[prefix])
}

// AddComponent inserts c into the model. It enforces tag uniqueness
// (spec.md §3 Invariants) and id uniqueness.
func (g *GraphModel) AddComponent(c *Component) error {
	if c.ID == "" {
		return errs.New(errs.InvalidPayload, "component id must not be empty")
	}
	if _, exists := g.components[c.ID]; exists {
		return errs.Newf(errs.InvalidPayload, "component id %q already exists", c.ID)
	}
	if c.Tag != "" {
		if _, exists := g.tagToID[c.Tag]; exists {
			return errs.Newf(errs.TagConflict, "tag %q already in use", c.Tag)
		}
	}
	g.components[c.ID] = c
	if c.Tag != "" {
		g.tagToID[c.Tag] = c.ID
	}
	return nil
}

// RemoveComponent deletes the component with id, optionally cascading to
// incident connections (spec.md §3 Lifecycle: "removed only by removal
// operations, optionally cascading").
func (g *GraphModel) RemoveComponent(id string, cascade bool) error {
	c, ok := g.components[id]
	if !ok {
		return errs.Newf(errs.TargetNotFound, "component %q not found", id)
	}
	incident := g.connectionsIncidentTo(id)
	if len(incident) > 0 && !cascade {
		return errs.Newf(errs.ConnectionInvalid, "component %q has %d incident connection(s); cascade required", id, len(incident))
	}
	for _, connID := range incident {
		_ = g.RemoveConnection(connID)
	}
	delete(g.components, id)
	if c.Tag != "" {
		delete(g.tagToID, c.Tag)
	}
	return nil
}

func (g *GraphModel) connectionsIncidentTo(id string) []string {
	var ids []string
	for _, conn := range g.connections {
		if conn.SourceItem == id || conn.TargetItem == id {
			ids = append(ids, conn.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

// Component looks up a component by id.
func (g *GraphModel) Component(id string) (*Component, bool) {
	c, ok := g.components[id]
	return c, ok
}

// ComponentByTag looks up a component by its unique tag.
func (g *GraphModel) ComponentByTag(tag string) (*Component, bool) {
	id, ok := g.tagToID[tag]
	if !ok {
		return nil, false
	}
	return g.Component(id)
}

// Components returns all components, sorted by id for deterministic
// iteration (export order and diffing both depend on this).
func (g *GraphModel) Components() []*Component {
	out := make([]*Component, 0, len(g.components))
	for _, c := range g.components {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Retag changes the tag of the component with id, enforcing uniqueness.
func (g *GraphModel) Retag(id, newTag string) error {
	c, ok := g.components[id]
	if !ok {
		return errs.Newf(errs.TargetNotFound, "component %q not found", id)
	}
	if newTag == c.Tag {
		return nil
	}
	if _, exists := g.tagToID[newTag]; exists {
		return errs.Newf(errs.TagConflict, "tag %q already in use", newTag)
	}
	if c.Tag != "" {
		delete(g.tagToID, c.Tag)
	}
	c.Tag = newTag
	g.tagToID[newTag] = id
	return nil
}

// validatePort checks that portIndex is in range for the component's ports.
func (g *GraphModel) validatePort(componentID string, portIndex int) error {
	c, ok := g.components[componentID]
	if !ok {
		return errs.Newf(errs.TargetNotFound, "component %q not found", componentID)
	}
	if portIndex < 0 || portIndex >= len(c.Ports) {
		return errs.Newf(errs.ConnectionInvalid, "port index %d out of range for component %q (%d ports)", portIndex, componentID, len(c.Ports))
	}
	return nil
}

// AddConnection validates and inserts a Connection, creating its Segment
// if SegmentID names one that does not yet exist. It does not create or
// touch any Network; Expand attaches each new segment to a Network
// through EnsureNetwork.
func (g *GraphModel) AddConnection(conn *Connection) error {
	if err := g.validatePort(conn.SourceItem, conn.SourcePort); err != nil {
		return err
	}
	if err := g.validatePort(conn.TargetItem, conn.TargetPort); err != nil {
		return err
	}
	if conn.ID == "" {
		return errs.New(errs.InvalidPayload, "connection id must not be empty")
	}
	if _, exists := g.connections[conn.ID]; exists {
		return errs.Newf(errs.InvalidPayload, "connection id %q already exists", conn.ID)
	}
	g.connections[conn.ID] = conn
	if conn.SegmentID != "" {
		seg, ok := g.segments[conn.SegmentID]
		if !ok {
			seg = &Segment{ID: conn.SegmentID}
			g.segments[conn.SegmentID] = seg
		}
		seg.ConnectionIDs = append(seg.ConnectionIDs, conn.ID)
	}
	return nil
}

// RemoveConnection deletes the connection with id and detaches it from its
// segment.
func (g *GraphModel) RemoveConnection(id string) error {
	conn, ok := g.connections[id]
	if !ok {
		return errs.Newf(errs.TargetNotFound, "connection %q not found", id)
	}
	if conn.SegmentID != "" {
		if seg, ok := g.segments[conn.SegmentID]; ok {
			seg.ConnectionIDs = removeString(seg.ConnectionIDs, id)
		}
	}
	delete(g.connections, id)
	return nil
}

// Connection looks up a connection by id.
func (g *GraphModel) Connection(id string) (*Connection, bool) {
	c, ok := g.connections[id]
	return c, ok
}

// Connections returns all connections sorted by id.
func (g *GraphModel) Connections() []*Connection {
	out := make([]*Connection, 0, len(g.connections))
	for _, c := range g.connections {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Segment looks up a segment by id.
func (g *GraphModel) Segment(id string) (*Segment, bool) {
	s, ok := g.segments[id]
	return s, ok
}

// Segments returns all segments sorted by id.
func (g *GraphModel) Segments() []*Segment {
	out := make([]*Segment, 0, len(g.segments))
	for _, s := range g.segments {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EnsureNetwork creates the network with id if absent and returns it.
func (g *GraphModel) EnsureNetwork(id string) *Network {
	n, ok := g.networks[id]
	if !ok {
		n = &Network{ID: id}
		g.networks[id] = n
	}
	return n
}

// Networks returns all networks sorted by id.
func (g *GraphModel) Networks() []*Network {
	out := make([]*Network, 0, len(g.networks))
	for _, n := range g.networks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InstrumentationFunctions returns all instrumentation functions sorted by id.
func (g *GraphModel) InstrumentationFunctions() []*InstrumentationFunction {
	out := make([]*InstrumentationFunction, 0, len(g.instrFuncs))
	for _, f := range g.instrFuncs {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddInstrumentationFunction validates that every Association target
// exists in the model (spec.md §3 Invariants) before inserting f.
func (g *GraphModel) AddInstrumentationFunction(f *InstrumentationFunction) error {
	for _, a := range f.Associations {
		if !g.itemExists(a.ToID) {
			return errs.Newf(errs.ReferenceUndefined, "association target %q does not exist in model", a.ToID)
		}
	}
	if f.ID == "" {
		return errs.New(errs.InvalidPayload, "instrumentation function id must not be empty")
	}
	g.instrFuncs[f.ID] = f
	return nil
}

// InstrumentationFunction looks up an instrumentation function by id.
func (g *GraphModel) InstrumentationFunction(id string) (*InstrumentationFunction, bool) {
	f, ok := g.instrFuncs[id]
	return f, ok
}

func (g *GraphModel) itemExists(id string) bool {
	if _, ok := g.components[id]; ok {
		return true
	}
	if _, ok := g.instrFuncs[id]; ok {
		return true
	}
	return false
}

func removeString(ss []string, target string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a deep copy of g, satisfying Model.Clone for the
// transaction manager's DEEPCOPY snapshot strategy.
func (g *GraphModel) Clone() Model {
	cp := NewGraphModel(g.Meta.ID, g.Meta.Type)
	cp.Meta = g.Meta
	for id, c := range g.components {
		cp.components[id] = c.Clone()
	}
	for tag, id := range g.tagToID {
		cp.tagToID[tag] = id
	}
	for id, c := range g.connections {
		cc := *c
		cp.connections[id] = &cc
	}
	for id, s := range g.segments {
		cs := &Segment{ID: s.ID, NetworkID: s.NetworkID, ConnectionIDs: append([]string(nil), s.ConnectionIDs...)}
		cp.segments[id] = cs
	}
	for id, n := range g.networks {
		cn := &Network{ID: n.ID, SegmentIDs: append([]string(nil), n.SegmentIDs...)}
		cp.networks[id] = cn
	}
	for id, f := range g.instrFuncs {
		cp.instrFuncs[id] = f.Clone()
	}
	for k, v := range g.idCounters {
		cp.idCounters[k] = v
	}
	return cp
}
