package convert

import (
	"sort"
	"strconv"

	"github.com/puran-water/dexpi-engine/internal/model"
)

// Generalize converts a GraphModel into its Linear-dialect generalisation
// (spec.md §4.4.2): a topological traversal in flow direction, components
// collapsed to their family-level alias (not their concrete kind) so that
// Linear -> Graph -> Linear round-trips at the family level even when the
// concrete kind changed underneath (spec.md §8's pump-family scenario).
// Instrumentation functions whose first "is located in" association names a
// traversed component become Controls on that component's Unit.
func Generalize(g *model.GraphModel, reg Resolver) (*model.LinearModel, error) {
	l := model.NewLinearModel(g.ModelID(), g.Type())

	unitOf := make(map[string]*model.Unit, len(g.Components()))
	for _, c := range g.Components() {
		alias, err := reg.FamilyAlias(c.Kind)
		if err != nil {
			return nil, err
		}
		u := &model.Unit{ID: "U-" + c.ID, Name: c.Tag, Kind: alias}
		unitOf[c.ID] = u
	}

	type edge struct {
		conn *model.Connection
		from *model.Component
		to   *model.Component
	}
	var edges []edge
	for _, conn := range g.Connections() {
		from, ok := g.Component(conn.SourceItem)
		if !ok {
			continue
		}
		to, ok := g.Component(conn.TargetItem)
		if !ok {
			continue
		}
		edges = append(edges, edge{conn: conn, from: from, to: to})
	}
	// Total tie-break order: source tag, source port, target tag, target port
	// (spec.md §4.4.2).
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.from.Tag != b.from.Tag {
			return a.from.Tag < b.from.Tag
		}
		if a.conn.SourcePort != b.conn.SourcePort {
			return a.conn.SourcePort < b.conn.SourcePort
		}
		if a.to.Tag != b.to.Tag {
			return a.to.Tag < b.to.Tag
		}
		return a.conn.TargetPort < b.conn.TargetPort
	})

	hasIncoming := make(map[string]bool, len(unitOf))
	seq := 0
	visited := make(map[string]bool, len(unitOf))
	emitUnit := func(compID string) {
		if visited[compID] {
			return
		}
		visited[compID] = true
		l.Units = append(l.Units, unitOf[compID])
	}

	// Emit roots first (components with no incoming connection), in tag
	// order, then walk each edge in tie-break order.
	var roots []*model.Component
	for _, conn := range g.Connections() {
		hasIncoming[conn.TargetItem] = true
	}
	for _, c := range g.Components() {
		if !hasIncoming[c.ID] {
			roots = append(roots, c)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Tag < roots[j].Tag })
	for _, r := range roots {
		emitUnit(r.ID)
	}
	for _, e := range edges {
		emitUnit(e.from.ID)
		emitUnit(e.to.ID)
		seq++
		l.Streams = append(l.Streams, &model.Stream{
			ID:       "S" + strconv.Itoa(seq),
			FromUnit: unitOf[e.from.ID].ID,
			ToUnit:   unitOf[e.to.ID].ID,
		})
	}

	for _, f := range g.InstrumentationFunctions() {
		if !f.Enabled {
			continue
		}
		for _, a := range f.Associations {
			if a.Type != "is located in" {
				continue
			}
			u, ok := unitOf[a.ToID]
			if !ok {
				continue
			}
			seq++
			l.Controls = append(l.Controls, &model.Control{
				ID: "C" + strconv.Itoa(seq), UnitID: u.ID, Kind: f.Tag,
			})
			break
		}
	}

	return l, nil
}
