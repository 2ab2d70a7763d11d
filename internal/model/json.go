package model

import (
	"encoding/json"
)

// graphWire is the on-the-wire shape of a GraphModel (spec.md §6: "Graph
// dialect JSON (round-trips the full typed graph)"). Fields are emitted in
// a fixed order via struct tags and every collection is sorted by id before
// marshaling, so two runs over the same model produce byte-identical JSON
// (spec.md §8: "JSON ⇄ Graph: byte-stable for a fixed model").
type graphWire struct {
	Meta                     Meta                       `json:"meta"`
	Components               []*Component               `json:"components"`
	Connections              []*Connection               `json:"connections"`
	Segments                 []*Segment                  `json:"segments"`
	Networks                 []*Network                  `json:"networks"`
	InstrumentationFunctions []*InstrumentationFunction  `json:"instrumentation_functions"`
	IDCounters               map[string]int              `json:"id_counters,omitempty"`
}

// MarshalJSON implements the stable Graph-dialect JSON codec.
func (g *GraphModel) MarshalJSON() ([]byte, error) {
	w := graphWire{
		Meta:                      g.Meta,
		Components:                g.Components(),
		Connections:               g.Connections(),
		Segments:                  g.Segments(),
		Networks:                  g.Networks(),
		InstrumentationFunctions:  g.InstrumentationFunctions(),
		IDCounters:                g.idCounters,
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements the stable Graph-dialect JSON codec.
func (g *GraphModel) UnmarshalJSON(data []byte) error {
	var w graphWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	g.Meta = w.Meta
	g.components = map[string]*Component{}
	g.tagToID = map[string]string{}
	g.connections = map[string]*Connection{}
	g.segments = map[string]*Segment{}
	g.networks = map[string]*Network{}
	g.instrFuncs = map[string]*InstrumentationFunction{}
	g.idCounters = map[string]int{}

	for _, c := range w.Components {
		g.components[c.ID] = c
		if c.Tag != "" {
			g.tagToID[c.Tag] = c.ID
		}
	}
	for _, c := range w.Connections {
		g.connections[c.ID] = c
	}
	for _, s := range w.Segments {
		g.segments[s.ID] = s
	}
	for _, n := range w.Networks {
		g.networks[n.ID] = n
	}
	for _, f := range w.InstrumentationFunctions {
		g.instrFuncs[f.ID] = f
	}
	for k, v := range w.IDCounters {
		g.idCounters[k] = v
	}
	return nil
}
