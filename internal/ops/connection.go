package ops

import (
	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
	"github.com/puran-water/dexpi-engine/internal/registry"
)

// ConnectComponentsParams decodes the connect_components payload. When
// ValveKind is non-empty, a valve component is created and spliced inline
// between from and to (spec.md §4.2: "connect components via (optionally)
// a newly-inserted valve").
type ConnectComponentsParams struct {
	FromID     string `mapstructure:"from_id"`
	FromPort   int    `mapstructure:"from_port"`
	ToID       string `mapstructure:"to_id"`
	ToPort     int    `mapstructure:"to_port"`
	LineNumber string `mapstructure:"line_number"`
	NetworkID  string `mapstructure:"network_id"`
	ValveKind  string `mapstructure:"valve_kind"`
	ValveTag   string `mapstructure:"valve_tag"`
}

func connectComponentsHandler(reg *registry.Registry) Handler {
	return func(m model.Model, params map[string]any) (Result, error) {
		g, ok := m.(*model.GraphModel)
		if !ok {
			return Result{}, errs.New(errs.InvalidPayload, "connect_components applies only to the graph dialect")
		}
		var p ConnectComponentsParams
		if err := DecodeParams(params, &p); err != nil {
			return Result{}, err
		}
		networkID := p.NetworkID
		if networkID == "" {
			networkID = "NET-1"
		}
		g.EnsureNetwork(networkID)
		segmentID := g.NextID("SEG")

		conn := &model.Connection{
			ID:         g.NextID("CXN"),
			SourceItem: p.FromID,
			SourcePort: p.FromPort,
			TargetItem: p.ToID,
			TargetPort: p.ToPort,
			SegmentID:  segmentID,
			LineNumber: p.LineNumber,
		}
		if err := g.AddConnection(conn); err != nil {
			return Result{}, err
		}
		for _, n := range g.Networks() {
			if n.ID == networkID {
				n.SegmentIDs = append(n.SegmentIDs, segmentID)
				break
			}
		}

		data := map[string]any{"connection_id": conn.ID, "segment_id": segmentID}
		if p.ValveKind == "" {
			return Result{Data: data}, nil
		}

		kind, err := reg.Resolve(p.ValveKind)
		if err != nil {
			return Result{}, err
		}
		desc, err := reg.Describe(kind)
		if err != nil {
			return Result{}, err
		}
		ports := make([]model.Port, desc.DefaultPortCount)
		for i := range ports {
			ports[i] = model.Port{Index: i, Role: model.PortRoleNode}
		}
		valve := &model.Component{
			ID:    g.NextID(registry.CategoryPrefix(desc.Category)),
			Kind:  kind,
			Tag:   p.ValveTag,
			Ports: ports,
		}
		inPort, outPort := 0, 0
		if len(ports) > 1 {
			outPort = 1
		}
		newConnID, err := g.InsertInline(conn.ID, valve, inPort, outPort)
		if err != nil {
			return Result{}, err
		}
		data["valve_id"] = valve.ID
		data["valve_connection_id"] = newConnID
		return Result{Data: data}, nil
	}
}

// RewireConnectionParams decodes the rewire_connection payload.
type RewireConnectionParams struct {
	ConnectionID      string `mapstructure:"connection_id"`
	NewSourceID       string `mapstructure:"new_source_id"`
	NewSourcePort     int    `mapstructure:"new_source_port"`
	NewTargetID       string `mapstructure:"new_target_id"`
	NewTargetPort     int    `mapstructure:"new_target_port"`
	RerouteConnections bool  `mapstructure:"reroute_connections"`
}

func rewireConnectionHandler() Handler {
	return func(m model.Model, params map[string]any) (Result, error) {
		g, ok := m.(*model.GraphModel)
		if !ok {
			return Result{}, errs.New(errs.InvalidPayload, "rewire_connection applies only to the graph dialect")
		}
		var p RewireConnectionParams
		if err := DecodeParams(params, &p); err != nil {
			return Result{}, err
		}
		if err := g.RewireConnection(p.ConnectionID, p.NewSourceID, p.NewSourcePort, p.NewTargetID, p.NewTargetPort, p.RerouteConnections); err != nil {
			return Result{}, err
		}
		return Result{Data: map[string]any{"connection_id": p.ConnectionID}}, nil
	}
}

// InsertInlineComponentParams decodes the insert_inline_component payload.
type InsertInlineComponentParams struct {
	ConnectionID string `mapstructure:"connection_id"`
	Kind         string `mapstructure:"kind"`
	Tag          string `mapstructure:"tag"`
}

func insertInlineComponentHandler(reg *registry.Registry) Handler {
	return func(m model.Model, params map[string]any) (Result, error) {
		g, ok := m.(*model.GraphModel)
		if !ok {
			return Result{}, errs.New(errs.InvalidPayload, "insert_inline_component applies only to the graph dialect")
		}
		var p InsertInlineComponentParams
		if err := DecodeParams(params, &p); err != nil {
			return Result{}, err
		}
		kind, err := reg.Resolve(p.Kind)
		if err != nil {
			return Result{}, err
		}
		desc, err := reg.Describe(kind)
		if err != nil {
			return Result{}, err
		}
		ports := make([]model.Port, desc.DefaultPortCount)
		for i := range ports {
			ports[i] = model.Port{Index: i, Role: portRoleFor(desc.Family)}
		}
		comp := &model.Component{
			ID:    g.NextID(registry.CategoryPrefix(desc.Category)),
			Kind:  kind,
			Tag:   p.Tag,
			Ports: ports,
		}
		inPort, outPort := 0, 0
		if len(ports) > 1 {
			outPort = 1
		}
		newConnID, err := g.InsertInline(p.ConnectionID, comp, inPort, outPort)
		if err != nil {
			return Result{}, err
		}
		return Result{Data: map[string]any{"component_id": comp.ID, "new_connection_id": newConnID}}, nil
	}
}

// SplitSegmentParams decodes the split_segment payload.
type SplitSegmentParams struct {
	SegmentID string  `mapstructure:"segment_id"`
	Position  float64 `mapstructure:"position"`
}

func splitSegmentHandler() Handler {
	return func(m model.Model, params map[string]any) (Result, error) {
		g, ok := m.(*model.GraphModel)
		if !ok {
			return Result{}, errs.New(errs.InvalidPayload, "split_segment applies only to the graph dialect")
		}
		var p SplitSegmentParams
		if err := DecodeParams(params, &p); err != nil {
			return Result{}, err
		}
		newID, err := g.SplitSegment(p.SegmentID, p.Position)
		if err != nil {
			return Result{}, err
		}
		return Result{Data: map[string]any{"new_segment_id": newID}}, nil
	}
}

// MergeSegmentParams decodes the merge_segment payload.
type MergeSegmentParams struct {
	FirstSegmentID  string `mapstructure:"first_segment_id"`
	SecondSegmentID string `mapstructure:"second_segment_id"`
}

func mergeSegmentHandler() Handler {
	return func(m model.Model, params map[string]any) (Result, error) {
		g, ok := m.(*model.GraphModel)
		if !ok {
			return Result{}, errs.New(errs.InvalidPayload, "merge_segment applies only to the graph dialect")
		}
		var p MergeSegmentParams
		if err := DecodeParams(params, &p); err != nil {
			return Result{}, err
		}
		if err := g.MergeSegments(p.FirstSegmentID, p.SecondSegmentID); err != nil {
			return Result{}, err
		}
		return Result{Data: map[string]any{"segment_id": p.FirstSegmentID}}, nil
	}
}
