package model

import "github.com/puran-water/dexpi-engine/internal/errs"

// SplitSegment divides the segment at the given fractional position
// (strictly between 0 and 1) into two segments within the same network,
// returning the id of the newly created trailing segment (spec.md §4.2,
// §8 boundary behavior: "Attempting split_segment at position 0.0 or 1.0
// -> POSITION_OUT_OF_RANGE").
func (g *GraphModel) SplitSegment(segmentID string, position float64) (string, error) {
	if position <= 0 || position >= 1 {
		return "", errs.Newf(errs.PositionOutOfRange, "split position %v must be strictly between 0 and 1", position)
	}
	seg, ok := g.segments[segmentID]
	if !ok {
		return "", errs.Newf(errs.TargetNotFound, "segment %q not found", segmentID)
	}
	n := len(seg.ConnectionIDs)
	if n < 2 {
		return "", errs.Newf(errs.SegmentsNotAdjacent, "segment %q has too few connections to split", segmentID)
	}
	idx := int(position * float64(n))
	if idx <= 0 {
		idx = 1
	}
	if idx >= n {
		idx = n - 1
	}

	newSeg := &Segment{
		ID:            g.NextID("SEG"),
		NetworkID:     seg.NetworkID,
		ConnectionIDs: append([]string(nil), seg.ConnectionIDs[idx:]...),
	}
	seg.ConnectionIDs = append([]string(nil), seg.ConnectionIDs[:idx]...)
	g.segments[newSeg.ID] = newSeg
	for _, cid := range newSeg.ConnectionIDs {
		g.connections[cid].SegmentID = newSeg.ID
	}
	if net, ok := g.networks[seg.NetworkID]; ok {
		net.SegmentIDs = append(net.SegmentIDs, newSeg.ID)
	}
	return newSeg.ID, nil
}

// MergeSegments joins secondID onto the end of firstID. The segments must
// belong to the same network and be adjacent: the last connection of
// firstID must terminate at the item the first connection of secondID
// starts from (spec.md §8: "Beginning ... segments not adjacent").
func (g *GraphModel) MergeSegments(firstID, secondID string) error {
	first, ok := g.segments[firstID]
	if !ok {
		return errs.Newf(errs.TargetNotFound, "segment %q not found", firstID)
	}
	second, ok := g.segments[secondID]
	if !ok {
		return errs.Newf(errs.TargetNotFound, "segment %q not found", secondID)
	}
	if first.NetworkID != second.NetworkID {
		return errs.Newf(errs.SegmentsNotAdjacent, "segments %q and %q belong to different networks", firstID, secondID)
	}
	if len(first.ConnectionIDs) == 0 || len(second.ConnectionIDs) == 0 {
		return errs.Newf(errs.SegmentsNotAdjacent, "segments %q and %q have no connections to join", firstID, secondID)
	}
	lastOfFirst := g.connections[first.ConnectionIDs[len(first.ConnectionIDs)-1]]
	firstOfSecond := g.connections[second.ConnectionIDs[0]]
	if lastOfFirst.TargetItem != firstOfSecond.SourceItem {
		return errs.Newf(errs.SegmentsNotAdjacent, "segment %q does not terminate where %q begins", firstID, secondID)
	}

	for _, cid := range second.ConnectionIDs {
		g.connections[cid].SegmentID = first.ID
	}
	first.ConnectionIDs = append(first.ConnectionIDs, second.ConnectionIDs...)
	delete(g.segments, second.ID)
	if net, ok := g.networks[first.NetworkID]; ok {
		net.SegmentIDs = removeString(net.SegmentIDs, second.ID)
	}
	return nil
}

// InsertInline splices comp into the middle of an existing connection:
// comp is added to the model, the original connection is shortened to end
// at comp's inPort, and a new connection carries the remainder from comp's
// outPort to the original target (spec.md §4.2: "insert inline component
// into a segment at a fractional position" — modelled here at the
// per-connection grain, the unit a segment is built from).
func (g *GraphModel) InsertInline(connectionID string, comp *Component, inPort, outPort int) (string, error) {
	conn, ok := g.connections[connectionID]
	if !ok {
		return "", errs.Newf(errs.TargetNotFound, "connection %q not found", connectionID)
	}
	if err := g.AddComponent(comp); err != nil {
		return "", err
	}
	if err := g.validatePort(comp.ID, inPort); err != nil {
		return "", err
	}
	if err := g.validatePort(comp.ID, outPort); err != nil {
		return "", err
	}

	newConn := &Connection{
		ID:         g.NextID("CXN"),
		SourceItem: comp.ID,
		SourcePort: outPort,
		TargetItem: conn.TargetItem,
		TargetPort: conn.TargetPort,
		SegmentID:  conn.SegmentID,
	}
	conn.TargetItem = comp.ID
	conn.TargetPort = inPort
	g.connections[newConn.ID] = newConn

	if seg, ok := g.segments[conn.SegmentID]; ok {
		idx := indexOf(seg.ConnectionIDs, connectionID)
		if idx >= 0 {
			inserted := make([]string, 0, len(seg.ConnectionIDs)+1)
			inserted = append(inserted, seg.ConnectionIDs[:idx+1]...)
			inserted = append(inserted, newConn.ID)
			inserted = append(inserted, seg.ConnectionIDs[idx+1:]...)
			seg.ConnectionIDs = inserted
		} else {
			seg.ConnectionIDs = append(seg.ConnectionIDs, newConn.ID)
		}
	}
	return newConn.ID, nil
}

// RewireConnection repoints connectionID's source and/or target endpoint.
// An empty item name leaves that endpoint untouched. When
// rerouteOnMissing is true, a requested endpoint that does not exist in
// the model is silently skipped rather than rejected — the one documented
// local-recovery path in spec.md §7 ("rewire_connection with
// reroute_connections=true").
func (g *GraphModel) RewireConnection(connectionID, newSourceItem string, newSourcePort int, newTargetItem string, newTargetPort int, rerouteOnMissing bool) error {
	conn, ok := g.connections[connectionID]
	if !ok {
		return errs.Newf(errs.TargetNotFound, "connection %q not found", connectionID)
	}
	if newSourceItem != "" {
		if !g.itemExists(newSourceItem) {
			if !rerouteOnMissing {
				return errs.Newf(errs.ConnectionInvalid, "source item %q does not exist", newSourceItem)
			}
		} else {
			if err := g.validatePort(newSourceItem, newSourcePort); err != nil {
				return err
			}
			conn.SourceItem = newSourceItem
			conn.SourcePort = newSourcePort
		}
	}
	if newTargetItem != "" {
		if !g.itemExists(newTargetItem) {
			if !rerouteOnMissing {
				return errs.Newf(errs.ConnectionInvalid, "target item %q does not exist", newTargetItem)
			}
		} else {
			if err := g.validatePort(newTargetItem, newTargetPort); err != nil {
				return err
			}
			conn.TargetItem = newTargetItem
			conn.TargetPort = newTargetPort
		}
	}
	return nil
}

// SetInstrumentationEnabled toggles whether an instrumentation function is
// active (spec.md §4.2 "toggle instrumentation").
func (g *GraphModel) SetInstrumentationEnabled(functionID string, enabled bool) error {
	f, ok := g.instrFuncs[functionID]
	if !ok {
		return errs.Newf(errs.TargetNotFound, "instrumentation function %q not found", functionID)
	}
	f.Enabled = enabled
	return nil
}

// RemoveInstrumentationFunction deletes the instrumentation function with
// id (spec.md §4.2 "add/remove control loop").
func (g *GraphModel) RemoveInstrumentationFunction(id string) error {
	if _, ok := g.instrFuncs[id]; !ok {
		return errs.Newf(errs.TargetNotFound, "instrumentation function %q not found", id)
	}
	delete(g.instrFuncs, id)
	return nil
}

func indexOf(ss []string, target string) int {
	for i, s := range ss {
		if s == target {
			return i
		}
	}
	return -1
}
