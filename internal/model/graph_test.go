package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/puran-water/dexpi-engine/internal/errs"
)

func newTestComponent(id, tag string, ports int) *Component {
	c := &Component{ID: id, Kind: "CentrifugalPump", Tag: tag}
	for i := 0; i < ports; i++ {
		c.Ports = append(c.Ports, Port{Index: i, Role: PortRoleNozzle})
	}
	return c
}

func TestGraphModel_TagUniqueness(t *testing.T) {
	g := NewGraphModel("m1", ModelTypePID)
	require.NoError(t, g.AddComponent(newTestComponent("c1", "P-101", 2)))
	err := g.AddComponent(newTestComponent("c2", "P-101", 2))
	require.Error(t, err)
	require.Equal(t, errs.TagConflict, errs.CodeOf(err))
}

func TestGraphModel_ConnectionPortRange(t *testing.T) {
	g := NewGraphModel("m1", ModelTypePID)
	require.NoError(t, g.AddComponent(newTestComponent("c1", "T-001", 1)))
	require.NoError(t, g.AddComponent(newTestComponent("c2", "P-101", 2)))

	err := g.AddConnection(&Connection{ID: "conn1", SourceItem: "c1", SourcePort: 5, TargetItem: "c2", TargetPort: 0})
	require.Error(t, err)

	require.NoError(t, g.AddConnection(&Connection{ID: "conn2", SourceItem: "c1", SourcePort: 0, TargetItem: "c2", TargetPort: 0, SegmentID: "seg1"}))
	seg, ok := g.Segment("seg1")
	require.True(t, ok)
	require.Equal(t, []string{"conn2"}, seg.ConnectionIDs)
}

func TestGraphModel_RemoveCascade(t *testing.T) {
	g := NewGraphModel("m1", ModelTypePID)
	require.NoError(t, g.AddComponent(newTestComponent("c1", "T-001", 1)))
	require.NoError(t, g.AddComponent(newTestComponent("c2", "P-101", 2)))
	require.NoError(t, g.AddConnection(&Connection{ID: "conn1", SourceItem: "c1", SourcePort: 0, TargetItem: "c2", TargetPort: 0}))

	err := g.RemoveComponent("c1", false)
	require.Error(t, err)

	require.NoError(t, g.RemoveComponent("c1", true))
	_, ok := g.Connection("conn1")
	require.False(t, ok)
}

func TestGraphModel_Clone_IsIndependent(t *testing.T) {
	g := NewGraphModel("m1", ModelTypePID)
	require.NoError(t, g.AddComponent(newTestComponent("c1", "T-001", 1)))

	clone := g.Clone().(*GraphModel)
	clone.Retag("c1", "T-002")

	orig, _ := g.Component("c1")
	require.Equal(t, "T-001", orig.Tag)
	cp, _ := clone.Component("c1")
	require.Equal(t, "T-002", cp.Tag)
}

func TestGraphModel_JSONRoundTrip(t *testing.T) {
	g := NewGraphModel("m1", ModelTypePID)
	require.NoError(t, g.AddComponent(newTestComponent("c1", "T-001", 1)))
	require.NoError(t, g.AddComponent(newTestComponent("c2", "P-101", 2)))
	require.NoError(t, g.AddConnection(&Connection{ID: "conn1", SourceItem: "c1", SourcePort: 0, TargetItem: "c2", TargetPort: 0}))

	b1, err := json.Marshal(g)
	require.NoError(t, err)

	var roundTripped GraphModel
	require.NoError(t, json.Unmarshal(b1, &roundTripped))
	b2, err := json.Marshal(&roundTripped)
	require.NoError(t, err)

	require.JSONEq(t, string(b1), string(b2))
}
