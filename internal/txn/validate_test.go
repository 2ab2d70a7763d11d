package txn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/puran-water/dexpi-engine/internal/model"
)

// A model that went through JSON import rather than the Operation
// Registry's mutators can carry invariant violations those mutators would
// have refused — Validate is the commit-time safety net for exactly that
// path (spec.md §6 "Graph dialect JSON").
func TestValidate_CatchesDuplicateTagFromImport(t *testing.T) {
	wire := `{
		"meta": {"id": "m1", "type": "PFD"},
		"components": [
			{"id": "C-1", "kind": "Tank", "tag": "T-100", "ports": [{"index": 0, "role": "nozzle"}]},
			{"id": "C-2", "kind": "Tank", "tag": "T-100", "ports": [{"index": 0, "role": "nozzle"}]}
		],
		"connections": [], "segments": [], "networks": [], "instrumentation_functions": []
	}`
	g := model.NewGraphModel("m1", model.ModelTypePFD)
	require.NoError(t, json.Unmarshal([]byte(wire), g))

	err := Validate(g)
	require.Error(t, err)
}

func TestValidate_CatchesDanglingAssociation(t *testing.T) {
	wire := `{
		"meta": {"id": "m1", "type": "PFD"},
		"components": [],
		"connections": [], "segments": [], "networks": [],
		"instrumentation_functions": [
			{"id": "IFN-1", "tag": "LIC-100", "enabled": true, "sensor_ids": [], "signal_lines": [],
			 "associations": [{"type": "is located in", "from_id": "IFN-1", "to_id": "no-such-component"}]}
		]
	}`
	g := model.NewGraphModel("m1", model.ModelTypePFD)
	require.NoError(t, json.Unmarshal([]byte(wire), g))

	err := Validate(g)
	require.Error(t, err)
}

func TestValidate_WellFormedModelPasses(t *testing.T) {
	g := model.NewGraphModel("m1", model.ModelTypePFD)
	require.NoError(t, g.AddComponent(&model.Component{ID: "C-1", Kind: "Tank", Tag: "T-100", Ports: []model.Port{{Index: 0}}}))
	require.NoError(t, Validate(g))
}
