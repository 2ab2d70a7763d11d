package proteus

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
	"github.com/puran-water/dexpi-engine/internal/ops"
	"github.com/puran-water/dexpi-engine/internal/registry"
)

func mustRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.LoadDefault()
	require.NoError(t, err)
	return r
}

func mustOpsRegistry(t *testing.T, reg *registry.Registry) *ops.Registry {
	t.Helper()
	r := ops.NewRegistry()
	require.NoError(t, ops.RegisterBuiltins(r, reg))
	return r
}

func baseOptions() ExportOptions {
	return ExportOptions{
		OriginatingSystem: "dexpi-engine",
		Date:              "2026-07-31",
		Time:              "00:00:00Z",
		Units:             "SI",
		Discipline:        "Process",
	}
}

// spec.md §8 scenario 1: create + export a pump + tank.
func TestExport_PumpAndTank(t *testing.T) {
	reg := mustRegistry(t)
	r := mustOpsRegistry(t, reg)
	g := model.NewGraphModel("m1", model.ModelTypePFD)

	res, err := r.Dispatch(g, "create_component", map[string]any{"kind": "tank", "tag": "T-001"})
	require.NoError(t, err)
	tankID := res.Data["id"].(string)

	res, err = r.Dispatch(g, "create_component", map[string]any{"kind": "pump", "tag": "P-101"})
	require.NoError(t, err)
	pumpID := res.Data["id"].(string)

	_, err = r.Dispatch(g, "connect_components", map[string]any{
		"from_id": tankID, "from_port": 0, "to_id": pumpID, "to_port": 0, "line_number": "001",
	})
	require.NoError(t, err)

	ex := NewExporter(reg)
	out, err := ex.Export(g, baseOptions())
	require.NoError(t, err)

	var pm PlantModel
	require.NoError(t, xml.Unmarshal(out, &pm))

	require.Len(t, pm.Equipment, 2)
	byClass := map[string]Equipment{}
	for _, e := range pm.Equipment {
		byClass[e.ComponentClass] = e
	}
	tank, ok := byClass["Tank"]
	require.True(t, ok)
	require.Equal(t, "TNK0001", tank.ID)

	pump, ok := byClass["CentrifugalPump"]
	require.True(t, ok)
	require.Equal(t, "PMP0001", pump.ID)

	require.Len(t, pm.PipingNetworkSystems, 1)
	require.Len(t, pm.PipingNetworkSystems[0].Segments, 1)
	conns := pm.PipingNetworkSystems[0].Segments[0].Connections
	require.Len(t, conns, 1)
	require.Equal(t, "TNK0001", conns[0].FromID)
	require.Equal(t, "1", conns[0].FromNode)
	require.Equal(t, "PMP0001", conns[0].ToID)
	require.Equal(t, "1", conns[0].ToNode)
}

// spec.md §8 scenario 4: instrumentation ordering — sensor before the
// InformationFlow that references it.
func TestExport_InstrumentationOrdering(t *testing.T) {
	reg := mustRegistry(t)
	r := mustOpsRegistry(t, reg)
	g := model.NewGraphModel("m1", model.ModelTypePID)

	res, err := r.Dispatch(g, "create_component", map[string]any{"kind": "tank", "tag": "TANK-001"})
	require.NoError(t, err)
	tankID := res.Data["id"].(string)

	res, err = r.Dispatch(g, "create_component", map[string]any{"kind": "ft", "tag": "TT-101"})
	require.NoError(t, err)
	sensorID := res.Data["id"].(string)

	require.NoError(t, g.AddInstrumentationFunction(&model.InstrumentationFunction{
		ID:        "IFN-1",
		Tag:       "TIC-101",
		Enabled:   true,
		SensorIDs: []string{sensorID},
		SignalLines: []model.SignalLine{
			{ID: "SL-1", FromSensor: sensorID, ToFunction: "IFN-1"},
		},
		Associations: []model.Association{
			{Type: "is located in", FromID: "IFN-1", ToID: tankID},
		},
	}))

	ex := NewExporter(reg)
	out, err := ex.Export(g, baseOptions())
	require.NoError(t, err)

	sensorIdx := bytesIndex(out, []byte("<ProcessSignalGeneratingFunction"))
	flowIdx := bytesIndex(out, []byte("<InformationFlow"))
	require.Greater(t, sensorIdx, 0)
	require.Greater(t, flowIdx, sensorIdx)

	var pm PlantModel
	require.NoError(t, xml.Unmarshal(out, &pm))
	require.Len(t, pm.ProcessInstrumentationFunctions, 1)
	pif := pm.ProcessInstrumentationFunctions[0]
	require.Len(t, pif.Sensors, 1)
	require.Equal(t, "TT-101", pif.Sensors[0].TagName)
	require.Len(t, pif.InformationFlows, 1)
	require.Equal(t, "has logical start", pif.InformationFlows[0].Associations[0].Type)
	require.Equal(t, pif.Sensors[0].ID, pif.InformationFlows[0].Associations[0].ItemID)
	require.Equal(t, "has logical end", pif.InformationFlows[0].Associations[1].Type)
	require.Equal(t, pif.ID, pif.InformationFlows[0].Associations[1].ItemID)

	require.Len(t, pif.Associations, 1)
	require.Equal(t, "is located in", pif.Associations[0].Type)
}

// spec.md §8 scenario 5: zero-node guard.
func TestExport_ZeroPortComponentRejectsConnectionPoints(t *testing.T) {
	_, err := mustConnectionPoints("C-1", 0)
	require.Error(t, err)
	require.Equal(t, errs.ValidationFailed, errs.CodeOf(err))
	require.Contains(t, err.Error(), "positiveInteger")
}

func TestValidateFlowNodes_RejectsOutOfRangeMultiValue(t *testing.T) {
	err := validateFlowNodes("C-1", "FlowIn", "1,3", 2)
	require.Error(t, err)
	require.Equal(t, errs.ValidationFailed, errs.CodeOf(err))
	require.Contains(t, err.Error(), "positiveInteger")
}

func bytesIndex(haystack, needle []byte) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
