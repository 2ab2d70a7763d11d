package ops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
	"github.com/puran-water/dexpi-engine/internal/registry"
)

func mustRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.LoadDefault()
	require.NoError(t, err)
	return r
}

func mustOpsRegistry(t *testing.T) (*Registry, *registry.Registry) {
	t.Helper()
	reg := mustRegistry(t)
	r := NewRegistry()
	require.NoError(t, RegisterBuiltins(r, reg))
	return r, reg
}

func TestRegisterBuiltins_NoDuplicateNames(t *testing.T) {
	r, _ := mustOpsRegistry(t)
	require.NotEmpty(t, r.Schema())
}

func TestDispatch_CreateComponentThenConnect(t *testing.T) {
	r, _ := mustOpsRegistry(t)
	g := model.NewGraphModel("m1", model.ModelTypePFD)

	res, err := r.Dispatch(g, "create_component", map[string]any{"kind": "tank", "tag": "T-100"})
	require.NoError(t, err)
	tankID := res.Data["id"].(string)

	res, err = r.Dispatch(g, "create_component", map[string]any{"kind": "pump", "tag": "P-100"})
	require.NoError(t, err)
	pumpID := res.Data["id"].(string)

	_, err = r.Dispatch(g, "connect_components", map[string]any{
		"from_id": tankID, "from_port": 0, "to_id": pumpID, "to_port": 0,
	})
	require.NoError(t, err)
	require.Len(t, g.Connections(), 1)
}

func TestDispatch_WrongDialectRejected(t *testing.T) {
	r, _ := mustOpsRegistry(t)
	l := model.NewLinearModel("m1", model.ModelTypePFD)
	_, err := r.Dispatch(l, "create_component", map[string]any{"kind": "tank", "tag": "T-100"})
	require.Error(t, err)
}

func TestDispatch_UnknownOperation(t *testing.T) {
	r, _ := mustOpsRegistry(t)
	g := model.NewGraphModel("m1", model.ModelTypePFD)
	_, err := r.Dispatch(g, "no_such_op", nil)
	require.Error(t, err)
	require.Equal(t, errs.OperationNotFound, errs.CodeOf(err))
}

func TestDispatch_RetagConflict(t *testing.T) {
	r, _ := mustOpsRegistry(t)
	g := model.NewGraphModel("m1", model.ModelTypePFD)
	_, err := r.Dispatch(g, "create_component", map[string]any{"kind": "tank", "tag": "T-100"})
	require.NoError(t, err)
	res, err := r.Dispatch(g, "create_component", map[string]any{"kind": "tank", "tag": "T-200"})
	require.NoError(t, err)
	id := res.Data["id"].(string)

	_, err = r.Dispatch(g, "retag", map[string]any{"id": id, "new_tag": "T-100"})
	require.Error(t, err)
	require.Equal(t, errs.TagConflict, errs.CodeOf(err))
}

func TestDispatch_InstantiateTemplate(t *testing.T) {
	r, _ := mustOpsRegistry(t)
	g := model.NewGraphModel("m1", model.ModelTypePFD)

	res, err := r.Dispatch(g, "instantiate_template", map[string]any{
		"template_name": "boiler_package",
		"params":        map[string]any{"tag_prefix": "B1"},
	})
	require.NoError(t, err)
	require.Len(t, g.Components(), 2) // feedwater pump + drum; blowdown valve's condition is false by default
	_, ok := g.ComponentByTag("B1-FWP")
	require.True(t, ok)
	_, ok = g.ComponentByTag("B1-DRM")
	require.True(t, ok)

	inID, ok := res.Data["in_id"].(string)
	require.True(t, ok)
	_, ok = g.Component(inID)
	require.True(t, ok)
	outID, ok := res.Data["out_id"].(string)
	require.True(t, ok)
	_, ok = g.Component(outID)
	require.True(t, ok)
}

func TestDispatch_InstantiateTemplate_UnknownName(t *testing.T) {
	r, _ := mustOpsRegistry(t)
	g := model.NewGraphModel("m1", model.ModelTypePFD)

	_, err := r.Dispatch(g, "instantiate_template", map[string]any{"template_name": "no_such_template"})
	require.Error(t, err)
	require.Equal(t, errs.TemplateNotFound, errs.CodeOf(err))
}

func TestDispatch_ExpandLinearToGraph(t *testing.T) {
	r, _ := mustOpsRegistry(t)
	l := model.NewLinearModel("m1", model.ModelTypePFD)
	l.Units = append(l.Units, &model.Unit{ID: "U1", Name: "tank1", Kind: "tank"})

	res, err := r.Dispatch(l, "expand_linear_to_graph", map[string]any{"target_model_id": "m1-graph"})
	require.NoError(t, err)
	conv, ok := res.Data["conversion"].(*ConversionResult)
	require.True(t, ok)
	g, ok := conv.Model.(*model.GraphModel)
	require.True(t, ok)
	require.Len(t, g.Components(), 1)
}
