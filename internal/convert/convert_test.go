package convert

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/puran-water/dexpi-engine/internal/model"
	"github.com/puran-water/dexpi-engine/internal/registry"
)

func mustRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.LoadDefault()
	require.NoError(t, err)
	return r
}

func TestTokenize_SimpleChain(t *testing.T) {
	toks, err := tokenize(`tank[tank]->pump[pump_reciprocating]->heater[heater]`)
	require.NoError(t, err)
	require.Len(t, toks, 5)
	require.Equal(t, tokUnit, toks[0].kind)
	require.Equal(t, "tank", toks[0].name)
	require.Equal(t, tokArrow, toks[1].kind)
}

func TestTokenize_RejectsMalformedUnit(t *testing.T) {
	_, err := tokenize(`tank[tank`)
	require.Error(t, err)
}

func TestParse_SimpleChain(t *testing.T) {
	l, err := Parse("m1", model.ModelTypePFD, `tank[tank]->pump[pump_reciprocating]->heater[heater]`)
	require.NoError(t, err)
	require.Len(t, l.Units, 3)
	require.Len(t, l.Streams, 2)
	require.Equal(t, "pump_reciprocating", l.Units[1].Kind)
}

func TestParse_BranchReconnectsToMainline(t *testing.T) {
	l, err := Parse("m1", model.ModelTypePFD, `tank[tank]->pump[pump](valve[valve])->heater[heater]`)
	require.NoError(t, err)
	require.Len(t, l.Units, 4)
	// pump has two outgoing streams: to valve, and to heater.
	out := l.OutgoingStreams("U2")
	require.Len(t, out, 2)
}

func TestParse_Control(t *testing.T) {
	l, err := Parse("m1", model.ModelTypePFD, `tank[tank]<LIC>->pump[pump]`)
	require.NoError(t, err)
	require.Len(t, l.Controls, 1)
	require.Equal(t, "LIC", l.Controls[0].Kind)
}

func TestExpand_SimpleChainProducesComponentsAndConnections(t *testing.T) {
	reg := mustRegistry(t)
	l, err := Parse("m1", model.ModelTypePFD, `tank1[tank]->pump1[pump_reciprocating]->heater1[heater]`)
	require.NoError(t, err)

	g, err := Expand(l, reg, ExpandOptions{})
	require.NoError(t, err)
	require.Len(t, g.Components(), 3)
	require.Len(t, g.Connections(), 2)

	tank, ok := g.ComponentByTag("tank1")
	require.True(t, ok)
	require.Equal(t, model.Kind("Tank"), tank.Kind)

	pump, ok := g.ComponentByTag("pump1")
	require.True(t, ok)
	require.Equal(t, model.Kind("ReciprocatingPump"), pump.Kind)
}

func TestExpand_UnknownKindFails(t *testing.T) {
	reg := mustRegistry(t)
	l, err := Parse("m1", model.ModelTypePFD, `widget1[no_such_kind]`)
	require.NoError(t, err)
	_, err = Expand(l, reg, ExpandOptions{})
	require.Error(t, err)
}

func TestExpand_BlockTemplateSplicesBoundary(t *testing.T) {
	reg := mustRegistry(t)
	l, err := Parse("m1", model.ModelTypePFD, `feed[tank]->boiler1[boiler]->steam[pipe]`)
	require.NoError(t, err)
	l.Units[1].Params = map[string]string{"tag_prefix": "B1"}

	g, err := Expand(l, reg, ExpandOptions{})
	require.NoError(t, err)

	// The Unit itself never becomes a single Component; it is replaced by
	// the template's internal cluster (feedwater pump, drum, and
	// conditionally a blowdown valve).
	require.Len(t, g.Components(), 4)
	_, ok := g.ComponentByTag("B1-FWP")
	require.True(t, ok)
	_, ok = g.ComponentByTag("B1-DRM")
	require.True(t, ok)
	// Condition false by default: no blowdown valve.
	_, ok = g.ComponentByTag("B1-BDV")
	require.False(t, ok)
}

func TestExpand_BlockTemplateConditionalComponent(t *testing.T) {
	reg := mustRegistry(t)
	l, err := Parse("m1", model.ModelTypePFD, `boiler1[boiler]`)
	require.NoError(t, err)
	l.Units[0].Params = map[string]string{"tag_prefix": "B1", "has_blowdown": "true"}

	g, err := Expand(l, reg, ExpandOptions{})
	require.NoError(t, err)
	_, ok := g.ComponentByTag("B1-BDV")
	require.True(t, ok)
}

func TestRoundTrip_FamilyLevelGeneralization(t *testing.T) {
	reg := mustRegistry(t)
	l, err := Parse("m1", model.ModelTypePFD, `tank[tank]->pump[pump_reciprocating]->heater[heater]`)
	require.NoError(t, err)

	g, err := Expand(l, reg, ExpandOptions{})
	require.NoError(t, err)

	// Swap the pump's concrete kind underneath, simulating an edit that
	// changes the variant without touching topology.
	pump, ok := g.ComponentByTag("pump")
	require.True(t, ok)
	pump.Kind = "CentrifugalPump"

	back, err := Generalize(g, reg)
	require.NoError(t, err)

	rendered, err := Render(back, reg.FamilyAlias)
	require.NoError(t, err)
	require.Equal(t, "tank[tank]->pump[pump]->heater[heater]", rendered)

	// Reparsing resolves the generalised alias to the family primary,
	// which is a different concrete kind than the original input — this
	// divergence at the concrete-kind level is expected; only the family
	// generalises losslessly.
	reparsed, err := Parse("m2", model.ModelTypePFD, rendered)
	require.NoError(t, err)
	require.Equal(t, "pump", reparsed.Units[1].Kind)
	kind, err := reg.Resolve(reparsed.Units[1].Kind)
	require.NoError(t, err)
	require.Equal(t, model.Kind("CentrifugalPump"), kind)
}

func TestRoundTrip_RenderBranchFanOut(t *testing.T) {
	reg := mustRegistry(t)
	l, err := Parse("m1", model.ModelTypePFD, `tank[tank]->pump[pump](valve[valve])->heater[heater]`)
	require.NoError(t, err)
	g, err := Expand(l, reg, ExpandOptions{})
	require.NoError(t, err)

	back, err := Generalize(g, reg)
	require.NoError(t, err)

	rendered, err := Render(back, reg.FamilyAlias)
	require.NoError(t, err)

	// pump has two children (valve, heater); Render must wrap each in its
	// own "(...)" group with no leading arrow, never leave them dangling
	// as sibling groups with no reconnecting arrow between them.
	require.NotContains(t, rendered, "(->")
	reparsed, err := Parse("m2", model.ModelTypePFD, rendered)
	require.NoError(t, err)
	require.Len(t, reparsed.Units, 4)
	pump, ok := reparsed.UnitByID("U2")
	require.True(t, ok)
	require.Equal(t, "pump", pump.Name)
	require.Len(t, reparsed.OutgoingStreams("U2"), 2)
}

func TestRoundTrip_RenderThreeWayFanOut(t *testing.T) {
	reg := mustRegistry(t)
	l, err := Parse("m1", model.ModelTypePFD, `pump[pump](valve[valve])(heater[heater])(cooler[cooler])`)
	require.NoError(t, err)
	g, err := Expand(l, reg, ExpandOptions{})
	require.NoError(t, err)

	back, err := Generalize(g, reg)
	require.NoError(t, err)

	rendered, err := Render(back, reg.FamilyAlias)
	require.NoError(t, err)
	require.NotContains(t, rendered, "(->")

	reparsed, err := Parse("m2", model.ModelTypePFD, rendered)
	require.NoError(t, err)
	require.Len(t, reparsed.Units, 4)
	require.Len(t, reparsed.OutgoingStreams("U1"), 3)
}

func TestGeneralize_RootsOrderedByTag(t *testing.T) {
	reg := mustRegistry(t)
	l, err := Parse("m1", model.ModelTypePFD, `a[tank]->b[pump]`)
	require.NoError(t, err)
	g, err := Expand(l, reg, ExpandOptions{})
	require.NoError(t, err)

	back, err := Generalize(g, reg)
	require.NoError(t, err)
	require.Len(t, back.Units, 2)
	require.Equal(t, "a", back.Units[0].Name)
}
