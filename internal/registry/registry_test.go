package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
)

func mustLoad(t *testing.T) *Registry {
	t.Helper()
	r, err := LoadDefault()
	require.NoError(t, err)
	return r
}

func TestLoadDefault_NotEmpty(t *testing.T) {
	r := mustLoad(t)
	require.NotEmpty(t, r.ListAll())
}

func TestResolve_BareAliasResolvesToPrimary(t *testing.T) {
	r := mustLoad(t)
	kind, err := r.Resolve("pump")
	require.NoError(t, err)
	require.Equal(t, model.Kind("CentrifugalPump"), kind)
}

func TestResolve_QualifiedAliasResolvesToVariant(t *testing.T) {
	r := mustLoad(t)
	kind, err := r.Resolve("pump_reciprocating")
	require.NoError(t, err)
	require.Equal(t, model.Kind("ReciprocatingPump"), kind)
}

func TestResolve_CanonicalClassNameCaseInsensitive(t *testing.T) {
	r := mustLoad(t)
	kind, err := r.Resolve("CENTRIFUGALPUMP")
	require.NoError(t, err)
	require.Equal(t, model.Kind("CentrifugalPump"), kind)
}

func TestResolve_UnknownKind(t *testing.T) {
	r := mustLoad(t)
	_, err := r.Resolve("not_a_real_thing")
	require.Error(t, err)
	require.Equal(t, errs.UnknownKind, errs.CodeOf(err))
}

func TestDescribe_KnownSymbol(t *testing.T) {
	r := mustLoad(t)
	d, err := r.Describe("CentrifugalPump")
	require.NoError(t, err)
	require.Equal(t, model.CategoryRotating, d.Category)
	require.Equal(t, "PMP-SYM", d.DefaultSymbolID)
	require.Equal(t, 2, d.DefaultPortCount)
	require.Contains(t, d.AllAliases, "pump")
}

func TestDescribe_PlaceholderSymbolForVariantWithNoSymbol(t *testing.T) {
	r := mustLoad(t)
	d, err := r.Describe("ReciprocatingPump")
	require.NoError(t, err)
	require.NotEmpty(t, d.DefaultSymbolID)
	require.True(t, len(d.DefaultSymbolID) > 4 && d.DefaultSymbolID[len(d.DefaultSymbolID)-1] == 'Z')
}

func TestDescribe_PlaceholderIsDeterministic(t *testing.T) {
	r := mustLoad(t)
	d1, err := r.Describe("ReciprocatingPump")
	require.NoError(t, err)
	d2, err := r.Describe("ReciprocatingPump")
	require.NoError(t, err)
	require.Equal(t, d1.DefaultSymbolID, d2.DefaultSymbolID)
}

func TestFamily_PrimaryFirst(t *testing.T) {
	r := mustLoad(t)
	members, err := r.Family("pump")
	require.NoError(t, err)
	require.NotEmpty(t, members)
	require.Equal(t, model.Kind("CentrifugalPump"), members[0])
	require.Contains(t, members, model.Kind("ReciprocatingPump"))
	require.Contains(t, members, model.Kind("GearPump"))
	require.Contains(t, members, model.Kind("DiaphragmPump"))
}

func TestFamilyAlias_VariantMapsToFamilyAlias(t *testing.T) {
	r := mustLoad(t)
	alias, err := r.FamilyAlias("ReciprocatingPump")
	require.NoError(t, err)
	require.Equal(t, "pump", alias)
}

func TestByCategory_Sorted(t *testing.T) {
	r := mustLoad(t)
	kinds := r.ByCategory(model.CategoryValve)
	require.NotEmpty(t, kinds)
	for i := 1; i < len(kinds); i++ {
		require.True(t, kinds[i-1] < kinds[i])
	}
}

func TestResolveSymbolFuzzy_ExactMatch(t *testing.T) {
	r := mustLoad(t)
	m, err := r.ResolveSymbolFuzzy("CentrifugalPump")
	require.NoError(t, err)
	require.Equal(t, 1.0, m.Confidence)
	require.Equal(t, "PMP-SYM", m.SymbolID)
}

func TestResolveSymbolFuzzy_VendorPrefixStrip(t *testing.T) {
	r, err := LoadDefault(WithSymbolConfidence(0.95))
	require.NoError(t, err)
	m, err := r.ResolveSymbolFuzzy("CUSTOM_CentrifugalPump")
	require.NoError(t, err)
	require.Equal(t, 0.95, m.Confidence)
	require.Equal(t, model.Kind("CentrifugalPump"), m.Kind)
}

func TestResolveSymbolFuzzy_BelowThresholdRefuses(t *testing.T) {
	r, err := LoadDefault(WithSymbolConfidence(0.99))
	require.NoError(t, err)
	_, err = r.ResolveSymbolFuzzy("TotallyUnrelatedWidget")
	require.Error(t, err)
	require.Equal(t, errs.UnknownKind, errs.CodeOf(err))
}

func TestCategoryPrefix_KnownAndUnknown(t *testing.T) {
	require.Equal(t, "ROT", CategoryPrefix(model.CategoryRotating))
	require.Equal(t, "XXX", CategoryPrefix(model.Category("NOT_A_CATEGORY")))
}

func TestLoad_RejectsEmptyResource(t *testing.T) {
	_, err := Load(nil, defaultPipingCSV, defaultInstrumentationCSV)
	require.Error(t, err)
}

func TestLoad_RejectsBadHeader(t *testing.T) {
	bad := []byte("wrong,header\nfoo,bar\n")
	_, err := Load(bad, defaultPipingCSV, defaultInstrumentationCSV)
	require.Error(t, err)
}

func TestLoad_RejectsDuplicateClassName(t *testing.T) {
	dup := []byte(
		"class_name,sfiles_alias,is_primary,family,category,symbol_id,port_count,display_name\n" +
			"CentrifugalPump,pump,true,pump,ROTATING,PMP-SYM,2,Centrifugal Pump\n" +
			"CentrifugalPump,pump2,true,pump2,ROTATING,PMP-SYM,2,Centrifugal Pump Dup\n")
	_, err := Load(dup, defaultPipingCSV, defaultInstrumentationCSV)
	require.Error(t, err)
}
