package txn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
	"github.com/puran-water/dexpi-engine/internal/ops"
	"github.com/puran-water/dexpi-engine/internal/registry"
	"github.com/puran-water/dexpi-engine/internal/store"
)

func mustManager(t *testing.T) (*Manager, *store.Store, string) {
	t.Helper()
	reg, err := registry.LoadDefault()
	require.NoError(t, err)
	opsReg := ops.NewRegistry()
	require.NoError(t, ops.RegisterBuiltins(opsReg, reg))
	st := store.New()
	g := model.NewGraphModel("m1", model.ModelTypePFD)
	id, err := st.Create(g)
	require.NoError(t, err)
	return NewManager(st, opsReg, Config{}), st, id
}

func TestBegin_ApplyCommit(t *testing.T) {
	m, st, modelID := mustManager(t)

	txn, err := m.Begin(modelID)
	require.NoError(t, err)
	require.Equal(t, StateActive, txn.State())

	results, err := m.Apply(txn.ID, []OpCall{
		{Name: "create_component", Params: map[string]any{"kind": "tank", "tag": "T-100"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	diff, err := m.Diff(txn.ID)
	require.NoError(t, err)
	require.Len(t, diff.Added, 1)

	res, err := m.Commit(txn.ID)
	require.NoError(t, err)
	require.Len(t, res.Diff.Added, 1)

	snap, err := st.Snapshot(modelID)
	require.NoError(t, err)
	g := snap.(*model.GraphModel)
	require.Len(t, g.Components(), 1)
}

func TestBegin_SecondBeginFailsWhileActive(t *testing.T) {
	m, _, modelID := mustManager(t)
	_, err := m.Begin(modelID)
	require.NoError(t, err)

	_, err = m.Begin(modelID)
	require.Error(t, err)
	require.Equal(t, errs.TransactionAlreadyActive, errs.CodeOf(err))
}

func TestRollback_DiscardsWorkingCopy(t *testing.T) {
	m, st, modelID := mustManager(t)
	txn, err := m.Begin(modelID)
	require.NoError(t, err)

	_, err = m.Apply(txn.ID, []OpCall{
		{Name: "create_component", Params: map[string]any{"kind": "tank", "tag": "T-100"}},
	})
	require.NoError(t, err)

	require.NoError(t, m.Rollback(txn.ID))

	snap, err := st.Snapshot(modelID)
	require.NoError(t, err)
	g := snap.(*model.GraphModel)
	require.Empty(t, g.Components())

	// The model lock was released, so a new transaction can begin.
	txn2, err := m.Begin(modelID)
	require.NoError(t, err)
	require.Equal(t, StateActive, txn2.State())
}

func TestApply_HandlerErrorLeavesTransactionActive(t *testing.T) {
	m, _, modelID := mustManager(t)
	txn, err := m.Begin(modelID)
	require.NoError(t, err)

	_, err = m.Apply(txn.ID, []OpCall{
		{Name: "retag", Params: map[string]any{"id": "no-such-id", "new_tag": "X"}},
	})
	require.Error(t, err)
	require.Equal(t, StateActive, txn.State())
}

func TestCommit_WithValidationSucceedsOnWellFormedModel(t *testing.T) {
	m, _, modelID := mustManager(t)
	txn, err := m.Begin(modelID)
	require.NoError(t, err)

	_, err = m.Apply(txn.ID, []OpCall{
		{Name: "create_component", Params: map[string]any{"kind": "tank", "tag": "T-100"}},
	})
	require.NoError(t, err)

	_, err = m.Commit(txn.ID, WithValidation())
	require.NoError(t, err)
	require.Equal(t, StateCommitted, txn.State())
}

func TestCommit_ForceRollbackOnValidationFailure(t *testing.T) {
	reg, err := registry.LoadDefault()
	require.NoError(t, err)
	opsReg := ops.NewRegistry()
	require.NoError(t, ops.RegisterBuiltins(opsReg, reg))
	st := store.New()

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
	modelID, err := st.Create(g)
	require.NoError(t, err)

	m := NewManager(st, opsReg, Config{})
	txn, err := m.Begin(modelID)
	require.NoError(t, err)

	_, err = m.Commit(txn.ID, WithValidation(), WithForceRollbackOnValidationFailure())
	require.Error(t, err)
	require.Equal(t, StateRolledBack, txn.State())

	// The lock was released by the forced rollback.
	locked, err := st.IsLocked(modelID)
	require.NoError(t, err)
	require.False(t, locked)
}

func TestDiff_IdempotentAddThenRemove(t *testing.T) {
	m, _, modelID := mustManager(t)
	txn, err := m.Begin(modelID)
	require.NoError(t, err)

	res, err := m.Apply(txn.ID, []OpCall{
		{Name: "create_component", Params: map[string]any{"kind": "tank", "tag": "T-100"}},
	})
	require.NoError(t, err)
	id := res[0].Data["id"].(string)

	_, err = m.Apply(txn.ID, []OpCall{
		{Name: "remove_component", Params: map[string]any{"id": id, "cascade": false}},
	})
	require.NoError(t, err)

	diff, err := m.Diff(txn.ID)
	require.NoError(t, err)
	require.Empty(t, diff.Added)
	require.Empty(t, diff.Removed)
}
