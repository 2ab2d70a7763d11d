/*
 * Copyright 2024 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package txn is the Transaction Manager of spec.md §4.3: begin/apply/
// diff/commit/rollback over a model held by the Model Store, accumulating
// a structural diff across the operations an Operation Registry dispatches.
package txn

import (
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
	"github.com/puran-water/dexpi-engine/internal/ops"
	"github.com/puran-water/dexpi-engine/internal/store"
)

// State is a transaction's lifecycle state (spec.md §4.3).
type State string

const (
	StateActive     State = "ACTIVE"
	StateCommitted  State = "COMMITTED"
	StateRolledBack State = "ROLLED_BACK"
)

// OpCall is one operation invocation inside an apply() batch.
type OpCall struct {
	Name   string
	Params map[string]any
}

// Transaction is a single begin..commit/rollback lifecycle against one
// model. Its working copy is private: nothing outside Manager sees it
// until commit installs it back into the Model Store.
type Transaction struct {
	ID        string
	ModelID   string
	StartedAt time.Time

	mu       sync.Mutex
	state    State
	strategy Strategy
	model    model.Model
	diff     *diffAccumulator
}

// State reports the transaction's current lifecycle state.
func (t *Transaction) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Strategy reports which snapshot strategy begin() chose for this
// transaction (spec.md §9 "Snapshot alternative for large models").
func (t *Transaction) Strategy() Strategy {
	return t.strategy
}

// Config configures a Manager.
type Config struct {
	Thresholds Thresholds
	// OnTransactionCommitted, when set, runs synchronously after a
	// transaction's working model has been installed into the Model
	// Store (spec.md §11 lifecycle hook), receiving the model id,
	// transaction id, and final diff.
	OnTransactionCommitted func(modelID, transactionID string, diff Diff)
}

// Manager is the Transaction Manager: it owns no models itself, acquiring
// and releasing them through store for the lifetime of each transaction.
type Manager struct {
	store *store.Store
	ops   *ops.Registry
	cfg   Config

	mu   sync.Mutex
	txns map[string]*Transaction
}

// NewManager builds a Manager bound to st and opsReg.
func NewManager(st *store.Store, opsReg *ops.Registry, cfg Config) *Manager {
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}
	return &Manager{store: st, ops: opsReg, cfg: cfg, txns: make(map[string]*Transaction)}
}

// Begin acquires modelID's lock, snapshots it, and opens a new
// transaction over a private working copy (spec.md §4.3: "begin on a
// locked model fails" — Store.Acquire already enforces this via TryLock).
func (m *Manager) Begin(modelID string) (*Transaction, error) {
	live, err := m.store.Acquire(modelID)
	if err != nil {
		return nil, err
	}

	snap, err := newSnapshot(live, m.cfg.Thresholds)
	if err != nil {
		_ = m.store.Discard(modelID)
		return nil, err
	}
	working, err := snap.restore()
	if err != nil {
		_ = m.store.Discard(modelID)
		return nil, err
	}

	txnID, err := uuid.NewV4()
	if err != nil {
		_ = m.store.Discard(modelID)
		return nil, errs.Wrap(errs.TransactionFailed, "generating transaction id", err)
	}

	t := &Transaction{
		ID:        txnID.String(),
		ModelID:   modelID,
		StartedAt: time.Now(),
		state:     StateActive,
		strategy:  snap.strategy,
		model:     working,
		diff:      newDiffAccumulator(),
	}

	m.mu.Lock()
	m.txns[t.ID] = t
	m.mu.Unlock()
	activeTransactions.Inc()

	return t, nil
}

func (m *Manager) find(transactionID string) (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txns[transactionID]
	if !ok {
		return nil, errs.Newf(errs.TransactionNotFound, "transaction %q not found", transactionID)
	}
	return t, nil
}

// Apply runs each call against the transaction's working model in order,
// stopping at the first failure (spec.md §4.3: "handler failure leaves
// the transaction ACTIVE; prior operations in the batch are not undone").
func (m *Manager) Apply(transactionID string, calls []OpCall) ([]ops.Result, error) {
	t, err := m.find(transactionID)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateActive {
		return nil, errs.Newf(errs.TransactionFailed, "transaction %q is not ACTIVE", transactionID)
	}

	results := make([]ops.Result, 0, len(calls))
	for _, call := range calls {
		before := t.model.Clone()
		res, err := m.ops.Dispatch(t.model, call.Name, call.Params)
		if err != nil {
			operationsAppliedTotal.WithLabelValues(call.Name, "error").Inc()
			return results, err
		}
		operationsAppliedTotal.WithLabelValues(call.Name, "ok").Inc()

		desc, descErr := m.ops.Get(call.Name)
		var added, removed, modified []string
		if descErr == nil && desc.Diff.CustomDiff != nil {
			added, removed, modified = desc.Diff.CustomDiff(before, t.model)
		} else {
			added, removed, modified = componentDiff(before, t.model)
		}
		t.diff.merge(added, removed, modified)

		results = append(results, res)
	}
	return results, nil
}

// Diff returns the transaction's accumulated diff so far, without
// requiring commit.
func (m *Manager) Diff(transactionID string) (Diff, error) {
	t, err := m.find(transactionID)
	if err != nil {
		return Diff{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.diff.snapshot(), nil
}

// CommitResult is what Commit returns on success.
type CommitResult struct {
	Diff Diff
}

type commitConfig struct {
	validate                          bool
	forceRollbackOnValidationFailure bool
}

// CommitOption configures a single Commit call.
type CommitOption func(*commitConfig)

// WithValidation runs Validate against the working model before
// installing it.
func WithValidation() CommitOption {
	return func(c *commitConfig) { c.validate = true }
}

// WithForceRollbackOnValidationFailure makes a failed validation roll the
// transaction back instead of leaving it ACTIVE for the caller to retry
// (spec.md §9 Open Question: the default is to leave it ACTIVE — see
// DESIGN.md).
func WithForceRollbackOnValidationFailure() CommitOption {
	return func(c *commitConfig) { c.forceRollbackOnValidationFailure = true }
}

// Commit installs the transaction's working model into the Model Store
// and marks it COMMITTED. With WithValidation, a failing Validate leaves
// the transaction ACTIVE (so the caller can apply a fix and retry) unless
// WithForceRollbackOnValidationFailure is also given.
func (m *Manager) Commit(transactionID string, opts ...CommitOption) (CommitResult, error) {
	cfg := commitConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	t, err := m.find(transactionID)
	if err != nil {
		return CommitResult{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateActive {
		return CommitResult{}, errs.Newf(errs.TransactionFailed, "transaction %q is not ACTIVE", transactionID)
	}

	if cfg.validate {
		if verr := Validate(t.model); verr != nil {
			if cfg.forceRollbackOnValidationFailure {
				_ = m.store.Discard(t.ModelID)
				t.state = StateRolledBack
				m.forget(transactionID)
				activeTransactions.Dec()
			}
			return CommitResult{}, verr
		}
	}

	if err := m.store.Release(t.ModelID, t.model); err != nil {
		return CommitResult{}, err
	}
	t.state = StateCommitted
	m.forget(transactionID)
	activeTransactions.Dec()
	transactionCommitDuration.WithLabelValues(t.ModelID).Observe(time.Since(t.StartedAt).Seconds())

	diff := t.diff.snapshot()
	if m.cfg.OnTransactionCommitted != nil {
		m.cfg.OnTransactionCommitted(t.ModelID, t.ID, diff)
	}
	return CommitResult{Diff: diff}, nil
}

// Rollback discards the transaction's working model, leaving the Model
// Store's copy exactly as it was before Begin.
func (m *Manager) Rollback(transactionID string) error {
	t, err := m.find(transactionID)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateActive {
		return errs.Newf(errs.TransactionFailed, "transaction %q is not ACTIVE", transactionID)
	}
	if err := m.store.Discard(t.ModelID); err != nil {
		return err
	}
	t.state = StateRolledBack
	m.forget(transactionID)
	activeTransactions.Dec()
	return nil
}

func (m *Manager) forget(transactionID string) {
	m.mu.Lock()
	delete(m.txns, transactionID)
	m.mu.Unlock()
}
