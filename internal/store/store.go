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

// Package store is the Model Store of spec.md §3/§5: it owns every live
// model by model_id and enforces the one-active-transaction-per-model
// rule. It does not know about operations, diffs, or snapshot strategy —
// those belong to internal/ops and internal/txn, which call Acquire/
// Release/Discard around their own snapshot bookkeeping.
//
// The locking shape follows the teacher's ChainEngine: a per-entry mutex
// stands in for "this model is in a transaction", acquired with a
// non-blocking TryLock so a second begin() fails fast with
// TRANSACTION_ALREADY_ACTIVE instead of waiting.
package store

import (
	"sync"

	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
)

type entry struct {
	txnMu sync.Mutex // held for the lifetime of an active transaction

	dataMu sync.RWMutex // guards model against concurrent Snapshot/Create races
	model  model.Model
}

// Store holds every live model by its model_id.
type Store struct {
	mu  sync.RWMutex
	byID map[string]*entry
}

// New returns an empty Store.
func New() *Store {
	return &Store{byID: make(map[string]*entry)}
}

// Create registers m under its own ModelID and returns that id. It is a
// fatal caller error to Create a model whose id already exists in the
// store.
func (s *Store) Create(m model.Model) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := m.ModelID()
	if _, exists := s.byID[id]; exists {
		return "", errs.Newf(errs.InvalidPayload, "model id %q already exists in store", id)
	}
	s.byID[id] = &entry{model: m}
	return id, nil
}

// Exists reports whether id names a model currently in the store.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[id]
	return ok
}

func (s *Store) find(id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errs.Newf(errs.ModelNotFound, "model %q not found", id)
	}
	return e, nil
}

// Snapshot returns a deep clone of the stored model for read-only external
// use (model_save, schema discovery, etc.) — never a live pointer, per
// spec.md §3's by-value-only ownership rule.
func (s *Store) Snapshot(id string) (model.Model, error) {
	e, err := s.find(id)
	if err != nil {
		return nil, err
	}
	e.dataMu.RLock()
	defer e.dataMu.RUnlock()
	return e.model.Clone(), nil
}

// Delete removes id from the store. It fails if a transaction currently
// holds the model's lock.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return errs.Newf(errs.ModelNotFound, "model %q not found", id)
	}
	if !e.txnMu.TryLock() {
		return errs.Newf(errs.TransactionAlreadyActive, "model %q has an active transaction", id)
	}
	e.txnMu.Unlock()
	delete(s.byID, id)
	return nil
}

// Acquire locks id for exclusive modification and returns the live model
// (not a clone) for the caller — internal/txn — to snapshot and mutate.
// A second Acquire on an already-locked model fails immediately with
// TRANSACTION_ALREADY_ACTIVE rather than blocking (spec.md §5: "begin on
// a locked model fails").
func (s *Store) Acquire(id string) (model.Model, error) {
	e, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if !e.txnMu.TryLock() {
		return nil, errs.Newf(errs.TransactionAlreadyActive, "model %q already has an active transaction", id)
	}
	e.dataMu.RLock()
	m := e.model
	e.dataMu.RUnlock()
	return m, nil
}

// Release installs replacement as the model's new live value and releases
// the lock acquired by Acquire. Used on commit.
func (s *Store) Release(id string, replacement model.Model) error {
	e, err := s.find(id)
	if err != nil {
		return err
	}
	e.dataMu.Lock()
	e.model = replacement
	e.dataMu.Unlock()
	e.txnMu.Unlock()
	return nil
}

// Discard releases the lock acquired by Acquire without installing any
// replacement, leaving the stored model exactly as it was before begin.
// Used on rollback.
func (s *Store) Discard(id string) error {
	e, err := s.find(id)
	if err != nil {
		return err
	}
	e.txnMu.Unlock()
	return nil
}

// IsLocked reports whether id currently has an active transaction. It is
// best-effort (racy by construction, like any TryLock probe) and intended
// only for diagnostics, never for deciding correctness.
func (s *Store) IsLocked(id string) (bool, error) {
	e, err := s.find(id)
	if err != nil {
		return false, err
	}
	if e.txnMu.TryLock() {
		e.txnMu.Unlock()
		return false, nil
	}
	return true, nil
}
