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

// Package model defines the two plant-diagram dialects the engine carries
// end to end: GraphModel, the fully-typed node-and-port dialect ("DEXPI"),
// and LinearModel, the ordered string dialect ("SFILES"). Both satisfy the
// Model interface so the store, the operation registry, and the
// transaction manager can hold either without caring which one they got.
//
// Ownership follows spec.md §3: a model exclusively owns all of its
// components, ports, connections, and instrumentation items. External
// consumers only ever get opaque ids or by-value snapshots, never
// long-lived pointers into a live model.
package model

// Dialect identifies which of the two model dialects a Model implements.
type Dialect string

const (
	DialectGraph  Dialect = "graph"
	DialectLinear Dialect = "linear"
)

// ModelType names the diagram type the caller asked for at creation time
// (spec.md §1: P&ID, PFD, BFD). The engine does not behave differently per
// ModelType today beyond carrying it through to exports; it exists so
// callers and the future renderer collaborator can make layout decisions.
type ModelType string

const (
	ModelTypePID ModelType = "PID"
	ModelTypePFD ModelType = "PFD"
	ModelTypeBFD ModelType = "BFD"
)

// Model is satisfied by both GraphModel and LinearModel.
type Model interface {
	// ModelID returns the engine-assigned, store-scoped identifier.
	ModelID() string
	// Dialect reports which concrete dialect this Model is.
	Dialect() Dialect
	// Type reports the diagram type the model was created as.
	Type() ModelType
	// Clone returns a deep, fully independent copy of the model, used by
	// the transaction manager's DEEPCOPY snapshot strategy.
	Clone() Model
}

// Meta carries fields common to both dialects.
type Meta struct {
	ID        string    `json:"id"`
	Type      ModelType `json:"type"`
	CreatedAt string    `json:"created_at,omitempty"`
}
