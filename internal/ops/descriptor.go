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

// Package ops is the Operation Registry of spec.md §4.2: a typed catalog
// of every state-changing operation on models, dispatched by descriptor
// rather than by bare string.
package ops

import "github.com/puran-water/dexpi-engine/internal/model"

// Category classifies an operation the way spec.md §4.2 describes:
// scoped to one dialect, applicable to either ("universal"), a small
// single-step edit ("tactical"), or a multi-step structural change
// ("strategic").
type Category string

const (
	CategoryUniversal     Category = "universal"
	CategoryDialectScoped Category = "dialect_scoped"
	CategoryTactical      Category = "tactical"
	CategoryStrategic     Category = "strategic"
)

// Result is the value a Handler returns on success.
type Result struct {
	Data map[string]any
}

// DiffMeta describes what kinds of structural change an operation can
// produce, so the Transaction Manager knows how to account for it in a
// diff without re-deriving that from the handler's behavior.
type DiffMeta struct {
	Adds       bool
	Removes    bool
	Modifies   bool
	Categories []model.Category
	// CustomDiff overrides the default id-set diffing with an
	// operation-specific calculator, returning added/removed/modified ids.
	CustomDiff func(before, after model.Model) (added, removed, modified []string)
}

// Deprecation carries an operation's versioning lifecycle (spec.md §4.2
// "Deprecation info").
type Deprecation struct {
	Introduced     string
	DeprecatedIn   string
	RemovalPlanned string
	Replaces       []string
}

// Hook is a pre/post validation step run around a Handler.
type Hook func(m model.Model, params map[string]any) error

// Handler is the pure (Model, params) -> Result function an operation
// performs (spec.md §4.2: "Handler (pure function from (Model, params) ->
// OperationResult)").
type Handler func(m model.Model, params map[string]any) (Result, error)

// ParamSpec documents one input parameter for schema discovery.
type ParamSpec struct {
	Type        string
	Required    bool
	Description string
}

// Descriptor is the full per-operation record the registry carries.
type Descriptor struct {
	Name     string
	Version  string
	Category Category
	// Dialect restricts this operation to one Model dialect; the zero
	// value means the operation applies to either.
	Dialect model.Dialect

	InputSchema map[string]ParamSpec
	Handler     Handler
	PreHooks    []Hook
	PostHooks   []Hook
	Diff        DiffMeta
	Deprecation *Deprecation
}
