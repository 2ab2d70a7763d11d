/*
 * Copyright 2023 The RuleGo Authors.
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

// Package registry is the Component Registry of spec.md §4.1: the single
// source of truth for the closed set of component kinds, their aliases,
// family groupings, categories, default port counts, and symbol ids.
//
// It is data-driven, loaded at startup from three tabular resources
// (equipment, piping, instrumentation — spec.md §6's
// {class_name, sfiles_alias, is_primary, family, category, symbol_id,
// port_count, display_name} schema), following the shape of the teacher's
// RuleComponentRegistry in engine/registry.go: a map built once and read
// from everywhere afterward. Unlike the teacher's, it takes no lock, since
// nothing in it changes after Load.
package registry

import (
	"github.com/puran-water/dexpi-engine/internal/model"
)

// Entry is one row of registry data: a single (class, alias) pairing.
type Entry struct {
	ClassName   model.Kind     `json:"class_name"`
	Alias       string         `json:"sfiles_alias"`
	IsPrimary   bool           `json:"is_primary"`
	FamilyName  string         `json:"family"`
	Family      model.Family   `json:"component_family"`
	Category    model.Category `json:"category"`
	SymbolID    string         `json:"symbol_id"`
	PortCount   int            `json:"port_count"`
	DisplayName string         `json:"display_name"`
}

// Description is the result of Registry.Describe.
type Description struct {
	Family           model.Family   `json:"component_family"`
	Category         model.Category `json:"category"`
	FamilyName       string         `json:"family,omitempty"`
	Primary          model.Kind     `json:"primary,omitempty"`
	DefaultPortCount int            `json:"default_port_count"`
	DefaultSymbolID  string         `json:"default_symbol_id"`
	AllAliases       []string       `json:"all_aliases"`
}
