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

// Package proteus is the Proteus XML 4.2 exporter of spec.md §4.5: it
// walks a Graph-dialect model in a strict export order and serializes it
// to the published schema's element/attribute shape, maintaining its own
// id space and a structural validation pass run at the end of Export, distinct from the
// engine's internal component ids (internal/model.GraphModel.NextID).
package proteus

import (
	"fmt"
	"strings"

	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/registry"
)

// IDRegistry assigns and tracks the exporter-internal string ids every
// exported element needs, one per-prefix counter per category (spec.md
// §4.5 "Counters are per-prefix"). It is exporter-local and discarded once
// Export returns; it never touches internal/model's own id counters.
type IDRegistry struct {
	prefixCounters map[string]int
	idOf           map[string]string // engine item id (component/function) -> exported id
	reserved       map[string]bool   // exported ids that exist, whether or not bound to an item
}

// NewIDRegistry returns an empty IDRegistry.
func NewIDRegistry() *IDRegistry {
	return &IDRegistry{
		prefixCounters: map[string]int{},
		idOf:           map[string]string{},
		reserved:       map[string]bool{},
	}
}

// Assign mints (or returns the existing) exported id for the engine item
// itemID, using prefix as its id prefix (e.g. "PMP" for a centrifugal
// pump, "TNK" for a tank). All non-string
// engine identifiers must be normalised to strings by the caller before
// reaching here (spec.md §4.5 "non-string identifiers ... are normalised
// to strings").
func (r *IDRegistry) Assign(itemID, prefix string) string {
	if id, ok := r.idOf[itemID]; ok {
		return id
	}
	id := r.nextFree(prefix)
	r.idOf[itemID] = id
	r.reserved[id] = true
	return id
}

// Reserve pre-seeds an id without binding it to an engine item (spec.md
// §4.5: "used when round-tripping an imported document"). It advances the
// prefix's counter past id's numeric suffix if id matches the
// "<prefix><4 digits>" shape, so subsequently Assign-ed ids never collide
// with it.
func (r *IDRegistry) Reserve(id string) {
	r.reserved[id] = true
	if len(id) <= 4 {
		return
	}
	prefix := id[:len(id)-4]
	var n int
	if _, err := fmt.Sscanf(id[len(id)-4:], "%04d", &n); err != nil {
		return
	}
	if n > r.prefixCounters[prefix] {
		r.prefixCounters[prefix] = n
	}
}

func (r *IDRegistry) nextFree(prefix string) string {
	for {
		r.prefixCounters[prefix]++
		id := fmt.Sprintf("%s%04d", prefix, r.prefixCounters[prefix])
		if !r.reserved[id] {
			return id
		}
	}
}

// IDFor looks up the exported id already assigned to itemID.
func (r *IDRegistry) IDFor(itemID string) (string, bool) {
	id, ok := r.idOf[itemID]
	return id, ok
}

// ValidateReference asserts that id has been registered (via Assign or
// Reserve) before this call — every cross-reference attribute the
// exporter emits must point to something already written out (spec.md
// §4.5 "failure is a fatal export error"). xpath/attr populate the
// structured error details the same way an XSD validation failure would.
func (r *IDRegistry) ValidateReference(id, xpath, attr string) error {
	if r.reserved[id] {
		return nil
	}
	return errs.Newf(errs.ReferenceUndefined, "reference %q in %s@%s points to an id that was never registered", id, xpath, attr).
		WithDetail("xpath", xpath).
		WithDetail("attribute", attr).
		WithDetail("value", id)
}

// idPrefix resolves a component's export id prefix (spec.md
// §4.5 "e.g. PMP0001 for centrifugal pump, TNK0001 for tank, VLV0001 for
// ball valve"). A kind with a real catalog symbol (desc.DefaultSymbolID
// of the form "PMP-SYM") uses the symbol's own prefix, so a primary
// pump/tank/valve gets exactly the worked examples. That prefix is not
// always three letters: instrument symbols such as "FT-SYM" or "TE-SYM"
// give two-letter prefixes ("FT0001"). A kind that only has
// the registry's hashed placeholder symbol (no "-SYM" suffix) falls back
// to its category's prefix via registry.CategoryPrefix, the same table
// spec.md §4.1's placeholder symbol ids already draw from.
func idPrefix(desc registry.Description) string {
	if idx := strings.Index(desc.DefaultSymbolID, "-SYM"); idx > 0 {
		return strings.ToUpper(desc.DefaultSymbolID[:idx])
	}
	return registry.CategoryPrefix(desc.Category)
}
