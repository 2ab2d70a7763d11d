package txn

import (
	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
)

// Validate re-checks the whole-model invariants spec.md §3 requires to
// hold at every commit boundary: unique tags, and every instrumentation
// association pointing at an item that still exists. Per-operation
// mutators already enforce these locally; Validate exists so commit can
// catch a violation introduced by an interaction between several
// operations applied in the same transaction.
func Validate(m model.Model) error {
	g, ok := m.(*model.GraphModel)
	if !ok {
		return nil
	}
	seenTags := make(map[string]string, len(g.Components()))
	for _, c := range g.Components() {
		if c.Tag == "" {
			continue
		}
		if other, exists := seenTags[c.Tag]; exists && other != c.ID {
			return errs.Newf(errs.TagConflict, "tag %q is shared by components %q and %q", c.Tag, other, c.ID)
		}
		seenTags[c.Tag] = c.ID
	}
	for _, f := range g.InstrumentationFunctions() {
		for _, a := range f.Associations {
			if _, ok := g.Component(a.ToID); ok {
				continue
			}
			if _, ok := g.InstrumentationFunction(a.ToID); ok {
				continue
			}
			return errs.Newf(errs.ReferenceUndefined, "instrumentation function %q association targets missing item %q", f.ID, a.ToID)
		}
	}
	return nil
}
