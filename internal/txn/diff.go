package txn

import (
	"encoding/json"
	"sort"

	"github.com/puran-water/dexpi-engine/internal/model"
)

// Diff is the external, read-only view of a transaction's accumulated
// structural change (spec.md §4.3: "diff(transactionId) -> added/removed/
// modified item ids").
type Diff struct {
	Added    []string `json:"added"`
	Removed  []string `json:"removed"`
	Modified []string `json:"modified"`
}

// diffAccumulator tracks a transaction's running diff across every applied
// operation, idempotently: an id added and later removed within the same
// transaction nets to neither (spec.md §4.3 "the diff accumulates across
// operations, not per-call").
type diffAccumulator struct {
	added    map[string]bool
	removed  map[string]bool
	modified map[string]bool
}

func newDiffAccumulator() *diffAccumulator {
	return &diffAccumulator{added: map[string]bool{}, removed: map[string]bool{}, modified: map[string]bool{}}
}

func (d *diffAccumulator) merge(added, removed, modified []string) {
	for _, id := range added {
		if d.removed[id] {
			delete(d.removed, id)
		}
		d.added[id] = true
		delete(d.modified, id)
	}
	for _, id := range removed {
		if d.added[id] {
			delete(d.added, id)
			delete(d.modified, id)
			continue
		}
		d.removed[id] = true
		delete(d.modified, id)
	}
	for _, id := range modified {
		if d.added[id] || d.removed[id] {
			continue
		}
		d.modified[id] = true
	}
}

func (d *diffAccumulator) snapshot() Diff {
	out := Diff{
		Added:    sortedKeys(d.added),
		Removed:  sortedKeys(d.removed),
		Modified: sortedKeys(d.modified),
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// componentDiff is the default diff calculator used when an operation's
// Descriptor carries no DiffMeta.CustomDiff: it compares the full id set
// and JSON encoding of every component (plus instrumentation function) in
// before and after, so additions, removals, and content changes are all
// detected uniformly regardless of which handler produced them.
func componentDiff(before, after model.Model) (added, removed, modified []string) {
	bm := encodeItems(before)
	am := encodeItems(after)
	for id, enc := range am {
		bEnc, ok := bm[id]
		if !ok {
			added = append(added, id)
		} else if bEnc != enc {
			modified = append(modified, id)
		}
	}
	for id := range bm {
		if _, ok := am[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(modified)
	return
}

func encodeItems(m model.Model) map[string]string {
	out := map[string]string{}
	switch v := m.(type) {
	case *model.GraphModel:
		for _, c := range v.Components() {
			b, _ := json.Marshal(c)
			out[c.ID] = string(b)
		}
		for _, f := range v.InstrumentationFunctions() {
			b, _ := json.Marshal(f)
			out["instr:"+f.ID] = string(b)
		}
	case *model.LinearModel:
		for _, u := range v.Units {
			b, _ := json.Marshal(u)
			out[u.ID] = string(b)
		}
		for _, c := range v.Controls {
			b, _ := json.Marshal(c)
			out["ctl:"+c.ID] = string(b)
		}
	}
	return out
}
