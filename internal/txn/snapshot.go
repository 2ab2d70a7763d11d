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

package txn

import (
	"encoding/json"

	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
)

// Strategy is the snapshot strategy selected for a transaction
// (spec.md §4.3, §9 "Snapshot alternative for large models").
type Strategy string

const (
	StrategyDeepCopy Strategy = "DEEPCOPY"
	StrategySerialize Strategy = "SERIALIZE"
)

// Thresholds control the size estimator's DEEPCOPY/SERIALIZE boundary.
// Both must be exceeded together is not required — either one alone tips
// the decision to SERIALIZE, matching spec.md's "≈ 1 MiB / ≈ 500
// components" pairing as two independent tripwires on the same tunable.
type Thresholds struct {
	MaxDeepCopyBytes      int
	MaxDeepCopyComponents int
}

// DefaultThresholds matches spec.md §4.3's indicative values.
func DefaultThresholds() Thresholds {
	return Thresholds{MaxDeepCopyBytes: 1 << 20, MaxDeepCopyComponents: 500}
}

func componentCount(m model.Model) int {
	switch v := m.(type) {
	case *model.GraphModel:
		return len(v.Components())
	case *model.LinearModel:
		return len(v.Units)
	default:
		return 0
	}
}

// classify picks DEEPCOPY or SERIALIZE for m under t. The byte estimate is
// the model's JSON encoding size — cheap to compute once, and the same
// encoding SERIALIZE itself uses, so the estimate and the chosen
// serializer never disagree about what "big" means.
func classify(m model.Model, t Thresholds) (Strategy, []byte, error) {
	encoded, err := json.Marshal(m)
	if err != nil {
		return "", nil, errs.Wrap(errs.TransactionFailed, "estimating snapshot size", err)
	}
	if len(encoded) > t.MaxDeepCopyBytes || componentCount(m) > t.MaxDeepCopyComponents {
		return StrategySerialize, encoded, nil
	}
	return StrategyDeepCopy, nil, nil
}

// snapshot is the saved "before" state a transaction can restore from on
// rollback, in whichever form classify chose.
type snapshot struct {
	strategy Strategy
	deep     model.Model // populated for StrategyDeepCopy
	wire     []byte      // populated for StrategySerialize
	dialect  model.Dialect
	modelType model.ModelType
	id       string
}

func newSnapshot(m model.Model, t Thresholds) (*snapshot, error) {
	strategy, encoded, err := classify(m, t)
	if err != nil {
		return nil, err
	}
	snap := &snapshot{strategy: strategy, dialect: m.Dialect(), modelType: m.Type(), id: m.ModelID()}
	if strategy == StrategyDeepCopy {
		snap.deep = m.Clone()
		return snap, nil
	}
	snap.wire = encoded
	return snap, nil
}

// restore reconstructs the pre-transaction model from the snapshot.
// Restoration failure is fatal for the owning transaction (spec.md §4.3).
func (s *snapshot) restore() (model.Model, error) {
	switch s.strategy {
	case StrategyDeepCopy:
		return s.deep.Clone(), nil
	case StrategySerialize:
		switch s.dialect {
		case model.DialectGraph:
			g := model.NewGraphModel(s.id, s.modelType)
			if err := json.Unmarshal(s.wire, g); err != nil {
				return nil, errs.Wrap(errs.TransactionFailed, "restoring serialized graph snapshot", err)
			}
			return g, nil
		case model.DialectLinear:
			l := model.NewLinearModel(s.id, s.modelType)
			if err := json.Unmarshal(s.wire, l); err != nil {
				return nil, errs.Wrap(errs.TransactionFailed, "restoring serialized linear snapshot", err)
			}
			return l, nil
		default:
			return nil, errs.Newf(errs.TransactionFailed, "unknown dialect %q in snapshot", s.dialect)
		}
	default:
		return nil, errs.Newf(errs.TransactionFailed, "unknown snapshot strategy %q", s.strategy)
	}
}
