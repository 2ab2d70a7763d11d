package registry

import (
	"bytes"
	_ "embed"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"

	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
)

//go:embed data/equipment.csv
var defaultEquipmentCSV []byte

//go:embed data/piping.csv
var defaultPipingCSV []byte

//go:embed data/instrumentation.csv
var defaultInstrumentationCSV []byte

// categoryPrefix maps each category to the three-letter prefix used both
// for the registry's placeholder symbol ids and for the Proteus exporter's
// per-category id counters (spec.md §4.1 and §4.5 share the same
// "category-appropriate prefix" idea; this is the single source of truth
// for it, exported for internal/proteus to reuse).
var categoryPrefix = map[model.Category]string{
	model.CategoryRotating:        "ROT",
	model.CategoryHeatTransfer:    "HTX",
	model.CategorySeparation:      "SEP",
	model.CategoryStorage:         "TNK",
	model.CategoryReaction:        "RXR",
	model.CategoryTreatment:       "TRT",
	model.CategoryTransport:       "TRN",
	model.CategoryCustom:          "CUS",
	model.CategoryValve:           "VLV",
	model.CategoryPipe:            "PIP",
	model.CategoryConnection:      "CNN",
	model.CategoryFlowMeasurement: "FLM",
	model.CategoryFiltration:      "FIL",
	model.CategorySafety:          "SFT",
	model.CategoryStructure:       "STR",
	model.CategoryOtherPiping:     "OPI",
	model.CategoryActuating:       "ACT",
	model.CategorySignal:          "SIG",
	model.CategoryMeasurement:     "MEA",
	model.CategoryControl:         "CTL",
	model.CategoryControlLoop:     "LOP",
	model.CategorySensing:         "SNS",
	model.CategoryDetector:        "DET",
	model.CategoryTransmitter:     "TRM",
	model.CategoryConverter:       "CNV",
	model.CategoryOtherInstr:      "OTI",
}

// CategoryPrefix returns the three-letter prefix for cat, or "XXX" if the
// category is not one of the closed ~25 from spec.md §3.
func CategoryPrefix(cat model.Category) string {
	if p, ok := categoryPrefix[cat]; ok {
		return p
	}
	return "XXX"
}

// Registry is the immutable, data-driven Component Registry.
//
// It is built once by Load and never mutated afterward, so every read
// method is safe to call concurrently without locking — the teacher's
// RuleComponentRegistry instead guards a mutable map with an RWMutex
// because components can be registered/unregistered at runtime; this
// registry's data never changes after startup, which is the stronger,
// simpler guarantee spec.md §4.1 calls for ("The registry is immutable
// after load; it never reads back from models").
type Registry struct {
	byClass    map[model.Kind]Entry
	byAlias    map[string]model.Kind
	familyHead map[string]model.Kind   // family name -> primary kind
	familyAll  map[string][]model.Kind // family name -> ordered kinds, primary first
	byCategory map[model.Category][]model.Kind
	all        []Entry

	symbolConfidence float64
	mu               sync.Mutex // never locked: nothing in Registry changes after Load
}

// Option configures Load, mirroring the teacher's functional-options
// pattern (types.Option in types/options.go).
type Option func(*Registry)

// WithSymbolConfidence sets the minimum confidence the symbol resolver
// will accept before refusing to approximate a symbol match (spec.md §9
// Open Question). Default is 1.0 — exact matches only.
func WithSymbolConfidence(threshold float64) Option {
	return func(r *Registry) {
		r.symbolConfidence = threshold
	}
}

// Load builds a Registry from the three tabular resources. Missing or
// malformed resources, duplicate class names, and ambiguous aliases are
// all fatal (spec.md §4.1: "Missing resources are a fatal error
// (fail-loudly): an empty registry is never acceptable").
func Load(equipmentCSV, pipingCSV, instrumentationCSV []byte, opts ...Option) (*Registry, error) {
	if len(equipmentCSV) == 0 || len(pipingCSV) == 0 || len(instrumentationCSV) == 0 {
		return nil, errs.New(errs.InvalidPayload, "registry resources must not be empty")
	}

	r := &Registry{
		byClass:          map[model.Kind]Entry{},
		byAlias:          map[string]model.Kind{},
		familyHead:       map[string]model.Kind{},
		familyAll:        map[string][]model.Kind{},
		byCategory:       map[model.Category][]model.Kind{},
		symbolConfidence: 1.0,
	}
	for _, opt := range opts {
		opt(r)
	}

	sources := []struct {
		family model.Family
		data   []byte
	}{
		{model.FamilyEquipment, equipmentCSV},
		{model.FamilyPiping, pipingCSV},
		{model.FamilyInstrumentation, instrumentationCSV},
	}

	for _, src := range sources {
		entries, err := parseCSV(src.family, bytes.NewReader(src.data))
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, errs.Newf(errs.InvalidPayload, "registry resource for family %s is empty", src.family)
		}
		for _, e := range entries {
			if err := r.addEntry(e); err != nil {
				return nil, err
			}
		}
	}

	if len(r.byClass) == 0 {
		return nil, errs.New(errs.InvalidPayload, "registry has no kinds after load")
	}
	return r, nil
}

// LoadDefault builds a Registry from the module's embedded tabular
// resources.
func LoadDefault(opts ...Option) (*Registry, error) {
	return Load(defaultEquipmentCSV, defaultPipingCSV, defaultInstrumentationCSV, opts...)
}

func (r *Registry) addEntry(e Entry) error {
	if _, exists := r.byClass[e.ClassName]; exists {
		return errs.Newf(errs.InvalidPayload, "duplicate class_name %q in registry data", e.ClassName)
	}
	r.byClass[e.ClassName] = e
	r.all = append(r.all, e)

	classAlias := strings.ToLower(string(e.ClassName))
	if err := r.bindAlias(classAlias, e.ClassName); err != nil {
		return err
	}
	if e.Alias != "" {
		if err := r.bindAlias(strings.ToLower(e.Alias), e.ClassName); err != nil {
			return err
		}
	}

	r.familyAll[e.FamilyName] = append(r.familyAll[e.FamilyName], e.ClassName)
	if e.IsPrimary {
		if existing, ok := r.familyHead[e.FamilyName]; ok {
			return errs.Newf(errs.InvalidPayload, "family %q has more than one primary kind (%s and %s)", e.FamilyName, existing, e.ClassName)
		}
		r.familyHead[e.FamilyName] = e.ClassName
	}

	r.byCategory[e.Category] = append(r.byCategory[e.Category], e.ClassName)
	return nil
}

func (r *Registry) bindAlias(alias string, kind model.Kind) error {
	if existing, ok := r.byAlias[alias]; ok && existing != kind {
		return errs.Newf(errs.InvalidPayload, "alias %q ambiguous between %s and %s", alias, existing, kind)
	}
	r.byAlias[alias] = kind
	return nil
}

// Resolve returns the kind for name, which may be a lowercase alias
// (e.g. "pump", "pump_reciprocating") or the canonical class name
// (e.g. "CentrifugalPump") in any case. Only a bare family alias resolves
// to the family's primary kind; qualified aliases resolve to variants
// (spec.md §4.1). Resolve is pure: the same name always yields the same
// kind (spec.md §8 idempotence law).
func (r *Registry) Resolve(name string) (model.Kind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", errs.New(errs.UnknownKind, "empty component name")
	}
	if kind, ok := r.byAlias[key]; ok {
		return kind, nil
	}
	return "", errs.Newf(errs.UnknownKind, "unknown component kind %q", name)
}

// Describe returns the full descriptor for kind.
func (r *Registry) Describe(kind model.Kind) (Description, error) {
	e, ok := r.byClass[kind]
	if !ok {
		return Description{}, errs.Newf(errs.UnknownKind, "unknown component kind %q", kind)
	}
	symbol := e.SymbolID
	if symbol == "" {
		symbol = r.placeholderSymbol(e)
	}
	var aliases []string
	for alias, k := range r.byAlias {
		if k == kind {
			aliases = append(aliases, alias)
		}
	}
	sort.Strings(aliases)

	return Description{
		Family:           e.Family,
		Category:         e.Category,
		FamilyName:       e.FamilyName,
		Primary:          r.familyHead[e.FamilyName],
		DefaultPortCount: e.PortCount,
		DefaultSymbolID:  symbol,
		AllAliases:       aliases,
	}, nil
}

// placeholderSymbol computes the deterministic "<prefix><hash>Z" id for a
// kind that has no entry in the known symbol map (spec.md §4.1). The
// trailing Z marks the id as a placeholder, never a real catalog symbol.
func (r *Registry) placeholderSymbol(e Entry) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(e.ClassName))
	return fmt.Sprintf("%s%04XZ", CategoryPrefix(e.Category), h.Sum32()&0xFFFF)
}

// Family returns the ordered list of kinds sharing alias's family, primary
// kind first. alias may itself be a bare or qualified alias.
func (r *Registry) Family(alias string) ([]model.Kind, error) {
	kind, err := r.Resolve(alias)
	if err != nil {
		return nil, err
	}
	e := r.byClass[kind]
	members := r.familyAll[e.FamilyName]
	out := make([]model.Kind, 0, len(members))
	if head, ok := r.familyHead[e.FamilyName]; ok {
		out = append(out, head)
		for _, m := range members {
			if m != head {
				out = append(out, m)
			}
		}
	} else {
		out = append(out, members...)
	}
	return out, nil
}

// Primary returns the primary kind of kind's family.
func (r *Registry) Primary(kind model.Kind) (model.Kind, error) {
	e, ok := r.byClass[kind]
	if !ok {
		return "", errs.Newf(errs.UnknownKind, "unknown component kind %q", kind)
	}
	head, ok := r.familyHead[e.FamilyName]
	if !ok {
		return kind, nil
	}
	return head, nil
}

// FamilyAlias returns the bare family alias that reparsers resolve back to
// the family's primary kind (spec.md §4.4.2: units are emitted under the
// family alias, not the specific variant). kind may be a class name or any
// alias Resolve accepts, so Render can pass a linear unit's kind directly.
func (r *Registry) FamilyAlias(kind model.Kind) (string, error) {
	e, ok := r.byClass[kind]
	if !ok {
		resolved, err := r.Resolve(string(kind))
		if err != nil {
			return "", err
		}
		e = r.byClass[resolved]
	}
	head, ok := r.familyHead[e.FamilyName]
	if !ok {
		return "", errs.Newf(errs.UnknownKind, "family %q has no primary kind", e.FamilyName)
	}
	headEntry := r.byClass[head]
	return headEntry.Alias, nil
}

// ByCategory lists all kinds in cat, sorted for deterministic output.
func (r *Registry) ByCategory(cat model.Category) []model.Kind {
	out := append([]model.Kind(nil), r.byCategory[cat]...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ListAll returns the full catalogue, sorted by class name.
func (r *Registry) ListAll() []Entry {
	out := append([]Entry(nil), r.all...)
	sort.Slice(out, func(i, j int) bool { return out[i].ClassName < out[j].ClassName })
	return out
}

// SymbolConfidenceThreshold returns the minimum confidence under which the
// registry's symbol resolution refuses to approximate (spec.md §9 Open
// Question). The fuzzy resolver itself (exact=1.0, custom-prefix
// strip=0.95, similarity-ranked below) is exercised through
// ResolveSymbolFuzzy.
func (r *Registry) SymbolConfidenceThreshold() float64 {
	return r.symbolConfidence
}

// SymbolMatch is one candidate from ResolveSymbolFuzzy.
type SymbolMatch struct {
	Kind       model.Kind
	SymbolID   string
	Confidence float64
}

// ResolveSymbolFuzzy looks up a symbol id for kind with a confidence score:
// 1.0 for an exact registry match, 0.95 when stripping a "CUSTOM_"/"X_"
// vendor prefix from the requested kind name yields a match, and a
// similarity-ranked score below that for the closest known class name by
// prefix overlap. Callers below the registry's configured confidence
// threshold get an error instead of a silent approximation (spec.md §9:
// "the minimum confidence threshold under which an export should refuse,
// rather than approximate").
func (r *Registry) ResolveSymbolFuzzy(kind model.Kind) (SymbolMatch, error) {
	if e, ok := r.byClass[kind]; ok {
		symbol := e.SymbolID
		if symbol == "" {
			symbol = r.placeholderSymbol(e)
		}
		return SymbolMatch{Kind: kind, SymbolID: symbol, Confidence: 1.0}, nil
	}

	stripped := strings.TrimPrefix(string(kind), "CUSTOM_")
	stripped = strings.TrimPrefix(stripped, "X_")
	if stripped != string(kind) {
		if e, ok := r.byClass[model.Kind(stripped)]; ok {
			symbol := e.SymbolID
			if symbol == "" {
				symbol = r.placeholderSymbol(e)
			}
			match := SymbolMatch{Kind: e.ClassName, SymbolID: symbol, Confidence: 0.95}
			if match.Confidence < r.symbolConfidence {
				return SymbolMatch{}, errs.Newf(errs.UnknownKind, "symbol match for %q below confidence threshold %.2f", kind, r.symbolConfidence)
			}
			return match, nil
		}
	}

	best := SymbolMatch{}
	for _, e := range r.all {
		score := prefixSimilarity(string(kind), string(e.ClassName))
		if score > best.Confidence {
			symbol := e.SymbolID
			if symbol == "" {
				symbol = r.placeholderSymbol(e)
			}
			best = SymbolMatch{Kind: e.ClassName, SymbolID: symbol, Confidence: score}
		}
	}
	if best.Kind == "" || best.Confidence < r.symbolConfidence {
		return SymbolMatch{}, errs.Newf(errs.UnknownKind, "no symbol match for %q at or above confidence threshold %.2f", kind, r.symbolConfidence)
	}
	return best, nil
}

// prefixSimilarity scores two names by shared leading-character run length
// relative to the shorter name's length — a simple, deterministic stand-in
// for the source's similarity ranking, sufficient to order candidates
// without pulling in a string-distance library the rest of the pack never
// uses.
func prefixSimilarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	shorter := len(a)
	if len(b) < shorter {
		shorter = len(b)
	}
	if shorter == 0 {
		return 0
	}
	return 0.9 * float64(n) / float64(shorter)
}
