package ops

import (
	"sort"
	"sync"

	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
)

// Registry is the append-only-after-startup operation catalog (spec.md
// §5: "The Operation Registry is append-only during startup and
// read-only thereafter").
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Descriptor
}

// NewRegistry returns an empty operation registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Descriptor)}
}

// Register adds d to the catalog. Registering the same name twice is a
// startup-time programming error, not a runtime one, so it is fatal.
func (r *Registry) Register(d *Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.Name == "" {
		return errs.New(errs.InvalidPayload, "operation name must not be empty")
	}
	if _, exists := r.byName[d.Name]; exists {
		return errs.Newf(errs.InvalidPayload, "operation %q already registered", d.Name)
	}
	r.byName[d.Name] = d
	return nil
}

// Get looks up a descriptor by name.
func (r *Registry) Get(name string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	if !ok {
		return nil, errs.Newf(errs.OperationNotFound, "operation %q not found", name)
	}
	return d, nil
}

// Dispatch resolves name to its descriptor and runs it against m,
// enforcing dialect scoping and pre/post hooks (spec.md §4.2: "Pre/post
// hook failure -> ValidationFailed").
func (r *Registry) Dispatch(m model.Model, name string, params map[string]any) (Result, error) {
	d, err := r.Get(name)
	if err != nil {
		return Result{}, err
	}
	if d.Dialect != "" && d.Dialect != m.Dialect() {
		return Result{}, errs.Newf(errs.InvalidPayload, "operation %q does not apply to the %q dialect", name, m.Dialect())
	}
	for _, hook := range d.PreHooks {
		if err := hook(m, params); err != nil {
			return Result{}, errs.Wrap(errs.ValidationFailed, "pre-hook failed for operation "+name, err)
		}
	}
	res, err := d.Handler(m, params)
	if err != nil {
		return Result{}, err
	}
	for _, hook := range d.PostHooks {
		if err := hook(m, params); err != nil {
			return Result{}, errs.Wrap(errs.ValidationFailed, "post-hook failed for operation "+name, err)
		}
	}
	return res, nil
}

// SchemaEntry is one row of the machine-readable discovery channel
// (spec.md §4.2: "the sole authoritative discovery channel for external
// tool surfaces").
type SchemaEntry struct {
	Name        string
	Version     string
	Category    Category
	Dialect     model.Dialect
	InputSchema map[string]ParamSpec
	Deprecation *Deprecation
}

// Schema returns every registered operation, sorted by name.
func (r *Registry) Schema() []SchemaEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SchemaEntry, 0, len(r.byName))
	for _, d := range r.byName {
		out = append(out, SchemaEntry{
			Name:        d.Name,
			Version:     d.Version,
			Category:    d.Category,
			Dialect:     d.Dialect,
			InputSchema: d.InputSchema,
			Deprecation: d.Deprecation,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
