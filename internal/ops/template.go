package ops

import (
	"github.com/puran-water/dexpi-engine/internal/convert"
	"github.com/puran-water/dexpi-engine/internal/convert/template"
	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
	"github.com/puran-water/dexpi-engine/internal/registry"
)

// InstantiateTemplateParams decodes the instantiate_template payload.
// Params feeds the template's `${name|default}` substitution grammar, the
// same one a block Unit's Params supplies during expand_linear_to_graph.
type InstantiateTemplateParams struct {
	TemplateName string            `mapstructure:"template_name"`
	Params       map[string]string `mapstructure:"params"`
}

// instantiateTemplateHandler splices a named template's component/connection
// cluster directly into the target GraphModel (spec.md §4.2: "template
// instantiation" is its own Minimum Operation Registry entry, not merely an
// internal side effect of expand_linear_to_graph). It returns the boundary
// ids so the caller can connect_components the cluster into the rest of
// the diagram.
func instantiateTemplateHandler(reg *registry.Registry) Handler {
	return func(m model.Model, params map[string]any) (Result, error) {
		g, ok := m.(*model.GraphModel)
		if !ok {
			return Result{}, errs.New(errs.InvalidPayload, "instantiate_template applies only to the graph dialect")
		}
		var p InstantiateTemplateParams
		if err := DecodeParams(params, &p); err != nil {
			return Result{}, err
		}
		tpl, ok := template.Default().LookupByName(p.TemplateName)
		if !ok {
			return Result{}, errs.Newf(errs.TemplateNotFound, "no template registered with name %q", p.TemplateName)
		}
		aliasToID, err := convert.InstantiateTemplate(g, reg, p.Params, tpl)
		if err != nil {
			return Result{}, err
		}
		inID, ok := aliasToID[tpl.Boundary.InAlias]
		if !ok {
			return Result{}, errs.Newf(errs.TemplateNotFound, "template %q boundary alias %q was not instantiated (condition excluded it)", tpl.Name, tpl.Boundary.InAlias)
		}
		outID, ok := aliasToID[tpl.Boundary.OutAlias]
		if !ok {
			return Result{}, errs.Newf(errs.TemplateNotFound, "template %q boundary alias %q was not instantiated (condition excluded it)", tpl.Name, tpl.Boundary.OutAlias)
		}
		return Result{Data: map[string]any{
			"components": aliasToID,
			"in_id":      inID,
			"in_port":    tpl.Boundary.InPort,
			"out_id":     outID,
			"out_port":   tpl.Boundary.OutPort,
		}}, nil
	}
}
