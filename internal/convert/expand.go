package convert

import (
	"sort"

	"github.com/puran-water/dexpi-engine/internal/convert/template"
	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
	"github.com/puran-water/dexpi-engine/internal/registry"
)

// Resolver is the subset of the Component Registry the conversion engine
// depends on, so this package never needs the registry's CSV loading
// machinery to be testable in isolation.
type Resolver interface {
	Resolve(name string) (model.Kind, error)
	Describe(kind model.Kind) (registry.Description, error)
	FamilyAlias(kind model.Kind) (string, error)
}

// ExpandOptions configures Linear->Graph expansion (spec.md §4.4.1).
type ExpandOptions struct {
	// BlockList names the kinds that trigger template expansion instead of
	// a plain single-component instantiation. Nil means template.DefaultBlockList().
	BlockList map[model.Kind]bool
	// Templates supplies the block templates themselves. Nil means template.Default().
	Templates *template.Set
}

// Expand converts a parsed LinearModel into a GraphModel (spec.md §4.4.1):
// each Unit becomes either a single Component or, for block-list kinds, a
// template-instantiated cluster; each Stream becomes a Connection (creating
// Segments/Networks as needed); each Control becomes an InstrumentationFunction.
func Expand(l *model.LinearModel, reg Resolver, opts ExpandOptions) (*model.GraphModel, error) {
	blockList := opts.BlockList
	if blockList == nil {
		blockList = template.DefaultBlockList()
	}
	templates := opts.Templates
	if templates == nil {
		templates = template.Default()
	}

	g := model.NewGraphModel(l.ModelID(), l.Type())

	// inOf/outOf record, for each Unit, the (componentID, port) pair that
	// stands in for its external inbound ("in") and outbound ("out")
	// connection point — identical to the component itself for a
	// non-block Unit, or the template's Boundary aliases for a block Unit.
	type endpoint struct {
		id   string
		port int
	}
	inOf := make(map[string]endpoint, len(l.Units))
	outOf := make(map[string]endpoint, len(l.Units))

	for _, u := range l.Units {
		kind, err := reg.Resolve(u.Kind)
		if err != nil {
			return nil, err
		}
		if blockList[kind] {
			tpl, ok := templates.Lookup(kind)
			if !ok {
				return nil, errs.Newf(errs.TemplateNotFound, "no block template registered for kind %q", kind)
			}
			aliasToID, err := instantiateTemplate(g, reg, u, tpl)
			if err != nil {
				return nil, err
			}
			inID, ok := aliasToID[tpl.Boundary.InAlias]
			if !ok {
				return nil, errs.Newf(errs.TemplateNotFound, "template %q boundary alias %q was not instantiated (condition excluded it)", tpl.Name, tpl.Boundary.InAlias)
			}
			outID, ok := aliasToID[tpl.Boundary.OutAlias]
			if !ok {
				return nil, errs.Newf(errs.TemplateNotFound, "template %q boundary alias %q was not instantiated (condition excluded it)", tpl.Name, tpl.Boundary.OutAlias)
			}
			inOf[u.ID] = endpoint{id: inID, port: tpl.Boundary.InPort}
			outOf[u.ID] = endpoint{id: outID, port: tpl.Boundary.OutPort}
			continue
		}

		desc, err := reg.Describe(kind)
		if err != nil {
			return nil, err
		}
		c := &model.Component{
			ID:   g.NextID(registry.CategoryPrefix(desc.Category)),
			Kind: kind,
			Tag:  u.Name,
		}
		role := model.PortRoleNode
		if desc.Family == model.FamilyEquipment {
			role = model.PortRoleNozzle
		}
		n := desc.DefaultPortCount
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			c.Ports = append(c.Ports, model.Port{Index: i, Role: role})
		}
		if err := g.AddComponent(c); err != nil {
			return nil, err
		}
		inOf[u.ID] = endpoint{id: c.ID, port: 0}
		lastPort := n - 1
		if lastPort < 0 {
			lastPort = 0
		}
		outOf[u.ID] = endpoint{id: c.ID, port: lastPort}
	}

	for _, s := range l.Streams {
		from, ok := outOf[s.FromUnit]
		if !ok {
			return nil, errs.Newf(errs.TargetNotFound, "stream %q references unknown unit %q", s.ID, s.FromUnit)
		}
		to, ok := inOf[s.ToUnit]
		if !ok {
			return nil, errs.Newf(errs.TargetNotFound, "stream %q references unknown unit %q", s.ID, s.ToUnit)
		}
		conn := &model.Connection{
			ID:         g.NextID("CON"),
			SourceItem: from.id, SourcePort: from.port,
			TargetItem: to.id, TargetPort: to.port,
			SegmentID: g.NextID("SEG"),
		}
		if err := g.AddConnection(conn); err != nil {
			return nil, err
		}
		net := g.EnsureNetwork(g.NextID("NET"))
		net.SegmentIDs = append(net.SegmentIDs, conn.SegmentID)
	}

	for _, c := range l.Controls {
		ep, ok := inOf[c.UnitID]
		if !ok {
			return nil, errs.Newf(errs.TargetNotFound, "control %q references unknown unit %q", c.ID, c.UnitID)
		}
		f := &model.InstrumentationFunction{
			ID:      g.NextID("IFN"),
			Tag:     c.ID,
			Enabled: true,
		}
		f.Associations = []model.Association{
			{Type: "is located in", FromID: f.ID, ToID: ep.id},
		}
		if err := g.AddInstrumentationFunction(f); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// InstantiateTemplate splices tpl's internal components/connections into an
// existing GraphModel, independent of Expand's Unit/Stream parsing — the
// entry point the instantiate_template operation uses to instantiate a
// named template directly against a live graph (spec.md §4.2: "template
// instantiation" is a Minimum Operation Registry entry in its own right,
// not merely an internal side effect of expand_linear_to_graph). params
// feeds the same `${name|default}` substitution grammar instantiateTemplate
// already applies to a block Unit's TagExpr/Condition strings.
func InstantiateTemplate(g *model.GraphModel, reg Resolver, params map[string]string, tpl *template.Template) (map[string]string, error) {
	return instantiateTemplate(g, reg, &model.Unit{Params: params}, tpl)
}

// instantiateTemplate expands tpl's internal components/connections for
// unit u into g, returning the alias->componentID map so the caller can
// resolve the template's declared Boundary.
func instantiateTemplate(g *model.GraphModel, reg Resolver, u *model.Unit, tpl *template.Template) (map[string]string, error) {
	env := make(map[string]any, len(u.Params))
	for k, v := range u.Params {
		env[k] = v
	}

	aliasToID := make(map[string]string, len(tpl.Components))
	specs := append([]template.ComponentSpec(nil), tpl.Components...)
	sort.SliceStable(specs, func(i, j int) bool { return specs[i].Alias < specs[j].Alias })

	for _, spec := range specs {
		if spec.Condition != "" {
			ok, err := evalTemplateCondition(spec.Condition, env)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		kind, err := reg.Resolve(spec.Kind)
		if err != nil {
			return nil, err
		}
		desc, err := reg.Describe(kind)
		if err != nil {
			return nil, err
		}
		c := &model.Component{
			ID:   g.NextID(registry.CategoryPrefix(desc.Category)),
			Kind: kind,
			Tag:  template.Substitute(spec.TagExpr, u.Params),
		}
		role := model.PortRoleNode
		if desc.Family == model.FamilyEquipment {
			role = model.PortRoleNozzle
		}
		n := desc.DefaultPortCount
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			c.Ports = append(c.Ports, model.Port{Index: i, Role: role})
		}
		if err := g.AddComponent(c); err != nil {
			return nil, err
		}
		aliasToID[spec.Alias] = c.ID
	}

	for _, cs := range tpl.Connections {
		if cs.Condition != "" {
			ok, err := evalTemplateCondition(cs.Condition, env)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		fromID, ok := aliasToID[cs.FromAlias]
		if !ok {
			continue
		}
		toID, ok := aliasToID[cs.ToAlias]
		if !ok {
			continue
		}
		conn := &model.Connection{
			ID:         g.NextID("CON"),
			SourceItem: fromID, SourcePort: cs.FromPort,
			TargetItem: toID, TargetPort: cs.ToPort,
			SegmentID: g.NextID("SEG"),
		}
		if err := g.AddConnection(conn); err != nil {
			return nil, err
		}
		net := g.EnsureNetwork(g.NextID("NET"))
		net.SegmentIDs = append(net.SegmentIDs, conn.SegmentID)
	}

	return aliasToID, nil
}

func evalTemplateCondition(cond string, env map[string]any) (bool, error) {
	substituted := template.Substitute(cond, stringEnv(env))
	program, err := template.CompileCondition(substituted)
	if err != nil {
		return false, err
	}
	return template.EvalCondition(program, env)
}

func stringEnv(env map[string]any) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
