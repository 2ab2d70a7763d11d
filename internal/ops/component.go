package ops

import (
	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
	"github.com/puran-water/dexpi-engine/internal/registry"
)

// CreateComponentParams decodes the create_component payload.
type CreateComponentParams struct {
	Kind       string         `mapstructure:"kind"`
	Tag        string         `mapstructure:"tag"`
	Attributes map[string]any `mapstructure:"attributes"`
}

func portRoleFor(family model.Family) model.PortRole {
	if family == model.FamilyEquipment {
		return model.PortRoleNozzle
	}
	return model.PortRoleNode
}

func createComponentHandler(reg *registry.Registry) Handler {
	return func(m model.Model, params map[string]any) (Result, error) {
		g, ok := m.(*model.GraphModel)
		if !ok {
			return Result{}, errs.New(errs.InvalidPayload, "create_component applies only to the graph dialect")
		}
		var p CreateComponentParams
		if err := DecodeParams(params, &p); err != nil {
			return Result{}, err
		}
		kind, err := reg.Resolve(p.Kind)
		if err != nil {
			return Result{}, err
		}
		desc, err := reg.Describe(kind)
		if err != nil {
			return Result{}, err
		}
		role := portRoleFor(desc.Family)
		ports := make([]model.Port, desc.DefaultPortCount)
		for i := range ports {
			ports[i] = model.Port{Index: i, Role: role}
		}
		comp := &model.Component{
			ID:         g.NextID(registry.CategoryPrefix(desc.Category)),
			Kind:       kind,
			Tag:        p.Tag,
			Ports:      ports,
			Attributes: p.Attributes,
		}
		if err := g.AddComponent(comp); err != nil {
			return Result{}, err
		}
		return Result{Data: map[string]any{"id": comp.ID, "kind": string(kind)}}, nil
	}
}

// RemoveComponentParams decodes the remove_component payload.
type RemoveComponentParams struct {
	ID      string `mapstructure:"id"`
	Cascade bool   `mapstructure:"cascade"`
}

func removeComponentHandler() Handler {
	return func(m model.Model, params map[string]any) (Result, error) {
		g, ok := m.(*model.GraphModel)
		if !ok {
			return Result{}, errs.New(errs.InvalidPayload, "remove_component applies only to the graph dialect")
		}
		var p RemoveComponentParams
		if err := DecodeParams(params, &p); err != nil {
			return Result{}, err
		}
		if err := g.RemoveComponent(p.ID, p.Cascade); err != nil {
			return Result{}, err
		}
		return Result{Data: map[string]any{"id": p.ID}}, nil
	}
}

// UpdateComponentParams decodes the update_component payload.
type UpdateComponentParams struct {
	ID         string         `mapstructure:"id"`
	Attributes map[string]any `mapstructure:"attributes"`
}

func updateComponentHandler() Handler {
	return func(m model.Model, params map[string]any) (Result, error) {
		g, ok := m.(*model.GraphModel)
		if !ok {
			return Result{}, errs.New(errs.InvalidPayload, "update_component applies only to the graph dialect")
		}
		var p UpdateComponentParams
		if err := DecodeParams(params, &p); err != nil {
			return Result{}, err
		}
		c, ok := g.Component(p.ID)
		if !ok {
			return Result{}, errs.Newf(errs.TargetNotFound, "component %q not found", p.ID)
		}
		if c.Attributes == nil {
			c.Attributes = make(map[string]any, len(p.Attributes))
		}
		for k, v := range p.Attributes {
			c.Attributes[k] = v
		}
		return Result{Data: map[string]any{"id": c.ID}}, nil
	}
}

// RetagParams decodes the retag payload.
type RetagParams struct {
	ID     string `mapstructure:"id"`
	NewTag string `mapstructure:"new_tag"`
}

func retagHandler() Handler {
	return func(m model.Model, params map[string]any) (Result, error) {
		g, ok := m.(*model.GraphModel)
		if !ok {
			return Result{}, errs.New(errs.InvalidPayload, "retag applies only to the graph dialect")
		}
		var p RetagParams
		if err := DecodeParams(params, &p); err != nil {
			return Result{}, err
		}
		if err := g.Retag(p.ID, p.NewTag); err != nil {
			return Result{}, err
		}
		return Result{Data: map[string]any{"id": p.ID, "tag": p.NewTag}}, nil
	}
}
