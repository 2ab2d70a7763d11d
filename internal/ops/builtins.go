package ops

import (
	"github.com/puran-water/dexpi-engine/internal/convert"
	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
	"github.com/puran-water/dexpi-engine/internal/registry"
)

// RegisterBuiltins populates r with every operation spec.md §4.2 names,
// bound against reg for the operations that need kind/category
// resolution. It is called once at startup; registering into a
// non-empty Registry or registering a name twice is a programming error
// (Registry.Register already refuses it).
func RegisterBuiltins(r *Registry, reg *registry.Registry) error {
	descriptors := []*Descriptor{
		{
			Name: "create_component", Version: "v1", Category: CategoryTactical, Dialect: model.DialectGraph,
			InputSchema: map[string]ParamSpec{
				"kind": {Type: "string", Required: true},
				"tag":  {Type: "string", Required: true},
				"attributes": {Type: "object"},
			},
			Handler: createComponentHandler(reg),
			Diff:    DiffMeta{Adds: true},
		},
		{
			Name: "remove_component", Version: "v1", Category: CategoryTactical, Dialect: model.DialectGraph,
			InputSchema: map[string]ParamSpec{
				"id":      {Type: "string", Required: true},
				"cascade": {Type: "bool"},
			},
			Handler: removeComponentHandler(),
			Diff:    DiffMeta{Removes: true},
		},
		{
			Name: "update_component", Version: "v1", Category: CategoryTactical, Dialect: model.DialectGraph,
			InputSchema: map[string]ParamSpec{
				"id":         {Type: "string", Required: true},
				"attributes": {Type: "object", Required: true},
			},
			Handler: updateComponentHandler(),
			Diff:    DiffMeta{Modifies: true},
		},
		{
			Name: "retag", Version: "v1", Category: CategoryTactical, Dialect: model.DialectGraph,
			InputSchema: map[string]ParamSpec{
				"id":      {Type: "string", Required: true},
				"new_tag": {Type: "string", Required: true},
			},
			Handler: retagHandler(),
			Diff:    DiffMeta{Modifies: true},
		},
		{
			Name: "connect_components", Version: "v1", Category: CategoryTactical, Dialect: model.DialectGraph,
			InputSchema: map[string]ParamSpec{
				"from_id":     {Type: "string", Required: true},
				"from_port":   {Type: "int", Required: true},
				"to_id":       {Type: "string", Required: true},
				"to_port":     {Type: "int", Required: true},
				"line_number": {Type: "string"},
				"network_id":  {Type: "string"},
				"valve_kind":  {Type: "string"},
				"valve_tag":   {Type: "string"},
			},
			Handler: connectComponentsHandler(reg),
			Diff:    DiffMeta{Adds: true},
		},
		{
			Name: "rewire_connection", Version: "v1", Category: CategoryStrategic, Dialect: model.DialectGraph,
			InputSchema: map[string]ParamSpec{
				"connection_id":       {Type: "string", Required: true},
				"new_source_id":       {Type: "string"},
				"new_source_port":     {Type: "int"},
				"new_target_id":       {Type: "string"},
				"new_target_port":     {Type: "int"},
				"reroute_connections": {Type: "bool"},
			},
			Handler: rewireConnectionHandler(),
			Diff:    DiffMeta{Modifies: true},
		},
		{
			Name: "insert_inline_component", Version: "v1", Category: CategoryStrategic, Dialect: model.DialectGraph,
			InputSchema: map[string]ParamSpec{
				"connection_id": {Type: "string", Required: true},
				"kind":          {Type: "string", Required: true},
				"tag":           {Type: "string", Required: true},
			},
			Handler: insertInlineComponentHandler(reg),
			Diff:    DiffMeta{Adds: true, Modifies: true},
		},
		{
			Name: "split_segment", Version: "v1", Category: CategoryStrategic, Dialect: model.DialectGraph,
			InputSchema: map[string]ParamSpec{
				"segment_id": {Type: "string", Required: true},
				"position":   {Type: "float", Required: true},
			},
			Handler: splitSegmentHandler(),
			Diff:    DiffMeta{Adds: true, Modifies: true},
		},
		{
			Name: "merge_segment", Version: "v1", Category: CategoryStrategic, Dialect: model.DialectGraph,
			InputSchema: map[string]ParamSpec{
				"first_segment_id":  {Type: "string", Required: true},
				"second_segment_id": {Type: "string", Required: true},
			},
			Handler: mergeSegmentHandler(),
			Diff:    DiffMeta{Removes: true, Modifies: true},
		},
		{
			Name: "toggle_instrumentation", Version: "v1", Category: CategoryTactical, Dialect: model.DialectGraph,
			InputSchema: map[string]ParamSpec{
				"function_id": {Type: "string", Required: true},
				"enabled":     {Type: "bool", Required: true},
			},
			Handler: toggleInstrumentationHandler(),
			Diff:    DiffMeta{Modifies: true},
		},
		{
			Name: "add_control_loop", Version: "v1", Category: CategoryStrategic, Dialect: model.DialectGraph,
			InputSchema: map[string]ParamSpec{
				"tag":              {Type: "string", Required: true},
				"sensor_id":        {Type: "string", Required: true},
				"sensor_host_id":   {Type: "string"},
				"located_in_id":    {Type: "string"},
			},
			Handler: addControlLoopHandler(),
			Diff:    DiffMeta{Adds: true},
		},
		{
			Name: "remove_control_loop", Version: "v1", Category: CategoryStrategic, Dialect: model.DialectGraph,
			InputSchema: map[string]ParamSpec{
				"function_id": {Type: "string", Required: true},
			},
			Handler: removeControlLoopHandler(),
			Diff:    DiffMeta{Removes: true},
		},
		{
			Name: "update_stream_properties", Version: "v1", Category: CategoryTactical, Dialect: model.DialectLinear,
			InputSchema: map[string]ParamSpec{
				"stream_id": {Type: "string", Required: true},
				"tag":       {Type: "string"},
				"params":    {Type: "object"},
			},
			Handler: updateStreamPropertiesHandler(),
			Diff:    DiffMeta{Modifies: true},
		},
		{
			Name: "add_control_loop_linear", Version: "v1", Category: CategoryStrategic, Dialect: model.DialectLinear,
			InputSchema: map[string]ParamSpec{
				"unit_id": {Type: "string", Required: true},
				"kind":    {Type: "string", Required: true},
				"params":  {Type: "object"},
			},
			Handler: addControlHandler(),
			Diff:    DiffMeta{Adds: true},
		},
		{
			Name: "remove_control_loop_linear", Version: "v1", Category: CategoryStrategic, Dialect: model.DialectLinear,
			InputSchema: map[string]ParamSpec{
				"control_id": {Type: "string", Required: true},
			},
			Handler: removeControlHandler(),
			Diff:    DiffMeta{Removes: true},
		},
		{
			Name: "instantiate_template", Version: "v1", Category: CategoryStrategic, Dialect: model.DialectGraph,
			InputSchema: map[string]ParamSpec{
				"template_name": {Type: "string", Required: true},
				"params":        {Type: "object"},
			},
			Handler: instantiateTemplateHandler(reg),
			Diff:    DiffMeta{Adds: true},
		},
		{
			Name: "expand_linear_to_graph", Version: "v1", Category: CategoryUniversal, Dialect: model.DialectLinear,
			InputSchema: map[string]ParamSpec{
				"target_model_id": {Type: "string", Required: true},
			},
			Handler: expandToGraphHandler(reg),
			Diff:    DiffMeta{Adds: true},
		},
		{
			Name: "generalize_graph_to_linear", Version: "v1", Category: CategoryUniversal, Dialect: model.DialectGraph,
			InputSchema: map[string]ParamSpec{
				"target_model_id": {Type: "string", Required: true},
			},
			Handler: generalizeToLinearHandler(reg),
			Diff:    DiffMeta{},
		},
	}

	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// ConversionResult carries the produced model of a cross-dialect
// operation, returned under the result's "conversion" key next to
// target_model_id. Nothing installs it: neither the handler nor the
// Transaction Manager writes it into the Model Store (spec.md §4.4: the
// Conversion Engine produces a model, it does not mutate one in place).
type ConversionResult struct {
	Model model.Model
}

// ExpandLinearToGraphParams decodes the expand_linear_to_graph payload.
type ExpandLinearToGraphParams struct {
	TargetModelID string `mapstructure:"target_model_id"`
}

func expandToGraphHandler(reg *registry.Registry) Handler {
	return func(m model.Model, params map[string]any) (Result, error) {
		l, ok := m.(*model.LinearModel)
		if !ok {
			return Result{}, errs.New(errs.InvalidPayload, "expand_linear_to_graph applies only to the linear dialect")
		}
		var p ExpandLinearToGraphParams
		if err := DecodeParams(params, &p); err != nil {
			return Result{}, err
		}
		g, err := convert.Expand(l, reg, convert.ExpandOptions{})
		if err != nil {
			return Result{}, err
		}
		return Result{Data: map[string]any{
			"target_model_id": p.TargetModelID,
			"conversion":      &ConversionResult{Model: g},
		}}, nil
	}
}

// GeneralizeGraphToLinearParams decodes the generalize_graph_to_linear
// payload.
type GeneralizeGraphToLinearParams struct {
	TargetModelID string `mapstructure:"target_model_id"`
}

func generalizeToLinearHandler(reg *registry.Registry) Handler {
	return func(m model.Model, params map[string]any) (Result, error) {
		g, ok := m.(*model.GraphModel)
		if !ok {
			return Result{}, errs.New(errs.InvalidPayload, "generalize_graph_to_linear applies only to the graph dialect")
		}
		var p GeneralizeGraphToLinearParams
		if err := DecodeParams(params, &p); err != nil {
			return Result{}, err
		}
		l, err := convert.Generalize(g, reg)
		if err != nil {
			return Result{}, err
		}
		rendered, err := convert.Render(l, reg.FamilyAlias)
		if err != nil {
			return Result{}, err
		}
		return Result{Data: map[string]any{
			"target_model_id": p.TargetModelID,
			"rendered":        rendered,
			"conversion":      &ConversionResult{Model: l},
		}}, nil
	}
}
