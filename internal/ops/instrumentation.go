package ops

import (
	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
)

// ToggleInstrumentationParams decodes the toggle_instrumentation payload.
type ToggleInstrumentationParams struct {
	FunctionID string `mapstructure:"function_id"`
	Enabled    bool   `mapstructure:"enabled"`
}

func toggleInstrumentationHandler() Handler {
	return func(m model.Model, params map[string]any) (Result, error) {
		g, ok := m.(*model.GraphModel)
		if !ok {
			return Result{}, errs.New(errs.InvalidPayload, "toggle_instrumentation applies only to the graph dialect")
		}
		var p ToggleInstrumentationParams
		if err := DecodeParams(params, &p); err != nil {
			return Result{}, err
		}
		if err := g.SetInstrumentationEnabled(p.FunctionID, p.Enabled); err != nil {
			return Result{}, err
		}
		return Result{Data: map[string]any{"function_id": p.FunctionID, "enabled": p.Enabled}}, nil
	}
}

// AddControlLoopParams decodes the add_control_loop payload for the graph
// dialect: a sensor located on an item, reporting into a function via a
// signal line, with an optional "is located in" association for the
// function itself (e.g. on the actuated valve).
type AddControlLoopParams struct {
	FunctionID   string `mapstructure:"function_id"`
	Tag          string `mapstructure:"tag"`
	SensorID     string `mapstructure:"sensor_id"`
	SensorHostID string `mapstructure:"sensor_host_id"`
	LocatedInID  string `mapstructure:"located_in_id"`
}

func addControlLoopHandler() Handler {
	return func(m model.Model, params map[string]any) (Result, error) {
		g, ok := m.(*model.GraphModel)
		if !ok {
			return Result{}, errs.New(errs.InvalidPayload, "add_control_loop applies only to the graph dialect")
		}
		var p AddControlLoopParams
		if err := DecodeParams(params, &p); err != nil {
			return Result{}, err
		}
		f := &model.InstrumentationFunction{
			ID:        g.NextID("IFN"),
			Tag:       p.Tag,
			Enabled:   true,
			SensorIDs: []string{p.SensorID},
		}
		if p.SensorHostID != "" {
			f.Associations = append(f.Associations, model.Association{
				Type: "is located in", FromID: p.SensorID, ToID: p.SensorHostID,
			})
		}
		if p.LocatedInID != "" {
			f.Associations = append(f.Associations, model.Association{
				Type: "is located in", FromID: f.ID, ToID: p.LocatedInID,
			})
		}
		f.SignalLines = append(f.SignalLines, model.SignalLine{
			ID: g.NextID("SGL"), FromSensor: p.SensorID, ToFunction: f.ID,
		})
		if err := g.AddInstrumentationFunction(f); err != nil {
			return Result{}, err
		}
		return Result{Data: map[string]any{"function_id": f.ID}}, nil
	}
}

// RemoveControlLoopParams decodes the remove_control_loop payload for the
// graph dialect.
type RemoveControlLoopParams struct {
	FunctionID string `mapstructure:"function_id"`
}

func removeControlLoopHandler() Handler {
	return func(m model.Model, params map[string]any) (Result, error) {
		g, ok := m.(*model.GraphModel)
		if !ok {
			return Result{}, errs.New(errs.InvalidPayload, "remove_control_loop applies only to the graph dialect")
		}
		var p RemoveControlLoopParams
		if err := DecodeParams(params, &p); err != nil {
			return Result{}, err
		}
		if err := g.RemoveInstrumentationFunction(p.FunctionID); err != nil {
			return Result{}, err
		}
		return Result{Data: map[string]any{"function_id": p.FunctionID}}, nil
	}
}

// UpdateStreamPropertiesParams decodes the update_stream_properties
// payload (linear dialect only, spec.md §4.2).
type UpdateStreamPropertiesParams struct {
	StreamID string            `mapstructure:"stream_id"`
	Tag      string            `mapstructure:"tag"`
	Params   map[string]string `mapstructure:"params"`
}

func updateStreamPropertiesHandler() Handler {
	return func(m model.Model, params map[string]any) (Result, error) {
		l, ok := m.(*model.LinearModel)
		if !ok {
			return Result{}, errs.New(errs.InvalidPayload, "update_stream_properties applies only to the linear dialect")
		}
		var p UpdateStreamPropertiesParams
		if err := DecodeParams(params, &p); err != nil {
			return Result{}, err
		}
		if err := l.UpdateStreamProperties(p.StreamID, p.Tag, p.Params); err != nil {
			return Result{}, err
		}
		return Result{Data: map[string]any{"stream_id": p.StreamID}}, nil
	}
}

// AddControlParams decodes the linear-dialect add_control_loop payload.
type AddControlParams struct {
	UnitID string            `mapstructure:"unit_id"`
	Kind   string            `mapstructure:"kind"`
	Params map[string]string `mapstructure:"params"`
}

func addControlHandler() Handler {
	return func(m model.Model, params map[string]any) (Result, error) {
		l, ok := m.(*model.LinearModel)
		if !ok {
			return Result{}, errs.New(errs.InvalidPayload, "this add_control_loop applies only to the linear dialect")
		}
		var p AddControlParams
		if err := DecodeParams(params, &p); err != nil {
			return Result{}, err
		}
		c := &model.Control{ID: p.UnitID + "-CTL-" + p.Kind, UnitID: p.UnitID, Kind: p.Kind, Params: p.Params}
		if err := l.AddControl(c); err != nil {
			return Result{}, err
		}
		return Result{Data: map[string]any{"control_id": c.ID}}, nil
	}
}

// RemoveControlParams decodes the linear-dialect remove_control_loop
// payload.
type RemoveControlParams struct {
	ControlID string `mapstructure:"control_id"`
}

func removeControlHandler() Handler {
	return func(m model.Model, params map[string]any) (Result, error) {
		l, ok := m.(*model.LinearModel)
		if !ok {
			return Result{}, errs.New(errs.InvalidPayload, "this remove_control_loop applies only to the linear dialect")
		}
		var p RemoveControlParams
		if err := DecodeParams(params, &p); err != nil {
			return Result{}, err
		}
		if err := l.RemoveControl(p.ControlID); err != nil {
			return Result{}, err
		}
		return Result{Data: map[string]any{"control_id": p.ControlID}}, nil
	}
}
