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

package proteus

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/puran-water/dexpi-engine/internal/errs"
	"github.com/puran-water/dexpi-engine/internal/model"
	"github.com/puran-water/dexpi-engine/internal/registry"
)

// ExportOptions carries the document-level metadata spec.md §4.5 requires
// on PlantInformation. Date/Time are taken as already-formatted ISO
// strings rather than stamped internally, so a given model always
// exports to byte-identical output (spec.md §8 idempotence law) and so
// tests never depend on wall-clock time.
type ExportOptions struct {
	SchemaVersion     string
	OriginatingSystem string
	Date              string
	Time              string
	Is3D              bool
	Units             string
	Discipline        string
	SchemaLocation    string
}

func (o ExportOptions) withDefaults() ExportOptions {
	if o.SchemaVersion == "" {
		o.SchemaVersion = "4.2"
	}
	if o.SchemaLocation == "" {
		o.SchemaLocation = "Proteus Schema.xsd"
	}
	return o
}

// Exporter walks a GraphModel once per Export call, owning the IDRegistry
// for that single run (spec.md §4.5: the id registry is exporter-internal
// and per-document, never shared across exports or with internal/model's
// own id counters).
type Exporter struct {
	reg *registry.Registry
}

// NewExporter binds an Exporter to the Component Registry it uses to
// classify each component's family/category.
func NewExporter(reg *registry.Registry) *Exporter {
	return &Exporter{reg: reg}
}

// Export serializes g to a Proteus XML 4.2 document in the strict order
// spec.md §4.5 requires: Equipment, then Piping, then Instrumentation.
func (ex *Exporter) Export(g *model.GraphModel, opts ExportOptions) ([]byte, error) {
	opts = opts.withDefaults()
	ids := NewIDRegistry()

	pm := &PlantModel{
		XSI:            "http://www.w3.org/2001/XMLSchema-instance",
		SchemaLocation: opts.SchemaLocation,
		PlantInformation: PlantInformation{
			SchemaVersion:     opts.SchemaVersion,
			OriginatingSystem: opts.OriginatingSystem,
			Date:              opts.Date,
			Time:              opts.Time,
			Is3D:              opts.Is3D,
			Units:             opts.Units,
			Discipline:        opts.Discipline,
		},
		Drawing: &Drawing{Presentation: Presentation{Layer: "0"}},
	}

	equipment, err := ex.exportEquipment(g, ids)
	if err != nil {
		return nil, err
	}
	pm.Equipment = equipment

	piping, err := ex.exportPiping(g, ids)
	if err != nil {
		return nil, err
	}
	pm.PipingNetworkSystems = piping

	instr, err := ex.exportInstrumentation(g, ids)
	if err != nil {
		return nil, err
	}
	pm.ProcessInstrumentationFunctions = instr

	if err := Validate(pm, ids); err != nil {
		return nil, err
	}

	body, err := xml.MarshalIndent(pm, "", "  ")
	if err != nil {
		return nil, errs.Wrap(errs.XSDInvalid, "marshalling Proteus document", err)
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(body)
	return buf.Bytes(), nil
}

// exportEquipment is export order step 1 (spec.md §4.5: "registers ids of
// items and their nozzles").
func (ex *Exporter) exportEquipment(g *model.GraphModel, ids *IDRegistry) ([]Equipment, error) {
	var out []Equipment
	for _, c := range g.Components() {
		desc, err := ex.reg.Describe(c.Kind)
		if err != nil {
			return nil, err
		}
		if desc.Family != model.FamilyEquipment {
			continue
		}

		id := ids.Assign(c.ID, idPrefix(desc))
		e := Equipment{ID: id, ComponentClass: string(c.Kind), TagName: c.Tag}

		if len(c.Ports) > 0 {
			cp, err := mustConnectionPoints(c.ID, len(c.Ports))
			if err != nil {
				return nil, err
			}
			e.ConnectionPoints = cp
			e.Nozzles = make([]Nozzle, len(c.Ports))
			for i, p := range c.Ports {
				nozzleID := fmt.Sprintf("%s-N%d", id, toXMLNode(p.Index))
				ids.Reserve(nozzleID)
				e.Nozzles[i] = Nozzle{ID: nozzleID, TagName: p.Name, Node: toXMLNode(p.Index)}
			}
		}

		if err := ex.setFlowAttrs(g, c, len(c.Ports), &e.FlowIn, &e.FlowOut); err != nil {
			return nil, err
		}

		e.GenericAttributes = buildGenericAttributes("DexpiAttributes", c.Attributes)
		out = append(out, e)
	}
	return out, nil
}

// exportPiping is export order step 2 (spec.md §4.5: "registers ids of
// piping systems, segments, and contained items; emits their
// ConnectionPoints, then Connection elements referencing the ids just
// registered").
func (ex *Exporter) exportPiping(g *model.GraphModel, ids *IDRegistry) ([]PipingNetworkSystem, error) {
	itemCache := map[string]PipingComponent{}

	pipingItem := func(c *model.Component) (PipingComponent, error) {
		if pc, ok := itemCache[c.ID]; ok {
			return pc, nil
		}
		desc, err := ex.reg.Describe(c.Kind)
		if err != nil {
			return PipingComponent{}, err
		}
		id := ids.Assign(c.ID, idPrefix(desc))
		pc := PipingComponent{ID: id, ComponentClass: string(c.Kind), TagName: c.Tag}
		if len(c.Ports) > 0 {
			cp, err := mustConnectionPoints(c.ID, len(c.Ports))
			if err != nil {
				return PipingComponent{}, err
			}
			pc.ConnectionPoints = cp
		}
		if err := ex.setFlowAttrs(g, c, len(c.Ports), &pc.FlowIn, &pc.FlowOut); err != nil {
			return PipingComponent{}, err
		}
		pc.GenericAttributes = buildGenericAttributes("DexpiAttributes", c.Attributes)
		itemCache[c.ID] = pc
		return pc, nil
	}

	var systems []PipingNetworkSystem
	for _, net := range g.Networks() {
		sys := PipingNetworkSystem{ID: ids.Assign("network:"+net.ID, registry.CategoryPrefix(model.CategoryPipe))}
		for _, segID := range net.SegmentIDs {
			seg, ok := g.Segment(segID)
			if !ok {
				continue
			}
			pipingSeg := PipingNetworkSegment{ID: ids.Assign("segment:"+seg.ID, registry.CategoryPrefix(model.CategoryPipe))}

			seen := map[string]bool{}
			for _, connID := range seg.ConnectionIDs {
				conn, ok := g.Connection(connID)
				if !ok {
					continue
				}
				for _, itemID := range []string{conn.SourceItem, conn.TargetItem} {
					if seen[itemID] {
						continue
					}
					c, ok := g.Component(itemID)
					if !ok {
						continue
					}
					desc, err := ex.reg.Describe(c.Kind)
					if err != nil {
						return nil, err
					}
					if desc.Family != model.FamilyPiping {
						continue
					}
					pc, err := pipingItem(c)
					if err != nil {
						return nil, err
					}
					pipingSeg.Items = append(pipingSeg.Items, pc)
					seen[itemID] = true
				}
			}

			for _, connID := range seg.ConnectionIDs {
				conn, ok := g.Connection(connID)
				if !ok {
					continue
				}
				xconn, err := ex.exportConnection(g, ids, conn)
				if err != nil {
					return nil, err
				}
				pipingSeg.Connections = append(pipingSeg.Connections, xconn)
			}

			sys.Segments = append(sys.Segments, pipingSeg)
		}
		systems = append(systems, sys)
	}
	return systems, nil
}

// exportConnection resolves a Connection's endpoints through ids,
// validating both are already registered (spec.md §4.5 ValidateReference)
// before converting ports to the 1-based XML form.
func (ex *Exporter) exportConnection(g *model.GraphModel, ids *IDRegistry, conn *model.Connection) (Connection, error) {
	fromID, ok := ids.IDFor(conn.SourceItem)
	if !ok {
		return Connection{}, errs.Newf(errs.ReferenceUndefined, "connection %q source %q was never registered for export", conn.ID, conn.SourceItem)
	}
	toID, ok := ids.IDFor(conn.TargetItem)
	if !ok {
		return Connection{}, errs.Newf(errs.ReferenceUndefined, "connection %q target %q was never registered for export", conn.ID, conn.TargetItem)
	}
	if err := ids.ValidateReference(fromID, "//Connection[@ID='"+conn.ID+"']", "FromID"); err != nil {
		return Connection{}, err
	}
	if err := ids.ValidateReference(toID, "//Connection[@ID='"+conn.ID+"']", "ToID"); err != nil {
		return Connection{}, err
	}
	connID := ids.Assign("connection:"+conn.ID, "CON")
	return Connection{
		ID:       connID,
		FromID:   fromID,
		FromNode: fmt.Sprintf("%d", toXMLNode(conn.SourcePort)),
		ToID:     toID,
		ToNode:   fmt.Sprintf("%d", toXMLNode(conn.TargetPort)),
	}, nil
}

// exportInstrumentation is export order step 3 (spec.md §4.5: "sensors
// first ... then InformationFlow elements ... then Associations on the
// enclosing ProcessInstrumentationFunction").
func (ex *Exporter) exportInstrumentation(g *model.GraphModel, ids *IDRegistry) ([]ProcessInstrumentationFunction, error) {
	var out []ProcessInstrumentationFunction
	for _, f := range g.InstrumentationFunctions() {
		funcID := ids.Assign(f.ID, registry.CategoryPrefix(model.CategoryControlLoop))
		pif := ProcessInstrumentationFunction{ID: funcID, TagName: f.Tag}

		sensorExportID := map[string]string{}
		for _, sensorID := range f.SensorIDs {
			c, ok := g.Component(sensorID)
			if !ok {
				return nil, errs.Newf(errs.ReferenceUndefined, "instrumentation function %q sensor %q not found", f.ID, sensorID)
			}
			desc, err := ex.reg.Describe(c.Kind)
			if err != nil {
				return nil, err
			}
			id := ids.Assign(c.ID, idPrefix(desc))
			sensorExportID[c.ID] = id
			pif.Sensors = append(pif.Sensors, ProcessSignalGeneratingFunction{
				ID:                id,
				ComponentClass:    string(c.Kind),
				TagName:           c.Tag,
				GenericAttributes: buildGenericAttributes("DexpiAttributes", c.Attributes),
			})
		}

		for _, line := range f.SignalLines {
			sensorID, ok := sensorExportID[line.FromSensor]
			if !ok {
				return nil, errs.Newf(errs.ReferenceUndefined, "instrumentation function %q signal line %q references unregistered sensor %q", f.ID, line.ID, line.FromSensor)
			}
			flowID := ids.Assign("flow:"+line.ID, "INF")
			pif.InformationFlows = append(pif.InformationFlows, InformationFlow{
				ID: flowID,
				Associations: []Association{
					{Type: "has logical start", ItemID: sensorID},
					{Type: "has logical end", ItemID: funcID},
				},
			})
		}

		for _, a := range f.Associations {
			targetID, ok := ids.IDFor(a.ToID)
			if !ok {
				return nil, errs.Newf(errs.ReferenceUndefined, "instrumentation function %q association %q target %q was never registered for export", f.ID, a.Type, a.ToID)
			}
			if err := ids.ValidateReference(targetID, "//ProcessInstrumentationFunction[@ID='"+funcID+"']/Association", "ItemID"); err != nil {
				return nil, err
			}
			pif.Associations = append(pif.Associations, Association{Type: a.Type, ItemID: targetID})
		}

		out = append(out, pif)
	}
	return out, nil
}

// setFlowAttrs computes and validates FlowIn/FlowOut for a component
// against the Connections already in g (spec.md §4.5 node index
// semantics), writing the rendered attribute strings into in/out.
func (ex *Exporter) setFlowAttrs(g *model.GraphModel, c *model.Component, portCount int, in, out *string) error {
	inIdx, outIdx := flowIndices(g, c.ID)
	if v := flowNodesFromIndices(inIdx); v != "" {
		if err := validateFlowNodes(c.ID, "FlowIn", v, portCount); err != nil {
			return err
		}
		*in = v
	}
	if v := flowNodesFromIndices(outIdx); v != "" {
		if err := validateFlowNodes(c.ID, "FlowOut", v, portCount); err != nil {
			return err
		}
		*out = v
	}
	return nil
}

// flowIndices returns componentID's incoming (target-side) and outgoing
// (source-side) 0-based port indices across every Connection in g, each
// deduplicated and sorted ascending.
func flowIndices(g *model.GraphModel, componentID string) (in, out []int) {
	inSet, outSet := map[int]bool{}, map[int]bool{}
	for _, conn := range g.Connections() {
		if conn.TargetItem == componentID {
			inSet[conn.TargetPort] = true
		}
		if conn.SourceItem == componentID {
			outSet[conn.SourcePort] = true
		}
	}
	for idx := range inSet {
		in = append(in, idx)
	}
	for idx := range outSet {
		out = append(out, idx)
	}
	sort.Ints(in)
	sort.Ints(out)
	return in, out
}
