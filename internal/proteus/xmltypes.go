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

import "encoding/xml"

// PlantModel is the document root (spec.md §4.5 "no default namespace").
type PlantModel struct {
	XMLName                     xml.Name           `xml:"PlantModel"`
	XSI                         string             `xml:"xmlns:xsi,attr"`
	SchemaLocation              string             `xml:"xsi:noNamespaceSchemaLocation,attr"`
	PlantInformation            PlantInformation   `xml:"PlantInformation"`
	Drawing                     *Drawing           `xml:"Drawing,omitempty"`
	Equipment                   []Equipment        `xml:"Equipment,omitempty"`
	PipingNetworkSystems        []PipingNetworkSystem        `xml:"PipingNetworkSystem,omitempty"`
	ProcessInstrumentationFunctions []ProcessInstrumentationFunction `xml:"ProcessInstrumentationFunction,omitempty"`
}

// PlantInformation carries document-level metadata (spec.md §4.5: required
// attributes SchemaVersion, OriginatingSystem, Date, Time, Is3D, Units,
// Discipline; UnitsOfMeasure is its child, never a PlantModel sibling).
type PlantInformation struct {
	SchemaVersion    string          `xml:"SchemaVersion,attr"`
	OriginatingSystem string         `xml:"OriginatingSystem,attr"`
	Date             string          `xml:"Date,attr"`
	Time             string          `xml:"Time,attr"`
	Is3D             bool            `xml:"Is3D,attr"`
	Units            string          `xml:"Units,attr"`
	Discipline       string          `xml:"Discipline,attr"`
	UnitsOfMeasure   *UnitsOfMeasure `xml:"UnitsOfMeasure,omitempty"`
}

// UnitsOfMeasure is PlantInformation's child element (spec.md §4.5).
// Export does not populate it, so exported documents omit the element.
type UnitsOfMeasure struct {
	Length string `xml:"Length,attr,omitempty"`
	Mass   string `xml:"Mass,attr,omitempty"`
	Time   string `xml:"Time,attr,omitempty"`
}

// Drawing is a direct PlantModel child with no intermediate wrapper
// (spec.md §4.5). Presentation is modelled as required and Extent as
// optional; the rest of its unbounded child sequence (Component/Curve/...)
// is out of scope for a headless exporter and is recorded as such in DESIGN.md.
type Drawing struct {
	Presentation Presentation `xml:"Presentation"`
	Extent       *Extent      `xml:"Extent,omitempty"`
}

// Presentation is Drawing's required first child.
type Presentation struct {
	Layer string `xml:"Layer,attr,omitempty"`
	Color string `xml:"Color,attr,omitempty"`
}

// Extent is Drawing's optional second child.
type Extent struct {
	MinX float64 `xml:"MinX,attr"`
	MinY float64 `xml:"MinY,attr"`
	MaxX float64 `xml:"MaxX,attr"`
	MaxY float64 `xml:"MaxY,attr"`
}

// ConnectionPoints lists a piping or equipment item's 1-based node
// indices. An item with zero ports must never carry this element (spec.md
// §4.5); the exporter enforces that at the call site, not here.
type ConnectionPoints struct {
	Nodes string `xml:"Nodes,attr"`
}

// Nozzle is an equipment item's port, exported 1-based.
type Nozzle struct {
	ID               string            `xml:"ID,attr"`
	TagName           string           `xml:"TagName,attr,omitempty"`
	Node             int               `xml:"Node,attr"`
	GenericAttributes *GenericAttributes `xml:"GenericAttributes,omitempty"`
}

// Equipment is a single exported equipment item (spec.md §4.5 export
// order step 1: "registers ids of items and their nozzles").
type Equipment struct {
	ID                string             `xml:"ID,attr"`
	ComponentClass    string             `xml:"ComponentClass,attr"`
	TagName           string             `xml:"TagName,attr,omitempty"`
	FlowIn            string             `xml:"FlowIn,attr,omitempty"`
	FlowOut           string             `xml:"FlowOut,attr,omitempty"`
	ConnectionPoints  *ConnectionPoints  `xml:"ConnectionPoints,omitempty"`
	Nozzles           []Nozzle           `xml:"Nozzle,omitempty"`
	GenericAttributes *GenericAttributes `xml:"GenericAttributes,omitempty"`
}

// PipingNetworkSystem groups PipingNetworkSegments (spec.md §4.5 export
// order step 2: "registers ids of piping systems, segments, and contained
// items").
type PipingNetworkSystem struct {
	ID       string                 `xml:"ID,attr"`
	TagName  string                 `xml:"TagName,attr,omitempty"`
	Segments []PipingNetworkSegment `xml:"PipingNetworkSegment,omitempty"`
}

// PipingNetworkSegment holds the PipingComponents of one Segment plus the
// Connections between them.
type PipingNetworkSegment struct {
	ID                string            `xml:"ID,attr"`
	Items             []PipingComponent `xml:"PipingComponent,omitempty"`
	Connections       []Connection      `xml:"Connection,omitempty"`
	GenericAttributes *GenericAttributes `xml:"GenericAttributes,omitempty"`
}

// PipingComponent is a single exported piping item (valve, pipe run,
// fitting, ...). Its ConnectionPoints are emitted before any Connection
// referencing it (spec.md §4.5 "emits their ConnectionPoints, then
// Connection elements referencing the ids just registered").
type PipingComponent struct {
	ID                string             `xml:"ID,attr"`
	ComponentClass    string             `xml:"ComponentClass,attr"`
	TagName           string             `xml:"TagName,attr,omitempty"`
	FlowIn            string             `xml:"FlowIn,attr,omitempty"`
	FlowOut           string             `xml:"FlowOut,attr,omitempty"`
	ConnectionPoints  *ConnectionPoints  `xml:"ConnectionPoints,omitempty"`
	GenericAttributes *GenericAttributes `xml:"GenericAttributes,omitempty"`
}

// Connection is an edge between two already-registered ids, expressed as
// 1-based FromNode/ToNode within each side's owning item.
type Connection struct {
	ID       string `xml:"ID,attr"`
	FromID   string `xml:"FromID,attr"`
	FromNode string `xml:"FromNode,attr"`
	ToID     string `xml:"ToID,attr"`
	ToNode   string `xml:"ToNode,attr"`
}

// ProcessSignalGeneratingFunction is a sensor (spec.md §4.5 export order
// step 3: "sensors first ... registering their ids").
type ProcessSignalGeneratingFunction struct {
	ID                string             `xml:"ID,attr"`
	ComponentClass    string             `xml:"ComponentClass,attr"`
	TagName           string             `xml:"TagName,attr,omitempty"`
	GenericAttributes *GenericAttributes `xml:"GenericAttributes,omitempty"`
}

// InformationFlow carries the "has logical start" (-> sensor) and "has
// logical end" (-> enclosing function) Associations (spec.md §4.5),
// emitted after the sensor it points to.
type InformationFlow struct {
	ID           string        `xml:"ID,attr"`
	Associations []Association `xml:"Association"`
}

// ProcessInstrumentationFunction is the enclosing instrumentation item
// (spec.md §4.5 export order step 3): its sensors and InformationFlows are
// emitted first, its own Associations ("is located in") last, after
// everything they reference.
type ProcessInstrumentationFunction struct {
	ID                string                            `xml:"ID,attr"`
	TagName           string                            `xml:"TagName,attr,omitempty"`
	Sensors           []ProcessSignalGeneratingFunction `xml:"ProcessSignalGeneratingFunction,omitempty"`
	InformationFlows  []InformationFlow                 `xml:"InformationFlow,omitempty"`
	GenericAttributes *GenericAttributes                `xml:"GenericAttributes,omitempty"`
	Associations      []Association                     `xml:"Association,omitempty"`
}

// Association is one of the three standard types from spec.md §4.5: "is
// located in", "has logical start", "has logical end".
type Association struct {
	Type   string `xml:"Type,attr"`
	ItemID string `xml:"ItemID,attr"`
}

// GenericAttributes is a named bag of GenericAttribute entries (spec.md
// §4.5: Set is either "DexpiAttributes" or "CustomAttributes").
type GenericAttributes struct {
	Set        string              `xml:"Set,attr"`
	Attributes []GenericAttribute `xml:"GenericAttribute"`
}

// GenericAttribute is one typed name/value pair. Units is only set for
// physical quantities; Language is only set on a multi-language string
// entry (spec.md §4.5).
type GenericAttribute struct {
	Name     string `xml:"Name,attr"`
	Format   string `xml:"Format,attr"`
	Value    string `xml:"Value,attr"`
	Units    string `xml:"Units,attr,omitempty"`
	Language string `xml:"Language,attr,omitempty"`
}
