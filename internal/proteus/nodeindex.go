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
	"strconv"
	"strings"

	"github.com/puran-water/dexpi-engine/internal/errs"
)

// toXMLNode converts a 0-based internal port index to the 1-based form
// the XML schema requires (spec.md §4.5 "conversion at the boundary is
// explicit").
func toXMLNode(index int) int {
	return index + 1
}

// connectionPointsFor builds a ConnectionPoints element listing every
// 1-based node of an item with portCount ports, or nil if portCount is
// zero — emitting an empty ConnectionPoints for a zero-node item is a
// fatal export error, never silently skipped (spec.md §4.5), so the
// caller must check portCount itself before deciding whether to call
// this at all (see mustConnectionPoints).
func connectionPointsFor(portCount int) *ConnectionPoints {
	if portCount == 0 {
		return nil
	}
	nodes := make([]string, portCount)
	for i := 0; i < portCount; i++ {
		nodes[i] = strconv.Itoa(toXMLNode(i))
	}
	return &ConnectionPoints{Nodes: strings.Join(nodes, ",")}
}

// mustConnectionPoints is connectionPointsFor's fail-loud counterpart: it
// is an error to ask for ConnectionPoints on a zero-node item at all
// (spec.md §4.5 "attempting to do so is an error"), as opposed to simply
// having none to emit.
func mustConnectionPoints(itemID string, portCount int) (*ConnectionPoints, error) {
	if portCount == 0 {
		return nil, errs.Newf(errs.ValidationFailed, "item %q has zero ports; Nodes must be one or more xsd:positiveInteger (>= 1) values, so it must not emit a ConnectionPoints element", itemID).
			WithDetail("element", "ConnectionPoints").
			WithDetail("xpath", "//*[@ID='"+itemID+"']/ConnectionPoints")
	}
	return connectionPointsFor(portCount), nil
}

// validateFlowNodes parses a comma-separated FlowIn/FlowOut attribute
// value and checks each entry is a positive integer within [1, portCount]
// (spec.md §4.5: "validated to be positive integers within the node count
// of the owning item; comma-separated multi-valued forms are validated
// element-wise").
func validateFlowNodes(itemID, attr, value string, portCount int) error {
	if value == "" {
		return nil
	}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > portCount {
			return errs.Newf(errs.ValidationFailed, "item %q attribute %s has invalid node value %q (must be an xsd:positiveInteger (>= 1) within [1,%d])", itemID, attr, part, portCount).
				WithDetail("attribute", attr).
				WithDetail("xpath", "//*[@ID='"+itemID+"']").
				WithDetail("value", part)
		}
	}
	return nil
}

// flowNodesFromIndices renders a set of 0-based port indices as the
// 1-based, comma-separated FlowIn/FlowOut attribute form.
func flowNodesFromIndices(indices []int) string {
	if len(indices) == 0 {
		return ""
	}
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(toXMLNode(idx))
	}
	return strings.Join(parts, ",")
}
