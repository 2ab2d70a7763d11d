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
	"fmt"

	"github.com/puran-water/dexpi-engine/internal/errs"
)

// Validate runs a final structural pass over a fully-built PlantModel,
// the closest approximation of spec.md §4.5's "validated against the
// XSD; failures are reported with element, attribute, and XPath" that is
// reachable without a schema-validation library (none appears anywhere in
// the retrieval pack — see DESIGN.md). Every check here is cheap and
// local: reference integrity is already enforced as each element is
// built (ValidateReference); this pass re-checks the whole document:
// required PlantInformation attributes, connection points, and that every
// exported id and Connection endpoint is registered, among the checks below.
func Validate(pm *PlantModel, ids *IDRegistry) error {
	if err := validatePlantInformation(pm.PlantInformation); err != nil {
		return err
	}
	for _, e := range pm.Equipment {
		if err := validateConnectionPoints("Equipment", e.ID, e.ConnectionPoints); err != nil {
			return err
		}
		if err := validateReferenced(ids, "Equipment", e.ID); err != nil {
			return err
		}
	}
	for _, sys := range pm.PipingNetworkSystems {
		for _, seg := range sys.Segments {
			for _, item := range seg.Items {
				if err := validateConnectionPoints("PipingComponent", item.ID, item.ConnectionPoints); err != nil {
					return err
				}
			}
			for _, conn := range seg.Connections {
				if err := validateReferenced(ids, "Connection/@FromID", conn.FromID); err != nil {
					return err
				}
				if err := validateReferenced(ids, "Connection/@ToID", conn.ToID); err != nil {
					return err
				}
			}
		}
	}
	for _, pif := range pm.ProcessInstrumentationFunctions {
		for _, a := range pif.Associations {
			if err := validateReferenced(ids, "ProcessInstrumentationFunction/Association", a.ItemID); err != nil {
				return err
			}
		}
		for _, flow := range pif.InformationFlows {
			if len(flow.Associations) != 2 {
				return errs.Newf(errs.XSDInvalid, "InformationFlow %q must carry exactly 2 Associations (has logical start, has logical end), has %d", flow.ID, len(flow.Associations)).
					WithDetail("element", "InformationFlow").
					WithDetail("xpath", "//InformationFlow[@ID='"+flow.ID+"']")
			}
		}
	}
	return nil
}

func validatePlantInformation(pi PlantInformation) error {
	required := map[string]string{
		"SchemaVersion":     pi.SchemaVersion,
		"OriginatingSystem": pi.OriginatingSystem,
		"Date":              pi.Date,
		"Time":              pi.Time,
		"Units":             pi.Units,
		"Discipline":        pi.Discipline,
	}
	for attr, val := range required {
		if val == "" {
			return errs.Newf(errs.XSDInvalid, "PlantInformation@%s is required and was empty", attr).
				WithDetail("element", "PlantInformation").
				WithDetail("attribute", attr).
				WithDetail("xpath", "/PlantModel/PlantInformation")
		}
	}
	return nil
}

func validateConnectionPoints(element, id string, cp *ConnectionPoints) error {
	if cp == nil {
		return nil
	}
	if cp.Nodes == "" {
		return errs.Newf(errs.XSDInvalid, "%s %q emits an empty ConnectionPoints/@Nodes", element, id).
			WithDetail("element", element).
			WithDetail("attribute", "Nodes").
			WithDetail("xpath", fmt.Sprintf("//%s[@ID='%s']/ConnectionPoints", element, id))
	}
	return nil
}

func validateReferenced(ids *IDRegistry, xpath, id string) error {
	return ids.ValidateReference(id, xpath, "ID")
}
