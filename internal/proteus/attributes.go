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
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/structs"

	"github.com/puran-water/dexpi-engine/internal/model"
)

// attributeName derives a GenericAttribute's Name from a Component
// attribute key by capitalising it and appending "AssignmentClass"
// (spec.md §4.5), e.g. "nominal_diameter" -> "NominalDiameterAssignmentClass".
func attributeName(key string) string {
	parts := strings.Split(key, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	b.WriteString("AssignmentClass")
	return b.String()
}

// buildGenericAttributes converts a Component's dynamic Attributes map
// into the set's deterministic GenericAttribute sequence (spec.md §4.5:
// "every data attribute ... that has a non-null value is emitted"). Keys
// are visited in sorted order so export output is stable (spec.md §8
// idempotence law).
func buildGenericAttributes(set string, attrs map[string]any) *GenericAttributes {
	if len(attrs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := &GenericAttributes{Set: set}
	for _, key := range keys {
		out.Attributes = append(out.Attributes, attributesFor(key, attrs[key])...)
	}
	if len(out.Attributes) == 0 {
		return nil
	}
	return out
}

// attributesFor expands a single attribute value into one or more
// GenericAttribute entries, dispatching on its static Go type the way
// spec.md §4.5 dispatches on "the attribute's static type". model.
// PhysicalQuantity and model.LocalizedText are read back via
// fatih/structs rather than direct field access, so a field added to
// either wrapper type later is picked up here without this switch
// changing.
func attributesFor(key string, value any) []GenericAttribute {
	name := attributeName(key)

	switch v := value.(type) {
	case nil:
		return nil
	case model.PhysicalQuantity:
		fields := structs.Map(&v)
		return []GenericAttribute{{
			Name:   name,
			Format: "double",
			Value:  formatFloat(fields["Value"].(float64)),
			Units:  fields["Unit"].(string),
		}}
	case []model.LocalizedText:
		out := make([]GenericAttribute, 0, len(v))
		for _, lt := range v {
			fields := structs.Map(&lt)
			out = append(out, GenericAttribute{
				Name:     name,
				Format:   "string",
				Value:    fields["Text"].(string),
				Language: fields["Language"].(string),
			})
		}
		return out
	case model.EnumValue:
		if v == "" {
			return nil
		}
		return []GenericAttribute{{Name: name, Format: "enum", Value: string(v)}}
	case string:
		if v == "" {
			return nil
		}
		return []GenericAttribute{{Name: name, Format: "string", Value: v}}
	case bool:
		return []GenericAttribute{{Name: name, Format: "boolean", Value: strconv.FormatBool(v)}}
	case int:
		return []GenericAttribute{{Name: name, Format: "integer", Value: strconv.Itoa(v)}}
	case float64:
		return []GenericAttribute{{Name: name, Format: "double", Value: formatFloat(v)}}
	default:
		return []GenericAttribute{{Name: name, Format: "string", Value: fmt.Sprintf("%v", v)}}
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
