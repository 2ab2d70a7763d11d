package model

// PhysicalQuantity is a Component.Attributes value carrying a physical
// measurement and its unit (spec.md §4.5 GenericAttributes: "Units are
// emitted for physical quantities"). Plain Go scalars (string/float64/
// int/bool) in Attributes map to the corresponding GenericAttribute
// Format directly; PhysicalQuantity is for the subset that also carries a
// unit.
type PhysicalQuantity struct {
	Value float64
	Unit  string
}

// LocalizedText is one language's rendering of a multi-language string
// attribute (spec.md §4.5: "multi-language strings emit one entry per
// language with a Language attribute"). A Component.Attributes value of
// type []LocalizedText produces one GenericAttribute per entry.
type LocalizedText struct {
	Text     string
	Language string
}

// EnumValue marks an attribute whose Format is "enum" rather than
// "string", distinguishing a closed-vocabulary value (e.g. a material
// grade code) from free text.
type EnumValue string
