package parser

import "strings"

// Code prefixes of the estimate classification taxonomy.
const (
	PrefixWork      = "ФЕР"  // labor, priced by five base components
	PrefixMaterial  = "ФССЦ" // material, priced by PZ, attached to the preceding work
	PrefixEquipment = "ФСЭМ" // machinery, counted only
)

// Kind is the classification of a Position by its code prefix.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindWork
	KindMaterial
	KindEquipment
)

func (k Kind) String() string {
	switch k {
	case KindWork:
		return "work"
	case KindMaterial:
		return "material"
	case KindEquipment:
		return "equipment"
	}
	return "unrecognized"
}

// Classify maps a position code to its kind. Prefixes are checked in the
// order work, material, equipment; the first match wins.
func Classify(code string) Kind {
	switch {
	case strings.HasPrefix(code, PrefixWork):
		return KindWork
	case strings.HasPrefix(code, PrefixMaterial):
		return KindMaterial
	case strings.HasPrefix(code, PrefixEquipment):
		return KindEquipment
	}
	return KindUnrecognized
}

// countsAsPosition reports whether a work or material code contributes to the
// position total. Codes carrying the equipment prefix never do.
func countsAsPosition(code string) bool {
	return !strings.HasPrefix(code, PrefixEquipment)
}
