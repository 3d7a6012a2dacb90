package gcode

import "strings"

// FeatureType is the structural role of a move.
type FeatureType int

const (
	Travel FeatureType = iota
	OuterWall
	InnerWall
	Skin
	Infill
	Support
	Skirt
	PrimeTower
)

// FeatureTypes lists every FeatureType in declaration order.
var FeatureTypes = []FeatureType{Travel, OuterWall, InnerWall, Skin, Infill, Support, Skirt, PrimeTower}

var featureNames = [...]string{
	Travel:     "travel",
	OuterWall:  "wall",
	InnerWall:  "wall-inner",
	Skin:       "skin",
	Infill:     "fill",
	Support:    "support",
	Skirt:      "skirt",
	PrimeTower: "prime",
}

func (f FeatureType) String() string {
	if f < 0 || int(f) >= len(featureNames) {
		return "unknown"
	}
	return featureNames[f]
}

// ParseFeatureType maps a feature name as produced by String back to its
// FeatureType. It is meant for host controls, not for slicer comments.
func ParseFeatureType(name string) (FeatureType, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range featureNames {
		if n == name {
			return FeatureType(i), true
		}
	}
	return Travel, false
}

// PrusaSlicer and friends spell their ;TYPE: names out in words.
var slicerTypeNames = map[string]FeatureType{
	"external perimeter":         OuterWall,
	"overhang perimeter":         OuterWall,
	"perimeter":                  InnerWall,
	"solid infill":               Skin,
	"top solid infill":           Skin,
	"bridge infill":              Skin,
	"ironing":                    Skin,
	"internal infill":            Infill,
	"gap fill":                   Infill,
	"support material":           Support,
	"support material interface": Support,
	"skirt/brim":                 Skirt,
	"skirt":                      Skirt,
	"brim":                       Skirt,
	"wipe tower":                 PrimeTower,
}

// classifyHint turns the text following "type:" into a FeatureType.
// Names that match nothing classify as Travel.
func classifyHint(hint string) FeatureType {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if f, ok := slicerTypeNames[hint]; ok {
		return f
	}
	switch {
	case strings.Contains(hint, "wall-outer"):
		return OuterWall
	case strings.Contains(hint, "wall-inner"):
		return InnerWall
	case strings.Contains(hint, "skin"):
		return Skin
	case strings.Contains(hint, "support"):
		// before "fill": Cura's support-infill is support
		return Support
	case strings.Contains(hint, "fill"):
		return Infill
	case strings.Contains(hint, "skirt"), strings.Contains(hint, "brim"):
		return Skirt
	case strings.Contains(hint, "prime"):
		return PrimeTower
	}
	return Travel
}
