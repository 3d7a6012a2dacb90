package color

import (
	"gcodeview/pkg/gcode"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette is the base color of each feature type. Walls are reds, skin is
// blue, infill green, support orange, skirt purple, prime tower black and
// travel gray.
var Palette = map[gcode.FeatureType]colorful.Color{
	gcode.Travel:     {R: 0.5, G: 0.5, B: 0.5},
	gcode.OuterWall:  {R: 1.0, G: 0.0, B: 0.0},
	gcode.InnerWall:  {R: 1.0, G: 0.4, B: 0.4},
	gcode.Skin:       {R: 0.0, G: 0.0, B: 1.0},
	gcode.Infill:     {R: 0.0, G: 0.8, B: 0.0},
	gcode.Support:    {R: 1.0, G: 0.5, B: 0.0},
	gcode.Skirt:      {R: 0.5, G: 0.0, B: 0.5},
	gcode.PrimeTower: {R: 0.0, G: 0.0, B: 0.0},
}

// Base returns the palette color of f, falling back to the travel gray.
func Base(f gcode.FeatureType) colorful.Color {
	if c, ok := Palette[f]; ok {
		return c
	}
	return Palette[gcode.Travel]
}

// Brightness is the factor applied to a base color on the given layer. It
// starts at 0.7 on layer 0 and rises toward 1 as layers go up.
func Brightness(layer int) float64 {
	if layer < 0 {
		layer = 0
	}
	l := float64(layer)
	return 0.7 + 0.3*l/(l+5)
}

// Shade is the color a segment of feature f is drawn with on the given layer.
func Shade(f gcode.FeatureType, layer int) colorful.Color {
	c := Base(f)
	k := Brightness(layer)
	return colorful.Color{R: c.R * k, G: c.G * k, B: c.B * k}.Clamped()
}
