package toolpath

import (
	"math"

	"gcodeview/pkg/geometry"
)

// Transform maps source coordinates to normalized display coordinates:
// (p - Center) * Scale, then Offset added to Z.
type Transform struct {
	Center geometry.Position
	Scale  float64
	Offset float64
}

func (t Transform) Apply(p geometry.Position) geometry.Position {
	return geometry.Position{
		X: (p.X - t.Center.X) * t.Scale,
		Y: (p.Y - t.Center.Y) * t.Scale,
		Z: (p.Z-t.Center.Z)*t.Scale + t.Offset,
	}
}

// NewTransform fits bounds to footprint. A box with no extent keeps a
// scale of 1.
func NewTransform(bounds geometry.BoundingBox, footprint, offset float64) Transform {
	t := Transform{
		Center: bounds.Center(),
		Scale:  1,
		Offset: offset,
	}
	if extent := bounds.MaxExtent(); extent > 0 && !math.IsInf(extent, 0) && footprint > 0 {
		t.Scale = footprint / extent
	}
	return t
}

// Normalize rewrites every batch vertex in place. It runs once per Toolpath;
// later calls return the transform already applied.
func (tp *Toolpath) Normalize(footprint, offset float64) Transform {
	if tp.normalized != nil {
		return *tp.normalized
	}
	t := NewTransform(tp.Bounds, footprint, offset)
	for _, batch := range tp.Batches {
		for i, v := range batch.Vertices {
			batch.Vertices[i] = t.Apply(v)
		}
	}
	tp.normalized = &t
	return t
}

// NormalizedBounds is Bounds after the normalizing transform. It is empty
// if the toolpath is.
func (tp *Toolpath) NormalizedBounds() geometry.BoundingBox {
	nb := geometry.NewBoundingBox()
	if tp.Bounds.Empty() || tp.normalized == nil {
		return nb
	}
	nb.Extend(tp.normalized.Apply(tp.Bounds.Min))
	nb.Extend(tp.normalized.Apply(tp.Bounds.Max))
	return nb
}
