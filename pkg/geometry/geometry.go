package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Position is a machine coordinate in source units.
type Position struct {
	X float64
	Y float64
	Z float64
}

func (p Position) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{p.X, p.Y, p.Z}
}

func FromVec3(v mgl64.Vec3) Position {
	return Position{X: v[0], Y: v[1], Z: v[2]}
}

// BoundingBox is an axis-aligned box grown one point at a time.
// The zero value is not empty; use NewBoundingBox.
type BoundingBox struct {
	Min Position
	Max Position
}

func NewBoundingBox() BoundingBox {
	inf := math.Inf(1)
	return BoundingBox{
		Min: Position{X: inf, Y: inf, Z: inf},
		Max: Position{X: -inf, Y: -inf, Z: -inf},
	}
}

// Empty reports whether no point has been added.
func (b BoundingBox) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

func (b *BoundingBox) Extend(p Position) {
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Min.Z = math.Min(b.Min.Z, p.Z)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
	b.Max.Z = math.Max(b.Max.Z, p.Z)
}

// Center is the per-axis midpoint. An empty box is centered on the origin.
func (b BoundingBox) Center() Position {
	if b.Empty() {
		return Position{}
	}
	return Position{
		X: (b.Min.X + b.Max.X) / 2,
		Y: (b.Min.Y + b.Max.Y) / 2,
		Z: (b.Min.Z + b.Max.Z) / 2,
	}
}

// Size is the per-axis extent. An empty box has zero size.
func (b BoundingBox) Size() Position {
	if b.Empty() {
		return Position{}
	}
	return Position{
		X: b.Max.X - b.Min.X,
		Y: b.Max.Y - b.Min.Y,
		Z: b.Max.Z - b.Min.Z,
	}
}

// MaxExtent is the largest of the three extents.
func (b BoundingBox) MaxExtent() float64 {
	s := b.Size()
	return math.Max(s.X, math.Max(s.Y, s.Z))
}
