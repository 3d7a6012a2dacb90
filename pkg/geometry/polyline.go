package geometry

import (
	"math"
)

// Point is a position on the screen, in pixels.
type Point struct {
	X float64
	Y float64
}

type LineSegment struct {
	A Point
	B Point
}

// Polyline is a connected run of points.
type Polyline []Point

func (a Point) Minus(b Point) Point {
	return Point{X: a.X - b.X, Y: a.Y - b.Y}
}

func (p Point) Magnitude() float64 {
	return math.Hypot(p.X, p.Y)
}

func (a Point) CrossProductZ(b Point) float64 {
	return a.X*b.Y - a.Y*b.X
}

// Distance returns the distance between two points.
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Distance returns the distance between a point and a line segment.
func (s LineSegment) Distance(p Point) float64 {
	AP := p.Minus(s.A)
	AB := s.B.Minus(s.A)
	mAB := AB.Magnitude()
	if mAB == 0 {
		return AP.Magnitude()
	}

	t := (AP.X*AB.X + AP.Y*AB.Y) / (mAB * mAB)
	if t <= 0 {
		return AP.Magnitude()
	}
	if t >= 1 {
		return p.Distance(s.B)
	}
	return math.Abs(AP.CrossProductZ(AB)) / mAB
}

// Simplify drops points that lie within epsilon of the line through their
// neighbours, using the Douglas-Peucker algorithm. The first and last points
// are always kept. A polyline of fewer than two points is returned as is.
func (points Polyline) Simplify(epsilon float64) Polyline {
	if len(points) <= 2 || epsilon <= 0 {
		return points
	}

	// find the point with the max distance from the chord between the first and last points
	firstPoint, lastPoint := points[0], points[len(points)-1]
	chord := LineSegment{A: firstPoint, B: lastPoint}

	dmax := 0.0
	index := 0
	for i := 1; i < len(points)-1; i++ {
		d := chord.Distance(points[i])
		if d > dmax {
			index = i
			dmax = d
		}
	}

	if dmax < epsilon {
		return Polyline{firstPoint, lastPoint}
	}

	left := points[:index+1].Simplify(epsilon)
	right := points[index:].Simplify(epsilon)

	out := make(Polyline, 0, len(left)+len(right)-1)
	out = append(out, left[:len(left)-1]...)
	return append(out, right...)
}
