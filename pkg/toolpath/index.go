package toolpath

import (
	"math"
	"sort"

	"gcodeview/pkg/gcode"

	"github.com/asim/quadtree"
)

var zeroPoint = quadtree.NewPoint(0, 0, nil)

// Index finds deposited segments by the XY position of their endpoints.
// Coordinates are in source units.
type Index struct {
	quadTree *quadtree.QuadTree
	segments []gcode.Segment
}

// NewIndex indexes the Deposited segments of tp. It returns nil when there
// is nothing to index.
func NewIndex(tp *Toolpath) *Index {
	if len(tp.Deposited) == 0 || tp.Bounds.Empty() {
		return nil
	}
	b := tp.Bounds
	midX := (b.Max.X + b.Min.X) / 2
	midY := (b.Max.Y + b.Min.Y) / 2

	// Add a small margin to avoid dropping points at the edges
	halfWidth := b.Max.X - midX + 10
	halfHeight := b.Max.Y - midY + 10

	aabb := quadtree.NewAABB(
		quadtree.NewPoint(midX, midY, nil),
		quadtree.NewPoint(halfWidth, halfHeight, nil))
	idx := &Index{
		quadTree: quadtree.New(aabb, 0, nil),
		segments: tp.Deposited,
	}
	for i, s := range idx.segments {
		idx.add(s.Start.X, s.Start.Y, i)
		if s.End.X != s.Start.X || s.End.Y != s.Start.Y {
			idx.add(s.End.X, s.End.Y, i)
		}
	}
	return idx
}

// add records segment i at (x, y). Points shared by several segments (every
// polyline vertex, and the same spot on different layers) hold one set.
func (idx *Index) add(x, y float64, i int) {
	point := quadtree.NewPoint(x, y, nil)
	points := idx.quadTree.KNearest(quadtree.NewAABB(point, zeroPoint), 1, nil)
	if len(points) > 0 {
		px, py := points[0].Coordinates()
		if px == x && py == y {
			set := points[0].Data().(map[int]struct{})
			set[i] = struct{}{}
			return
		}
	}
	idx.quadTree.Insert(quadtree.NewPoint(x, y, map[int]struct{}{i: {}}))
}

// Near returns segments on layer with an endpoint within radius of (x, y),
// nearest first. A negative layer matches every layer.
func (idx *Index) Near(x, y, radius float64, layer int) []gcode.Segment {
	if idx == nil || radius < 0 {
		return nil
	}
	aabb := quadtree.NewAABB(
		quadtree.NewPoint(x, y, nil),
		quadtree.NewPoint(radius, radius, nil),
	)
	seen := map[int]struct{}{}
	var found []int
	for _, point := range idx.quadTree.Search(aabb) {
		for i := range point.Data().(map[int]struct{}) {
			if _, dup := seen[i]; dup {
				continue
			}
			s := idx.segments[i]
			if layer >= 0 && s.Layer != layer {
				continue
			}
			if idx.distance(x, y, i) > radius {
				continue
			}
			seen[i] = struct{}{}
			found = append(found, i)
		}
	}

	sort.Slice(found, func(a, b int) bool {
		da, db := idx.distance(x, y, found[a]), idx.distance(x, y, found[b])
		if da != db {
			return da < db
		}
		return found[a] < found[b]
	})
	out := make([]gcode.Segment, len(found))
	for n, i := range found {
		out[n] = idx.segments[i]
	}
	return out
}

// distance from (x, y) to the nearer endpoint of segment i.
func (idx *Index) distance(x, y float64, i int) float64 {
	s := idx.segments[i]
	return math.Min(
		math.Hypot(s.Start.X-x, s.Start.Y-y),
		math.Hypot(s.End.X-x, s.End.Y-y),
	)
}
