package toolpath_test

import (
	"math"
	"strings"
	"testing"

	"gcodeview/pkg/gcode"
	"gcodeview/pkg/geometry"
	"gcodeview/pkg/toolpath"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approx = cmp.Comparer(func(x, y float64) bool {
	return math.Abs(x-y) < 1e-9
})

const threeLayers = `G1 Z0.2
G1 X10 E1
G1 Z0.4
G1 X20 E2
G1 Z0.6
G1 X30 E3
`

func TestBatchPerLayer(t *testing.T) {
	tp := toolpath.Build(gcode.Interpret(threeLayers))

	assert.Equal(t, 2, tp.MaxLayer)
	assert.Equal(t, 6, tp.Segments)
	require.GreaterOrEqual(t, len(tp.Batches), 3)

	layers := map[int]bool{}
	for _, b := range tp.Batches {
		layers[b.Layer] = true
	}
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true}, layers)
}

func TestEverySegmentInOneBatch(t *testing.T) {
	src := strings.Join([]string{
		";TYPE:WALL-OUTER",
		"G1 Z0.2",
		"G1 X10 E1",
		"G1 Y10 E2",
		";TYPE:FILL",
		"G1 X0 E3",
		"G0 X5 Y5",
		"G1 Z0.4",
		";TYPE:WALL-OUTER",
		"G1 X10 E4",
	}, "\n")
	segs := gcode.Interpret(src)
	tp := toolpath.Build(segs)

	total := 0
	for _, b := range tp.Batches {
		total += b.Segments()
		assert.Same(t, b, tp.Batch(b.Key))
	}
	assert.Equal(t, len(segs), total)

	want := []toolpath.Key{
		{Feature: gcode.Travel, Layer: 0},
		{Feature: gcode.OuterWall, Layer: 0},
		{Feature: gcode.Infill, Layer: 0},
		{Feature: gcode.Travel, Layer: 1},
		{Feature: gcode.OuterWall, Layer: 1},
	}
	var got []toolpath.Key
	for _, b := range tp.Batches {
		got = append(got, b.Key)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("incorrect batch keys: %s", diff)
	}

	assert.True(t, tp.Batch(toolpath.Key{Feature: gcode.Travel, Layer: 0}).DefaultHidden)
	assert.False(t, tp.Batch(toolpath.Key{Feature: gcode.OuterWall, Layer: 0}).DefaultHidden)
	assert.Nil(t, tp.Batch(toolpath.Key{Feature: gcode.Skin, Layer: 0}))
}

func TestEmptyToolpath(t *testing.T) {
	tp := toolpath.Build(gcode.Interpret(""))
	assert.Empty(t, tp.Batches)
	assert.Equal(t, 0, tp.MaxLayer)
	assert.True(t, tp.Bounds.Empty())

	var tr toolpath.Transform
	assert.NotPanics(t, func() { tr = tp.Normalize(50, 3) })
	assert.Equal(t, 1.0, tr.Scale)
	assert.True(t, tp.NormalizedBounds().Empty())
	assert.Nil(t, toolpath.NewIndex(tp))
}

func TestSinglePointScale(t *testing.T) {
	tp := toolpath.Build(gcode.Interpret("G1 X5 Y5 Z1\nG1 E1\n"))
	tr := tp.Normalize(50, 3)
	assert.Equal(t, 1.0, tr.Scale)
	for _, b := range tp.Batches {
		for _, v := range b.Vertices {
			assert.False(t, math.IsNaN(v.X) || math.IsInf(v.X, 0))
		}
	}
}

func TestNormalizeFitsFootprint(t *testing.T) {
	src := strings.Join([]string{
		";TYPE:WALL-OUTER",
		"G1 X100 Y0 E1",
		"G1 X100 Y50 E2",
		"G1 X0 Y50 Z20 E3",
		"G1 X0 Y0 E4",
	}, "\n")
	tp := toolpath.Build(gcode.Interpret(src))
	want := geometry.BoundingBox{
		Min: geometry.Position{X: 0, Y: 0, Z: 0},
		Max: geometry.Position{X: 100, Y: 50, Z: 20},
	}
	if diff := cmp.Diff(want, tp.Bounds, approx); diff != "" {
		t.Fatalf("incorrect bounds: %s", diff)
	}

	const footprint = 50.0
	tr := tp.Normalize(footprint, 3)
	assert.InDelta(t, 0.5, tr.Scale, 1e-12)

	nb := tp.NormalizedBounds()
	assert.InDelta(t, footprint, nb.MaxExtent(), 1e-9)
	assert.InDelta(t, footprint, nb.Size().X, 1e-9)

	var sumX, sumY float64
	n := 0
	for _, b := range tp.Batches {
		for _, v := range b.Vertices {
			sumX += v.X
			sumY += v.Y
			n++
		}
	}
	require.NotZero(t, n)
	assert.InDelta(t, 0, sumX/float64(n), 1e-9)
	assert.InDelta(t, 0, sumY/float64(n), 1e-9)
	assert.InDelta(t, 3-5, nb.Min.Z, 1e-9)
}

func TestNormalizeOnce(t *testing.T) {
	tp := toolpath.Build(gcode.Interpret(";TYPE:SKIN\nG1 X10 Y4 Z2 E1\n"))
	first := tp.Normalize(50, 3)
	var before []geometry.Position
	for _, b := range tp.Batches {
		before = append(before, b.Vertices...)
	}
	second := tp.Normalize(50, 3)
	var after []geometry.Position
	for _, b := range tp.Batches {
		after = append(after, b.Vertices...)
	}
	assert.Equal(t, first, second)
	assert.Equal(t, before, after)
}

func TestTravelOnlyStillFramed(t *testing.T) {
	tp := toolpath.Build(gcode.Interpret("G0 X10 Y10\nG0 X20 Y30\n"))
	assert.False(t, tp.Bounds.Empty())
	assert.Equal(t, geometry.Position{X: 20, Y: 30}, tp.Bounds.Max)
}

func TestIndexNear(t *testing.T) {
	src := strings.Join([]string{
		";TYPE:WALL-OUTER",
		"G1 Z0.2",
		"G1 X10 Y0 E1",
		"G1 X10 Y10 E2",
		"G1 Z0.4",
		"G1 X0 Y10 E3",
		"G0 X50 Y50",
	}, "\n")
	tp := toolpath.Build(gcode.Interpret(src))
	idx := toolpath.NewIndex(tp)
	require.NotNil(t, idx)

	near := idx.Near(10, 10, 0.5, 0)
	require.Len(t, near, 1)
	assert.Equal(t, geometry.Position{X: 10, Y: 10, Z: 0.2}, near[0].End)

	anyLayer := idx.Near(10, 10, 0.5, -1)
	assert.Len(t, anyLayer, 2)

	assert.Empty(t, idx.Near(50, 50, 1, -1), "travel moves are not indexed")
	assert.Empty(t, idx.Near(5, 5, 1, -1))

	var nilIndex *toolpath.Index
	assert.Nil(t, nilIndex.Near(0, 0, 1, -1))
}
