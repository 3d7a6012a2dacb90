package render

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"
	"time"

	"gcodeview/pkg/cfg"
	"gcodeview/pkg/gcode"
	"gcodeview/pkg/geometry"
	"gcodeview/pkg/toolpath"
	"gcodeview/pkg/view"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approx = cmp.Comparer(func(x, y float64) bool {
	return math.Abs(x-y) < 1e-9
})

const square = `;TYPE:WALL-OUTER
G1 Z0.2
G1 X20 Y0 E1
G1 X20 Y20 E2
G1 X0 Y20 E3
G1 X0 Y0 E4
`

func buildScene(t *testing.T, src string) (*toolpath.Toolpath, Camera) {
	t.Helper()
	c := cfg.Default()
	tp := toolpath.Build(gcode.Interpret(src))
	tp.Normalize(c.TargetFootprint, c.VerticalOffset)
	return tp, Frame(tp.NormalizedBounds(), c, 4.0/3.0)
}

func TestDisplayRotationMakesZVertical(t *testing.T) {
	got := ToDisplay(geometry.Position{X: 1, Y: 2, Z: 3})
	if diff := cmp.Diff(mgl64.Vec3{1, 3, -2}, got, approx); diff != "" {
		t.Errorf("incorrect display position: %s", diff)
	}
}

func TestFrame(t *testing.T) {
	c := cfg.Default()
	bounds := geometry.BoundingBox{
		Min: geometry.Position{X: -25, Y: -10, Z: -2},
		Max: geometry.Position{X: 25, Y: 10, Z: 8},
	}
	cam := Frame(bounds, c, 2)

	pivot := mgl64.Vec3{0, 3, 0}
	if diff := cmp.Diff(pivot, cam.Target, approx); diff != "" {
		t.Errorf("incorrect pivot: %s", diff)
	}
	// 2 x largest extent (50) along (1, 0.8, 0.8)
	if diff := cmp.Diff(pivot.Add(mgl64.Vec3{100, 80, 80}), cam.Eye, approx); diff != "" {
		t.Errorf("incorrect eye: %s", diff)
	}
	assert.Equal(t, 2.0, cam.Aspect)
	assert.Equal(t, 20.0, cam.MinDistance)
	assert.Equal(t, 200.0, cam.MaxDistance)
}

func TestFrameEmptyBounds(t *testing.T) {
	c := cfg.Default()
	cam := Frame(geometry.NewBoundingBox(), c, 0)
	assert.Equal(t, mgl64.Vec3{}, cam.Target)
	assert.InDelta(t, 100, cam.Eye.X(), 1e-9)
	assert.Equal(t, 1.0, cam.Aspect)
}

func TestOrbitKeepsDistance(t *testing.T) {
	cam := Frame(geometry.NewBoundingBox(), cfg.Default(), 1)
	d := cam.Distance()
	cam.Orbit(0.7, 0.2)
	assert.InDelta(t, d, cam.Distance(), 1e-9)
	cam.Orbit(0, 10)
	assert.InDelta(t, d, cam.Distance(), 1e-9)
	assert.Less(t, cam.Eye.Sub(cam.Target).Normalize().Y(), 1.0)
}

func TestZoomClamps(t *testing.T) {
	cam := Frame(geometry.NewBoundingBox(), cfg.Default(), 1)
	cam.Zoom(0.001)
	assert.InDelta(t, cam.MinDistance, cam.Distance(), 1e-9)
	cam.Zoom(1e6)
	assert.InDelta(t, cam.MaxDistance, cam.Distance(), 1e-9)
	cam.Zoom(-1)
	assert.InDelta(t, cam.MaxDistance, cam.Distance(), 1e-9)
}

func TestNewRendererWithoutSurface(t *testing.T) {
	_, err := NewRenderer(cfg.Default(), nil)
	assert.True(t, errors.Is(err, ErrNoSurface))

	_, err = NewRenderer(cfg.Default(), NewImageSurface(0, 10))
	assert.True(t, errors.Is(err, ErrNoSurface))
}

func countRed(img image.Image) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r > 0x9000 && g < 0x5000 && bl < 0x5000 {
				n++
			}
		}
	}
	return n
}

func TestDrawShowsAndHidesBatches(t *testing.T) {
	surface := NewImageSurface(160, 120)
	r, err := NewRenderer(cfg.Default(), surface)
	require.NoError(t, err)

	tp, cam := buildScene(t, square)
	s := view.Default(tp.MaxLayer)
	r.SetScene(tp, cam, s)
	require.NoError(t, r.Draw())
	assert.Equal(t, 1, surface.Frames())
	assert.Greater(t, countRed(surface.Frame()), 0)

	r.Apply(s.WithFeature(gcode.OuterWall, false))
	assert.True(t, r.Dirty())
	require.NoError(t, r.Draw())
	assert.False(t, r.Dirty())
	assert.Equal(t, 0, countRed(surface.Frame()))
}

func TestApplyStates(t *testing.T) {
	surface := NewImageSurface(64, 64)
	r, err := NewRenderer(cfg.Default(), surface)
	require.NoError(t, err)

	tp, cam := buildScene(t, `;TYPE:SKIN
G1 Z0.2
G1 X10 E1
G1 Z0.4
G1 X20 E2
G1 Z0.6
G1 X30 E3
`)
	r.SetScene(tp, cam, view.Default(tp.MaxLayer).WithLayer(1))
	assert.Len(t, r.Primitives(), len(tp.Batches))

	tests := []struct {
		key     toolpath.Key
		state   view.BatchState
		opacity float64
	}{
		{toolpath.Key{Feature: gcode.Skin, Layer: 0}, view.Dimmed, 0.3},
		{toolpath.Key{Feature: gcode.Skin, Layer: 1}, view.Opaque, 1},
		{toolpath.Key{Feature: gcode.Skin, Layer: 2}, view.Hidden, 0},
		{toolpath.Key{Feature: gcode.Travel, Layer: 1}, view.Hidden, 0},
	}
	for _, test := range tests {
		p := r.Primitive(test.key)
		require.NotNil(t, p, "%v", test.key)
		assert.Equal(t, test.state, p.State, "%v", test.key)
		assert.Equal(t, test.opacity, p.Opacity, "%v", test.key)
	}
}

func TestEmptySceneDrawsNothing(t *testing.T) {
	surface := NewImageSurface(32, 32)
	r, err := NewRenderer(cfg.Default(), surface)
	require.NoError(t, err)

	tp, cam := buildScene(t, "")
	r.SetScene(tp, cam, view.Default(0))
	assert.Empty(t, r.Primitives())
	assert.NoError(t, r.Draw())
	assert.Equal(t, 0, countRed(surface.Frame()))
}

func TestResizeRedraws(t *testing.T) {
	surface := NewImageSurface(100, 50)
	r, err := NewRenderer(cfg.Default(), surface)
	require.NoError(t, err)

	require.NoError(t, r.Resize(300, 100))
	assert.Equal(t, 1, surface.Frames())
	assert.Equal(t, 3.0, r.Camera().Aspect)
	assert.Equal(t, image.Rect(0, 0, 300, 100), surface.Frame().Bounds())

	assert.True(t, errors.Is(r.Resize(0, 100), ErrNoSurface))
	assert.Equal(t, 1, surface.Frames())
}

func TestLoopStops(t *testing.T) {
	n := 0
	Loop(context.Background(), time.Millisecond, func() bool {
		n++
		return n < 3
	})
	assert.Equal(t, 3, n)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n = 0
	Loop(ctx, time.Hour, func() bool {
		n++
		return true
	})
	assert.Equal(t, 1, n)
}

func TestDrawLeavesVerticesAlone(t *testing.T) {
	r, err := NewRenderer(cfg.Default(), NewImageSurface(80, 60))
	require.NoError(t, err)

	tp, cam := buildScene(t, square)
	var before [][]geometry.Position
	for _, b := range tp.Batches {
		before = append(before, append([]geometry.Position(nil), b.Vertices...))
	}
	r.SetScene(tp, cam, view.Default(tp.MaxLayer))
	require.NoError(t, r.Draw())

	var after [][]geometry.Position
	for _, b := range tp.Batches {
		after = append(after, b.Vertices)
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("vertices changed by drawing: %s", diff)
	}
}
