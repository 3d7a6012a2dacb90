package cfg

import (
	"image/color"
	"time"
)

// Config holds the tunables for one viewer instance. Every viewer gets its
// own copy; nothing here is shared between instances.
type Config struct {
	// TargetFootprint is the size, in display units, that the largest extent
	// of the deposited geometry is scaled to.
	TargetFootprint float64

	// VerticalOffset lifts the normalized model above the reference grid.
	// It is applied to source Z, which becomes display Y.
	VerticalOffset float64

	// DimOpacity is the opacity of revealed layers below the current one.
	DimOpacity float64

	// Camera
	FieldOfView          float64 // degrees, vertical
	Near                 float64
	Far                  float64
	CameraDistanceFactor float64    // multiple of the largest normalized extent
	CameraDirection      [3]float64 // diagonal offset direction from the pivot, display space
	MinDistance          float64
	MaxDistance          float64

	// Reference grid, lying in the display XZ plane.
	GridSize      float64
	GridDivisions int
	GridY         float64
	GridCenter    color.Color
	GridLine      color.Color

	Background color.Color

	// LineWidthScale multiplies the per-feature line widths.
	LineWidthScale float64

	// SimplifyPixels is the Douglas-Peucker tolerance, in pixels, applied to
	// each projected polyline before stroking. Zero draws every segment.
	SimplifyPixels float64

	// ShowHUD draws the "layer n / max" counter in the corner of each frame.
	ShowHUD bool

	// ChunkLines is the number of source lines interpreted between yields.
	ChunkLines int

	// FrameInterval is the tick period used by Run when the host does not
	// drive Tick itself.
	FrameInterval time.Duration

	// SkipCleanFrames lets Tick skip the redraw when nothing changed since
	// the last presented frame. Off by default: every tick redraws.
	SkipCleanFrames bool
}

// Default returns the configuration the viewer uses unless told otherwise.
func Default() Config {
	return Config{
		TargetFootprint: 50,
		VerticalOffset:  3,
		DimOpacity:      0.3,

		FieldOfView:          60,
		Near:                 0.1,
		Far:                  1000,
		CameraDistanceFactor: 2,
		CameraDirection:      [3]float64{1, 0.8, 0.8},
		MinDistance:          20,
		MaxDistance:          200,

		GridSize:      200,
		GridDivisions: 50,
		GridY:         -1,
		GridCenter:    color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff},
		GridLine:      color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff},

		Background: color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff},

		LineWidthScale: 0.5,
		SimplifyPixels: 0.25,
		ShowHUD:        true,

		ChunkLines:    2000,
		FrameInterval: 16 * time.Millisecond,
	}
}

// DistanceScale is the ratio between the configured footprint and the one
// the distance limits were tuned for.
func (c Config) DistanceScale() float64 {
	if c.TargetFootprint <= 0 {
		return 1
	}
	return c.TargetFootprint / 50
}
