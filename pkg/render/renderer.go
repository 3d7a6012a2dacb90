package render

import (
	"fmt"
	"image"

	"gcodeview/pkg/cfg"
	"gcodeview/pkg/gcode"
	"gcodeview/pkg/geometry"
	"gcodeview/pkg/toolpath"
	"gcodeview/pkg/view"

	"github.com/fogleman/gg"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/font/basicfont"
)

// lineWidths are per-feature stroke widths before cfg.LineWidthScale.
var lineWidths = map[gcode.FeatureType]float64{
	gcode.Travel:     1,
	gcode.OuterWall:  5,
	gcode.InnerWall:  4,
	gcode.Skin:       4,
	gcode.Infill:     3,
	gcode.Support:    2,
	gcode.Skirt:      3,
	gcode.PrimeTower: 3,
}

// Primitive is the drawable form of one batch.
type Primitive struct {
	Batch   *toolpath.Batch
	State   view.BatchState
	Opacity float64
}

// Renderer owns the camera and the primitives, and draws them onto a
// Surface. It is not safe for concurrent use.
type Renderer struct {
	cfg     cfg.Config
	surface Surface
	dc      *gg.Context
	width   int
	height  int

	camera     Camera
	primitives []*Primitive
	byKey      map[toolpath.Key]*Primitive
	state      view.State

	dirty  bool
	frames int
}

// NewRenderer binds a renderer to s. It fails with ErrNoSurface if s is nil
// or has no area.
func NewRenderer(c cfg.Config, s Surface) (*Renderer, error) {
	if s == nil {
		return nil, ErrNoSurface
	}
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("surface is %dx%d: %w", w, h, ErrNoSurface)
	}
	r := &Renderer{
		cfg:     c,
		surface: s,
		dc:      gg.NewContext(w, h),
		width:   w,
		height:  h,
		byKey:   map[toolpath.Key]*Primitive{},
		state:   view.Default(0),
		dirty:   true,
	}
	r.camera = Frame(geometry.NewBoundingBox(), c, float64(w)/float64(h))
	return r, nil
}

// Clear drops every primitive. The camera is kept.
func (r *Renderer) Clear() {
	r.primitives = nil
	r.byKey = map[toolpath.Key]*Primitive{}
	r.state = view.Default(0)
	r.dirty = true
}

// SetScene replaces the primitives with one per batch of tp and installs cam.
// The aspect ratio of cam is overridden by the renderer's own.
func (r *Renderer) SetScene(tp *toolpath.Toolpath, cam Camera, s view.State) {
	r.Clear()
	for _, b := range tp.Batches {
		p := &Primitive{Batch: b}
		r.primitives = append(r.primitives, p)
		r.byKey[b.Key] = p
	}
	cam.SetAspect(r.width, r.height)
	r.camera = cam
	r.Apply(s)
}

// Apply recomputes the state of every primitive from s.
func (r *Renderer) Apply(s view.State) {
	r.state = s
	for _, p := range r.primitives {
		p.State = view.ComputeBatchState(p.Batch.Feature, p.Batch.Layer, s)
		switch p.State {
		case view.Opaque:
			p.Opacity = 1
		case view.Dimmed:
			p.Opacity = r.cfg.DimOpacity
		default:
			p.Opacity = 0
		}
	}
	r.dirty = true
}

// Primitive returns the primitive for k, or nil.
func (r *Renderer) Primitive(k toolpath.Key) *Primitive {
	return r.byKey[k]
}

func (r *Renderer) Primitives() []*Primitive {
	return r.primitives
}

func (r *Renderer) Camera() Camera {
	return r.camera
}

// UpdateCamera lets f adjust the camera (orbit, zoom).
func (r *Renderer) UpdateCamera(f func(*Camera)) {
	f(&r.camera)
	r.dirty = true
}

// Dirty reports whether anything changed since the last Draw.
func (r *Renderer) Dirty() bool {
	return r.dirty
}

// Frames counts completed draws.
func (r *Renderer) Frames() int {
	return r.frames
}

// Resize adopts a new pixel size, updates the camera aspect and draws one
// frame straight away.
func (r *Renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize to %dx%d: %w", width, height, ErrNoSurface)
	}
	if width != r.width || height != r.height {
		r.width, r.height = width, height
		r.dc = gg.NewContext(width, height)
	}
	r.camera.SetAspect(width, height)
	r.dirty = true
	return r.Draw()
}

// Image returns the frame buffer of the last draw.
func (r *Renderer) Image() image.Image {
	return r.dc.Image()
}

// Draw renders the grid and every non-hidden primitive, then presents the
// frame.
func (r *Renderer) Draw() error {
	dc := r.dc
	dc.SetColor(r.cfg.Background)
	dc.Clear()

	viewProj := r.camera.Projection().Mul4(r.camera.View())
	r.drawGrid(viewProj)

	mvp := viewProj.Mul4(DisplayRotation)
	for _, p := range r.primitives {
		if p.State == view.Hidden {
			continue
		}
		c := p.Batch.Color
		dc.SetRGBA(c.R, c.G, c.B, p.Opacity)
		dc.SetLineWidth(lineWidths[p.Batch.Feature] * r.cfg.LineWidthScale)
		r.batchPath(mvp, p.Batch.Vertices)
		dc.Stroke()
	}

	if r.cfg.ShowHUD && len(r.primitives) > 0 {
		dc.SetFontFace(basicfont.Face7x13)
		dc.SetRGB(0.2, 0.2, 0.2)
		dc.DrawString(fmt.Sprintf("layer %d / %d", r.state.CurrentLayer, r.state.MaxLayer), 8, 18)
	}

	r.frames++
	r.dirty = false
	if err := r.surface.Present(dc.Image()); err != nil {
		return fmt.Errorf("present frame: %w", err)
	}
	return nil
}

// drawGrid draws the reference grid in the display XZ plane.
func (r *Renderer) drawGrid(viewProj mgl64.Mat4) {
	n := r.cfg.GridDivisions
	if n <= 0 || r.cfg.GridSize <= 0 {
		return
	}
	half := r.cfg.GridSize / 2
	step := r.cfg.GridSize / float64(n)
	y := r.cfg.GridY

	r.dc.SetLineWidth(1)
	r.dc.SetColor(r.cfg.GridLine)
	for i := 0; i <= n; i++ {
		if 2*i == n {
			continue
		}
		d := -half + float64(i)*step
		r.line(viewProj, mgl64.Vec3{d, y, -half}, mgl64.Vec3{d, y, half})
		r.line(viewProj, mgl64.Vec3{-half, y, d}, mgl64.Vec3{half, y, d})
	}
	r.dc.Stroke()

	r.dc.SetColor(r.cfg.GridCenter)
	r.line(viewProj, mgl64.Vec3{0, y, -half}, mgl64.Vec3{0, y, half})
	r.line(viewProj, mgl64.Vec3{-half, y, 0}, mgl64.Vec3{half, y, 0})
	r.dc.Stroke()
}

// batchPath adds the segments in vs to the current path. Segments that
// join end to start on screen are chained into one polyline and simplified
// to cfg.SimplifyPixels.
func (r *Renderer) batchPath(m mgl64.Mat4, vs []geometry.Position) {
	var run geometry.Polyline
	flush := func() {
		r.polyline(run.Simplify(r.cfg.SimplifyPixels))
		run = run[:0]
	}
	for i := 0; i+1 < len(vs); i += 2 {
		a, b, ok := r.project(m, vs[i].Vec3(), vs[i+1].Vec3())
		if !ok {
			continue
		}
		if len(run) > 0 && run[len(run)-1] == a {
			run = append(run, b)
			continue
		}
		flush()
		run = append(run, a, b)
	}
	flush()
}

func (r *Renderer) polyline(pl geometry.Polyline) {
	if len(pl) < 2 {
		return
	}
	r.dc.MoveTo(pl[0].X, pl[0].Y)
	for _, p := range pl[1:] {
		r.dc.LineTo(p.X, p.Y)
	}
}

// line adds the projection of a-b to the current path.
func (r *Renderer) line(m mgl64.Mat4, a, b mgl64.Vec3) {
	if p, q, ok := r.project(m, a, b); ok {
		r.dc.MoveTo(p.X, p.Y)
		r.dc.LineTo(q.X, q.Y)
	}
}

// project maps a-b to screen pixels, clipped to the near plane.
func (r *Renderer) project(m mgl64.Mat4, a, b mgl64.Vec3) (geometry.Point, geometry.Point, bool) {
	ca := m.Mul4x1(a.Vec4(1))
	cb := m.Mul4x1(b.Vec4(1))

	// in front of the near plane when z >= -w
	da := ca.Z() + ca.W()
	db := cb.Z() + cb.W()
	if da < 0 && db < 0 {
		return geometry.Point{}, geometry.Point{}, false
	}
	if da < 0 {
		ca = ca.Add(cb.Sub(ca).Mul(da / (da - db)))
	} else if db < 0 {
		cb = cb.Add(ca.Sub(cb).Mul(db / (db - da)))
	}

	p, ok1 := r.toScreen(ca)
	q, ok2 := r.toScreen(cb)
	return p, q, ok1 && ok2
}

func (r *Renderer) toScreen(c mgl64.Vec4) (geometry.Point, bool) {
	w := c.W()
	if w <= 0 {
		return geometry.Point{}, false
	}
	return geometry.Point{
		X: (c.X()/w + 1) / 2 * float64(r.width),
		Y: (1 - c.Y()/w) / 2 * float64(r.height),
	}, true
}
