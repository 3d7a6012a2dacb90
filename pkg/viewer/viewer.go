// Package viewer ties the pipeline together behind the handful of operations
// a host page or program calls: bind a surface, parse and display a program,
// move the layer reveal, toggle feature types and resize.
//
// A Viewer never panics and never returns an error for bad input. Missing
// host resources are logged once and the affected part goes quiet.
package viewer

import (
	"context"
	"image"
	"runtime"
	"sync"

	"gcodeview/pkg/cfg"
	"gcodeview/pkg/gcode"
	"gcodeview/pkg/geometry"
	"gcodeview/pkg/render"
	"gcodeview/pkg/toolpath"
	"gcodeview/pkg/view"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// LayerControl is the host's layer slider and its labels.
type LayerControl interface {
	SetRange(maxLayer int)
	SetCurrent(layer int)
}

// FeatureToggles is the host's set of per-feature checkboxes.
type FeatureToggles interface {
	SetChecked(feature gcode.FeatureType, on bool)
}

// Stats describes the outcome of a parse.
type Stats struct {
	Bytes    int
	Lines    int
	Segments int
	Batches  int
	MaxLayer int
	Bounds   geometry.BoundingBox // source units, deposited geometry

	// Abandoned is set when the build was cancelled or replaced by a newer
	// parse before it could be shown.
	Abandoned bool
}

type Option func(*Viewer)

func WithConfig(c cfg.Config) Option {
	return func(v *Viewer) { v.cfg = c }
}

func WithLogger(l log.FieldLogger) Option {
	return func(v *Viewer) {
		if l != nil {
			v.log = l
		}
	}
}

func WithLayerControl(lc LayerControl) Option {
	return func(v *Viewer) { v.layers = lc }
}

func WithFeatureToggles(ft FeatureToggles) Option {
	return func(v *Viewer) { v.toggles = ft }
}

// Viewer is one display engine instance. All methods are safe to call from
// several goroutines; parses are built outside the lock and committed only
// if no newer parse started in the meantime.
type Viewer struct {
	mu  sync.Mutex
	cfg cfg.Config
	log log.FieldLogger

	layers  LayerControl
	toggles FeatureToggles

	renderer *render.Renderer
	toolpath *toolpath.Toolpath
	index    *toolpath.Index
	state    view.State

	generation uint64
	closed     bool
	done       chan struct{}

	warnedSurface bool
	warnedUI      bool
}

func New(opts ...Option) *Viewer {
	v := &Viewer{
		cfg:   cfg.Default(),
		log:   log.StandardLogger(),
		state: view.Default(0),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.cfg.ChunkLines <= 0 {
		v.cfg.ChunkLines = cfg.Default().ChunkLines
	}
	return v
}

// Initialize binds the viewer to a drawing surface. A nil or zero-sized
// surface leaves the viewer without a display; parsing still works.
func (v *Viewer) Initialize(s render.Surface) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		v.log.Warn("initialize after close ignored")
		return
	}
	r, err := render.NewRenderer(v.cfg, s)
	if err != nil {
		v.log.WithError(err).Warn("display unavailable, viewer will not draw")
		v.renderer = nil
		v.warnedSurface = true
		return
	}
	v.renderer = r
	v.warnedSurface = false
	if v.toolpath != nil {
		v.showLocked()
	}
}

// ParseAndDisplay replaces whatever is shown with the program in src. The
// old scene is torn down before the new one is built. Interpretation yields
// every cfg.ChunkLines lines and stops early if ctx is done or another parse
// starts.
func (v *Viewer) ParseAndDisplay(ctx context.Context, src string) Stats {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		v.log.Warn("parse after close ignored")
		return Stats{Bytes: len(src), Abandoned: true, Bounds: geometry.NewBoundingBox()}
	}
	v.generation++
	gen := v.generation
	v.teardownLocked()
	chunk := v.cfg.ChunkLines
	logger := v.log.WithField("parse", uuid.NewString())
	v.mu.Unlock()

	logger.WithField("bytes", len(src)).Debug("parse started")

	it := gcode.NewInterpreter(src)
	b := toolpath.NewBatcher()
	for {
		if ctx.Err() != nil || !v.current(gen) {
			logger.WithField("lines", it.Lines()).Info("parse abandoned")
			return Stats{Bytes: len(src), Lines: it.Lines(), Abandoned: true, Bounds: geometry.NewBoundingBox()}
		}
		if it.Next(chunk, b.Add) {
			break
		}
		logger.WithField("lines", it.Lines()).Debug("chunk done")
		runtime.Gosched()
	}

	logger.WithField("lines", it.Lines()).Debug("build done")

	tp := b.Toolpath()
	tp.Normalize(v.cfg.TargetFootprint, v.cfg.VerticalOffset)
	idx := toolpath.NewIndex(tp)

	stats := Stats{
		Bytes:    len(src),
		Lines:    it.Lines(),
		Segments: tp.Segments,
		Batches:  len(tp.Batches),
		MaxLayer: tp.MaxLayer,
		Bounds:   tp.Bounds,
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation || v.closed {
		logger.Info("parse superseded")
		stats.Abandoned = true
		return stats
	}
	v.toolpath = tp
	v.index = idx
	v.state = view.Default(tp.MaxLayer)
	v.showLocked()
	v.syncUILocked()

	logger.WithFields(log.Fields{
		"lines":    stats.Lines,
		"segments": stats.Segments,
		"batches":  stats.Batches,
		"layers":   stats.MaxLayer + 1,
	}).Info("parsed")
	return stats
}

func (v *Viewer) current(gen uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return gen == v.generation && !v.closed
}

func (v *Viewer) teardownLocked() {
	v.toolpath = nil
	v.index = nil
	v.state = view.Default(0)
	if v.renderer != nil {
		v.renderer.Clear()
	}
}

// showLocked frames the camera on the current toolpath, hands its batches
// to the renderer and draws once.
func (v *Viewer) showLocked() {
	if !v.displayLocked("display") {
		return
	}
	cam := render.Frame(v.toolpath.NormalizedBounds(), v.cfg, 1)
	v.renderer.SetScene(v.toolpath, cam, v.state)
	v.drawLocked()
}

// displayLocked reports whether there is a renderer, warning once if not.
func (v *Viewer) displayLocked(op string) bool {
	if v.renderer != nil {
		return true
	}
	if !v.warnedSurface {
		v.log.WithField("op", op).Warn("no drawing surface bound")
		v.warnedSurface = true
	}
	return false
}

func (v *Viewer) drawLocked() {
	if err := v.renderer.Draw(); err != nil {
		v.log.WithError(err).Warn("draw failed")
	}
}

func (v *Viewer) syncUILocked() {
	if v.layers == nil || v.toggles == nil {
		if !v.warnedUI {
			v.log.WithFields(log.Fields{
				"layerControl":   v.layers != nil,
				"featureToggles": v.toggles != nil,
			}).Warn("UI controls missing, skipping sync")
			v.warnedUI = true
		}
	}
	if v.layers != nil {
		v.layers.SetRange(v.state.MaxLayer)
		v.layers.SetCurrent(v.state.CurrentLayer)
	}
	if v.toggles != nil {
		for _, f := range gcode.FeatureTypes {
			v.toggles.SetChecked(f, v.state.Visible[f])
		}
	}
}

// SetLayerReveal shows layers up to layer, clamped to [0, max layer].
func (v *Viewer) SetLayerReveal(layer int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.state = v.state.WithLayer(layer)
	if v.layers != nil {
		v.layers.SetCurrent(v.state.CurrentLayer)
	}
	v.applyLocked()
}

// SetFeatureVisible shows or hides every batch of one feature type.
func (v *Viewer) SetFeatureVisible(f gcode.FeatureType, visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.state = v.state.WithFeature(f, visible)
	if v.toggles != nil {
		v.toggles.SetChecked(f, visible)
	}
	v.applyLocked()
}

func (v *Viewer) applyLocked() {
	if v.renderer != nil {
		v.renderer.Apply(v.state)
	}
}

// HandleResize updates the camera aspect and draws one extra frame at the
// new size.
func (v *Viewer) HandleResize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || !v.displayLocked("resize") {
		return
	}
	if err := v.renderer.Resize(width, height); err != nil {
		v.log.WithError(err).Warn("resize failed")
	}
}

// Tick is the host's refresh callback. It draws the current scene, or does
// nothing when cfg.SkipCleanFrames is set and nothing changed.
func (v *Viewer) Tick() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.renderer == nil {
		return
	}
	if v.cfg.SkipCleanFrames && !v.renderer.Dirty() {
		return
	}
	v.drawLocked()
}

// Run calls Tick every cfg.FrameInterval until ctx is done or the viewer is
// closed.
func (v *Viewer) Run(ctx context.Context) {
	render.Loop(ctx, v.cfg.FrameInterval, func() bool {
		select {
		case <-v.done:
			return false
		default:
		}
		v.Tick()
		return true
	})
}

// Orbit swings the camera around the model. Angles are in radians.
func (v *Viewer) Orbit(dAzimuth, dElevation float64) {
	v.updateCamera(func(c *render.Camera) { c.Orbit(dAzimuth, dElevation) })
}

// Zoom moves the camera toward (factor < 1) or away from the model.
func (v *Viewer) Zoom(factor float64) {
	v.updateCamera(func(c *render.Camera) { c.Zoom(factor) })
}

func (v *Viewer) updateCamera(f func(*render.Camera)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || !v.displayLocked("camera") {
		return
	}
	v.renderer.UpdateCamera(f)
}

// Camera returns the current camera, if there is a display.
func (v *Viewer) Camera() (render.Camera, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.renderer == nil {
		return render.Camera{}, false
	}
	return v.renderer.Camera(), true
}

// Probe returns the deposited segments on the current reveal layer with an
// endpoint within radius of the source position (x, y), nearest first.
func (v *Viewer) Probe(x, y, radius float64) []gcode.Segment {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.index.Near(x, y, radius, v.state.CurrentLayer)
}

// Snapshot returns a copy of the last drawn frame, or nil without a display.
func (v *Viewer) Snapshot() image.Image {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.renderer == nil {
		return nil
	}
	src, ok := v.renderer.Image().(*image.RGBA)
	if !ok {
		return v.renderer.Image()
	}
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	return out
}

// Toolpath returns the displayed toolpath, or nil.
func (v *Viewer) Toolpath() *toolpath.Toolpath {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.toolpath
}

// ViewState returns a copy of the current view state.
func (v *Viewer) ViewState() view.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Clone()
}

// Close tears the viewer down. Run returns and every later call is a no-op.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	v.generation++
	v.teardownLocked()
	v.renderer = nil
	close(v.done)
	v.log.Debug("viewer closed")
}
