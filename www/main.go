//go:build js && wasm

package main

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"syscall/js"

	"gcodeview/pkg/gcode"
	"gcodeview/pkg/viewer"

	log "github.com/sirupsen/logrus"
)

var (
	v *viewer.Viewer

	parseMu     sync.Mutex
	cancelParse context.CancelFunc = func() {}
)

func main() {
	log.SetFormatter(&log.TextFormatter{DisableColors: true, DisableTimestamp: true})

	js.Global().Set("gcodeInit", js.FuncOf(gcodeInit))
	js.Global().Set("gcodeParse", js.FuncOf(gcodeParse))
	js.Global().Set("gcodeSetLayer", js.FuncOf(gcodeSetLayer))
	js.Global().Set("gcodeSetFeature", js.FuncOf(gcodeSetFeature))
	js.Global().Set("gcodeResize", js.FuncOf(gcodeResize))
	js.Global().Set("gcodeOrbit", js.FuncOf(gcodeOrbit))
	js.Global().Set("gcodeZoom", js.FuncOf(gcodeZoom))
	<-make(chan any)
}

// canvas presents frames with putImageData on a 2D context.
type canvas struct {
	el  js.Value
	ctx js.Value
	buf js.Value
	rgb *image.RGBA
}

func newCanvas(el js.Value) *canvas {
	if el.IsNull() || el.IsUndefined() {
		return nil
	}
	ctx := el.Call("getContext", "2d")
	if ctx.IsNull() {
		return nil
	}
	return &canvas{el: el, ctx: ctx}
}

func (c *canvas) Size() (int, int) {
	return c.el.Get("width").Int(), c.el.Get("height").Int()
}

func (c *canvas) Present(img image.Image) error {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok {
		if c.rgb == nil || c.rgb.Bounds() != b {
			c.rgb = image.NewRGBA(b)
		}
		draw.Draw(c.rgb, b, img, b.Min, draw.Src)
		rgba = c.rgb
	}
	if c.buf.IsUndefined() || c.buf.Get("length").Int() != len(rgba.Pix) {
		c.buf = js.Global().Get("Uint8ClampedArray").New(len(rgba.Pix))
	}
	js.CopyBytesToJS(c.buf, rgba.Pix)
	data := js.Global().Get("ImageData").New(c.buf, b.Dx(), b.Dy())
	c.ctx.Call("putImageData", data, 0, 0)
	return nil
}

// slider drives an <input type=range> and the label next to it.
type slider struct {
	input js.Value
	label js.Value
	max   int
}

func (s *slider) SetRange(maxLayer int) {
	s.max = maxLayer
	s.input.Set("max", maxLayer)
}

func (s *slider) SetCurrent(layer int) {
	s.input.Set("value", layer)
	if !s.label.IsNull() {
		s.label.Set("textContent", fmt.Sprintf("%d / %d", layer, s.max))
	}
}

// checkboxes are <input type=checkbox id="show-<feature>">.
type checkboxes struct {
	doc js.Value
}

func (c checkboxes) SetChecked(f gcode.FeatureType, on bool) {
	el := c.doc.Call("getElementById", "show-"+f.String())
	if !el.IsNull() {
		el.Set("checked", on)
	}
}

// gcodeInit(canvasID) binds the viewer to a canvas and the page controls and
// starts the refresh loop.
func gcodeInit(this js.Value, args []js.Value) any {
	if v != nil {
		v.Close()
	}
	doc := js.Global().Get("document")
	var opts []viewer.Option
	if in := doc.Call("getElementById", "layer-slider"); !in.IsNull() {
		opts = append(opts, viewer.WithLayerControl(&slider{input: in, label: doc.Call("getElementById", "layer-label")}))
	}
	if doc.Call("getElementById", "show-wall").Truthy() {
		opts = append(opts, viewer.WithFeatureToggles(checkboxes{doc: doc}))
	}
	v = viewer.New(opts...)

	id := "viewer"
	if len(args) > 0 {
		id = args[0].String()
	}
	if c := newCanvas(doc.Call("getElementById", id)); c != nil {
		v.Initialize(c)
	} else {
		v.Initialize(nil)
	}

	var frame js.Func
	current := v
	frame = js.FuncOf(func(this js.Value, args []js.Value) any {
		if v != current {
			frame.Release()
			return nil
		}
		v.Tick()
		js.Global().Call("requestAnimationFrame", frame)
		return nil
	})
	js.Global().Call("requestAnimationFrame", frame)
	return nil
}

// gcodeParse(text, done) parses in the background and calls done with the
// file info once the program is shown.
func gcodeParse(this js.Value, args []js.Value) any {
	if v == nil || len(args) < 1 {
		return nil
	}
	src := args[0].String()
	var done js.Value
	if len(args) > 1 {
		done = args[1]
	}

	parseMu.Lock()
	cancelParse()
	ctx, cancel := context.WithCancel(context.Background())
	cancelParse = cancel
	parseMu.Unlock()

	go func(v *viewer.Viewer) {
		stats := v.ParseAndDisplay(ctx, src)
		if stats.Abandoned || done.Type() != js.TypeFunction {
			return
		}
		size := stats.Bounds.Size()
		done.Invoke(map[string]any{
			"kb":       float64(stats.Bytes) / 1024,
			"lines":    stats.Lines,
			"segments": stats.Segments,
			"layers":   stats.MaxLayer + 1,
			"width":    size.X,
			"depth":    size.Y,
			"height":   size.Z,
		})
	}(v)
	return nil
}

func gcodeSetLayer(this js.Value, args []js.Value) any {
	if v != nil && len(args) > 0 {
		v.SetLayerReveal(args[0].Int())
	}
	return nil
}

func gcodeSetFeature(this js.Value, args []js.Value) any {
	if v == nil || len(args) < 2 {
		return nil
	}
	f, ok := gcode.ParseFeatureType(args[0].String())
	if !ok {
		log.WithField("feature", args[0].String()).Warn("unknown feature type")
		return nil
	}
	v.SetFeatureVisible(f, args[1].Bool())
	return nil
}

func gcodeResize(this js.Value, args []js.Value) any {
	if v != nil && len(args) > 1 {
		v.HandleResize(args[0].Int(), args[1].Int())
	}
	return nil
}

func gcodeOrbit(this js.Value, args []js.Value) any {
	if v != nil && len(args) > 1 {
		v.Orbit(args[0].Float(), args[1].Float())
	}
	return nil
}

func gcodeZoom(this js.Value, args []js.Value) any {
	if v != nil && len(args) > 0 {
		v.Zoom(args[0].Float())
	}
	return nil
}
