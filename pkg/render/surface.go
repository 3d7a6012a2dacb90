package render

import (
	"errors"
	"image"
	"image/draw"
	"sync"
)

// ErrNoSurface is returned when drawing is asked of a renderer with nowhere
// to draw.
var ErrNoSurface = errors.New("no drawing surface")

// Surface is where finished frames go: a canvas in a page, a window, or an
// image kept in memory.
type Surface interface {
	// Size is the surface size in pixels.
	Size() (width, height int)
	// Present shows a finished frame. img is only valid during the call.
	Present(img image.Image) error
}

// ImageSurface keeps the last presented frame in memory.
type ImageSurface struct {
	mu     sync.Mutex
	width  int
	height int
	frame  *image.RGBA
	frames int
}

func NewImageSurface(width, height int) *ImageSurface {
	return &ImageSurface{width: width, height: height}
}

func (s *ImageSurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Resize changes the reported size; the host is expected to follow it with
// a resize on the viewer.
func (s *ImageSurface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
}

func (s *ImageSurface) Present(img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := img.Bounds()
	if s.frame == nil || s.frame.Bounds() != b {
		s.frame = image.NewRGBA(b)
	}
	draw.Draw(s.frame, b, img, b.Min, draw.Src)
	s.frames++
	return nil
}

// Frame returns a copy of the last presented frame, or nil.
func (s *ImageSurface) Frame() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil
	}
	out := image.NewRGBA(s.frame.Bounds())
	copy(out.Pix, s.frame.Pix)
	return out
}

// Frames counts Present calls.
func (s *ImageSurface) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
