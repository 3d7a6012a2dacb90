package toolpath

import (
	"sort"

	"gcodeview/pkg/color"
	"gcodeview/pkg/gcode"
	"gcodeview/pkg/geometry"

	"github.com/lucasb-eyer/go-colorful"
)

// Key identifies a Batch.
type Key struct {
	Feature gcode.FeatureType
	Layer   int
}

// Batch holds every segment of one feature type on one layer, stored as a
// disjoint line list: vertices 2i and 2i+1 are the ends of segment i.
type Batch struct {
	Key
	Vertices []geometry.Position
	Color    colorful.Color
	// DefaultHidden is set for batches that start out hidden (travel).
	DefaultHidden bool
}

// Segments returns the number of segments in the batch.
func (b *Batch) Segments() int {
	return len(b.Vertices) / 2
}

// Toolpath is the batched result of one parse.
type Toolpath struct {
	// Batches are ordered by layer, then feature type.
	Batches  []*Batch
	Bounds   geometry.BoundingBox
	MaxLayer int
	Segments int
	// Deposited are the source-space segments that put down material, kept
	// for probing after the batches have been normalized.
	Deposited []gcode.Segment

	byKey      map[Key]*Batch
	normalized *Transform
}

// Batch returns the batch for k, or nil.
func (tp *Toolpath) Batch(k Key) *Batch {
	return tp.byKey[k]
}

// Batcher groups segments into batches as they are produced.
type Batcher struct {
	batches   map[Key]*Batch
	deposited geometry.BoundingBox
	all       geometry.BoundingBox
	maxLayer  int
	segments  int
	kept      []gcode.Segment
}

func NewBatcher() *Batcher {
	return &Batcher{
		batches:   map[Key]*Batch{},
		deposited: geometry.NewBoundingBox(),
		all:       geometry.NewBoundingBox(),
	}
}

func (b *Batcher) Add(s gcode.Segment) {
	k := Key{Feature: s.Feature, Layer: s.Layer}
	batch, ok := b.batches[k]
	if !ok {
		batch = &Batch{
			Key:           k,
			Color:         color.Shade(k.Feature, k.Layer),
			DefaultHidden: k.Feature == gcode.Travel,
		}
		b.batches[k] = batch
	}
	batch.Vertices = append(batch.Vertices, s.Start, s.End)

	b.all.Extend(s.Start)
	b.all.Extend(s.End)
	if s.Deposits {
		b.deposited.Extend(s.Start)
		b.deposited.Extend(s.End)
		b.kept = append(b.kept, s)
	}
	if s.Layer > b.maxLayer {
		b.maxLayer = s.Layer
	}
	b.segments++
}

// Toolpath finishes batching. The Batcher must not be used afterwards.
func (b *Batcher) Toolpath() *Toolpath {
	tp := &Toolpath{
		Bounds:    b.deposited,
		MaxLayer:  b.maxLayer,
		Segments:  b.segments,
		Deposited: b.kept,
		byKey:     b.batches,
	}
	// Programs that never extrude (plotters, lasers) still get framed.
	if tp.Bounds.Empty() {
		tp.Bounds = b.all
	}
	for _, batch := range b.batches {
		tp.Batches = append(tp.Batches, batch)
	}
	sort.Slice(tp.Batches, func(i, j int) bool {
		a, c := tp.Batches[i].Key, tp.Batches[j].Key
		if a.Layer != c.Layer {
			return a.Layer < c.Layer
		}
		return a.Feature < c.Feature
	})
	return tp
}

// Build batches a whole segment list in one go.
func Build(segs []gcode.Segment) *Toolpath {
	b := NewBatcher()
	for _, s := range segs {
		b.Add(s)
	}
	return b.Toolpath()
}
