// Package view decides which batches are drawn and how.
package view

import "gcodeview/pkg/gcode"

// BatchState is how one batch is drawn.
type BatchState int

const (
	Hidden BatchState = iota
	Dimmed
	Opaque
)

func (s BatchState) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Dimmed:
		return "dimmed"
	case Opaque:
		return "opaque"
	}
	return "unknown"
}

// State is the user-controlled part of the view: which feature types are
// shown and how far up the layers are revealed.
type State struct {
	Visible      map[gcode.FeatureType]bool
	CurrentLayer int
	MaxLayer     int
}

// Default is the state after a parse: everything but travel visible, all
// layers revealed.
func Default(maxLayer int) State {
	if maxLayer < 0 {
		maxLayer = 0
	}
	s := State{
		Visible:      map[gcode.FeatureType]bool{},
		CurrentLayer: maxLayer,
		MaxLayer:     maxLayer,
	}
	for _, f := range gcode.FeatureTypes {
		s.Visible[f] = f != gcode.Travel
	}
	return s
}

// ComputeBatchState depends on nothing but its arguments.
func ComputeBatchState(feature gcode.FeatureType, layer int, s State) BatchState {
	if !s.Visible[feature] || layer > s.CurrentLayer {
		return Hidden
	}
	if layer < s.CurrentLayer {
		return Dimmed
	}
	return Opaque
}

// WithLayer returns s revealed up to layer, clamped to [0, MaxLayer].
func (s State) WithLayer(layer int) State {
	if layer < 0 {
		layer = 0
	}
	if layer > s.MaxLayer {
		layer = s.MaxLayer
	}
	s.CurrentLayer = layer
	return s
}

// WithFeature returns s with feature shown or hidden. The visibility map is
// copied, so s itself is unchanged.
func (s State) WithFeature(feature gcode.FeatureType, visible bool) State {
	v := make(map[gcode.FeatureType]bool, len(s.Visible)+1)
	for f, on := range s.Visible {
		v[f] = on
	}
	v[feature] = visible
	s.Visible = v
	return s
}

// Clone returns a copy of s that shares nothing with it.
func (s State) Clone() State {
	v := make(map[gcode.FeatureType]bool, len(s.Visible))
	for f, on := range s.Visible {
		v[f] = on
	}
	s.Visible = v
	return s
}
