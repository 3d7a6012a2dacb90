package gcode

import (
	"strconv"
	"strings"
	"testing"

	"gcodeview/pkg/geometry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOuterWallMove(t *testing.T) {
	segs := Interpret(";TYPE:WALL-OUTER\nG1 X10 Y0 Z0 E1\n")
	want := []Segment{{
		Start:    geometry.Position{},
		End:      geometry.Position{X: 10},
		Feature:  OuterWall,
		Layer:    0,
		Deposits: true,
		Line:     2,
	}}
	if diff := cmp.Diff(want, segs); diff != "" {
		t.Errorf("incorrect segments: %s", diff)
	}
}

func TestLayerChanges(t *testing.T) {
	src := strings.Join([]string{
		"G1 Z0.2",
		"G1 X10 E1",
		"G1 Z0.4",
		"G1 X20 E2",
		"G1 Z0.4",
		"G1 Z0.6",
		"G1 X30 E3",
	}, "\n")
	var layers []int
	for _, s := range Interpret(src) {
		layers = append(layers, s.Layer)
	}
	assert.Equal(t, []int{0, 0, 1, 1, 1, 2, 2}, layers)
}

func TestFirstZIsLayerZero(t *testing.T) {
	segs := Interpret("G0 X1\nG0 Z5\nG0 Z6\n")
	require.Len(t, segs, 3)
	assert.Equal(t, 0, segs[0].Layer)
	assert.Equal(t, 0, segs[1].Layer)
	assert.Equal(t, 1, segs[2].Layer)
}

func TestConsecutiveZIncrementsByOne(t *testing.T) {
	zs := []float64{0.3, 0.1, 7, 7.5, -2}
	var lines []string
	for _, z := range zs {
		lines = append(lines, "G0 Z"+strconv.FormatFloat(z, 'f', -1, 64))
	}
	segs := Interpret(strings.Join(lines, "\n"))
	require.Len(t, segs, len(zs))
	for i := 1; i < len(segs); i++ {
		assert.Equal(t, segs[i-1].Layer+1, segs[i].Layer, "move %d", i)
	}
}

func TestClassification(t *testing.T) {
	src := strings.Join([]string{
		"G1 X1 E1",
		";TYPE:FILL",
		"G1 X2 E2",
		"G1 X3",
		"G1 X4 E-0.5",
		"G1 X5 E0",
		";TYPE:SUPPORT",
		"G0 X6 E1",
		";TYPE:SOMETHING",
		"G1 X7 E1",
	}, "\n")
	var got []FeatureType
	for _, s := range Interpret(src) {
		got = append(got, s.Feature)
	}
	want := []FeatureType{Travel, Infill, Travel, Travel, Travel, Support, Travel}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("incorrect classification: %s", diff)
	}
}

func TestOverflowingWordDoesNotDeposit(t *testing.T) {
	segs := Interpret(";TYPE:FILL\nG1 X1e400\n")
	require.Len(t, segs, 1)
	assert.False(t, segs[0].Deposits)
	assert.Equal(t, Travel, segs[0].Feature)
	assert.Equal(t, geometry.Position{}, segs[0].End)
}

func TestOtherCodesIgnored(t *testing.T) {
	segs := Interpret("G28\nG92 X5 Z9\nM104 S200\nG2 X1 Y1 I1 J0\nT0\nG1 X1\n")
	require.Len(t, segs, 1)
	assert.Equal(t, geometry.Position{}, segs[0].Start)
	assert.Equal(t, geometry.Position{X: 1}, segs[0].End)
	assert.Equal(t, 0, segs[0].Layer)
}

func TestCarryForward(t *testing.T) {
	segs := Interpret("G0 X1 Y2 Z3\nG1 Y5\nG1 X-1\n")
	require.Len(t, segs, 3)
	assert.Equal(t, geometry.Position{X: 1, Y: 5, Z: 3}, segs[1].End)
	assert.Equal(t, geometry.Position{X: -1, Y: 5, Z: 3}, segs[2].End)
	assert.Equal(t, segs[1].End, segs[2].Start)
}

func TestHintPersists(t *testing.T) {
	s, _, ok := Step(State{}, Tokenize(";TYPE:SKIN"))
	assert.False(t, ok)
	assert.Equal(t, Skin, s.Hint)

	s, seg, ok := Step(s, Tokenize("G1 X1 E1"))
	require.True(t, ok)
	assert.Equal(t, Skin, seg.Feature)

	s, seg, _ = Step(s, Tokenize("G1 X2 E2"))
	assert.Equal(t, Skin, seg.Feature)
	assert.Equal(t, Skin, s.Hint)
}

func TestResumeMatchesSinglePass(t *testing.T) {
	src := strings.Join([]string{
		";TYPE:WALL-OUTER",
		"G1 Z0.2 F3000",
		"G1 X10 Y0 E1",
		"G1 X10 Y10 E2",
		"",
		";TYPE:WALL-INNER",
		"G1 X0 Y10 E3",
		"G1 Z0.4",
		";TYPE:FILL",
		"G1 X5 Y5 E4\r",
		"G0 X0 Y0",
	}, "\n")
	whole := Interpret(src)

	for chunk := 1; chunk <= 4; chunk++ {
		var parts []Segment
		it := NewInterpreter(src)
		for !it.Next(chunk, func(s Segment) { parts = append(parts, s) }) {
			// the checkpoint survives a round trip through a fresh value
			st := it.State()
			it.state = st
		}
		if diff := cmp.Diff(whole, parts); diff != "" {
			t.Errorf("chunk %d: resumed output differs: %s", chunk, diff)
		}
		assert.Equal(t, 11, it.Lines())
	}
}

func TestEmptyProgram(t *testing.T) {
	assert.Empty(t, Interpret(""))
	assert.Empty(t, Interpret("\n\n; just a comment\n"))
}
