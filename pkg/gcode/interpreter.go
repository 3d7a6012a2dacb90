package gcode

import (
	"strings"

	"gcodeview/pkg/geometry"
)

// Segment is one linear move.
type Segment struct {
	Start   geometry.Position
	End     geometry.Position
	Feature FeatureType
	Layer   int
	// Deposits is set when the move carried a positive E word, even if no
	// hint was active and the move classifies as Travel.
	Deposits bool
	// Line is the 1-based source line of the move.
	Line int
}

// State is everything the interpreter carries from one line to the next.
// It is also the checkpoint needed to resume after a yield.
type State struct {
	Position geometry.Position
	Layer    int
	Hint     FeatureType
	LastZ    float64
	HasZ     bool
}

// Step applies one instruction to s. It returns the new state and, for G0/G1
// moves, the emitted segment.
func Step(s State, in Instruction) (State, Segment, bool) {
	if in.HasHint {
		s.Hint = in.Hint
	}

	g, ok := in.Field('G')
	if !ok || (g != 0 && g != 1) {
		return s, Segment{}, false
	}

	target := s.Position
	if x, ok := in.Field('X'); ok {
		target.X = x
	}
	if y, ok := in.Field('Y'); ok {
		target.Y = y
	}
	if z, ok := in.Field('Z'); ok {
		target.Z = z
		if !s.HasZ {
			s.HasZ = true
			s.LastZ = z
		} else if z != s.LastZ {
			s.LastZ = z
			s.Layer++
		}
	}

	seg := Segment{
		Start:   s.Position,
		End:     target,
		Feature: Travel,
		Layer:   s.Layer,
	}
	if e, ok := in.Field('E'); ok && e > 0 {
		seg.Deposits = true
		seg.Feature = s.Hint
	}

	s.Position = target
	return s, seg, true
}

// Interpreter walks a program line by line. It can be stopped after any
// number of lines and picked up again later.
type Interpreter struct {
	src   string
	pos   int // byte offset of the next unread line
	line  int // lines consumed so far
	state State
}

func NewInterpreter(src string) *Interpreter {
	return &Interpreter{src: src}
}

// State returns the current checkpoint.
func (it *Interpreter) State() State {
	return it.state
}

// Lines returns the number of source lines consumed so far.
func (it *Interpreter) Lines() int {
	return it.line
}

func (it *Interpreter) Done() bool {
	return it.pos >= len(it.src)
}

// Next interprets up to n lines, passing each emitted segment to emit, and
// reports whether the whole program has been consumed.
func (it *Interpreter) Next(n int, emit func(Segment)) bool {
	for i := 0; i < n && !it.Done(); i++ {
		line := it.readLine()
		if strings.TrimSpace(line) == "" {
			continue
		}
		var (
			seg Segment
			ok  bool
		)
		it.state, seg, ok = Step(it.state, Tokenize(line))
		if ok {
			seg.Line = it.line
			emit(seg)
		}
	}
	return it.Done()
}

func (it *Interpreter) readLine() string {
	rest := it.src[it.pos:]
	end := strings.IndexByte(rest, '\n')
	if end < 0 {
		it.pos = len(it.src)
	} else {
		rest = rest[:end]
		it.pos += end + 1
	}
	it.line++
	return strings.TrimSuffix(rest, "\r")
}

// Interpret runs a whole program and returns its segments.
func Interpret(src string) []Segment {
	var segs []Segment
	it := NewInterpreter(src)
	for !it.Next(1<<16, func(s Segment) { segs = append(segs, s) }) {
	}
	return segs
}
