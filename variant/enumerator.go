package variant

import (
	"iter"
	"strconv"
	"strings"

	"github.com/wippyai/shader-variants/errors"
)

// Axis is one row of mutually exclusive keyword options.
type Axis []string

// Coordinate holds one option index per axis, in axis order.
type Coordinate []int

// String formats the coordinate as (i,j,...).
func (c Coordinate) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, v := range c {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteByte(')')
	return b.String()
}

// Enumerator walks the Cartesian product of its axes in odometer order:
// the last axis advances fastest and carries into the axis on its left.
// Enumeration ends when the first axis carries past its last option.
//
// An Enumerator is driven one coordinate at a time with Next, so each
// coordinate can trigger work (a recompile) before the next is produced.
type Enumerator struct {
	axes  []Axis
	idx   []int
	state state
}

type state uint8

const (
	stateFresh state = iota
	stateRunning
	stateDone
)

// New validates the axes and returns an enumerator positioned before the
// first coordinate. Every axis must be non-empty with distinct keywords.
func New(axes ...Axis) (*Enumerator, error) {
	own := make([]Axis, len(axes))
	for i, axis := range axes {
		if len(axis) == 0 {
			return nil, errors.New(errors.PhaseEnumerate, errors.KindInvalidInput).
				Path("axis", strconv.Itoa(i)).
				Detail("axis has no keywords").
				Build()
		}
		seen := make(map[string]struct{}, len(axis))
		for _, kw := range axis {
			if kw == "" {
				return nil, errors.New(errors.PhaseEnumerate, errors.KindInvalidInput).
					Path("axis", strconv.Itoa(i)).
					Detail("empty keyword").
					Build()
			}
			if _, dup := seen[kw]; dup {
				return nil, errors.New(errors.PhaseEnumerate, errors.KindInvalidInput).
					Path("axis", strconv.Itoa(i)).
					Subject(kw).
					Detail("duplicate keyword in axis").
					Build()
			}
			seen[kw] = struct{}{}
		}
		own[i] = append(Axis(nil), axis...)
	}
	return &Enumerator{
		axes: own,
		idx:  make([]int, len(own)),
	}, nil
}

// Axes returns a copy of the enumerator's axes.
func (e *Enumerator) Axes() []Axis {
	out := make([]Axis, len(e.axes))
	for i, a := range e.axes {
		out[i] = append(Axis(nil), a...)
	}
	return out
}

// Count returns the number of coordinates in the product. Zero axes count as
// one empty coordinate.
func (e *Enumerator) Count() int {
	n := 1
	for _, a := range e.axes {
		n *= len(a)
	}
	return n
}

// Next returns the next coordinate, or false once the product is exhausted.
// The returned coordinate is a fresh slice owned by the caller.
func (e *Enumerator) Next() (Coordinate, bool) {
	switch e.state {
	case stateDone:
		return nil, false
	case stateFresh:
		e.state = stateRunning
		return e.current(), true
	}

	for r := len(e.idx) - 1; r >= 0; r-- {
		e.idx[r]++
		if e.idx[r] < len(e.axes[r]) {
			return e.current(), true
		}
		e.idx[r] = 0
	}

	// carried out of the first axis, or there are no axes at all
	e.state = stateDone
	return nil, false
}

// Reset rewinds the enumerator to before the first coordinate.
func (e *Enumerator) Reset() {
	for i := range e.idx {
		e.idx[i] = 0
	}
	e.state = stateFresh
}

// Keywords maps a coordinate to its keyword combination, one keyword per axis
// in axis order.
func (e *Enumerator) Keywords(c Coordinate) ([]string, error) {
	if len(c) != len(e.axes) {
		return nil, errors.New(errors.PhaseEnumerate, errors.KindInvalidInput).
			Detail("coordinate has %d indices, want %d", len(c), len(e.axes)).
			Build()
	}
	out := make([]string, len(c))
	for i, v := range c {
		if v < 0 || v >= len(e.axes[i]) {
			return nil, errors.New(errors.PhaseEnumerate, errors.KindInvalidInput).
				Path("axis", strconv.Itoa(i)).
				Value(v).
				Detail("index %d out of range [0,%d)", v, len(e.axes[i])).
				Build()
		}
		out[i] = e.axes[i][v]
	}
	return out, nil
}

// All returns a restartable sequence over every coordinate and its keywords.
// Each range over the sequence starts from the first coordinate and does not
// disturb the enumerator's own Next position.
func (e *Enumerator) All() iter.Seq2[Coordinate, []string] {
	return func(yield func(Coordinate, []string) bool) {
		walk := &Enumerator{axes: e.axes, idx: make([]int, len(e.axes))}
		for c, ok := walk.Next(); ok; c, ok = walk.Next() {
			kws, _ := walk.Keywords(c)
			if !yield(c, kws) {
				return
			}
		}
	}
}

func (e *Enumerator) current() Coordinate {
	return append(Coordinate(nil), e.idx...)
}
