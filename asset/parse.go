package asset

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/wippyai/shader-variants/asset/internal/line"
	"github.com/wippyai/shader-variants/backend"
	"github.com/wippyai/shader-variants/errors"
	"github.com/wippyai/shader-variants/variant"
)

type state uint8

const (
	scanning state = iota
	inPass
	inStage
)

type action func(p *parser, l line.Line) state

// transitions is keyed by the current state and the classified line. Line
// kinds without an entry leave the state unchanged.
var transitions = [...]map[line.Kind]action{
	scanning: {
		line.Name:     (*parser).name,
		line.Pass:     (*parser).openPass,
		line.Variants: (*parser).variants,
	},
	inPass: {
		line.Name:     (*parser).nested,
		line.Pass:     (*parser).nested,
		line.Variants: (*parser).variants,
		line.Vertex:   (*parser).openStage,
		line.Fragment: (*parser).openStage,
		line.Compute:  (*parser).openStage,
		line.Entry:    (*parser).strayEntry,
	},
	inStage: {
		line.Name:     (*parser).nested,
		line.Pass:     (*parser).nested,
		line.Variants: (*parser).variants,
		line.Vertex:   (*parser).openStage,
		line.Fragment: (*parser).openStage,
		line.Compute:  (*parser).openStage,
		line.Entry:    (*parser).entry,
	},
}

var markerStage = map[line.Kind]backend.Stage{
	line.Vertex:   backend.StageVertex,
	line.Fragment: backend.StageFragment,
	line.Compute:  backend.StageCompute,
}

type parser struct {
	asset  *Asset
	pass   *Pass
	stage  int // index into pass.Stages, valid in inStage
	depth  int
	opened bool
	state  state
}

// Parse builds an asset from description text. Malformed input never fails
// the parse; it is reported through Asset.Diagnostics.
func Parse(text string) *Asset {
	lines := line.Split(text)
	p := &parser{asset: &Asset{lines: make([]string, len(lines))}}
	for i, l := range lines {
		p.asset.lines[i] = l.Text
		p.step(l)
	}
	p.finish(len(lines))
	return p.asset
}

// ParseFile reads and parses path.
func ParseFile(path string) (*Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NotFound(errors.PhaseParse, path, err)
	}
	return Parse(string(data)), nil
}

func (p *parser) step(l line.Line) {
	if act, ok := transitions[p.state][l.Kind]; ok {
		p.state = act(p, l)
	}
	if p.state != scanning {
		p.braces(l)
	}
}

func (p *parser) braces(l line.Line) {
	if l.Open > 0 && !p.opened {
		p.opened = true
		p.pass.Start = l.No
	}
	p.depth += l.Open - l.Close
	if p.depth < 0 {
		p.warn(l.No, "unbalanced closing brace")
		p.depth = 0
	}
	if p.opened && p.depth == 0 {
		p.closePass(l.No)
	}
}

func (p *parser) closePass(no int) {
	if p.state == inStage {
		p.pass.Stages[p.stage].End = no - 1
	}
	p.pass.End = no
	p.pass.Terminated = true
	p.commitPass()
}

func (p *parser) commitPass() {
	p.asset.Passes = append(p.asset.Passes, *p.pass)
	p.pass = nil
	p.opened = false
	p.depth = 0
	p.state = scanning
}

func (p *parser) finish(last int) {
	if p.pass == nil {
		return
	}
	if !p.opened {
		p.errorf(p.pass.Line, "pass %q has no body", p.pass.Name)
	} else {
		p.errorf(last, "unterminated pass %q", p.pass.Name)
	}
	if p.state == inStage {
		p.pass.Stages[p.stage].End = last
	}
	p.pass.End = last
	p.commitPass()
}

func (p *parser) name(l line.Line) state {
	v, ok := p.quoted(l, "NAME")
	if !ok {
		return scanning
	}
	if p.asset.Name != "" {
		p.warn(l.No, "duplicate NAME directive ignored")
		return scanning
	}
	p.asset.Name = v
	return scanning
}

func (p *parser) openPass(l line.Line) state {
	v, _ := p.quoted(l, "PASS")
	p.pass = &Pass{Name: v, Line: l.No}
	return inPass
}

func (p *parser) nested(l line.Line) state {
	p.warn(l.No, "nested "+l.Kind.String()+" directive ignored")
	return p.state
}

func (p *parser) openStage(l line.Line) state {
	if p.state == inStage {
		p.pass.Stages[p.stage].End = l.No - 1
	}
	block := StageBlock{
		Stage:  markerStage[l.Kind],
		Marker: l.No,
		Start:  l.No + 1,
	}
	if i := slices.IndexFunc(p.pass.Stages, func(b StageBlock) bool { return b.Stage == block.Stage }); i >= 0 {
		p.warn(l.No, "duplicate "+block.Stage.String()+" stage replaces the block at line "+strconv.Itoa(p.pass.Stages[i].Marker))
		p.pass.Stages = slices.Delete(p.pass.Stages, i, i+1)
	}
	p.pass.Stages = append(p.pass.Stages, block)
	p.stage = len(p.pass.Stages) - 1
	return inStage
}

func (p *parser) entry(l line.Line) state {
	p.pass.Stages[p.stage].Entry = l.No
	return inStage
}

func (p *parser) strayEntry(l line.Line) state {
	p.warn(l.No, "entry marker outside a stage block")
	return inPass
}

func (p *parser) variants(l line.Line) state {
	axis, dups := parseAxis(line.Rest(l.Text))
	for _, d := range dups {
		p.warn(l.No, "duplicate keyword "+d+" dropped from axis")
	}
	if len(axis) == 0 {
		p.warn(l.No, "VARIANTS directive declares no keywords")
		return p.state
	}
	if p.pass != nil {
		p.pass.Axes = append(p.pass.Axes, axis)
	} else {
		p.asset.Axes = append(p.asset.Axes, axis)
	}
	return p.state
}

func (p *parser) quoted(l line.Line, directive string) (string, bool) {
	v, found, closed := line.Quoted(l.Text)
	switch {
	case !found:
		p.errorf(l.No, directive+" directive without a quoted name")
		return "", false
	case !closed:
		p.warn(l.No, directive+" directive is missing its closing quote")
	}
	return v, true
}

func (p *parser) warn(no int, msg string) {
	p.asset.Diagnostics = append(p.asset.Diagnostics, Diagnostic{Line: no, Severity: SeverityWarning, Message: msg})
}

func (p *parser) errorf(no int, msg string, args ...any) {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	p.asset.Diagnostics = append(p.asset.Diagnostics, Diagnostic{Line: no, Severity: SeverityError, Message: msg})
}

// parseAxis splits a VARIANTS argument list on commas and whitespace, strips
// surrounding quotes and drops repeats.
func parseAxis(s string) (variant.Axis, []string) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	var axis variant.Axis
	var dups []string
	for _, f := range fields {
		f = strings.Trim(f, `"`)
		if f == "" {
			continue
		}
		if slices.Contains(axis, f) {
			dups = append(dups, f)
			continue
		}
		axis = append(axis, f)
	}
	return axis, dups
}
