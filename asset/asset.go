package asset

import (
	"fmt"
	"strings"

	"github.com/wippyai/shader-variants/backend"
	"github.com/wippyai/shader-variants/variant"
)

// Severity grades a diagnostic.
type Severity uint8

const (
	SeverityWarning Severity = iota + 1
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic reports a problem at a 1-based line.
type Diagnostic struct {
	Message  string
	Line     int
	Severity Severity
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %s", d.Line, d.Severity, d.Message)
}

// StageBlock is one stage's source inside a pass. Start and End are 1-based
// inclusive line numbers; Start > End means the block is empty.
type StageBlock struct {
	Stage  backend.Stage
	Marker int // line of the stage marker
	Start  int
	End    int
	Entry  int // line of the entry marker, 0 when none
}

// Empty reports whether the block holds no lines.
func (b StageBlock) Empty() bool {
	return b.Start > b.End
}

// Pass is a named body delimited by braces.
type Pass struct {
	Name       string
	Line       int // line of the PASS directive
	Start      int // line of the first '{', 0 when the body never opened
	End        int // line where nesting returned to zero
	Stages     []StageBlock
	Axes       []variant.Axis // declared inside the body
	Terminated bool
}

// Stage returns the block for kind s.
func (p *Pass) Stage(s backend.Stage) (StageBlock, bool) {
	for _, b := range p.Stages {
		if b.Stage == s {
			return b, true
		}
	}
	return StageBlock{}, false
}

// Asset is a parsed shader description. It is not modified after Parse
// returns.
type Asset struct {
	Name        string
	Passes      []Pass
	Axes        []variant.Axis // declared at top level
	Diagnostics []Diagnostic
	lines       []string
}

// LineCount returns the number of source lines.
func (a *Asset) LineCount() int {
	return len(a.lines)
}

// Lines joins source lines start through end (1-based, inclusive), clamped
// to the input.
func (a *Asset) Lines(start, end int) string {
	start = max(start, 1)
	end = min(end, len(a.lines))
	if start > end {
		return ""
	}
	return strings.Join(a.lines[start-1:end], "\n") + "\n"
}

// Source returns the text of a stage block.
func (a *Asset) Source(b StageBlock) string {
	return a.Lines(b.Start, b.End)
}

// Pass returns the pass with the given name.
func (a *Asset) Pass(name string) (*Pass, bool) {
	for i := range a.Passes {
		if a.Passes[i].Name == name {
			return &a.Passes[i], true
		}
	}
	return nil, false
}

// AxesFor returns the top-level axes followed by the axes of p.
func (a *Asset) AxesFor(p *Pass) []variant.Axis {
	out := make([]variant.Axis, 0, len(a.Axes)+len(p.Axes))
	out = append(out, a.Axes...)
	return append(out, p.Axes...)
}

// Keywords returns every distinct keyword of every axis in declaration order.
func (a *Asset) Keywords() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(axes []variant.Axis) {
		for _, ax := range axes {
			for _, kw := range ax {
				if !seen[kw] {
					seen[kw] = true
					out = append(out, kw)
				}
			}
		}
	}
	add(a.Axes)
	for i := range a.Passes {
		add(a.Passes[i].Axes)
	}
	return out
}

// HasErrors reports whether any diagnostic has error severity.
func (a *Asset) HasErrors() bool {
	for _, d := range a.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
