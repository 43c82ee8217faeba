package build

import (
	"go.uber.org/multierr"

	"github.com/wippyai/shader-variants/backend"
	"github.com/wippyai/shader-variants/resource"
	"github.com/wippyai/shader-variants/variant"
)

// Status is the outcome of one variant.
type Status uint8

const (
	StatusOK Status = iota
	StatusCompileFailed
	StatusLinkFailed
	StatusOutputFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCompileFailed:
		return "compile failed"
	case StatusLinkFailed:
		return "link failed"
	case StatusOutputFailed:
		return "output failed"
	default:
		return "unknown"
	}
}

// Variant records what happened to one keyword combination.
type Variant struct {
	Err        error
	Spirv      map[backend.Stage]int // word count per fetched stage
	Pass       string
	Keywords   []string
	Coordinate variant.Coordinate
	Artifacts  []string
	Index      int
	KeywordsID uint64
	Program    resource.Handle // zero unless programs are kept
	Matched    int             // words equal to the base, when comparing
	Status     Status
}

// PassResult holds the variants of one pass. A pass whose base program does
// not build is skipped and has no variants.
type PassResult struct {
	Err      error // why the pass was skipped
	Name     string
	Report   string // book report, when comparing
	Axes     []variant.Axis
	Variants []Variant
	Total    int
	Skipped  bool
}

// Result is the outcome of a build.
type Result struct {
	Asset  string
	Passes []PassResult
}

// Counts returns the number of variants that succeeded and failed, and the
// number of skipped passes.
func (r *Result) Counts() (ok, failed, skipped int) {
	for _, p := range r.Passes {
		if p.Skipped {
			skipped++
			continue
		}
		for _, v := range p.Variants {
			if v.Status == StatusOK {
				ok++
			} else {
				failed++
			}
		}
	}
	return ok, failed, skipped
}

// Failed reports whether any pass was skipped or any variant failed.
func (r *Result) Failed() bool {
	_, failed, skipped := r.Counts()
	return failed > 0 || skipped > 0
}

// Err combines the errors of every skipped pass and failed variant.
func (r *Result) Err() error {
	var err error
	for _, p := range r.Passes {
		err = multierr.Append(err, p.Err)
		for _, v := range p.Variants {
			err = multierr.Append(err, v.Err)
		}
	}
	return err
}
