package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/shader-variants/asset"
	"github.com/wippyai/shader-variants/backend"
	"github.com/wippyai/shader-variants/engine"
	"github.com/wippyai/shader-variants/errors"
	"github.com/wippyai/shader-variants/resource"
	"github.com/wippyai/shader-variants/variant"
)

// Options controls a build.
type Options struct {
	// Progress, if set, is called after every variant.
	Progress func(Event)

	// OutDir receives artifacts. Nothing is written when empty.
	OutDir string

	// Passes restricts the build to the named passes. Empty builds all.
	Passes []string

	// Axes are appended after the asset's own axes for every pass.
	Axes []variant.Axis

	// Targets lists the languages each linked variant is cross-compiled to.
	Targets []backend.Language

	// WriteSpirv writes one .spv file per stage of every linked variant.
	WriteSpirv bool

	// KeepPrograms leaves variant programs alive in the engine.
	KeepPrograms bool

	// Compare records how many words of each variant's first stage match
	// the base program.
	Compare bool
}

// Event reports build progress.
type Event struct {
	Pass    string
	Variant Variant
	Done    int
	Total   int
}

// Driver builds variants through an engine.
type Driver struct {
	engine *engine.Engine
	opts   Options
}

// New creates a driver.
func New(e *engine.Engine, opts Options) *Driver {
	return &Driver{engine: e, opts: opts}
}

type stageSource struct {
	block asset.StageBlock
	base  backend.StageHandle
}

// Run builds every selected pass of a. The returned error is non-nil only for
// a fatal engine error or a cancelled context; in both cases the result holds
// everything built so far.
func (d *Driver) Run(ctx context.Context, a *asset.Asset) (*Result, error) {
	res := &Result{Asset: a.Name}
	for i := range a.Passes {
		p := &a.Passes[i]
		if !d.selected(p.Name) {
			continue
		}
		pr, err := d.runPass(ctx, a, p)
		res.Passes = append(res.Passes, pr)
		if err != nil {
			return res, err
		}
	}
	ok, failed, skipped := res.Counts()
	Logger().Info("build finished",
		zap.String("asset", a.Name),
		zap.Int("ok", ok),
		zap.Int("failed", failed),
		zap.Int("skipped_passes", skipped))
	return res, nil
}

func (d *Driver) selected(name string) bool {
	if len(d.opts.Passes) == 0 {
		return true
	}
	for _, n := range d.opts.Passes {
		if n == name {
			return true
		}
	}
	return false
}

func (d *Driver) runPass(ctx context.Context, a *asset.Asset, p *asset.Pass) (PassResult, error) {
	axes := append(a.AxesFor(p), d.opts.Axes...)
	pr := PassResult{Name: p.Name, Axes: axes}
	log := Logger().With(zap.String("pass", p.Name))

	skip := func(err error) (PassResult, error) {
		pr.Skipped = true
		pr.Err = err
		log.Warn("pass skipped", zap.Error(err))
		if errors.IsFatal(err) {
			return pr, err
		}
		return pr, nil
	}

	en, err := variant.New(axes...)
	if err != nil {
		return skip(err)
	}
	pr.Total = en.Count()

	baseProg, stages, err := d.base(a, p)
	if err != nil {
		return skip(err)
	}
	defer d.engine.ClearShaderCache()

	if d.opts.Compare {
		_, err := d.engine.SpirvForStage(baseProg, stages[0].block.Stage)
		if err == nil {
			err = d.engine.CreateBook()
		}
		if err != nil {
			d.engine.DeleteProgram(baseProg)
			return skip(err)
		}
	}
	if !d.opts.KeepPrograms {
		if err := d.engine.DeleteProgram(baseProg); errors.IsFatal(err) {
			return pr, err
		}
	}

	log.Info("building variants", zap.Int("axes", len(axes)), zap.Int("variants", pr.Total))

	for c, ok := en.Next(); ok; c, ok = en.Next() {
		if err := ctx.Err(); err != nil {
			return pr, err
		}
		kws, _ := en.Keywords(c)
		v, err := d.variant(a, p, stages, len(pr.Variants), c, kws)
		pr.Variants = append(pr.Variants, v)
		if d.opts.Progress != nil {
			d.opts.Progress(Event{Pass: p.Name, Variant: v, Done: len(pr.Variants), Total: pr.Total})
		}
		if err != nil {
			return pr, err
		}
	}

	if d.opts.Compare {
		if b := d.engine.Book(); b != nil {
			pr.Report = b.Report()
		}
	}
	return pr, nil
}

// base compiles and links the pass with no added keywords. The base stage
// handles are what every variant recompiles.
func (d *Driver) base(a *asset.Asset, p *asset.Pass) (resource.Handle, []stageSource, error) {
	var stages []stageSource
	for _, b := range p.Stages {
		if b.Empty() {
			Logger().Warn("empty stage block", zap.String("pass", p.Name), zap.String("stage", b.Stage.String()))
			continue
		}
		stages = append(stages, stageSource{block: b})
	}
	if len(stages) == 0 {
		return 0, nil, errors.New(errors.PhaseLink, errors.KindInvalidInput).
			Subject(p.Name).
			Detail("pass has no stages").
			Build()
	}

	prog, err := d.engine.CreateProgram()
	if err != nil {
		return 0, nil, err
	}

	var compileErr error
	for i := range stages {
		h, err := d.engine.Compile(stages[i].block.Stage, a.Source(stages[i].block))
		if err != nil {
			if errors.IsFatal(err) {
				return 0, nil, err
			}
			compileErr = err
			continue
		}
		stages[i].base = h
		if err := d.engine.Attach(prog, h); err != nil {
			if errors.IsFatal(err) {
				return 0, nil, err
			}
			compileErr = err
		}
	}

	// link even after a failed compile so the compile unit is closed
	linked, err := d.engine.Link(prog)
	if compileErr == nil && err == nil && !linked {
		err = errors.New(errors.PhaseLink, errors.KindInvalidInput).Subject(p.Name).Detail("base program did not link").Build()
	}
	if compileErr != nil || err != nil {
		d.engine.DeleteProgram(prog)
		if compileErr != nil {
			return 0, nil, compileErr
		}
		return 0, nil, err
	}
	return prog, stages, nil
}

func (d *Driver) variant(a *asset.Asset, p *asset.Pass, stages []stageSource, index int, c variant.Coordinate, kws []string) (Variant, error) {
	v := Variant{
		Pass:       p.Name,
		Index:      index,
		Coordinate: c,
		Keywords:   kws,
		Spirv:      make(map[backend.Stage]int, len(stages)),
	}
	log := Logger().With(zap.String("pass", p.Name), zap.Strings("keywords", kws))

	prog, err := d.engine.CreateProgram()
	if err != nil {
		v.Status, v.Err = StatusCompileFailed, err
		return v, fatalOnly(err)
	}
	if d.opts.KeepPrograms {
		v.Program = prog
	} else {
		defer d.engine.DeleteProgram(prog)
	}

	for _, kw := range kws {
		if err := d.engine.AddKeyword(prog, kw); err != nil {
			v.Status, v.Err = StatusCompileFailed, err
			return v, err
		}
	}

	for _, s := range stages {
		h, err := d.engine.Recompile(s.base)
		if err != nil {
			if errors.IsFatal(err) {
				v.Status, v.Err = StatusCompileFailed, err
				return v, err
			}
			if v.Err == nil {
				v.Status, v.Err = StatusCompileFailed, err
			}
			continue
		}
		if err := d.engine.Attach(prog, h); err != nil {
			if errors.IsFatal(err) {
				v.Status, v.Err = StatusCompileFailed, err
				return v, err
			}
			if v.Err == nil {
				v.Status, v.Err = StatusCompileFailed, err
			}
		}
	}
	v.KeywordsID = d.engine.KeywordsID()

	linked, err := d.engine.Link(prog)
	if v.Err != nil {
		log.Warn("variant failed to compile", zap.Error(v.Err))
		return v, fatalOnly(err)
	}
	if err != nil || !linked {
		v.Status, v.Err = StatusLinkFailed, err
		log.Warn("variant failed to link", zap.Error(err))
		return v, fatalOnly(err)
	}

	if err := d.outputs(a, prog, stages, &v); err != nil {
		if errors.IsFatal(err) {
			return v, err
		}
		v.Status, v.Err = StatusOutputFailed, err
		log.Warn("variant output failed", zap.Error(err))
		return v, nil
	}
	log.Debug("variant built", zap.Uint64("keywords_id", v.KeywordsID))
	return v, nil
}

func (d *Driver) outputs(a *asset.Asset, prog resource.Handle, stages []stageSource, v *Variant) error {
	base := d.artifactBase(a, v)
	if base != "" {
		if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
			return errors.Wrap(errors.PhaseIO, errors.KindInvalidData, err, "create output directory")
		}
	}

	for i, s := range stages {
		n, err := d.engine.SpirvForStage(prog, s.block.Stage)
		if err != nil {
			return err
		}
		v.Spirv[s.block.Stage] = n
		if i == 0 && d.opts.Compare {
			sections, err := d.engine.AddChapter()
			if err != nil {
				return err
			}
			for _, sec := range sections {
				if sec.Match {
					v.Matched += sec.Len()
				}
			}
		}
		if base != "" && d.opts.WriteSpirv {
			path := base + "." + s.block.Stage.String() + ".spv"
			if err := d.engine.WriteSpirv(path); err != nil {
				return err
			}
			v.Artifacts = append(v.Artifacts, path)
		}
	}

	if base == "" {
		return nil
	}
	for _, lang := range d.opts.Targets {
		code, err := d.engine.Decompile(lang)
		if err != nil {
			return err
		}
		path := base + lang.Ext()
		if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
			return errors.Wrap(errors.PhaseIO, errors.KindInvalidData, err, "write "+path)
		}
		v.Artifacts = append(v.Artifacts, path)
	}
	return nil
}

// artifactBase returns OutDir/<asset>/<pass>/<index>_<keywords>, or "" when
// no artifact is requested.
func (d *Driver) artifactBase(a *asset.Asset, v *Variant) string {
	if d.opts.OutDir == "" || (!d.opts.WriteSpirv && len(d.opts.Targets) == 0) {
		return ""
	}
	name := "base"
	if len(v.Keywords) > 0 {
		name = strings.Join(v.Keywords, "+")
	}
	return filepath.Join(d.opts.OutDir, fileName(a.Name), fileName(v.Pass), fmt.Sprintf("%03d_%s", v.Index, fileName(name)))
}

func fileName(s string) string {
	if s == "" {
		return "unnamed"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, s)
}

func fatalOnly(err error) error {
	if errors.IsFatal(err) {
		return err
	}
	return nil
}
