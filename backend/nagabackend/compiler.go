package nagabackend

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/hlsl"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/msl"
	nspirv "github.com/gogpu/naga/spirv"
	"go.uber.org/zap"

	"github.com/wippyai/shader-variants/backend"
	"github.com/wippyai/shader-variants/errors"
	"github.com/wippyai/shader-variants/spirv"
)

var irStage = map[backend.Stage]ir.ShaderStage{
	backend.StageVertex:   ir.StageVertex,
	backend.StageFragment: ir.StageFragment,
	backend.StageCompute:  ir.StageCompute,
}

type shader struct {
	module   *ir.Module
	source   string
	preamble string
	defines  map[string]string
	stage    backend.Stage
	parent   backend.StageHandle // NoStage for an original compile
}

type program struct {
	attached []*shader
	linked   map[backend.Stage]*shader
	words    map[backend.Stage][]uint32
}

// Compiler compiles WGSL stages with naga. It is safe for concurrent use.
type Compiler struct {
	shaders  []*shader // handle = index + 1
	programs map[backend.Program]*program
	opts     naga.CompileOptions
	next     backend.Program
	mu       sync.Mutex
	ready    bool
}

var _ backend.Compiler = (*Compiler)(nil)

// New creates a compiler. Call Initialise before use.
func New(opts naga.CompileOptions) *Compiler {
	return &Compiler{opts: opts}
}

// Initialise prepares the compiler. Calling it twice is a no-op.
func (c *Compiler) Initialise() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return nil
	}
	c.programs = make(map[backend.Program]*program)
	c.shaders = nil
	c.ready = true
	Logger().Debug("naga backend initialised",
		zap.Uint8("spirv_major", c.opts.SPIRVVersion.Major),
		zap.Uint8("spirv_minor", c.opts.SPIRVVersion.Minor),
		zap.Bool("validate", c.opts.Validate))
	return nil
}

// Shutdown releases every program and compiled stage.
func (c *Compiler) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return nil
	}
	if n := len(c.programs); n > 0 {
		Logger().Warn("shutdown with live programs", zap.Int("programs", n))
	}
	c.programs = nil
	c.shaders = nil
	c.ready = false
	return nil
}

func (c *Compiler) checkReady() error {
	if !c.ready {
		return errors.New(errors.PhaseBackend, errors.KindClosed).
			Detail("backend is not initialised").
			Build()
	}
	return nil
}

func (c *Compiler) CreateProgram() (backend.Program, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return 0, err
	}
	c.next++
	c.programs[c.next] = &program{}
	return c.next, nil
}

func (c *Compiler) DeleteProgram(p backend.Program) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return err
	}
	if _, ok := c.programs[p]; !ok {
		return errors.InvalidHandle(errors.PhaseBackend, p)
	}
	delete(c.programs, p)
	return nil
}

func (c *Compiler) CompileShader(stage backend.Stage, source, preamble string) (backend.StageHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return backend.NoStage, err
	}
	sh, err := c.compile(stage, source, preamble)
	if err != nil {
		return backend.NoStage, err
	}
	return c.store(sh), nil
}

func (c *Compiler) Recompile(h backend.StageHandle, preamble string) (backend.StageHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return backend.NoStage, err
	}
	orig, err := c.lookup(h)
	if err != nil {
		return backend.NoStage, err
	}
	if orig.parent != backend.NoStage {
		return backend.NoStage, errors.New(errors.PhaseCompile, errors.KindInvalidInput).
			Value(h).
			Detail("stage %d is itself a recompile of stage %d", h, orig.parent).
			Build()
	}
	sh, err := c.compile(orig.stage, orig.source, preamble)
	if err != nil {
		return backend.NoStage, err
	}
	sh.parent = h
	return c.store(sh), nil
}

func (c *Compiler) store(sh *shader) backend.StageHandle {
	c.shaders = append(c.shaders, sh)
	return backend.StageHandle(len(c.shaders))
}

func (c *Compiler) lookup(h backend.StageHandle) (*shader, error) {
	if h == backend.NoStage || int(h) > len(c.shaders) {
		return nil, errors.InvalidHandle(errors.PhaseCompile, h)
	}
	return c.shaders[h-1], nil
}

func (c *Compiler) compile(stage backend.Stage, source, preamble string) (*shader, error) {
	want, ok := irStage[stage]
	if !ok {
		return nil, errors.New(errors.PhaseCompile, errors.KindInvalidInput).
			Value(stage).
			Detail("unknown stage").
			Build()
	}

	text, defines, err := preprocess(preamble + source)
	if err != nil {
		return nil, compileError(stage, "preprocess", err)
	}
	ast, err := naga.Parse(text)
	if err != nil {
		return nil, compileError(stage, "parse", err)
	}
	module, err := naga.LowerWithSource(ast, text)
	if err != nil {
		return nil, compileError(stage, "lower", err)
	}
	if c.opts.Validate {
		verrs, err := naga.Validate(module)
		if err != nil {
			return nil, compileError(stage, "validate", err)
		}
		if len(verrs) > 0 {
			return nil, compileError(stage, "validate", &verrs[0])
		}
	}
	if !slices.ContainsFunc(module.EntryPoints, func(ep ir.EntryPoint) bool { return ep.Stage == want }) {
		return nil, errors.New(errors.PhaseCompile, errors.KindInvalidInput).
			Subject(stage.String()).
			Detail("source has no %s entry point", stage).
			Build()
	}

	Logger().Debug("stage compiled",
		zap.String("stage", stage.String()),
		zap.Int("entry_points", len(module.EntryPoints)),
		zap.Int("defines", len(defines)))

	return &shader{
		module:   module,
		source:   source,
		preamble: preamble,
		defines:  defines,
		stage:    stage,
	}, nil
}

func compileError(stage backend.Stage, step string, err error) *errors.Error {
	Logger().Debug("stage compile failed", zap.String("stage", stage.String()), zap.String("step", step), zap.Error(err))
	return errors.New(errors.PhaseCompile, errors.KindInvalidInput).
		Subject(stage.String()).
		Cause(err).
		Detail("%s failed", step).
		Build()
}

func (c *Compiler) Attach(p backend.Program, h backend.StageHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return err
	}
	prog, ok := c.programs[p]
	if !ok {
		return errors.InvalidHandle(errors.PhaseLink, p)
	}
	sh, err := c.lookup(h)
	if err != nil {
		return err
	}
	prog.attached = append(prog.attached, sh)
	return nil
}

// Link checks the attached stages and generates SPIR-V for each. A failed
// link leaves the program unlinked; attachments are kept either way.
func (c *Compiler) Link(p backend.Program) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return false, err
	}
	prog, ok := c.programs[p]
	if !ok {
		return false, errors.InvalidHandle(errors.PhaseLink, p)
	}

	attached := prog.attached
	prog.linked = nil
	prog.words = nil

	if len(attached) == 0 {
		return false, linkError("no stages attached")
	}
	linked := make(map[backend.Stage]*shader, len(attached))
	for _, sh := range attached {
		if _, dup := linked[sh.stage]; dup {
			return false, linkError(fmt.Sprintf("more than one %s stage attached", sh.stage))
		}
		linked[sh.stage] = sh
	}
	if _, ok := linked[backend.StageCompute]; ok && len(linked) > 1 {
		return false, linkError("compute stage cannot be linked with graphics stages")
	}

	words := make(map[backend.Stage][]uint32, len(linked))
	for stage, sh := range linked {
		w, err := c.generate(stage, sh.module)
		if err != nil {
			return false, errors.New(errors.PhaseLink, errors.KindInvalidData).
				Subject(stage.String()).
				Cause(err).
				Detail("spirv generation failed").
				Build()
		}
		words[stage] = w
	}

	prog.linked = linked
	prog.words = words
	return true, nil
}

func linkError(detail string) *errors.Error {
	return errors.New(errors.PhaseLink, errors.KindInvalidInput).Detail("%s", detail).Build()
}

// generate emits SPIR-V for the entry points of one stage. When the filtered
// module cannot be generated the whole module is emitted instead.
func (c *Compiler) generate(stage backend.Stage, module *ir.Module) ([]uint32, error) {
	filtered := *module
	filtered.EntryPoints = slices.DeleteFunc(slices.Clone(module.EntryPoints), func(ep ir.EntryPoint) bool {
		return ep.Stage != irStage[stage]
	})

	data, err := naga.GenerateSPIRV(&filtered, spirvOptions(c.opts))
	if err != nil && len(filtered.EntryPoints) != len(module.EntryPoints) {
		Logger().Debug("per-stage generation failed, emitting full module",
			zap.String("stage", stage.String()), zap.Error(err))
		data, err = naga.GenerateSPIRV(module, spirvOptions(c.opts))
	}
	if err != nil {
		return nil, err
	}
	return spirv.Decode(data)
}

func spirvOptions(o naga.CompileOptions) nspirv.Options {
	return nspirv.Options{Version: o.SPIRVVersion, Debug: o.Debug}
}

func (c *Compiler) SpirvForStage(p backend.Program, stage backend.Stage) ([]uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	prog, ok := c.programs[p]
	if !ok {
		return nil, errors.InvalidHandle(errors.PhaseSPIRV, p)
	}
	if prog.words == nil {
		return nil, errors.New(errors.PhaseSPIRV, errors.KindNotLinked).Value(p).Build()
	}
	w, ok := prog.words[stage]
	if !ok {
		return nil, errors.NotFound(errors.PhaseSPIRV, stage.String(), nil)
	}
	return slices.Clone(w), nil
}

func (c *Compiler) Disassemble(words []uint32) (string, error) {
	return spirv.Disassemble(words)
}

// Decompile cross-compiles every linked stage in pipeline order. Each stage
// is preceded by a "// <stage>" comment line.
func (c *Compiler) Decompile(p backend.Program, lang backend.Language) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return "", err
	}
	prog, ok := c.programs[p]
	if !ok {
		return "", errors.InvalidHandle(errors.PhaseBackend, p)
	}
	if prog.linked == nil {
		return "", errors.New(errors.PhaseBackend, errors.KindNotLinked).Value(p).Build()
	}

	var b strings.Builder
	for _, stage := range backend.Stages {
		sh, ok := prog.linked[stage]
		if !ok {
			continue
		}
		for _, ep := range sh.module.EntryPoints {
			if ep.Stage != irStage[stage] {
				continue
			}
			code, err := translate(sh.module, ep.Name, lang)
			if err != nil {
				return "", errors.New(errors.PhaseBackend, errors.KindUnsupported).
					Subject(lang.String()).
					Cause(err).
					Detail("cross-compile %s entry point %q", stage, ep.Name).
					Build()
			}
			fmt.Fprintf(&b, "// %s %s\n", stage, ep.Name)
			b.WriteString(code)
			if !strings.HasSuffix(code, "\n") {
				b.WriteByte('\n')
			}
		}
	}
	return b.String(), nil
}

func translate(module *ir.Module, entry string, lang backend.Language) (string, error) {
	switch lang {
	case backend.GLSL:
		opts := glsl.DefaultOptions()
		opts.EntryPoint = entry
		code, _, err := glsl.Compile(module, opts)
		return code, err
	case backend.HLSL:
		opts := hlsl.DefaultOptions()
		opts.EntryPoint = entry
		opts.FakeMissingBindings = true
		code, _, err := hlsl.Compile(module, opts)
		return code, err
	case backend.Metal:
		single := *module
		single.EntryPoints = slices.DeleteFunc(slices.Clone(module.EntryPoints), func(ep ir.EntryPoint) bool {
			return ep.Name != entry
		})
		code, _, err := msl.Compile(&single, msl.DefaultOptions())
		return code, err
	}
	return "", errors.Unsupported(errors.PhaseBackend, "language "+lang.String())
}

func (c *Compiler) ClearShaderCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	Logger().Debug("shader cache cleared", zap.Int("stages", len(c.shaders)))
	c.shaders = nil
}

// StageCount returns the number of cached stages.
func (c *Compiler) StageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.shaders)
}
