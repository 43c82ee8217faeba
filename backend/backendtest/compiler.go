// Package backendtest provides a scripted backend.Compiler for tests.
//
// The compiler does not understand any shading language. A compile succeeds
// unless FailCompile says otherwise, a link succeeds unless FailLink says
// otherwise, and the SPIR-V of a linked stage is a header-only module whose
// bound word is derived from the stage's preamble, so different keyword
// combinations produce different words.
package backendtest

import (
	"fmt"
	"hash/fnv"
	"slices"
	"strings"
	"sync"

	"github.com/wippyai/shader-variants/backend"
	"github.com/wippyai/shader-variants/errors"
	"github.com/wippyai/shader-variants/spirv"
)

// Stage is a compiled stage as recorded by the fake.
type Stage struct {
	Kind     backend.Stage
	Source   string
	Preamble string
	Parent   backend.StageHandle
}

type program struct {
	attached []backend.StageHandle
	linked   map[backend.Stage]backend.StageHandle
}

// Compiler is a deterministic backend.Compiler. The exported hooks may be set
// before use; they are called with the compiler lock held.
type Compiler struct {
	// FailCompile, when it returns a non-empty reason, fails the compile.
	FailCompile func(stage backend.Stage, source, preamble string) string
	// FailLink, when it returns a non-empty reason, fails the link.
	FailLink func(stages []Stage) string
	// Words overrides the SPIR-V generated for a linked stage.
	Words func(st Stage) []uint32

	calls    []string
	stages   []Stage
	programs map[backend.Program]*program
	next     backend.Program
	created  int
	deleted  int
	mu       sync.Mutex
	ready    bool
	shutdown bool
}

var _ backend.Compiler = (*Compiler)(nil)

// New creates a scripted compiler.
func New() *Compiler {
	return &Compiler{programs: make(map[backend.Program]*program)}
}

func (c *Compiler) record(format string, args ...any) {
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func (c *Compiler) check() error {
	if !c.ready {
		return errors.New(errors.PhaseBackend, errors.KindClosed).Detail("not initialised").Build()
	}
	return nil
}

func (c *Compiler) Initialise() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("initialise")
	c.ready = true
	return nil
}

func (c *Compiler) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("shutdown")
	if !c.ready {
		return errors.New(errors.PhaseBackend, errors.KindClosed).Detail("shutdown twice").Build()
	}
	c.ready = false
	c.shutdown = true
	return nil
}

func (c *Compiler) CreateProgram() (backend.Program, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return 0, err
	}
	c.next++
	c.programs[c.next] = &program{}
	c.created++
	c.record("create %d", c.next)
	return c.next, nil
}

func (c *Compiler) DeleteProgram(p backend.Program) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return err
	}
	c.record("delete %d", p)
	if _, ok := c.programs[p]; !ok {
		return errors.InvalidHandle(errors.PhaseBackend, p)
	}
	delete(c.programs, p)
	c.deleted++
	return nil
}

func (c *Compiler) Attach(p backend.Program, h backend.StageHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return err
	}
	c.record("attach %d %d", p, h)
	prog, ok := c.programs[p]
	if !ok {
		return errors.InvalidHandle(errors.PhaseLink, p)
	}
	if h == backend.NoStage || int(h) > len(c.stages) {
		return errors.InvalidHandle(errors.PhaseLink, h)
	}
	prog.attached = append(prog.attached, h)
	return nil
}

func (c *Compiler) Link(p backend.Program) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return false, err
	}
	c.record("link %d", p)
	prog, ok := c.programs[p]
	if !ok {
		return false, errors.InvalidHandle(errors.PhaseLink, p)
	}
	prog.linked = nil
	if len(prog.attached) == 0 {
		return false, errors.New(errors.PhaseLink, errors.KindInvalidInput).Detail("no stages attached").Build()
	}

	stages := make([]Stage, 0, len(prog.attached))
	linked := make(map[backend.Stage]backend.StageHandle, len(prog.attached))
	for _, h := range prog.attached {
		st := c.stages[h-1]
		stages = append(stages, st)
		linked[st.Kind] = h
	}
	if c.FailLink != nil {
		if reason := c.FailLink(stages); reason != "" {
			return false, errors.New(errors.PhaseLink, errors.KindInvalidInput).Detail("%s", reason).Build()
		}
	}
	prog.linked = linked
	return true, nil
}

func (c *Compiler) CompileShader(stage backend.Stage, source, preamble string) (backend.StageHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return backend.NoStage, err
	}
	c.record("compile %s", stage)
	return c.compile(Stage{Kind: stage, Source: source, Preamble: preamble})
}

func (c *Compiler) Recompile(h backend.StageHandle, preamble string) (backend.StageHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return backend.NoStage, err
	}
	c.record("recompile %d", h)
	if h == backend.NoStage || int(h) > len(c.stages) {
		return backend.NoStage, errors.InvalidHandle(errors.PhaseCompile, h)
	}
	orig := c.stages[h-1]
	if orig.Parent != backend.NoStage {
		return backend.NoStage, errors.New(errors.PhaseCompile, errors.KindInvalidInput).
			Detail("stage %d is a recompile", h).
			Build()
	}
	return c.compile(Stage{Kind: orig.Kind, Source: orig.Source, Preamble: preamble, Parent: h})
}

func (c *Compiler) compile(st Stage) (backend.StageHandle, error) {
	if !st.Kind.Valid() {
		return backend.NoStage, errors.New(errors.PhaseCompile, errors.KindInvalidInput).Detail("unknown stage").Build()
	}
	if c.FailCompile != nil {
		if reason := c.FailCompile(st.Kind, st.Source, st.Preamble); reason != "" {
			return backend.NoStage, errors.New(errors.PhaseCompile, errors.KindInvalidInput).
				Subject(st.Kind.String()).
				Detail("%s", reason).
				Build()
		}
	}
	c.stages = append(c.stages, st)
	return backend.StageHandle(len(c.stages)), nil
}

func (c *Compiler) SpirvForStage(p backend.Program, stage backend.Stage) ([]uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return nil, err
	}
	c.record("spirv %d %s", p, stage)
	prog, ok := c.programs[p]
	if !ok {
		return nil, errors.InvalidHandle(errors.PhaseSPIRV, p)
	}
	if prog.linked == nil {
		return nil, errors.New(errors.PhaseSPIRV, errors.KindNotLinked).Build()
	}
	h, ok := prog.linked[stage]
	if !ok {
		return nil, errors.NotFound(errors.PhaseSPIRV, stage.String(), nil)
	}
	st := c.stages[h-1]
	if c.Words != nil {
		return slices.Clone(c.Words(st)), nil
	}
	return HeaderWords(st), nil
}

// HeaderWords is the default SPIR-V of a stage: a module header whose
// generator word is the stage kind and whose bound is a hash of the preamble.
func HeaderWords(st Stage) []uint32 {
	h := fnv.New32a()
	h.Write([]byte(st.Preamble))
	return []uint32{spirv.Magic, 0x00010300, uint32(st.Kind), h.Sum32(), 0}
}

func (c *Compiler) Disassemble(words []uint32) (string, error) {
	c.mu.Lock()
	c.record("disassemble %d", len(words))
	c.mu.Unlock()
	return spirv.Disassemble(words)
}

func (c *Compiler) Decompile(p backend.Program, lang backend.Language) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(); err != nil {
		return "", err
	}
	c.record("decompile %d %s", p, lang)
	prog, ok := c.programs[p]
	if !ok {
		return "", errors.InvalidHandle(errors.PhaseBackend, p)
	}
	if prog.linked == nil {
		return "", errors.New(errors.PhaseBackend, errors.KindNotLinked).Build()
	}
	var b strings.Builder
	for _, stage := range backend.Stages {
		if h, ok := prog.linked[stage]; ok {
			fmt.Fprintf(&b, "// %s %s\n%s", lang, stage, c.stages[h-1].Preamble)
		}
	}
	return b.String(), nil
}

func (c *Compiler) ClearShaderCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("clear")
	c.stages = nil
}

// Calls returns every recorded call in order.
func (c *Compiler) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.calls)
}

// Stages returns the compiled stage cache.
func (c *Compiler) Stages() []Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.stages)
}

// Programs returns the number of native programs created, deleted and still live.
func (c *Compiler) Programs() (created, deleted, live int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.created, c.deleted, len(c.programs)
}

// IsShutdown reports whether Shutdown has been called.
func (c *Compiler) IsShutdown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shutdown
}
