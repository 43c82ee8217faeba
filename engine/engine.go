package engine

import (
	stderrors "errors"
	"os"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/shader-variants/backend"
	"github.com/wippyai/shader-variants/book"
	"github.com/wippyai/shader-variants/errors"
	"github.com/wippyai/shader-variants/keyword"
	"github.com/wippyai/shader-variants/resource"
	"github.com/wippyai/shader-variants/spirv"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New(errors.PhaseBackend, errors.KindClosed).
	Detail("engine closed").
	Build()

type program struct {
	log      strings.Builder // applied keywords, one per line
	native   backend.Program
	attached int
	linked   bool
}

// ProgramInfo describes a live program.
type ProgramInfo struct {
	Keywords []string
	Handle   resource.Handle
	Native   backend.Program
	Attached int
	Linked   bool
}

type options struct {
	registry *keyword.Registry
	preamble string
}

// Option configures an Engine.
type Option func(*options)

// WithRegistry shares a keyword registry between engines.
func WithRegistry(r *keyword.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithPreamble sets the initial user preamble.
func WithPreamble(text string) Option {
	return func(o *options) { o.preamble = text }
}

// Engine compiles and links keyword variants through a backend.
type Engine struct {
	backend    backend.Compiler
	programs   *resource.Arena[*program]
	scope      *keyword.Scope
	book       *book.Book
	poisoned   error
	preamble   string
	buf        spirv.Buffer
	lastLinked backend.Program
	mu         sync.Mutex
	closed     bool
}

// New initialises the backend and returns an engine driving it.
func New(c backend.Compiler, opts ...Option) (*Engine, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = keyword.NewRegistry()
	}
	if err := c.Initialise(); err != nil {
		return nil, errors.Fatal(errors.PhaseBackend, err)
	}
	Logger().Info("engine initialised")
	return &Engine{
		backend:  c,
		programs: resource.NewArena[*program](),
		scope:    keyword.NewScope(o.registry),
		preamble: normalisePreamble(o.preamble),
	}, nil
}

func (e *Engine) check() error {
	if e.closed {
		return ErrClosed
	}
	if e.poisoned != nil {
		return errors.New(errors.PhaseBackend, errors.KindPoisoned).
			Cause(e.poisoned).
			Fatal().
			Detail("engine stopped after a fatal error").
			Build()
	}
	return nil
}

// fatal poisons the engine with err and returns it marked fatal.
func (e *Engine) fatal(phase errors.Phase, err error) error {
	ferr := errors.Fatal(phase, err)
	e.poisoned = ferr
	Logger().Error("fatal error", zap.Error(ferr))
	return ferr
}

// backendErr classifies a backend failure. Only a backend that stopped
// running poisons the engine.
func (e *Engine) backendErr(op string, err error, fields ...zap.Field) error {
	var be *errors.Error
	if stderrors.As(err, &be) && be.Kind == errors.KindClosed {
		return e.fatal(errors.PhaseBackend, err)
	}
	Logger().Warn(op+" failed", append(fields, zap.Error(err))...)
	return err
}

func (e *Engine) program(h resource.Handle) (*program, error) {
	p, err := e.programs.Get(h)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateProgram allocates a backend program and returns its handle.
func (e *Engine) CreateProgram() (resource.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return 0, err
	}
	native, err := e.backend.CreateProgram()
	if err != nil {
		return 0, e.backendErr("create program", err)
	}
	h, err := e.programs.Insert(&program{native: native})
	if err != nil {
		return 0, multierr.Append(err, e.backend.DeleteProgram(native))
	}
	Logger().Debug("program created", zap.Stringer("program", h), zap.Uint64("native", uint64(native)))
	return h, nil
}

// DeleteProgram destroys a live program. Deleting a program twice fails.
func (e *Engine) DeleteProgram(h resource.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	p, err := e.programs.Remove(h)
	if err != nil {
		return err
	}
	if p.native == e.lastLinked {
		e.lastLinked = 0
	}
	Logger().Debug("program deleted", zap.Stringer("program", h))
	if err := e.backend.DeleteProgram(p.native); err != nil {
		return e.backendErr("delete program", err, zap.Stringer("program", h))
	}
	return nil
}

// Compile compiles source for stage under the current compile unit. The first
// compile after a link seals the unit. A failed compile returns NoStage and
// the backend's reason.
func (e *Engine) Compile(stage backend.Stage, source string) (backend.StageHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return backend.NoStage, err
	}
	return e.compile(stage, source)
}

// CompileFile compiles the contents of path. An unreadable file is a
// recoverable failure.
func (e *Engine) CompileFile(stage backend.Stage, path string) (backend.StageHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return backend.NoStage, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		Logger().Warn("cannot read stage source", zap.String("path", path), zap.Error(err))
		return backend.NoStage, errors.NotFound(errors.PhaseIO, path, err)
	}
	return e.compile(stage, string(src))
}

func (e *Engine) compile(stage backend.Stage, source string) (backend.StageHandle, error) {
	preamble, err := e.seal()
	if err != nil {
		return backend.NoStage, err
	}
	h, err := e.backend.CompileShader(stage, source, preamble)
	if err != nil {
		return backend.NoStage, e.backendErr("compile", err, zap.String("stage", stage.String()))
	}
	Logger().Debug("stage compiled",
		zap.String("stage", stage.String()),
		zap.Uint32("handle", uint32(h)),
		zap.Uint64("keywords_id", e.scope.ID()))
	return h, nil
}

// seal closes the compile unit and returns the preamble for its compiles.
func (e *Engine) seal() (string, error) {
	unit, err := e.scope.Seal()
	if err != nil {
		Logger().Warn("keyword combination rejected", zap.Error(err))
		return "", errors.New(errors.PhaseCompile, errors.KindCollision).
			Cause(err).
			Detail("keyword combination cannot be compiled").
			Build()
	}
	return e.preamble + unit.Defines(), nil
}

// Recompile compiles the source of an original stage again under the current
// compile unit.
func (e *Engine) Recompile(h backend.StageHandle) (backend.StageHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return backend.NoStage, err
	}
	preamble, err := e.seal()
	if err != nil {
		return backend.NoStage, err
	}
	r, err := e.backend.Recompile(h, preamble)
	if err != nil {
		return backend.NoStage, e.backendErr("recompile", err, zap.Uint32("stage", uint32(h)))
	}
	Logger().Debug("stage recompiled",
		zap.Uint32("from", uint32(h)),
		zap.Uint32("handle", uint32(r)),
		zap.Uint64("keywords_id", e.scope.ID()))
	return r, nil
}

// Attach associates a compiled stage with a program.
func (e *Engine) Attach(h resource.Handle, stage backend.StageHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	p, err := e.program(h)
	if err != nil {
		return err
	}
	if err := e.backend.Attach(p.native, stage); err != nil {
		return e.backendErr("attach", err, zap.Stringer("program", h))
	}
	p.attached++
	return nil
}

// Link links a program and reopens the compile unit. Each call is
// authoritative: the program's linked flag is whatever this link returned.
func (e *Engine) Link(h resource.Handle) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return false, err
	}
	p, err := e.program(h)
	if err != nil {
		return false, err
	}
	ok, err := e.backend.Link(p.native)
	p.linked = ok && err == nil
	e.scope.Reset()
	if err != nil {
		return false, e.backendErr("link", err, zap.Stringer("program", h))
	}
	if p.linked {
		e.lastLinked = p.native
	}
	Logger().Debug("program linked", zap.Stringer("program", h), zap.Bool("linked", p.linked))
	return p.linked, nil
}

// AddKeyword reserves name, adds it to the open compile unit and appends it
// to the program's keyword log. Failure is fatal.
func (e *Engine) AddKeyword(h resource.Handle, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	p, err := e.program(h)
	if err != nil {
		return err
	}
	if _, err := e.scope.Add(name); err != nil {
		return e.fatal(errors.PhaseKeyword, err)
	}
	p.log.WriteString(name)
	p.log.WriteByte('\n')
	Logger().Debug("keyword added", zap.Stringer("program", h), zap.String("keyword", name))
	return nil
}

// ReserveKeyword registers name. Failure is fatal.
func (e *Engine) ReserveKeyword(name string) error {
	return e.keywordOp("reserve", name, func() error {
		_, err := e.scope.Registry().Reserve(name)
		return err
	})
}

// EnableKeyword enables a reserved keyword for this engine. Failure is fatal.
func (e *Engine) EnableKeyword(name string) error {
	return e.keywordOp("enable", name, func() error { return e.scope.Enable(name) })
}

// DisableKeyword disables a keyword enabled with EnableKeyword. Failure is fatal.
func (e *Engine) DisableKeyword(name string) error {
	return e.keywordOp("disable", name, func() error { return e.scope.Disable(name) })
}

// EnableGlobalKeyword enables a reserved keyword in the shared registry.
// Failure is fatal.
func (e *Engine) EnableGlobalKeyword(name string) error {
	return e.keywordOp("enable global", name, func() error { return e.scope.Registry().EnableGlobal(name) })
}

// DisableGlobalKeyword disables a globally enabled keyword. Failure is fatal.
func (e *Engine) DisableGlobalKeyword(name string) error {
	return e.keywordOp("disable global", name, func() error { return e.scope.Registry().DisableGlobal(name) })
}

func (e *Engine) keywordOp(op, name string, fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return e.fatal(errors.PhaseKeyword, err)
	}
	Logger().Debug("keyword "+op, zap.String("keyword", name))
	return nil
}

// SetPreamble sets the text prepended to every later compile.
func (e *Engine) SetPreamble(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	e.preamble = normalisePreamble(text)
	return nil
}

// ClearPreamble removes the user preamble.
func (e *Engine) ClearPreamble() error {
	return e.SetPreamble("")
}

func normalisePreamble(text string) string {
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text
}

// SpirvForStage fetches the SPIR-V of one stage of a linked program into the
// engine buffer and returns its word count. On any failure the buffer is
// left empty.
func (e *Engine) SpirvForStage(h resource.Handle, stage backend.Stage) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buf.Clear()
	if err := e.check(); err != nil {
		return 0, err
	}
	p, err := e.program(h)
	if err != nil {
		return 0, err
	}
	if !p.linked {
		return 0, errors.New(errors.PhaseSPIRV, errors.KindNotLinked).
			Value(h).
			Detail("program %s is not linked", h).
			Build()
	}
	words, err := e.backend.SpirvForStage(p.native, stage)
	if err != nil {
		return 0, e.backendErr("fetch spirv", err, zap.Stringer("program", h), zap.String("stage", stage.String()))
	}
	e.buf.Set(words)
	return e.buf.Len(), nil
}

// Spirv returns a copy of the engine buffer.
func (e *Engine) Spirv() []uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf.Words()
}

// WriteSpirv writes the engine buffer to path as raw little-endian words.
func (e *Engine) WriteSpirv(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	return spirv.WriteFile(path, e.buf.View())
}

// ReadSpirv replaces the engine buffer with the words stored at path. The
// buffer is left empty if the file cannot be read.
func (e *Engine) ReadSpirv(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	words, err := spirv.ReadFile(path)
	if err != nil {
		e.buf.Clear()
		return err
	}
	e.buf.Set(words)
	return nil
}

// Disassemble renders the engine buffer as text.
func (e *Engine) Disassemble() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	if e.buf.Len() == 0 {
		return "", errors.New(errors.PhaseSPIRV, errors.KindInvalidData).Detail("buffer is empty").Build()
	}
	return e.backend.Disassemble(e.buf.View())
}

// Decompile cross-compiles the most recently linked program.
func (e *Engine) Decompile(lang backend.Language) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	if e.lastLinked == 0 {
		return "", errors.New(errors.PhaseBackend, errors.KindNotLinked).
			Detail("no program has been linked").
			Build()
	}
	out, err := e.backend.Decompile(e.lastLinked, lang)
	if err != nil {
		return "", e.backendErr("decompile", err, zap.String("language", lang.String()))
	}
	return out, nil
}

// KeywordsID returns the combination id of the most recently sealed unit.
func (e *Engine) KeywordsID() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scope.ID()
}

// KeywordsFromID returns the keywords of a sealed combination, one per line.
func (e *Engine) KeywordsFromID(id uint64) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scope.KeywordsFromID(id)
}

// KeywordDump lists every reserved keyword with its hash.
func (e *Engine) KeywordDump() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scope.Registry().Dump()
}

// Registry returns the keyword registry.
func (e *Engine) Registry() *keyword.Registry {
	return e.scope.Registry()
}

// ClearShaderCache drops every compiled stage in the backend.
func (e *Engine) ClearShaderCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.check() != nil {
		return
	}
	e.backend.ClearShaderCache()
}

// CreateBook opens a book with the engine buffer as its base.
func (e *Engine) CreateBook() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	e.book = book.New(e.buf.View())
	return nil
}

// AddChapter compares the engine buffer with the base of the open book.
// The chapter is labelled with the current keyword combination id.
func (e *Engine) AddChapter() ([]book.Section, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return nil, err
	}
	if e.book == nil {
		return nil, errors.NotFound(errors.PhaseSPIRV, "book", nil)
	}
	return e.book.AddChapter(e.scope.ID(), e.buf.View()), nil
}

// Book returns the open book, or nil.
func (e *Engine) Book() *book.Book {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book
}

// ProgramInfo describes a live program.
func (e *Engine) ProgramInfo(h resource.Handle) (ProgramInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return ProgramInfo{}, err
	}
	p, err := e.program(h)
	if err != nil {
		return ProgramInfo{}, err
	}
	return ProgramInfo{
		Keywords: strings.Fields(p.log.String()),
		Handle:   h,
		Native:   p.native,
		Attached: p.attached,
		Linked:   p.linked,
	}, nil
}

// Programs returns the number of live programs.
func (e *Engine) Programs() int {
	return e.programs.Len()
}

// Close destroys every live program and shuts the backend down. It runs even
// on a poisoned engine; closing twice is a no-op.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	var err error
	swept := 0
	e.programs.Close(func(h resource.Handle, p *program) {
		swept++
		err = multierr.Append(err, e.backend.DeleteProgram(p.native))
	})
	e.lastLinked = 0
	e.buf.Clear()
	err = multierr.Append(err, e.backend.Shutdown())
	Logger().Info("engine closed", zap.Int("swept", swept), zap.Error(err))
	return err
}
