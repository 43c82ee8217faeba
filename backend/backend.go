package backend

import (
	"strings"

	"github.com/wippyai/shader-variants/errors"
)

// Stage is a pipeline stage kind.
type Stage uint8

const (
	StageVertex Stage = iota + 1
	StageFragment
	StageCompute
)

// Stages lists every stage kind in pipeline order.
var Stages = []Stage{StageVertex, StageFragment, StageCompute}

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// Valid reports whether s names a known stage.
func (s Stage) Valid() bool {
	return s >= StageVertex && s <= StageCompute
}

// ParseStage accepts full and abbreviated stage names in any case.
func ParseStage(name string) (Stage, error) {
	switch strings.ToLower(name) {
	case "vert", "vertex":
		return StageVertex, nil
	case "frag", "fragment":
		return StageFragment, nil
	case "comp", "compute":
		return StageCompute, nil
	}
	return 0, errors.New(errors.PhaseCompile, errors.KindInvalidInput).
		Subject(name).
		Detail("unknown stage").
		Build()
}

// StageHandle identifies a compiled stage: a 1-based position in the
// backend's shader cache. NoStage marks a failed compile.
type StageHandle uint32

// NoStage is the zero stage handle.
const NoStage StageHandle = 0

// Program is a backend-owned program object. The zero value is never issued.
type Program uint64

// Language is a cross-compilation target.
type Language uint8

const (
	GLSL Language = iota + 1
	HLSL
	Metal
)

func (l Language) String() string {
	switch l {
	case GLSL:
		return "glsl"
	case HLSL:
		return "hlsl"
	case Metal:
		return "metal"
	default:
		return "unknown"
	}
}

// Ext returns the conventional file extension for the language.
func (l Language) Ext() string {
	switch l {
	case GLSL:
		return ".glsl"
	case HLSL:
		return ".hlsl"
	case Metal:
		return ".metal"
	default:
		return ".txt"
	}
}

// ParseLanguage accepts "glsl", "hlsl", "metal" or "msl" in any case.
func ParseLanguage(name string) (Language, error) {
	switch strings.ToLower(name) {
	case "glsl":
		return GLSL, nil
	case "hlsl":
		return HLSL, nil
	case "metal", "msl":
		return Metal, nil
	}
	return 0, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Subject(name).
		Detail("unknown target language").
		Build()
}

// Compiler is the shading-compiler backend.
//
// Errors describe the failed request and leave the backend usable, except
// errors of kind closed, which mean the backend is not running.
type Compiler interface {
	Initialise() error
	Shutdown() error

	CreateProgram() (Program, error)
	DeleteProgram(p Program) error
	Attach(p Program, h StageHandle) error
	Link(p Program) (bool, error)

	// CompileShader compiles source with preamble prepended and returns
	// the new stage's handle.
	CompileShader(stage Stage, source, preamble string) (StageHandle, error)

	// Recompile compiles the source of an existing stage again under a
	// new preamble and returns a new handle.
	Recompile(h StageHandle, preamble string) (StageHandle, error)

	// SpirvForStage returns the SPIR-V words of the given stage of a
	// linked program.
	SpirvForStage(p Program, stage Stage) ([]uint32, error)

	Disassemble(words []uint32) (string, error)

	// Decompile cross-compiles a linked program.
	Decompile(p Program, lang Language) (string, error)

	// ClearShaderCache drops every compiled stage. Handles issued before
	// the call become invalid.
	ClearShaderCache()
}
