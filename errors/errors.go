package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
)

// Phase names the stage of work that failed.
type Phase string

const (
	PhaseParse     Phase = "parse"     // shader description parsing
	PhaseEnumerate Phase = "enumerate" // keyword axis validation
	PhaseKeyword   Phase = "keyword"   // keyword registry operations
	PhaseCompile   Phase = "compile"   // stage compilation
	PhaseLink      Phase = "link"      // program linking
	PhaseProgram   Phase = "program"   // program table operations
	PhaseSPIRV     Phase = "spirv"     // SPIR-V buffer and codec
	PhaseIO        Phase = "io"        // file system access
	PhaseConfig    Phase = "config"    // configuration loading
	PhaseBackend   Phase = "backend"   // shading backend lifecycle
)

// Kind classifies what went wrong.
type Kind string

const (
	KindInvalidHandle Kind = "invalid_handle"
	KindStaleHandle   Kind = "stale_handle"
	KindNotReserved   Kind = "not_reserved"
	KindNotEnabled    Kind = "not_enabled"
	KindCollision     Kind = "collision"
	KindLocked        Kind = "locked"
	KindNotLinked     Kind = "not_linked"
	KindInvalidData   Kind = "invalid_data"
	KindInvalidInput  Kind = "invalid_input"
	KindNotFound      Kind = "not_found"
	KindUnsupported   Kind = "unsupported"
	KindClosed        Kind = "closed"
	KindPoisoned      Kind = "poisoned"
)

// Error describes a failed operation. Phase and Kind identify the failure
// class and are what Is compares; the other fields are context for people.
type Error struct {
	Value   any      // offending value: handle, hash, word offset
	Cause   error    // underlying error, if any
	Phase   Phase    // where it happened
	Kind    Kind     // what went wrong
	Subject string   // keyword, file or object name
	Detail  string   // free-form explanation
	Path    []string // location inside the description, outermost first
	Fatal   bool     // the engine cannot continue after this error
}

// Error renders the error on one line:
//
//	fatal keyword not_reserved "LIT" at pass.main: enable failed: <cause>
func (e *Error) Error() string {
	parts := make([]string, 0, 4)

	head := string(e.Phase) + " " + string(e.Kind)
	if e.Fatal {
		head = "fatal " + head
	}
	if e.Subject != "" {
		head += " " + strconv.Quote(e.Subject)
	}
	if len(e.Path) > 0 {
		head += " at " + strings.Join(e.Path, ".")
	}
	parts = append(parts, head)

	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same Phase and Kind, so a bare
// &Error{Phase: p, Kind: k} works as a target for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Phase == e.Phase && t.Kind == e.Kind
}

// Builder assembles an Error field by field:
//
//	errors.New(errors.PhaseKeyword, errors.KindNotReserved).
//		Subject(name).
//		Detail("keyword must be reserved before use").
//		Build()
type Builder struct {
	e *Error
}

// New starts an error of the given phase and kind.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{e: &Error{Phase: phase, Kind: kind}}
}

// Path sets the location inside the description (asset, pass, stage).
func (b *Builder) Path(elems ...string) *Builder {
	b.e.Path = elems
	return b
}

// Subject names the keyword, file or object the error is about.
func (b *Builder) Subject(s string) *Builder {
	b.e.Subject = s
	return b
}

func (b *Builder) Value(v any) *Builder {
	b.e.Value = v
	return b
}

func (b *Builder) Cause(err error) *Builder {
	b.e.Cause = err
	return b
}

func (b *Builder) Fatal() *Builder {
	b.e.Fatal = true
	return b
}

// Detail sets the explanation. With args, format is a fmt format string.
func (b *Builder) Detail(format string, args ...any) *Builder {
	if len(args) == 0 {
		b.e.Detail = format
		return b
	}
	b.e.Detail = fmt.Sprintf(format, args...)
	return b
}

func (b *Builder) Build() *Error {
	return b.e
}

// Fatal marks err as fatal. Non-structured errors are wrapped.
func Fatal(phase Phase, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		c := *e
		c.Fatal = true
		return &c
	}
	return &Error{
		Phase: phase,
		Kind:  KindInvalidData,
		Cause: err,
		Fatal: true,
	}
}

// IsFatal reports whether any error in err's chain is marked fatal.
func IsFatal(err error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Fatal {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// InvalidHandle reports a handle that does not name a live slot.
func InvalidHandle(phase Phase, handle any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Detail: fmt.Sprintf("handle %v does not refer to a live object", handle),
		Value:  handle,
	}
}

// StaleHandle reports a handle whose slot was released or reused since it
// was issued.
func StaleHandle(phase Phase, handle any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindStaleHandle,
		Detail: fmt.Sprintf("handle %v is stale", handle),
		Value:  handle,
	}
}

// NotReserved reports a keyword used before Reserve.
func NotReserved(keyword string) *Error {
	return &Error{
		Phase:   PhaseKeyword,
		Kind:    KindNotReserved,
		Subject: keyword,
		Detail:  "keyword must be reserved before use",
	}
}

// Collision reports two keyword names with the same hash.
func Collision(keyword, existing string, hash uint64) *Error {
	return &Error{
		Phase:   PhaseKeyword,
		Kind:    KindCollision,
		Subject: keyword,
		Detail:  fmt.Sprintf("collides with hash 0x%016x for %q", hash, existing),
		Value:   hash,
	}
}

// Unsupported reports a feature the backend does not implement.
func Unsupported(phase Phase, feature string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: feature + " not supported",
	}
}

// NotFound reports a missing file or named object.
func NotFound(phase Phase, subject string, cause error) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindNotFound,
		Subject: subject,
		Cause:   cause,
	}
}

// Wrap attaches a phase and kind to an error from outside the module.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
