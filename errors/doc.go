// Package errors provides structured error types for the shader variant compiler.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the offending subject (keyword, file, handle), a location
// path and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseKeyword, errors.KindNotEnabled).
//		Subject("LIT").
//		Detail("keyword is not enabled in the current unit").
//		Fatal().
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotReserved("LIT")
//	err := errors.StaleHandle(errors.PhaseProgram, h)
//
// # Fatal errors
//
// Keyword reservation and activation failures are fatal: the keyword table is
// shared by every later compile, so a desync would corrupt every variant. Fatal
// errors carry Fatal=true and are detected with IsFatal anywhere in a wrapped
// chain. Compile and link failures are never errors here; they are reported as
// sentinel values by the engine.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
