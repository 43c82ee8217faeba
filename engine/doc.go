// Package engine drives a shading backend through keyword variants.
//
// An Engine owns the program table, the keyword scope, the user preamble and
// the SPIR-V buffer of the most recently fetched stage. Every operation is
// serialised behind one lock.
//
// # Programs
//
// CreateProgram returns a generation-stamped handle. Deleting a program
// releases its slot to a free-list; the lowest free slot is reused first and
// its generation is bumped, so a handle kept past DeleteProgram fails with a
// stale handle error instead of reaching the new occupant. Close destroys
// every program still alive, exactly once.
//
// # Compile units
//
// Keywords are added to a program between a Link and the next compile:
//
//	p, _ := e.CreateProgram()
//	e.AddKeyword(p, "LIT")          // unit open
//	v, _ := e.Recompile(baseVertex) // unit sealed, "#define LIT" prepended
//	f, _ := e.Recompile(baseFragment)
//	e.Attach(p, v)
//	e.Attach(p, f)
//	ok, _ := e.Link(p)              // unit reset
//
// The preamble of a compile is the user preamble followed by one #define per
// keyword of the unit: added keywords, scoped enables and global enables.
//
// # Failures
//
// Compile and link failures are recoverable: the zero stage handle or false
// is returned with the backend's reason and the engine stays usable. Keyword
// failures are fatal. After a fatal error the engine is poisoned and every
// later operation fails with a poisoned error wrapping the cause; only Close
// still runs.
package engine
