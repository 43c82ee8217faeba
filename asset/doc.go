// Package asset parses multi-pass shader descriptions.
//
// A description is line oriented. Directives are matched on the case-folded
// first token of a line; stage and entry markers on the case-folded suffix:
//
//	NAME "Sky"
//	VARIANTS FOG_ON, FOG_OFF
//	PASS "Main" {
//	    VARIANTS LIT UNLIT
//	    [VERT]
//	    // ENTRY
//	    @vertex fn vs(...) -> ... { ... }
//	    [FRAG]
//	    @fragment fn fs(...) -> ... { ... }
//	}
//
// A pass body runs from the line of its first '{' to the line where brace
// nesting returns to zero. A stage block starts on the line after its marker
// and ends on the line before the next marker or before the closing line.
//
// VARIANTS declares one keyword axis. Top-level axes apply to every pass;
// axes inside a body are appended for that pass only.
//
// Parsing is best effort: problems become Diagnostics and the asset keeps
// whatever structure could be recovered.
package asset
