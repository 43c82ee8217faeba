// Package variant enumerates keyword variants.
//
// A variant is one choice of keyword per axis, where an axis is a row of
// mutually exclusive options. Given axes
//
//	[["A", "B"], ["X", "Y", "Z"]]
//
// the enumerator yields, in order,
//
//	(A,X) (A,Y) (A,Z) (B,X) (B,Y) (B,Z)
//
// Typical driving loop:
//
//	e, err := variant.New(axes...)
//	for c, ok := e.Next(); ok; c, ok = e.Next() {
//	    kws, _ := e.Keywords(c)
//	    // compile one variant
//	}
//
// Or with range-over-func:
//
//	for c, kws := range e.All() { ... }
package variant
