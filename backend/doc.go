// Package backend defines the boundary to the shading compiler.
//
// The engine treats the compiler as an opaque oracle: it owns source text,
// keyword state and program bookkeeping, and hands the backend an explicit
// preamble on every compile. Implementations live in sub-packages:
// nagabackend compiles WGSL with github.com/gogpu/naga and backendtest is a
// scripted fake for tests.
package backend
