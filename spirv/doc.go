// Package spirv holds compiled SPIR-V words: the engine's transient buffer,
// the on-disk cache codec and a text disassembler.
//
// Cache files are a flat sequence of 32-bit little-endian words with no
// magic number and no length prefix. The file size implies the word count,
// so a length that is not a multiple of 4 is rejected.
package spirv
