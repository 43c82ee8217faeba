package spirv

import "slices"

// Buffer holds the compiled words of the most recently fetched stage.
// It is overwritten on every fetch and cleared whenever a fetch fails.
type Buffer struct {
	words []uint32
}

// Set replaces the buffer contents with a copy of words.
func (b *Buffer) Set(words []uint32) {
	b.words = append(b.words[:0], words...)
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.words = b.words[:0]
}

// Len returns the word count.
func (b *Buffer) Len() int {
	return len(b.words)
}

// Words returns a copy of the buffer contents.
func (b *Buffer) Words() []uint32 {
	return slices.Clone(b.words)
}

// View returns the buffer contents without copying. The slice is only valid
// until the next Set or Clear.
func (b *Buffer) View() []uint32 {
	return b.words
}

// Bytes returns the little-endian encoding of the buffer.
func (b *Buffer) Bytes() []byte {
	return Encode(b.words)
}
