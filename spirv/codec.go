package spirv

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/wippyai/shader-variants/errors"
)

// WordSize is the size in bytes of one SPIR-V word.
const WordSize = 4

// Encode serialises words as a flat little-endian byte sequence with no
// header or length prefix.
func Encode(words []uint32) []byte {
	out := make([]byte, len(words)*WordSize)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*WordSize:], w)
	}
	return out
}

// Decode parses a flat little-endian word sequence. The input length must be
// a multiple of WordSize.
func Decode(data []byte) ([]uint32, error) {
	if len(data)%WordSize != 0 {
		return nil, errors.New(errors.PhaseSPIRV, errors.KindInvalidData).
			Value(len(data)).
			Detail("length %d is not a multiple of %d", len(data), WordSize).
			Build()
	}
	words := make([]uint32, len(data)/WordSize)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*WordSize:])
	}
	return words, nil
}

// WriteFile writes words to path using Encode.
func WriteFile(path string, words []uint32) error {
	if err := os.WriteFile(path, Encode(words), 0o644); err != nil {
		return errors.New(errors.PhaseIO, errors.KindInvalidInput).
			Subject(path).
			Cause(err).
			Detail("write spirv").
			Build()
	}
	return nil
}

// ReadFile reads a word file written by WriteFile.
func ReadFile(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NotFound(errors.PhaseIO, path, err)
	}
	words, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return words, nil
}
