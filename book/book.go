// Package book compares compiled variants against a base SPIR-V module.
//
// A Book is opened on the base module. Each chapter is another variant's
// words, split into alternating runs that match or differ from the base at
// the same word offset. Comparison stops at the shorter of the two lengths.
package book

import (
	"fmt"
	"slices"
	"strings"
)

// Section is a half-open word range [Start, End) that either matches the base
// or differs from it.
type Section struct {
	Start int
	End   int
	Match bool
}

// Len returns the number of words covered.
func (s Section) Len() int {
	return s.End - s.Start
}

func (s Section) String() string {
	if s.Match {
		return fmt.Sprintf("match %d..%d", s.Start, s.End)
	}
	return fmt.Sprintf("differ %d..%d", s.Start, s.End)
}

// Chapter is one compared variant.
type Chapter struct {
	Keywords uint64 // keyword combination id of the variant
	Length   int    // word count of the variant
	Sections []Section
}

// Matched returns the number of words equal to the base.
func (c Chapter) Matched() int {
	n := 0
	for _, s := range c.Sections {
		if s.Match {
			n += s.Len()
		}
	}
	return n
}

// Book groups chapters compared against one base module.
type Book struct {
	base     []uint32
	chapters []Chapter
}

// New opens a book on a copy of base.
func New(base []uint32) *Book {
	return &Book{base: slices.Clone(base)}
}

// BaseLen returns the word count of the base module.
func (b *Book) BaseLen() int {
	return len(b.base)
}

// AddChapter compares words with the base, records the chapter and returns
// its sections.
func (b *Book) AddChapter(keywords uint64, words []uint32) []Section {
	sections := Compare(b.base, words)
	b.chapters = append(b.chapters, Chapter{
		Keywords: keywords,
		Length:   len(words),
		Sections: sections,
	})
	return sections
}

// Chapters returns the recorded chapters in insertion order.
func (b *Book) Chapters() []Chapter {
	return slices.Clone(b.chapters)
}

// Report renders every chapter, one section per line.
func (b *Book) Report() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "base: %d words\n", len(b.base))
	for i, c := range b.chapters {
		fmt.Fprintf(&sb, "chapter %d (keywords 0x%016x): %d words, %d matching\n",
			i+1, c.Keywords, c.Length, c.Matched())
		for _, s := range c.Sections {
			fmt.Fprintf(&sb, "  %s\n", s)
		}
	}
	return sb.String()
}

// Compare splits the common prefix length of base and other into maximal runs
// of matching and differing words. Empty inputs yield no sections.
func Compare(base, other []uint32) []Section {
	n := min(len(base), len(other))
	if n == 0 {
		return nil
	}

	var out []Section
	start := 0
	match := base[0] == other[0]
	for i := 1; i < n; i++ {
		if (base[i] == other[i]) != match {
			out = append(out, Section{Start: start, End: i, Match: match})
			start = i
			match = !match
		}
	}
	return append(out, Section{Start: start, End: n, Match: match})
}
