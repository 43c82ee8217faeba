package book

import (
	"fmt"
	"strings"
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name  string
		base  []uint32
		other []uint32
		want  string
	}{
		{"empty", nil, []uint32{1}, "[]"},
		{"identical", []uint32{1, 2, 3}, []uint32{1, 2, 3}, "[match 0..3]"},
		{"leading_diff", []uint32{1, 2, 3}, []uint32{9, 2, 3}, "[differ 0..1 match 1..3]"},
		{"long_diff_run", []uint32{1, 2, 3, 4, 5}, []uint32{1, 9, 9, 9, 5}, "[match 0..1 differ 1..4 match 4..5]"},
		{"shorter_other", []uint32{1, 2, 3, 4}, []uint32{1, 2}, "[match 0..2]"},
		{"trailing_diff", []uint32{1, 2}, []uint32{1, 3, 4}, "[match 0..1 differ 1..2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fmt.Sprint(Compare(tt.base, tt.other))
			if got != tt.want {
				t.Errorf("Compare = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCompare_SectionsCoverPrefix(t *testing.T) {
	base := []uint32{1, 2, 3, 4, 5, 6, 7, 8}
	other := []uint32{1, 0, 3, 0, 0, 6, 7, 0, 9}
	secs := Compare(base, other)

	pos := 0
	for i, s := range secs {
		if s.Start != pos {
			t.Fatalf("gap before section %d: %v", i, secs)
		}
		if i > 0 && secs[i-1].Match == s.Match {
			t.Fatalf("adjacent sections share state: %v", secs)
		}
		pos = s.End
	}
	if pos != len(base) {
		t.Fatalf("sections end at %d, want %d", pos, len(base))
	}
}

func TestBook_Chapters(t *testing.T) {
	base := []uint32{1, 2, 3}
	b := New(base)
	base[0] = 42 // book keeps its own copy

	b.AddChapter(0xaa, []uint32{1, 2, 3})
	secs := b.AddChapter(0xbb, []uint32{1, 0, 3, 4})

	if len(secs) != 3 {
		t.Fatalf("sections = %v", secs)
	}
	chs := b.Chapters()
	if len(chs) != 2 {
		t.Fatalf("chapters = %d", len(chs))
	}
	if chs[0].Matched() != 3 || chs[1].Matched() != 2 || chs[1].Length != 4 {
		t.Fatalf("chapters = %+v", chs)
	}

	r := b.Report()
	for _, want := range []string{"base: 3 words", "chapter 2 (keywords 0x00000000000000bb)", "differ 1..2"} {
		if !strings.Contains(r, want) {
			t.Errorf("report missing %q:\n%s", want, r)
		}
	}
}
