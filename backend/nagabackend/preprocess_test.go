package nagabackend

import (
	"strings"
	"testing"
)

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string // surviving non-empty lines
	}{
		{
			name: "ifdef_taken",
			src:  "#define A\n#ifdef A\nyes\n#else\nno\n#endif\n",
			want: []string{"yes"},
		},
		{
			name: "ifdef_not_taken",
			src:  "#ifdef A\nyes\n#else\nno\n#endif\n",
			want: []string{"no"},
		},
		{
			name: "ifndef",
			src:  "#ifndef A\nyes\n#endif\n",
			want: []string{"yes"},
		},
		{
			name: "nested_inactive_parent",
			src:  "#ifdef A\n#ifdef B\nx\n#else\ny\n#endif\n#endif\nz\n",
			want: []string{"z"},
		},
		{
			name: "nested_active",
			src:  "#define A\n#ifdef A\n#ifndef B\nx\n#endif\n#endif\n",
			want: []string{"x"},
		},
		{
			name: "undef",
			src:  "#define A\n#undef A\n#ifdef A\nx\n#endif\n",
			want: nil,
		},
		{
			name: "define_in_inactive_branch",
			src:  "#ifdef A\n#define B\n#endif\n#ifdef B\nx\n#endif\n",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := preprocess(tt.src)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, l := range strings.Split(out, "\n") {
				if l != "" {
					got = append(got, l)
				}
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if strings.Count(out, "\n") != strings.Count(tt.src, "\n") {
				t.Errorf("line count changed")
			}
		})
	}
}

func TestPreprocess_Defines(t *testing.T) {
	_, defs, err := preprocess("#define A\n#define B 3\n")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := defs["A"]; !ok || v != "" {
		t.Errorf("A = %q, %v", v, ok)
	}
	if defs["B"] != "3" {
		t.Errorf("B = %q", defs["B"])
	}
}

func TestPreprocess_Errors(t *testing.T) {
	for _, src := range []string{
		"#ifdef A\n",
		"#endif\n",
		"#else\n",
		"#ifdef A\n#else\n#else\n#endif\n",
		"#define\n",
		"#undef\n",
		"#ifdef\n",
		"#include \"x\"\n",
	} {
		if _, _, err := preprocess(src); err == nil {
			t.Errorf("preprocess(%q) accepted", src)
		}
	}
}
