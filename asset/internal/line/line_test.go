package line

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{`NAME "Foo"`, Name},
		{`  name "Foo"`, Name},
		{`Pass "Bar" {`, Pass},
		{"VARIANTS A B", Variants},
		{"variants", Variants},
		{"VARIANTSX", Text},
		{"NAMES x", Text},
		{"[VERT]", Vertex},
		{"  [Vertex]  ", Vertex},
		{"// [frag]", Fragment},
		{"[FRAGMENT]", Fragment},
		{"[COMP]", Compute},
		{"[compute]", Compute},
		{"// ENTRY", Entry},
		{"fn main() // entry", Entry},
		{"[VERT] {", Text},
		{"", Text},
		{"   ", Text},
		{"fn main() {}", Text},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Classify(tt.in); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	lines := Split("PASS \"x\" {\r\n  a { b }\n}\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0].Text != `PASS "x" {` || lines[0].Kind != Pass || lines[0].No != 1 {
		t.Errorf("line 1 = %+v", lines[0])
	}
	if lines[1].Open != 1 || lines[1].Close != 1 {
		t.Errorf("line 2 braces = %d/%d", lines[1].Open, lines[1].Close)
	}
	if lines[2].No != 3 || lines[2].Close != 1 {
		t.Errorf("line 3 = %+v", lines[2])
	}
	if Split("") != nil {
		t.Error("empty input should yield no lines")
	}
}

func TestQuoted(t *testing.T) {
	tests := []struct {
		in            string
		value         string
		found, closed bool
	}{
		{`NAME "Foo"`, "Foo", true, true},
		{`PASS "Bar" "Baz"`, "Bar", true, true},
		{`NAME ""`, "", true, true},
		{`NAME "Foo`, "Foo", true, false},
		{`NAME Foo`, "", false, false},
	}
	for _, tt := range tests {
		v, f, c := Quoted(tt.in)
		if v != tt.value || f != tt.found || c != tt.closed {
			t.Errorf("Quoted(%q) = %q %v %v", tt.in, v, f, c)
		}
	}
}

func TestFirstTokenRest(t *testing.T) {
	if got := FirstToken("  VARIANTS\tA, B "); got != "VARIANTS" {
		t.Errorf("FirstToken = %q", got)
	}
	if got := Rest("  VARIANTS\tA, B "); got != "A, B" {
		t.Errorf("Rest = %q", got)
	}
	if got := Rest("VARIANTS"); got != "" {
		t.Errorf("Rest = %q", got)
	}
}
