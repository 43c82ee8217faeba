package variant

import (
	"fmt"
	"strings"
	"testing"
)

func collect(t *testing.T, e *Enumerator) []Coordinate {
	t.Helper()
	var out []Coordinate
	for c, ok := e.Next(); ok; c, ok = e.Next() {
		out = append(out, c)
		if len(out) > 10000 {
			t.Fatal("enumeration did not terminate")
		}
	}
	return out
}

func TestEnumerator_OdometerOrder(t *testing.T) {
	e, err := New(Axis{"A", "B"}, Axis{"X", "Y", "Z"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var got []string
	for c, ok := e.Next(); ok; c, ok = e.Next() {
		kws, err := e.Keywords(c)
		if err != nil {
			t.Fatalf("Keywords(%v): %v", c, err)
		}
		got = append(got, "("+strings.Join(kws, ",")+")")
	}

	want := "(A,X)(A,Y)(A,Z)(B,X)(B,Y)(B,Z)"
	if strings.Join(got, "") != want {
		t.Errorf("order = %s, want %s", strings.Join(got, ""), want)
	}
	if len(got) != 6 || e.Count() != 6 {
		t.Errorf("count = %d (Count() = %d), want 6", len(got), e.Count())
	}
}

func TestEnumerator_ProductSizeAndLast(t *testing.T) {
	tests := []struct {
		radii []int
	}{
		{[]int{1}},
		{[]int{3}},
		{[]int{2, 2}},
		{[]int{1, 4, 1}},
		{[]int{3, 1, 2, 2}},
		{[]int{5, 4, 3}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.radii), func(t *testing.T) {
			axes := make([]Axis, len(tt.radii))
			want := 1
			for i, r := range tt.radii {
				want *= r
				for j := 0; j < r; j++ {
					axes[i] = append(axes[i], fmt.Sprintf("K%d_%d", i, j))
				}
			}
			e, err := New(axes...)
			if err != nil {
				t.Fatal(err)
			}

			coords := collect(t, e)
			if len(coords) != want {
				t.Fatalf("got %d coordinates, want %d", len(coords), want)
			}

			seen := make(map[string]bool, len(coords))
			for _, c := range coords {
				k := c.String()
				if seen[k] {
					t.Fatalf("coordinate %s visited twice", k)
				}
				seen[k] = true
			}

			last := coords[len(coords)-1]
			for i, r := range tt.radii {
				if last[i] != r-1 {
					t.Fatalf("last coordinate = %v, want all radii-1", last)
				}
			}
		})
	}
}

func TestEnumerator_ZeroAxes(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatal(err)
	}
	coords := collect(t, e)
	if len(coords) != 1 || len(coords[0]) != 0 {
		t.Fatalf("got %v, want exactly one empty coordinate", coords)
	}
	kws, err := e.Keywords(coords[0])
	if err != nil || len(kws) != 0 {
		t.Fatalf("Keywords(empty) = %v, %v", kws, err)
	}
	if e.Count() != 1 {
		t.Fatalf("Count = %d, want 1", e.Count())
	}
}

func TestEnumerator_ExhaustedStaysExhausted(t *testing.T) {
	e, _ := New(Axis{"A"})
	collect(t, e)
	for i := 0; i < 3; i++ {
		if _, ok := e.Next(); ok {
			t.Fatal("Next after exhaustion returned a coordinate")
		}
	}
}

func TestEnumerator_Reset(t *testing.T) {
	e, _ := New(Axis{"A", "B"}, Axis{"X", "Y"})
	first := collect(t, e)
	e.Reset()
	second := collect(t, e)
	if fmt.Sprint(first) != fmt.Sprint(second) {
		t.Fatalf("after Reset got %v, want %v", second, first)
	}

	// reset mid-way
	e.Reset()
	e.Next()
	e.Next()
	e.Reset()
	if c, _ := e.Next(); c.String() != "(0,0)" {
		t.Fatalf("first after Reset = %v", c)
	}
}

func TestEnumerator_CoordinatesAreOwned(t *testing.T) {
	e, _ := New(Axis{"A", "B"})
	c1, _ := e.Next()
	c2, _ := e.Next()
	if c1[0] != 0 || c2[0] != 1 {
		t.Fatalf("coordinates alias internal state: %v %v", c1, c2)
	}
}

func TestEnumerator_All(t *testing.T) {
	e, _ := New(Axis{"A", "B"}, Axis{"X", "Y", "Z"})
	e.Next() // does not affect All

	var n int
	for c, kws := range e.All() {
		if len(c) != 2 || len(kws) != 2 {
			t.Fatalf("bad item %v %v", c, kws)
		}
		n++
	}
	if n != 6 {
		t.Fatalf("All yielded %d, want 6", n)
	}

	// early break
	n = 0
	for range e.All() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("break did not stop iteration: %d", n)
	}

	if c, ok := e.Next(); !ok || c.String() != "(0,1)" {
		t.Fatalf("Next after All = %v %v, want (0,1)", c, ok)
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		axes    []Axis
		wantErr string
	}{
		{"empty_axis", []Axis{{"A"}, {}}, "no keywords"},
		{"duplicate", []Axis{{"A", "B", "A"}}, "duplicate"},
		{"empty_keyword", []Axis{{"A", ""}}, "empty keyword"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.axes...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q missing %q", err, tt.wantErr)
			}
		})
	}
}

func TestKeywords_OutOfRange(t *testing.T) {
	e, _ := New(Axis{"A", "B"})
	if _, err := e.Keywords(Coordinate{2}); err == nil {
		t.Error("expected out of range error")
	}
	if _, err := e.Keywords(Coordinate{0, 0}); err == nil {
		t.Error("expected arity error")
	}
}

func TestNew_CopiesAxes(t *testing.T) {
	axis := Axis{"A", "B"}
	e, _ := New(axis)
	axis[0] = "Z"
	c, _ := e.Next()
	kws, _ := e.Keywords(c)
	if kws[0] != "A" {
		t.Fatalf("enumerator observed caller mutation: %v", kws)
	}
}
