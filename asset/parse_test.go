package asset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wippyai/shader-variants/backend"
)

const basic = `NAME "Foo"
PASS "Bar" {
  [VERT]
  // ENTRY
  @vertex fn vs() -> @builtin(position) vec4<f32> {
    return vec4<f32>();
  }
  [FRAG]
  @fragment fn fs() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0);
  }
}
`

func TestParse_Basic(t *testing.T) {
	a := Parse(basic)

	if a.Name != "Foo" {
		t.Errorf("Name = %q, want Foo", a.Name)
	}
	if len(a.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", a.Diagnostics)
	}
	if len(a.Passes) != 1 {
		t.Fatalf("got %d passes, want 1", len(a.Passes))
	}

	p := a.Passes[0]
	if p.Name != "Bar" || p.Line != 2 || p.Start != 2 || p.End != 12 || !p.Terminated {
		t.Errorf("pass = %+v", p)
	}
	if len(p.Stages) != 2 {
		t.Fatalf("got %d stages, want 2", len(p.Stages))
	}

	vs, ok := p.Stage(backend.StageVertex)
	if !ok {
		t.Fatal("no vertex stage")
	}
	if vs.Marker != 3 || vs.Start != 4 || vs.End != 7 || vs.Entry != 4 {
		t.Errorf("vertex = %+v", vs)
	}

	fs, ok := p.Stage(backend.StageFragment)
	if !ok {
		t.Fatal("no fragment stage")
	}
	if fs.Start != 9 || fs.End != 11 || fs.Entry != 0 {
		t.Errorf("fragment = %+v", fs)
	}

	src := a.Source(vs)
	if !strings.HasPrefix(src, "  // ENTRY\n") || !strings.HasSuffix(src, "  }\n") {
		t.Errorf("vertex source:\n%s", src)
	}
	if strings.Contains(src, "[FRAG]") || strings.Contains(a.Source(fs), "[FRAG]") {
		t.Error("marker line leaked into stage source")
	}
}

func TestParse_SingleLine(t *testing.T) {
	a := Parse("NAME \"Foo\"\nPASS \"Bar\" { [VERT] ... }")
	if a.Name != "Foo" || len(a.Passes) != 1 {
		t.Fatalf("asset = %+v", a)
	}
	p := a.Passes[0]
	if p.Start != 2 || p.End != 2 || !p.Terminated {
		t.Errorf("pass = %+v", p)
	}
}

func TestParse_CaseInsensitive(t *testing.T) {
	a := Parse("name \"x\"\npass \"p\"\n{\n[vertex]\na\n[Fragment]\nb\n[comp]\nc\n}\n")
	if a.Name != "x" || len(a.Passes) != 1 {
		t.Fatalf("asset = %+v", a)
	}
	p := a.Passes[0]
	if p.Start != 3 {
		t.Errorf("body start = %d, want 3 (line of first brace)", p.Start)
	}
	want := []backend.Stage{backend.StageVertex, backend.StageFragment, backend.StageCompute}
	if len(p.Stages) != len(want) {
		t.Fatalf("stages = %+v", p.Stages)
	}
	for i, s := range want {
		if p.Stages[i].Stage != s {
			t.Errorf("stage %d = %v, want %v", i, p.Stages[i].Stage, s)
		}
	}
	if c := p.Stages[2]; c.Start != 9 || c.End != 9 {
		t.Errorf("compute = %+v", c)
	}
}

func TestParse_NestedBraces(t *testing.T) {
	src := "PASS \"a\" {\n[VERT]\nfn f() {\n  if x { y }\n}\n}\nPASS \"b\" {\n}\n"
	a := Parse(src)
	if len(a.Passes) != 2 {
		t.Fatalf("passes = %+v", a.Passes)
	}
	if a.Passes[0].End != 6 || a.Passes[0].Stages[0].End != 5 {
		t.Errorf("pass a = %+v", a.Passes[0])
	}
	if a.Passes[1].Start != 7 || a.Passes[1].End != 8 {
		t.Errorf("pass b = %+v", a.Passes[1])
	}
}

func TestParse_Unterminated(t *testing.T) {
	a := Parse("PASS \"open\" {\n[FRAG]\nfn f() {\n")
	if len(a.Passes) != 1 {
		t.Fatalf("passes = %d", len(a.Passes))
	}
	p := a.Passes[0]
	if p.Terminated || p.End != 3 {
		t.Errorf("pass = %+v", p)
	}
	if p.Stages[0].End != 3 {
		t.Errorf("stage end = %d, want best-effort 3", p.Stages[0].End)
	}
	if !a.HasErrors() || !strings.Contains(a.Diagnostics[0].Message, "unterminated pass") {
		t.Errorf("diagnostics = %v", a.Diagnostics)
	}
}

func TestParse_NoBody(t *testing.T) {
	a := Parse("PASS \"x\"\n")
	if len(a.Passes) != 1 || a.Passes[0].Start != 0 || !a.HasErrors() {
		t.Fatalf("asset = %+v", a)
	}
}

func TestParse_Diagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
		sev  Severity
	}{
		{"name_without_quotes", "NAME Foo\n", "without a quoted name", SeverityError},
		{"name_open_quote", "NAME \"Foo\n", "missing its closing quote", SeverityWarning},
		{"duplicate_name", "NAME \"a\"\nNAME \"b\"\n", "duplicate NAME", SeverityWarning},
		{"nested_pass", "PASS \"a\" {\nPASS \"b\"\n}\n", "nested PASS directive ignored", SeverityWarning},
		{"nested_name", "PASS \"a\" {\n[VERT]\nNAME \"z\"\n}\n", "nested NAME directive ignored", SeverityWarning},
		{"stray_entry", "PASS \"a\" {\n// ENTRY\n}\n", "entry marker outside", SeverityWarning},
		{"duplicate_stage", "PASS \"a\" {\n[VERT]\nx\n[VERT]\ny\n}\n", "duplicate vertex stage", SeverityWarning},
		{"empty_variants", "VARIANTS\n", "declares no keywords", SeverityWarning},
		{"dup_keyword", "VARIANTS A A\n", "duplicate keyword A", SeverityWarning},
		{"stray_close", "PASS \"a\"\n}\n{\n}\n", "unbalanced closing brace", SeverityWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Parse(tt.src)
			for _, d := range a.Diagnostics {
				if strings.Contains(d.Message, tt.want) {
					if d.Severity != tt.sev {
						t.Errorf("severity = %v, want %v", d.Severity, tt.sev)
					}
					return
				}
			}
			t.Errorf("no diagnostic containing %q in %v", tt.want, a.Diagnostics)
		})
	}
}

func TestParse_NestedNameKeepsAssetName(t *testing.T) {
	a := Parse("NAME \"outer\"\nPASS \"a\" {\nNAME \"inner\"\n}\n")
	if a.Name != "outer" {
		t.Errorf("Name = %q", a.Name)
	}
	if len(a.Passes) != 1 || a.Passes[0].Name != "a" {
		t.Errorf("passes = %+v", a.Passes)
	}
}

func TestParse_DuplicateStageReplaces(t *testing.T) {
	a := Parse("PASS \"a\" {\n[VERT]\nx\n[VERT]\ny\n}\n")
	p := a.Passes[0]
	if len(p.Stages) != 1 || p.Stages[0].Start != 5 {
		t.Fatalf("stages = %+v", p.Stages)
	}
}

func TestParse_Variants(t *testing.T) {
	src := `VARIANTS A B
VARIANTS "X", "Y",Z
PASS "p" {
  VARIANTS FOG
  [FRAG]
  body
}
PASS "q" {
}
`
	a := Parse(src)
	if len(a.Axes) != 2 {
		t.Fatalf("top-level axes = %v", a.Axes)
	}
	if strings.Join(a.Axes[1], ",") != "X,Y,Z" {
		t.Errorf("axis 2 = %v", a.Axes[1])
	}

	p, ok := a.Pass("p")
	if !ok {
		t.Fatal("pass p missing")
	}
	axes := a.AxesFor(p)
	if len(axes) != 3 || axes[2][0] != "FOG" {
		t.Errorf("AxesFor(p) = %v", axes)
	}
	q, _ := a.Pass("q")
	if len(a.AxesFor(q)) != 2 {
		t.Errorf("AxesFor(q) = %v", a.AxesFor(q))
	}

	kws := strings.Join(a.Keywords(), ",")
	if kws != "A,B,X,Y,Z,FOG" {
		t.Errorf("Keywords = %s", kws)
	}
}

func TestAsset_Lines(t *testing.T) {
	a := Parse("a\nb\nc\n")
	tests := []struct {
		start, end int
		want       string
	}{
		{1, 3, "a\nb\nc\n"},
		{2, 2, "b\n"},
		{0, 1, "a\n"},
		{3, 9, "c\n"},
		{3, 2, ""},
	}
	for _, tt := range tests {
		if got := a.Lines(tt.start, tt.end); got != tt.want {
			t.Errorf("Lines(%d,%d) = %q, want %q", tt.start, tt.end, got, tt.want)
		}
	}
	if a.LineCount() != 3 {
		t.Errorf("LineCount = %d", a.LineCount())
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.shader")
	if err := os.WriteFile(path, []byte(basic), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if a.Name != "Foo" {
		t.Errorf("Name = %q", a.Name)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("missing file accepted")
	}
}
