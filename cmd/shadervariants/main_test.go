package main

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const desc = `NAME "Lit"
VARIANTS SHADOWS_OFF SHADOWS_ON
PASS "main" {
  VARIANTS LOW HIGH
  [VERT]
  vertex
  [FRAG]
  fragment
}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetOut(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func writeDesc(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lit.shader")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseCommand(t *testing.T) {
	out, err := execute(t, "parse", writeDesc(t, desc))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Lit",
		"axes: [SHADOWS_OFF SHADOWS_ON]",
		`pass "main"`,
		"axes: [LOW HIGH]",
		"vertex   lines 6-6",
		"fragment lines 8-8",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestParseCommand_Errors(t *testing.T) {
	out, err := execute(t, "parse", writeDesc(t, "PASS \"open\" {\n[FRAG]\nx\n"))
	if err == nil {
		t.Fatalf("unterminated pass accepted:\n%s", out)
	}
	if !strings.Contains(out, "error") {
		t.Errorf("no diagnostic printed:\n%s", out)
	}
}

func TestEnumerateCommand(t *testing.T) {
	out, err := execute(t, "enumerate", "--pass", "main", writeDesc(t, desc))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("output:\n%s", out)
	}
	if !strings.HasSuffix(lines[0], "SHADOWS_OFF LOW") || !strings.HasSuffix(lines[3], "SHADOWS_ON HIGH") {
		t.Errorf("order:\n%s", out)
	}
	if lines[4] != "4 variants over 2 axes" {
		t.Errorf("summary = %q", lines[4])
	}
}

func TestKeywordsCommand(t *testing.T) {
	out, err := execute(t, "keywords", writeDesc(t, desc))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(out, "count = 4\n") || !strings.Contains(out, " SHADOWS_ON\n") {
		t.Errorf("output:\n%s", out)
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := execute(t, "disasm", filepath.Join(t.TempDir(), "none.spv")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{stderrors.New("boom"), 1},
		{fmt.Errorf("%w: details", errVariantsFailed), 2},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestFlagAxes(t *testing.T) {
	axes := flagAxes([]string{"A, B", "C,,"})
	if len(axes) != 2 || strings.Join(axes[0], "|") != "A|B" || strings.Join(axes[1], "|") != "C" {
		t.Errorf("axes = %v", axes)
	}
}
