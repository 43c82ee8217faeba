package backend

import "testing"

func TestParseStage(t *testing.T) {
	tests := []struct {
		in      string
		want    Stage
		wantErr bool
	}{
		{"vert", StageVertex, false},
		{"VERTEX", StageVertex, false},
		{"Frag", StageFragment, false},
		{"fragment", StageFragment, false},
		{"comp", StageCompute, false},
		{"geometry", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStage(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStage_String(t *testing.T) {
	for _, s := range Stages {
		if !s.Valid() {
			t.Errorf("%v not valid", s)
		}
		back, err := ParseStage(s.String())
		if err != nil || back != s {
			t.Errorf("round trip %v -> %q -> %v (%v)", s, s.String(), back, err)
		}
	}
	if Stage(0).Valid() || Stage(9).String() != "unknown" {
		t.Error("invalid stage accepted")
	}
}

func TestParseLanguage(t *testing.T) {
	tests := map[string]Language{"glsl": GLSL, "HLSL": HLSL, "metal": Metal, "msl": Metal}
	for in, want := range tests {
		got, err := ParseLanguage(in)
		if err != nil || got != want {
			t.Errorf("ParseLanguage(%q) = %v, %v", in, got, err)
		}
		if got.Ext() == ".txt" {
			t.Errorf("%v has no extension", got)
		}
	}
	if _, err := ParseLanguage("spirv"); err == nil {
		t.Error("spirv accepted as decompile target")
	}
}
