package line

import (
	"strings"

	"golang.org/x/text/cases"
)

type Kind int

const (
	Text Kind = iota
	Name
	Pass
	Variants
	Vertex
	Fragment
	Compute
	Entry
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Name:
		return "NAME"
	case Pass:
		return "PASS"
	case Variants:
		return "VARIANTS"
	case Vertex:
		return "vertex marker"
	case Fragment:
		return "fragment marker"
	case Compute:
		return "compute marker"
	case Entry:
		return "entry marker"
	}
	return "unknown"
}

type Line struct {
	Text  string
	Kind  Kind
	No    int // 1-based
	Open  int // '{' count
	Close int // '}' count
}

var directives = map[string]Kind{
	"name":     Name,
	"pass":     Pass,
	"variants": Variants,
}

var markers = []struct {
	suffix string
	kind   Kind
}{
	{"[vert]", Vertex},
	{"[vertex]", Vertex},
	{"[frag]", Fragment},
	{"[fragment]", Fragment},
	{"[comp]", Compute},
	{"[compute]", Compute},
	{"entry", Entry},
}

// Split breaks input into classified lines. CRLF endings are accepted.
func Split(input string) []Line {
	if input == "" {
		return nil
	}
	raw := strings.Split(strings.TrimSuffix(input, "\n"), "\n")
	fold := cases.Fold()

	out := make([]Line, len(raw))
	for i, text := range raw {
		text = strings.TrimSuffix(text, "\r")
		out[i] = Line{
			Text:  text,
			Kind:  classify(fold, text),
			No:    i + 1,
			Open:  strings.Count(text, "{"),
			Close: strings.Count(text, "}"),
		}
	}
	return out
}

// Classify returns the kind of a single line.
func Classify(text string) Kind {
	return classify(cases.Fold(), text)
}

func classify(fold cases.Caser, text string) Kind {
	folded := fold.String(strings.TrimSpace(text))
	if folded == "" {
		return Text
	}
	if k, ok := directives[FirstToken(folded)]; ok {
		return k
	}
	for _, m := range markers {
		if strings.HasSuffix(folded, m.suffix) {
			return m.kind
		}
	}
	return Text
}

// FirstToken returns the leading whitespace-delimited token of s.
func FirstToken(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexFunc(s, isSpace); i >= 0 {
		return s[:i]
	}
	return s
}

// Rest returns s after its first token, trimmed.
func Rest(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexFunc(s, isSpace); i >= 0 {
		return strings.TrimSpace(s[i:])
	}
	return ""
}

// Quoted returns the text between the first and second double quote.
// found is false when s has no quote; closed is false when the second
// quote is missing, in which case the rest of the line is returned.
func Quoted(s string) (value string, found, closed bool) {
	i := strings.IndexByte(s, '"')
	if i < 0 {
		return "", false, false
	}
	rest := s[i+1:]
	j := strings.IndexByte(rest, '"')
	if j < 0 {
		return rest, true, false
	}
	return rest[:j], true, true
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\v' || r == '\f'
}
