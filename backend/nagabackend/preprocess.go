package nagabackend

import (
	"fmt"
	"strings"
)

// preprocess evaluates #define, #undef, #ifdef, #ifndef, #else and #endif.
// Directive lines and lines in inactive branches are blanked so line numbers
// in compiler messages still match the input. Macro values are recorded but
// never substituted.
func preprocess(src string) (string, map[string]string, error) {
	defines := make(map[string]string)
	type frame struct {
		active   bool // this branch is emitted
		parent   bool // enclosing branch is emitted
		seenElse bool
		line     int
	}
	var stack []frame
	active := true

	lines := strings.Split(src, "\n")
	for i, raw := range lines {
		no := i + 1
		text := strings.TrimSpace(raw)
		if !strings.HasPrefix(text, "#") {
			if !active {
				lines[i] = ""
			}
			continue
		}
		lines[i] = ""

		directive, arg := splitDirective(text[1:])
		switch directive {
		case "define":
			if !active {
				continue
			}
			name, value := splitDirective(arg)
			if name == "" {
				return "", nil, fmt.Errorf("line %d: #define without a name", no)
			}
			defines[name] = value
		case "undef":
			if !active {
				continue
			}
			if arg == "" {
				return "", nil, fmt.Errorf("line %d: #undef without a name", no)
			}
			delete(defines, arg)
		case "ifdef", "ifndef":
			name, _ := splitDirective(arg)
			if name == "" {
				return "", nil, fmt.Errorf("line %d: #%s without a name", no, directive)
			}
			_, ok := defines[name]
			cond := ok == (directive == "ifdef")
			stack = append(stack, frame{active: active && cond, parent: active, line: no})
			active = active && cond
		case "else":
			if len(stack) == 0 {
				return "", nil, fmt.Errorf("line %d: #else without #ifdef", no)
			}
			top := &stack[len(stack)-1]
			if top.seenElse {
				return "", nil, fmt.Errorf("line %d: duplicate #else", no)
			}
			top.seenElse = true
			top.active = top.parent && !top.active
			active = top.active
		case "endif":
			if len(stack) == 0 {
				return "", nil, fmt.Errorf("line %d: #endif without #ifdef", no)
			}
			active = stack[len(stack)-1].parent
			stack = stack[:len(stack)-1]
		default:
			return "", nil, fmt.Errorf("line %d: unknown directive #%s", no, directive)
		}
	}
	if len(stack) > 0 {
		return "", nil, fmt.Errorf("line %d: conditional block is never closed", stack[len(stack)-1].line)
	}
	return strings.Join(lines, "\n"), defines, nil
}

func splitDirective(s string) (string, string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}
