package sandbox

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

const (
	bindingContext = "context"
	bindingInput   = "input"
)

var (
	targetPattern     = regexp.MustCompile(`^context(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)
)

// statement is a compiled assignment. An empty path replaces the whole context.
type statement struct {
	source  string
	path    []string
	program *vm.Program
}

// program is a compiled action.
type program struct {
	statements []statement
}

// compile parses code into assignments and compiles every right-hand side.
func compile(code string) (*program, error) {
	sources, err := splitStatements(code)
	if err != nil {
		return nil, newError(code, StageParse, err)
	}
	if len(sources) == 0 {
		return nil, newError(code, StageParse, ErrEmptyAction)
	}

	prog := &program{statements: make([]statement, 0, len(sources))}
	for _, src := range sources {
		target, rhs, err := parseAssignment(src)
		if err != nil {
			return nil, newError(code, StageParse, err)
		}

		compiled, err := expr.Compile(rhs, compileOptions...)
		if err != nil {
			return nil, newError(code, StageCompile, fmt.Errorf("%q: %w", src, err))
		}

		prog.statements = append(prog.statements, statement{
			source:  src,
			path:    targetPath(target),
			program: compiled,
		})
	}
	return prog, nil
}

// splitStatements splits code on top-level semicolons and newlines.
// Separators inside string literals and brackets do not split.
// Lines starting with # or // are comments.
func splitStatements(code string) ([]string, error) {
	var (
		out   []string
		cur   strings.Builder
		quote rune
		depth int
		esc   bool
	)

	flush := func() {
		s := strings.TrimSpace(cur.String())
		cur.Reset()
		if s == "" || strings.HasPrefix(s, "#") || strings.HasPrefix(s, "//") {
			return
		}
		out = append(out, s)
	}

	for _, r := range code {
		if quote != 0 {
			cur.WriteRune(r)
			switch {
			case esc:
				esc = false
			case r == '\\' && quote != '`':
				esc = true
			case r == quote:
				quote = 0
			}
			continue
		}

		switch r {
		case '"', '\'', '`':
			quote = r
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced %q", r)
			}
		case ';', '\n':
			if depth == 0 {
				flush()
				continue
			}
		}
		cur.WriteRune(r)
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated string literal")
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets")
	}
	flush()
	return out, nil
}

// parseAssignment splits "target op= expr" into the target and the expression
// to evaluate. Compound operators (+=, -=, *=, /=, %=) are expanded.
func parseAssignment(src string) (string, string, error) {
	idx, op := findAssignment(src)
	if idx < 0 {
		return "", "", fmt.Errorf("statement %q is not an assignment to context", src)
	}

	lhsEnd := idx
	if op != 0 {
		lhsEnd = idx - 1
	}
	target := strings.TrimSpace(src[:lhsEnd])
	rhs := strings.TrimSpace(src[idx+1:])

	if !targetPattern.MatchString(target) {
		return "", "", fmt.Errorf("invalid assignment target %q: only context and its fields can be assigned", target)
	}
	if rhs == "" {
		return "", "", fmt.Errorf("statement %q has no value", src)
	}
	if op != 0 {
		rhs = fmt.Sprintf("(%s) %c (%s)", target, op, rhs)
	}
	return target, rhs, nil
}

// findAssignment returns the index of the first top-level assignment '=' and
// its compound operator, or -1.
func findAssignment(src string) (int, rune) {
	var (
		quote rune
		esc   bool
		depth int
	)
	runes := []rune(src)
	offset := 0
	for i, r := range runes {
		width := len(string(r))
		if quote != 0 {
			switch {
			case esc:
				esc = false
			case r == '\\' && quote != '`':
				esc = true
			case r == quote:
				quote = 0
			}
			offset += width
			continue
		}
		switch r {
		case '"', '\'', '`':
			quote = r
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '=':
			if depth != 0 {
				break
			}
			var prev, next rune
			if i > 0 {
				prev = runes[i-1]
			}
			if i+1 < len(runes) {
				next = runes[i+1]
			}
			if next == '=' || prev == '=' || prev == '!' || prev == '<' || prev == '>' {
				break
			}
			switch prev {
			case '+', '-', '*', '/', '%':
				return offset, prev
			}
			return offset, 0
		}
		offset += width
	}
	return -1, 0
}

func targetPath(target string) []string {
	parts := strings.Split(target, ".")
	return parts[1:]
}

// assign sets value at path inside root and returns the (possibly new) root.
// Missing or nil intermediate fields become objects.
func assign(root any, path []string, value any) (any, error) {
	if len(path) == 0 {
		return value, nil
	}
	if root == nil {
		root = map[string]any{}
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot set field %q on context of type %T", path[0], root)
	}

	cur := obj
	for i, key := range path[:len(path)-1] {
		next, exists := cur[key]
		if !exists || next == nil {
			child := map[string]any{}
			cur[key] = child
			cur = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot set field %q on %s of type %T",
				path[i+1], "context."+strings.Join(path[:i+1], "."), next)
		}
		cur = child
	}
	cur[path[len(path)-1]] = value
	return obj, nil
}
