package templatelang

import (
	"fmt"
	"strings"
)

// openDelim and closeDelim bracket a template directive: `{~ get name}`.
const (
	openDelim  = "{~"
	closeDelim = "}"
)

// Lex splits src into a flat sequence of text runs and parsed directives.
// Directives are not nested here — "if"/"for"/"end" are ordinary
// BlockNodes; block structure is resolved later by the interpreter's
// block-skipping walk, mirroring how the original lexer re-walks a
// flat token stream rather than building a tree.
func Lex(src string) ([]Node, error) {
	var nodes []Node
	i := 0
	for i < len(src) {
		start := strings.Index(src[i:], openDelim)
		if start < 0 {
			nodes = append(nodes, TextNode{Text: src[i:]})
			break
		}
		start += i
		if start > i {
			nodes = append(nodes, TextNode{Text: src[i:start]})
		}

		closeIdx, err := findClose(src, start+len(openDelim))
		if err != nil {
			return nil, err
		}

		inner := strings.TrimSpace(src[start+len(openDelim) : closeIdx])
		args, err := splitArgs(inner)
		if err != nil {
			return nil, fmt.Errorf("template expression %q: %w", inner, err)
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("empty template expression")
		}
		name, ok := args[0].Ident()
		if !ok {
			return nil, fmt.Errorf("template expression must start with an identifier, got %q", args[0].Display())
		}

		nodes = append(nodes, BlockNode{Name: name, Args: args[1:], Raw: inner})
		i = closeIdx + len(closeDelim)
	}
	return nodes, nil
}

// findClose returns the index of the "}" that closes a directive opened
// at from, skipping over any "}" that falls inside a quoted string.
func findClose(src string, from int) (int, error) {
	inQuote := false
	for j := from; j < len(src); j++ {
		switch {
		case src[j] == '"' && !isEscapedAt(src, j):
			inQuote = !inQuote
		case src[j] == '}' && !inQuote:
			return j, nil
		}
	}
	return -1, fmt.Errorf("unterminated template expression starting at byte %d", from)
}

func isEscapedAt(s string, i int) bool {
	backslashes := 0
	for k := i - 1; k >= 0 && s[k] == '\\'; k-- {
		backslashes++
	}
	return backslashes%2 == 1
}

// splitArgs tokenizes the inside of a directive into identifiers and
// string literals, treating commas as ordinary separators (so `with X
// as k, with Y as j` and `with X as k with Y as j` parse identically).
func splitArgs(inner string) ([]Arg, error) {
	var args []Arg
	i := 0
	for i < len(inner) {
		c := inner[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',':
			i++
		case c == '"':
			j := i + 1
			var sb strings.Builder
			closed := false
			for j < len(inner) {
				if inner[j] == '\\' && j+1 < len(inner) {
					sb.WriteByte(inner[j+1])
					j += 2
					continue
				}
				if inner[j] == '"' {
					closed = true
					j++
					break
				}
				sb.WriteByte(inner[j])
				j++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string literal")
			}
			args = append(args, Arg{str: sb.String(), isStr: true})
			i = j
		default:
			j := i
			for j < len(inner) && !isArgBoundary(inner[j]) {
				j++
			}
			args = append(args, Arg{ident: inner[i:j]})
			i = j
		}
	}
	return args, nil
}

func isArgBoundary(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',' || c == '"'
}
