package typeexpr

import (
	"fmt"
	"strings"
)

// TypeExpr is a single parsed type occurrence from a declaration
// specification: an optional variable marker, a base identifier, and a
// pointer depth.
type TypeExpr struct {
	IsVar    bool
	Name     string
	Pointers int
}

// String renders the canonical textual form: '%' if the type is a
// variable, the identifier, then a space and one '*' per pointer level.
// Parse(s).String() == s for canonical inputs.
func (t TypeExpr) String() string {
	var b strings.Builder
	if t.IsVar {
		b.WriteByte('%')
	}
	b.WriteString(t.Name)
	if t.Pointers > 0 {
		b.WriteByte(' ')
		b.WriteString(strings.Repeat("*", t.Pointers))
	}
	return b.String()
}

// Render builds the canonical multiset key for a concrete (non-variable)
// type name with the given pointer depth.
func Render(name string, pointers int) string {
	return TypeExpr{Name: name, Pointers: pointers}.String()
}

// ParseError reports an unexpected character in a type expression. It is
// recoverable: callers skip the offending declaration and continue.
type ParseError struct {
	Input string
	Pos   int
}

func (e *ParseError) Error() string {
	ch := byte(0)
	if e.Pos < len(e.Input) {
		ch = e.Input[e.Pos]
	}
	return fmt.Sprintf("unexpected character %q in %q (%d)", ch, e.Input, e.Pos)
}

const structPrefix = "struct "

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

// Parse reads a type expression left to right with no backtracking:
// optional '%' marker, an ignored "struct " prefix, one identifier, then
// optionally spaces followed by a run of '*'. Anything else is a
// *ParseError at the offending position.
func Parse(s string) (TypeExpr, error) {
	pos := 0
	var ret TypeExpr

	if pos < len(s) && s[pos] == '%' {
		ret.IsVar = true
		pos++
	}
	if strings.HasPrefix(s[pos:], structPrefix) {
		pos += len(structPrefix)
		for pos < len(s) && s[pos] == ' ' {
			pos++
		}
	}

	if pos >= len(s) || !isIdentStart(s[pos]) {
		return TypeExpr{}, &ParseError{Input: s, Pos: pos}
	}
	start := pos
	for pos < len(s) && isIdentChar(s[pos]) {
		pos++
	}
	ret.Name = s[start:pos]

	if pos == len(s) {
		return ret, nil
	}

	for pos < len(s) && s[pos] == ' ' {
		pos++
	}
	// A trailing run of spaces with no asterisks is invalid.
	if pos == len(s) {
		return TypeExpr{}, &ParseError{Input: s, Pos: pos}
	}

	for pos < len(s) {
		if s[pos] != '*' {
			return TypeExpr{}, &ParseError{Input: s, Pos: pos}
		}
		ret.Pointers++
		pos++
	}

	return ret, nil
}
