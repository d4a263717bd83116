package decl

import (
	"fmt"
	"sort"
	"strings"
)

// TypeCounts maps a rendered type key to the number of times it occurs
// in a parameter or field list. Position is deliberately not part of the
// contract: two declarations are structurally equal when they use the
// same types the same number of times.
type TypeCounts map[string]int

// CountTypes builds a TypeCounts from an ordered list of rendered type
// keys.
func CountTypes(types []string) TypeCounts {
	m := make(TypeCounts, len(types))
	for _, t := range types {
		m[t]++
	}
	return m
}

// Equal reports structural equality: same keys with the same counts.
func (c TypeCounts) Equal(other TypeCounts) bool {
	if len(c) != len(other) {
		return false
	}
	for k, n := range c {
		if other[k] != n {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (c TypeCounts) Clone() TypeCounts {
	out := make(TypeCounts, len(c))
	for k, n := range c {
		out[k] = n
	}
	return out
}

func (c TypeCounts) sortedKeys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the multiset as a struct-like body, keys sorted:
// "{ int: 1; int *: 2; };".
func (c TypeCounts) String() string {
	var b strings.Builder
	b.WriteString("{ ")
	for _, k := range c.sortedKeys() {
		fmt.Fprintf(&b, "%s: %d; ", k, c[k])
	}
	b.WriteString("};")
	return b.String()
}

// FuncSig is a function signature reduced to its structural key: an
// unordered parameter multiset plus a return type.
type FuncSig struct {
	Params TypeCounts
	Return string
}

// Equal reports field-wise structural equality.
func (s FuncSig) Equal(other FuncSig) bool {
	return s.Return == other.Return && s.Params.Equal(other.Params)
}

// String renders the signature human-readably, parameter keys sorted:
// "(int: 2, char *: 1) -> int".
func (s FuncSig) String() string {
	var b strings.Builder
	b.WriteByte('(')
	keys := s.Params.sortedKeys()
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %d", k, s.Params[k])
	}
	b.WriteString(") -> ")
	b.WriteString(s.Return)
	return b.String()
}

// Kind tags which sort of declaration was observed.
type Kind int

const (
	KindFunction Kind = iota
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindRecord:
		return "record"
	}
	return "unknown"
}

// Location points at a declaration in source. The zero value means "no
// location" (specification-side entries have none).
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return "<spec>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Declaration is a single observed declaration delivered by a
// declaration source. Sig is set for functions, Fields for records; a
// record observed through a typedef alias carries the alias's name.
type Declaration struct {
	Name   string
	Kind   Kind
	Sig    FuncSig
	Fields TypeCounts
	Loc    Location
}
