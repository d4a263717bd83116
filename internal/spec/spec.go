package spec

import (
	"fmt"

	"declcheck/internal/decl"
)

// Spec is the expected-declarations document in memory: five
// independently optional pools that the reconciliation engine drains as
// observations arrive.
type Spec struct {
	// Functions and Structs are matched by name.
	Functions map[string]decl.FuncSig
	Structs   map[string]decl.TypeCounts

	// AnonFunctions and AnonStructs are matched purely structurally;
	// duplicate entries are distinct and each consumes one observation.
	AnonFunctions []decl.FuncSig
	AnonStructs   []decl.TypeCounts

	// VarStructs are templates: each key is a type variable that binds
	// to the first observed record whose fields match structurally, and
	// may be referenced as "%name" inside any other pool.
	VarStructs map[string]decl.TypeCounts
}

// New returns an empty specification with all pools allocated.
func New() *Spec {
	return &Spec{
		Functions:  make(map[string]decl.FuncSig),
		Structs:    make(map[string]decl.TypeCounts),
		VarStructs: make(map[string]decl.TypeCounts),
	}
}

// Clone deep-copies the specification. Pools are consumed in place
// during reconciliation, so concurrent analysis units must each own a
// copy.
func (s *Spec) Clone() *Spec {
	out := New()
	for name, sig := range s.Functions {
		out.Functions[name] = decl.FuncSig{Params: sig.Params.Clone(), Return: sig.Return}
	}
	for name, fields := range s.Structs {
		out.Structs[name] = fields.Clone()
	}
	for _, sig := range s.AnonFunctions {
		out.AnonFunctions = append(out.AnonFunctions, decl.FuncSig{Params: sig.Params.Clone(), Return: sig.Return})
	}
	for _, fields := range s.AnonStructs {
		out.AnonStructs = append(out.AnonStructs, fields.Clone())
	}
	for name, fields := range s.VarStructs {
		out.VarStructs[name] = fields.Clone()
	}
	return out
}

// Empty reports whether every pool is empty.
func (s *Spec) Empty() bool {
	return len(s.Functions) == 0 && len(s.Structs) == 0 &&
		len(s.AnonFunctions) == 0 && len(s.AnonStructs) == 0 &&
		len(s.VarStructs) == 0
}

// OverlapWarnings reports anonymous entries that duplicate a named
// counterpart. Such specs are legal but ambiguous: the named tier always
// wins, so the anonymous entry can only be satisfied by a second,
// differently-named declaration.
func (s *Spec) OverlapWarnings() []string {
	var out []string
	for _, sig := range s.AnonFunctions {
		for name, named := range s.Functions {
			if sig.Equal(named) {
				out = append(out, fmt.Sprintf("anonymous function %s has a named counterpart %q", sig, name))
				break
			}
		}
	}
	for _, fields := range s.AnonStructs {
		for name, named := range s.Structs {
			if fields.Equal(named) {
				out = append(out, fmt.Sprintf("anonymous struct %s has a named counterpart %q", fields, name))
				break
			}
		}
	}
	return out
}
