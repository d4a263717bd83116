package binder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"declcheck/internal/decl"
	"declcheck/internal/spec"
)

func record(name string, fields decl.TypeCounts) decl.Declaration {
	return decl.Declaration{Name: name, Kind: decl.KindRecord, Fields: fields}
}

func TestBind_SubstitutesVariable(t *testing.T) {
	s := spec.New()
	s.VarStructs["Node"] = decl.TypeCounts{"int": 1}
	s.Structs["LinkedNode"] = decl.TypeCounts{"%Node *": 1}

	records := []decl.Declaration{
		record("Point", decl.TypeCounts{"int": 1}),
		record("LinkedNode", decl.TypeCounts{"Point *": 1}),
	}

	resolved, warnings := Bind(s, records)
	assert.Empty(t, warnings)

	// Node binds to Point; the pointer suffix on the reference survives.
	assert.Equal(t, decl.TypeCounts{"Point *": 1}, resolved.Structs["LinkedNode"])
	assert.Equal(t, decl.TypeCounts{"int": 1}, resolved.VarStructs["Node"])
}

func TestBind_PreservesPointerDepth(t *testing.T) {
	s := spec.New()
	s.VarStructs["Buf"] = decl.TypeCounts{"char": 1}
	s.Functions["grow"] = decl.FuncSig{
		Params: decl.TypeCounts{"%Buf **": 1},
		Return: "%Buf",
	}

	resolved, warnings := Bind(s, []decl.Declaration{
		record("ByteBuf", decl.TypeCounts{"char": 1}),
	})
	assert.Empty(t, warnings)

	sig := resolved.Functions["grow"]
	assert.Equal(t, decl.TypeCounts{"ByteBuf **": 1}, sig.Params)
	assert.Equal(t, "ByteBuf", sig.Return)
}

func TestBind_FirstMatchWins(t *testing.T) {
	s := spec.New()
	s.VarStructs["Pair"] = decl.TypeCounts{"int": 2}

	s.Structs["Holder"] = decl.TypeCounts{"%Pair": 1}

	records := []decl.Declaration{
		record("First", decl.TypeCounts{"int": 2}),
		record("Second", decl.TypeCounts{"int": 2}),
	}

	resolved, _ := Bind(s, records)
	assert.Equal(t, decl.TypeCounts{"First": 1}, resolved.Structs["Holder"])
}

func TestBind_UnresolvedVariableDropsDependents(t *testing.T) {
	s := spec.New()
	s.VarStructs["Ghost"] = decl.TypeCounts{"double": 4}
	s.Structs["Haunted"] = decl.TypeCounts{"%Ghost": 1}
	s.Structs["Plain"] = decl.TypeCounts{"int": 1}
	s.AnonFunctions = append(s.AnonFunctions, decl.FuncSig{
		Params: decl.TypeCounts{"%Ghost *": 1},
		Return: "void",
	})

	resolved, warnings := Bind(s, []decl.Declaration{
		record("Point", decl.TypeCounts{"int": 2}),
	})

	// One warning for the unbound variable plus one per dropped
	// dependent entry.
	require.Len(t, warnings, 3)
	assert.Equal(t, "Ghost", warnings[0].Subject)
	assert.Contains(t, warnings[0].Msg, "no observed record matches")
	assert.Equal(t, "Haunted", warnings[1].Subject)

	assert.NotContains(t, resolved.Structs, "Haunted")
	assert.Contains(t, resolved.Structs, "Plain")
	assert.Empty(t, resolved.AnonFunctions)

	// The template itself has no variable references, so it stays and
	// will surface as a missing variable struct at end of stream.
	assert.Contains(t, resolved.VarStructs, "Ghost")
}

func TestBind_MalformedVariableNames(t *testing.T) {
	s := spec.New()
	s.VarStructs["%Node"] = decl.TypeCounts{"int": 1}
	s.VarStructs["Node *"] = decl.TypeCounts{"int": 1}

	_, warnings := Bind(s, []decl.Declaration{
		record("Point", decl.TypeCounts{"int": 1}),
	})

	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0].Msg, "redundant variable")
	assert.Contains(t, warnings[1].Msg, "pointer asterisks")
}

func TestBind_MalformedTypeKeyDropsEntryOnly(t *testing.T) {
	s := spec.New()
	s.Functions["ok"] = decl.FuncSig{Params: decl.TypeCounts{"int": 1}, Return: "int"}
	s.Functions["bad"] = decl.FuncSig{Params: decl.TypeCounts{"123": 1}, Return: "int"}

	resolved, warnings := Bind(s, nil)
	require.Len(t, warnings, 1)
	assert.Equal(t, "bad", warnings[0].Subject)
	assert.Contains(t, resolved.Functions, "ok")
	assert.NotContains(t, resolved.Functions, "bad")
}

func TestBind_Idempotent(t *testing.T) {
	s := spec.New()
	s.VarStructs["Node"] = decl.TypeCounts{"int": 1}
	s.Structs["LinkedNode"] = decl.TypeCounts{"%Node *": 1}
	s.Functions["next"] = decl.FuncSig{
		Params: decl.TypeCounts{"%Node": 1},
		Return: "%Node",
	}

	records := []decl.Declaration{record("Point", decl.TypeCounts{"int": 1})}

	once, warnings := Bind(s, records)
	require.Empty(t, warnings)
	twice, warnings := Bind(once, records)
	require.Empty(t, warnings)
	assert.Equal(t, once, twice)
}

func TestBind_IgnoresFunctionObservations(t *testing.T) {
	s := spec.New()
	s.VarStructs["Node"] = decl.TypeCounts{"int": 1}

	fn := decl.Declaration{
		Name: "frob",
		Kind: decl.KindFunction,
		Sig:  decl.FuncSig{Params: decl.TypeCounts{"int": 1}, Return: "int"},
	}
	_, warnings := Bind(s, []decl.Declaration{fn})
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Msg, "no observed record matches")
}
