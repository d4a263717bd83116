package spec

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"declcheck/internal/decl"
)

func TestLoad_AllPools(t *testing.T) {
	doc := `{
		"functions": {
			"add": {"params": {"int": 2}, "return": "int"},
			"greet": {"params": {}, "return": "void"}
		},
		"structs": {
			"Point": {"int": 2}
		},
		"functions*": [
			{"params": {"char *": 1}, "return": "int"}
		],
		"structs*": [
			{"int": 1, "int *": 1}
		],
		"%structs": {
			"Node": {"int": 1}
		}
	}`

	s, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	t.Run("Named functions", func(t *testing.T) {
		require.Len(t, s.Functions, 2)
		add := s.Functions["add"]
		assert.Equal(t, "int", add.Return)
		assert.Equal(t, decl.TypeCounts{"int": 2}, add.Params)
		greet := s.Functions["greet"]
		assert.Equal(t, "void", greet.Return)
		assert.Empty(t, greet.Params)
	})

	t.Run("Named structs", func(t *testing.T) {
		assert.Equal(t, decl.TypeCounts{"int": 2}, s.Structs["Point"])
	})

	t.Run("Anonymous pools", func(t *testing.T) {
		require.Len(t, s.AnonFunctions, 1)
		assert.Equal(t, decl.TypeCounts{"char *": 1}, s.AnonFunctions[0].Params)
		require.Len(t, s.AnonStructs, 1)
		assert.Equal(t, decl.TypeCounts{"int": 1, "int *": 1}, s.AnonStructs[0])
	})

	t.Run("Variable structs", func(t *testing.T) {
		assert.Equal(t, decl.TypeCounts{"int": 1}, s.VarStructs["Node"])
	})
}

func TestLoad_EmptyDocument(t *testing.T) {
	s, err := Load(strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.True(t, s.Empty())
}

func TestLoad_StructuralErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		path string
	}{
		{"Root not object", `[]`, "$"},
		{"Functions not object", `{"functions": []}`, "functions"},
		{"Missing params", `{"functions": {"f": {"return": "int"}}}`, "functions.f"},
		{"Missing return", `{"functions": {"f": {"params": {}}}}`, "functions.f"},
		{"Return not string", `{"functions": {"f": {"params": {}, "return": 3}}}`, "functions.f.return"},
		{"Count not integer", `{"structs": {"S": {"int": "two"}}}`, "structs.S.int"},
		{"Count not positive", `{"structs": {"S": {"int": 0}}}`, "structs.S.int"},
		{"Anon functions not array", `{"functions*": {}}`, "functions*"},
		{"Anon structs not array", `{"structs*": {}}`, "structs*"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.doc))
			var serr *StructuralError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tc.path, serr.Path)
		})
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	_, err := Load(strings.NewReader(`{`))
	require.Error(t, err)
}

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.yaml")
	doc := `
functions:
  add:
    params:
      int: 2
    return: int
structs:
  Point:
    int: 2
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, decl.TypeCounts{"int": 2}, s.Functions["add"].Params)
	assert.Equal(t, decl.TypeCounts{"int": 2}, s.Structs["Point"])
}

func TestClone_Independent(t *testing.T) {
	s := New()
	s.Functions["f"] = decl.FuncSig{Params: decl.TypeCounts{"int": 1}, Return: "int"}
	s.Structs["S"] = decl.TypeCounts{"int": 2}
	s.AnonStructs = append(s.AnonStructs, decl.TypeCounts{"char": 1})

	c := s.Clone()
	delete(c.Functions, "f")
	c.Structs["S"]["int"] = 9
	c.AnonStructs[0]["char"] = 9

	assert.Contains(t, s.Functions, "f")
	assert.Equal(t, 2, s.Structs["S"]["int"])
	assert.Equal(t, 1, s.AnonStructs[0]["char"])
}

func TestOverlapWarnings(t *testing.T) {
	s := New()
	s.Functions["f"] = decl.FuncSig{Params: decl.TypeCounts{"int": 1}, Return: "int"}
	s.AnonFunctions = append(s.AnonFunctions, decl.FuncSig{Params: decl.TypeCounts{"int": 1}, Return: "int"})
	s.Structs["S"] = decl.TypeCounts{"int": 2}
	s.AnonStructs = append(s.AnonStructs, decl.TypeCounts{"int": 2})

	warnings := s.OverlapWarnings()
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], `named counterpart "f"`)
	assert.Contains(t, warnings[1], `named counterpart "S"`)
}
