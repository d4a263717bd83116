package spec

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"declcheck/internal/decl"
)

// Document top-level keys. The trailing '*' marks structurally-matched
// (anonymous) pools, the leading '%' the variable templates.
const (
	keyFunctions     = "functions"
	keyStructs       = "structs"
	keyAnonFunctions = "functions*"
	keyAnonStructs   = "structs*"
	keyVarStructs    = "%structs"
)

// StructuralError reports a malformed specification document. It aborts
// the load: a spec with the wrong shape cannot be reconciled against.
type StructuralError struct {
	Path string
	Msg  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("spec: %s: %s", e.Path, e.Msg)
}

func structuralf(path, format string, args ...any) error {
	return &StructuralError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// LoadFile reads and parses a specification document. JSON is the
// primary format; .yaml/.yml files are accepted and normalized to the
// same generic tree.
func LoadFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse spec file %s: %w", path, err)
		}
		return fromDocument(doc)
	default:
		return Load(strings.NewReader(string(data)))
	}
}

// Load parses a JSON specification document from r.
func Load(r io.Reader) (*Spec, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse spec document: %w", err)
	}
	return fromDocument(doc)
}

// fromDocument validates the generic tree and builds the model. Every
// top-level pool is optional; absence yields an empty pool.
func fromDocument(doc any) (*Spec, error) {
	root, ok := asObject(doc)
	if !ok {
		return nil, structuralf("$", "expected object")
	}

	s := New()

	if v, ok := root[keyFunctions]; ok {
		funcs, ok := asObject(v)
		if !ok {
			return nil, structuralf(keyFunctions, "expected object")
		}
		for name, entry := range funcs {
			sig, err := parseFuncSig(entry, keyFunctions+"."+name)
			if err != nil {
				return nil, err
			}
			s.Functions[name] = sig
		}
	}

	if v, ok := root[keyStructs]; ok {
		if err := parseNamedCounts(v, keyStructs, s.Structs); err != nil {
			return nil, err
		}
	}

	if v, ok := root[keyAnonFunctions]; ok {
		list, ok := v.([]any)
		if !ok {
			return nil, structuralf(keyAnonFunctions, "expected array")
		}
		for i, entry := range list {
			sig, err := parseFuncSig(entry, fmt.Sprintf("%s[%d]", keyAnonFunctions, i))
			if err != nil {
				return nil, err
			}
			s.AnonFunctions = append(s.AnonFunctions, sig)
		}
	}

	if v, ok := root[keyAnonStructs]; ok {
		list, ok := v.([]any)
		if !ok {
			return nil, structuralf(keyAnonStructs, "expected array")
		}
		for i, entry := range list {
			counts, err := parseCounts(entry, fmt.Sprintf("%s[%d]", keyAnonStructs, i))
			if err != nil {
				return nil, err
			}
			s.AnonStructs = append(s.AnonStructs, counts)
		}
	}

	if v, ok := root[keyVarStructs]; ok {
		if err := parseNamedCounts(v, keyVarStructs, s.VarStructs); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func parseNamedCounts(v any, path string, into map[string]decl.TypeCounts) error {
	obj, ok := asObject(v)
	if !ok {
		return structuralf(path, "expected object")
	}
	for name, entry := range obj {
		counts, err := parseCounts(entry, path+"."+name)
		if err != nil {
			return err
		}
		into[name] = counts
	}
	return nil
}

// parseFuncSig requires both a "params" multiset and a "return" type.
func parseFuncSig(v any, path string) (decl.FuncSig, error) {
	obj, ok := asObject(v)
	if !ok {
		return decl.FuncSig{}, structuralf(path, "expected object")
	}
	params, ok := obj["params"]
	if !ok {
		return decl.FuncSig{}, structuralf(path, "expected property 'params'")
	}
	ret, ok := obj["return"]
	if !ok {
		return decl.FuncSig{}, structuralf(path, "expected property 'return'")
	}

	counts, err := parseCounts(params, path+".params")
	if err != nil {
		return decl.FuncSig{}, err
	}
	retType, ok := ret.(string)
	if !ok {
		return decl.FuncSig{}, structuralf(path+".return", "expected string")
	}
	return decl.FuncSig{Params: counts, Return: retType}, nil
}

func parseCounts(v any, path string) (decl.TypeCounts, error) {
	obj, ok := asObject(v)
	if !ok {
		return nil, structuralf(path, "expected object")
	}
	counts := make(decl.TypeCounts, len(obj))
	for typ, raw := range obj {
		n, ok := asInt(raw)
		if !ok {
			return nil, structuralf(path+"."+typ, "expected integer count")
		}
		if n <= 0 {
			return nil, structuralf(path+"."+typ, "count must be positive, got %d", n)
		}
		counts[typ] = n
	}
	return counts, nil
}

// asObject normalizes JSON and YAML map shapes to map[string]any.
func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
