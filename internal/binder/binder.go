// Package binder resolves variable-bound record templates against the
// set of observed records and rewrites every variable type reference in
// the specification to the concrete record name it bound to.
package binder

import (
	"fmt"
	"sort"

	"declcheck/internal/decl"
	"declcheck/internal/spec"
	"declcheck/internal/typeexpr"
)

// Warning reports a skipped binding or a dropped specification entry.
// Bindings never hard-fail: the offending variable or entry is dropped
// and the rest of the run proceeds.
type Warning struct {
	Subject string
	Msg     string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Subject, w.Msg)
}

// Bind matches each variable template against the observed records and
// returns a resolved copy of the specification. The input spec is not
// modified.
//
// A variable binds to the first observed record (in the declaration
// source's enumeration order) whose fields are structurally equal to the
// template; when several records qualify the first encountered wins,
// which is not stable under reordering. Entries referencing a variable
// that never bound are dropped from their pool with a warning.
func Bind(s *spec.Spec, records []decl.Declaration) (*spec.Spec, []Warning) {
	var warnings []Warning
	warn := func(subject, format string, args ...any) {
		warnings = append(warnings, Warning{Subject: subject, Msg: fmt.Sprintf(format, args...)})
	}

	vars := make(map[string]string)
	for _, name := range sortedKeys(s.VarStructs) {
		fields := s.VarStructs[name]
		te, err := typeexpr.Parse(name)
		switch {
		case err != nil:
			warn(name, "%v, skipped", err)
			continue
		case te.IsVar:
			warn(name, "redundant variable '%%', skipped")
			continue
		case te.Pointers > 0:
			warn(name, "unexpected pointer asterisks, skipped")
			continue
		}

		bound := false
		for _, rec := range records {
			if rec.Kind != decl.KindRecord {
				continue
			}
			if fields.Equal(rec.Fields) {
				vars[te.Name] = rec.Name
				bound = true
				break
			}
		}
		if !bound {
			warn(name, "no observed record matches variable fields %s", fields)
		}
	}

	out := spec.New()

	for _, name := range sortedKeys(s.Functions) {
		sig, err := resolveFunc(s.Functions[name], vars)
		if err != nil {
			warn(name, "%v, skipped", err)
			continue
		}
		out.Functions[name] = sig
	}

	for _, name := range sortedKeys(s.Structs) {
		fields, err := resolveCounts(s.Structs[name], vars)
		if err != nil {
			warn(name, "%v, skipped", err)
			continue
		}
		out.Structs[name] = fields
	}

	for _, sig := range s.AnonFunctions {
		resolved, err := resolveFunc(sig, vars)
		if err != nil {
			warn(sig.String(), "%v, skipped", err)
			continue
		}
		out.AnonFunctions = append(out.AnonFunctions, resolved)
	}

	for _, fields := range s.AnonStructs {
		resolved, err := resolveCounts(fields, vars)
		if err != nil {
			warn(fields.String(), "%v, skipped", err)
			continue
		}
		out.AnonStructs = append(out.AnonStructs, resolved)
	}

	for _, name := range sortedKeys(s.VarStructs) {
		fields, err := resolveCounts(s.VarStructs[name], vars)
		if err != nil {
			warn(name, "%v, skipped", err)
			continue
		}
		out.VarStructs[name] = fields
	}

	return out, warnings
}

// resolveKey rewrites one type key. Concrete types keep their name and
// pointer depth (normalized rendering); variables are replaced by the
// record name they bound to, with the variable's own pointer suffix
// re-emitted on the resolved name.
func resolveKey(key string, vars map[string]string) (string, error) {
	te, err := typeexpr.Parse(key)
	if err != nil {
		return "", err
	}
	if !te.IsVar {
		return typeexpr.Render(te.Name, te.Pointers), nil
	}
	target, ok := vars[te.Name]
	if !ok {
		return "", fmt.Errorf("no such variable: %s", te.Name)
	}
	return typeexpr.Render(target, te.Pointers), nil
}

func resolveCounts(counts decl.TypeCounts, vars map[string]string) (decl.TypeCounts, error) {
	out := make(decl.TypeCounts, len(counts))
	for key, n := range counts {
		resolved, err := resolveKey(key, vars)
		if err != nil {
			return nil, err
		}
		out[resolved] += n
	}
	return out, nil
}

func resolveFunc(sig decl.FuncSig, vars map[string]string) (decl.FuncSig, error) {
	params, err := resolveCounts(sig.Params, vars)
	if err != nil {
		return decl.FuncSig{}, err
	}
	ret, err := resolveKey(sig.Return, vars)
	if err != nil {
		return decl.FuncSig{}, err
	}
	return decl.FuncSig{Params: params, Return: ret}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
