// Package reconcile drains the specification pools against the stream
// of observed declarations and reports what never matched.
package reconcile

import (
	"fmt"
	"sort"

	"declcheck/internal/binder"
	"declcheck/internal/decl"
	"declcheck/internal/diag"
	"declcheck/internal/spec"
)

// State tracks the engine's lifecycle. Transitions only move forward:
// Loaded -> Resolved -> Streaming -> Finalized.
type State int

const (
	StateLoaded State = iota
	StateResolved
	StateStreaming
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateResolved:
		return "resolved"
	case StateStreaming:
		return "streaming"
	case StateFinalized:
		return "finalized"
	}
	return "unknown"
}

// Options control configuration-dependent matching behavior.
type Options struct {
	// CheckMain subjects the program entry point to function checking.
	// Default false: declarations named "main" are ignored entirely.
	CheckMain bool
}

// Engine consumes observed declarations one at a time and consumes
// specification pool entries as they match. Each analysis unit needs its
// own Engine; pools are mutated in place.
type Engine struct {
	spec  *spec.Spec
	opts  Options
	sink  diag.Sink
	state State

	seenFuncs   map[string]bool
	seenRecords map[string]bool
}

// NewEngine builds an engine over its own copy of the specification.
func NewEngine(s *spec.Spec, opts Options, sink diag.Sink) *Engine {
	return &Engine{
		spec:        s.Clone(),
		opts:        opts,
		sink:        sink,
		state:       StateLoaded,
		seenFuncs:   make(map[string]bool),
		seenRecords: make(map[string]bool),
	}
}

// Resolve runs the variable binding pass over the full set of observed
// records. It must happen before any observation: bindings depend on
// structural matches against any record in the unit, so the caller
// collects records up front. Binder warnings are surfaced through the
// diagnostic sink.
func (e *Engine) Resolve(records []decl.Declaration) error {
	if e.state != StateLoaded {
		return fmt.Errorf("engine is %s, cannot resolve", e.state)
	}
	resolved, warnings := binder.Bind(e.spec, records)
	for _, w := range warnings {
		e.sink.Report(diag.Diagnostic{
			Severity: diag.SeverityWarning,
			Msg:      w.String(),
		})
	}
	e.spec = resolved
	e.state = StateResolved
	return nil
}

// Observe matches one observed declaration against the pools in
// priority order. Matching is synchronous and runs to completion before
// the next declaration is delivered.
func (e *Engine) Observe(d decl.Declaration) error {
	switch e.state {
	case StateResolved:
		e.state = StateStreaming
	case StateStreaming:
	default:
		return fmt.Errorf("engine is %s, cannot observe", e.state)
	}

	switch d.Kind {
	case decl.KindFunction:
		e.observeFunction(d)
	case decl.KindRecord:
		e.observeRecord(d)
	default:
		return fmt.Errorf("unknown declaration kind %d", d.Kind)
	}
	return nil
}

func (e *Engine) observeFunction(d decl.Declaration) {
	if !e.opts.CheckMain && d.Name == "main" {
		return
	}
	// First occurrence wins: a later declaration with the same name is
	// never re-checked against any pool.
	if e.seenFuncs[d.Name] {
		return
	}
	e.seenFuncs[d.Name] = true

	if expected, ok := e.spec.Functions[d.Name]; ok {
		if !expected.Equal(d.Sig) {
			e.sink.Report(diag.Diagnostic{
				Loc:      d.Loc,
				Severity: diag.SeverityWarning,
				Msg:      fmt.Sprintf("expected %s but got %s", expected, d.Sig),
			})
		}
		delete(e.spec.Functions, d.Name)
		return
	}

	for i, sig := range e.spec.AnonFunctions {
		if sig.Equal(d.Sig) {
			e.spec.AnonFunctions = append(e.spec.AnonFunctions[:i], e.spec.AnonFunctions[i+1:]...)
			return
		}
	}
}

func (e *Engine) observeRecord(d decl.Declaration) {
	if e.seenRecords[d.Name] {
		return
	}
	e.seenRecords[d.Name] = true

	if expected, ok := e.spec.Structs[d.Name]; ok {
		if !expected.Equal(d.Fields) {
			e.sink.Report(diag.Diagnostic{
				Loc:      d.Loc,
				Severity: diag.SeverityWarning,
				Msg:      fmt.Sprintf("expected %s but got %s", expected, d.Fields),
			})
		}
		delete(e.spec.Structs, d.Name)
		return
	}

	// Variable templates match structurally, never by name. Names are
	// scanned in sorted order so equal-field templates drain
	// deterministically.
	for _, name := range sortedKeys(e.spec.VarStructs) {
		if e.spec.VarStructs[name].Equal(d.Fields) {
			delete(e.spec.VarStructs, name)
			return
		}
	}

	for i, fields := range e.spec.AnonStructs {
		if fields.Equal(d.Fields) {
			e.spec.AnonStructs = append(e.spec.AnonStructs[:i], e.spec.AnonStructs[i+1:]...)
			return
		}
	}
}

// Finalize reports every pool entry that never matched. It runs exactly
// once; the engine accepts nothing afterwards.
func (e *Engine) Finalize() (*Report, error) {
	switch e.state {
	case StateResolved, StateStreaming:
	default:
		return nil, fmt.Errorf("engine is %s, cannot finalize", e.state)
	}
	e.state = StateFinalized

	r := &Report{
		MissingFunctions:  sortedKeys(e.spec.Functions),
		MissingStructs:    sortedKeys(e.spec.Structs),
		MissingVarStructs: sortedKeys(e.spec.VarStructs),
	}
	for _, sig := range e.spec.AnonFunctions {
		r.MissingAnonFunctions = append(r.MissingAnonFunctions, sig.String())
	}
	for _, fields := range e.spec.AnonStructs {
		r.MissingAnonStructs = append(r.MissingAnonStructs, fields.String())
	}
	return r, nil
}

// Run wires the full data flow for one analysis unit: collect records,
// resolve bindings, stream every declaration, finalize.
func Run(s *spec.Spec, observed []decl.Declaration, opts Options, sink diag.Sink) (*Report, error) {
	e := NewEngine(s, opts, sink)

	var records []decl.Declaration
	for _, d := range observed {
		if d.Kind == decl.KindRecord {
			records = append(records, d)
		}
	}
	if err := e.Resolve(records); err != nil {
		return nil, err
	}
	for _, d := range observed {
		if err := e.Observe(d); err != nil {
			return nil, err
		}
	}
	return e.Finalize()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
