package reconcile

import (
	"fmt"
	"io"
)

// Report lists the specification entries still unmatched when the
// declaration stream ended. Leftovers are the purpose of the tool, not a
// failure of it: the run still exits successfully.
type Report struct {
	MissingFunctions     []string
	MissingStructs       []string
	MissingAnonFunctions []string
	MissingAnonStructs   []string
	MissingVarStructs    []string
}

// Empty reports whether every expected declaration was accounted for.
func (r *Report) Empty() bool {
	return len(r.MissingFunctions) == 0 && len(r.MissingStructs) == 0 &&
		len(r.MissingAnonFunctions) == 0 && len(r.MissingAnonStructs) == 0 &&
		len(r.MissingVarStructs) == 0
}

// Total counts all missing entries.
func (r *Report) Total() int {
	return len(r.MissingFunctions) + len(r.MissingStructs) +
		len(r.MissingAnonFunctions) + len(r.MissingAnonStructs) +
		len(r.MissingVarStructs)
}

// Write prints the grouped missing-declarations listing.
func (r *Report) Write(w io.Writer) {
	writeGroup(w, "MISSING NAMED FUNCTION(S):", r.MissingFunctions)
	writeGroup(w, "MISSING NAMED STRUCT(S):", r.MissingStructs)
	writeGroup(w, "MISSING UNNAMED FUNCTION(S):", r.MissingAnonFunctions)
	writeGroup(w, "MISSING UNNAMED STRUCT(S):", r.MissingAnonStructs)
	writeGroup(w, "MISSING VARIABLE STRUCT(S):", r.MissingVarStructs)
}

func writeGroup(w io.Writer, header string, entries []string) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintln(w, header)
	for _, e := range entries {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
