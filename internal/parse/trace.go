package parse

// TraceEntry records one heuristic attempt during a parse. The trace
// replaces ad-hoc debug printing: tests and operators can see which
// pattern fired for a field and why earlier ones lost.
type TraceEntry struct {
	Field        string `json:"field"`
	PatternIndex int    `json:"pattern_index"`
	Matched      bool   `json:"matched"`
	RejectReason string `json:"reject_reason,omitempty"`
}

type Trace []TraceEntry

func (t *Trace) add(field string, idx int, matched bool, reason string) {
	*t = append(*t, TraceEntry{Field: field, PatternIndex: idx, Matched: matched, RejectReason: reason})
}

// Fired returns the pattern index that matched for a field, or -1.
func (t Trace) Fired(field string) int {
	for _, e := range t {
		if e.Field == field && e.Matched {
			return e.PatternIndex
		}
	}
	return -1
}
