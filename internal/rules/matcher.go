package rules

import (
	"sort"
	"strings"
)

// Match returns the single matched rule for an invoice text, or nil.
//
// The store's ordering is not trusted: rules are re-sorted by priority
// descending on every call (stable, so equal priorities keep input order).
// The first active rule whose TextPattern is a case-insensitive substring
// of the text wins. Pure function; no caching across calls, the rule set
// may change between invoices.
func Match(text string, list []Rule) *Rule {
	if text == "" || len(list) == 0 {
		return nil
	}

	ordered := make([]Rule, len(list))
	copy(ordered, list)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	lower := strings.ToLower(text)
	for i := range ordered {
		r := &ordered[i]
		if !r.IsActive {
			continue
		}
		p := strings.ToLower(strings.TrimSpace(r.TextPattern))
		if p == "" {
			continue
		}
		if strings.Contains(lower, p) {
			matched := *r
			return &matched
		}
	}
	return nil
}
