package rules

import "context"

// Store supplies the rule set. Implementations may return rules in any
// order; the matcher sorts defensively.
type Store interface {
	ListActiveRules(ctx context.Context) ([]Rule, error)
}

// StaticStore serves a fixed in-memory rule set. Used in tests and by
// callers that already hold the rules.
type StaticStore []Rule

func (s StaticStore) ListActiveRules(_ context.Context) ([]Rule, error) {
	out := make([]Rule, 0, len(s))
	for _, r := range s {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}
