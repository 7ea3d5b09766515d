package domain

import (
	"sort"
	"strings"
)

// CategoryHints maps a payee substring to a category group id. It overrides
// whatever category the producer assigned when the payee matches.
type CategoryHints map[string]int64

// Keys returns the hint keys in match order: longer keys first, so the most
// specific hint wins, then ascending byte order. Empty keys are skipped.
func (h CategoryHints) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Match returns the category group of the first key, in Keys order, that the
// payee contains. Matching is case-sensitive.
func (h CategoryHints) Match(payee string) (int64, bool) {
	for _, k := range h.Keys() {
		if strings.Contains(payee, k) {
			return h[k], true
		}
	}
	return 0, false
}

// Merge returns a new hint set with other's entries overriding h's.
func (h CategoryHints) Merge(other CategoryHints) CategoryHints {
	merged := make(CategoryHints, len(h)+len(other))
	for k, v := range h {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}
