package domain

import "strings"

// AllCategories is the filter sentinel that matches every quote.
const AllCategories = "all"

// Rand is the source of randomness used by SelectQuote.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// IsAllFilter reports whether filter selects the whole collection.
func IsAllFilter(filter string) bool {
	return filter == "" || strings.EqualFold(filter, AllCategories)
}

// FilterQuotes returns the quotes whose category matches filter
// case-insensitively, or a copy of the whole collection for the "all" filter.
func FilterQuotes(quotes []Quote, filter string) []Quote {
	if IsAllFilter(filter) {
		return append([]Quote(nil), quotes...)
	}

	matched := make([]Quote, 0, len(quotes))

	for _, q := range quotes {
		if strings.EqualFold(q.Category, filter) {
			matched = append(matched, q)
		}
	}

	return matched
}

// SelectQuote picks one quote uniformly at random from those matching filter.
// It returns false when nothing matches.
func SelectQuote(quotes []Quote, filter string, rng Rand) (Quote, bool) {
	candidates := FilterQuotes(quotes, filter)
	if len(candidates) == 0 {
		return Quote{}, false
	}

	return candidates[rng.IntN(len(candidates))], true
}

// DistinctCategories lists categories in order of first appearance.
func DistinctCategories(quotes []Quote) []string {
	seen := make(map[string]struct{}, len(quotes))
	categories := make([]string, 0, len(quotes))

	for _, q := range quotes {
		if _, ok := seen[q.Category]; ok {
			continue
		}

		seen[q.Category] = struct{}{}
		categories = append(categories, q.Category)
	}

	return categories
}

// CategoryOptions is DistinctCategories with the "all" option in front.
func CategoryOptions(quotes []Quote) []string {
	return append([]string{AllCategories}, DistinctCategories(quotes)...)
}

// ResolveFilter returns stored if it names "all" or one of categories,
// and "all" otherwise.
func ResolveFilter(stored string, categories []string) string {
	if stored == AllCategories {
		return AllCategories
	}

	for _, c := range categories {
		if c == stored {
			return stored
		}
	}

	return AllCategories
}

// MatchCategory finds the stored spelling of category among categories,
// ignoring case.
func MatchCategory(category string, categories []string) (string, bool) {
	for _, c := range categories {
		if c == category {
			return c, true
		}
	}

	for _, c := range categories {
		if strings.EqualFold(c, category) {
			return c, true
		}
	}

	return "", false
}

// SequencesEqual is ordered, length-sensitive structural equality.
func SequencesEqual(a, b []Quote) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}

	return true
}

// CountDiscarded returns how many quotes in local have no counterpart in
// remote, counting duplicates individually.
func CountDiscarded(local, remote []Quote) int {
	available := make(map[Quote]int, len(remote))
	for _, q := range remote {
		available[q]++
	}

	discarded := 0

	for _, q := range local {
		if available[q] > 0 {
			available[q]--
			continue
		}

		discarded++
	}

	return discarded
}
