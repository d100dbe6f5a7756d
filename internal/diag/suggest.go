package diag

import (
	"sort"
	"strings"
)

const (
	DefaultMaxDistance = 3
	DefaultMaxResults  = 5
)

// Suggester proposes "did you mean" candidates for an unresolved name.
type Suggester struct {
	MaxDistance int
	MaxResults  int
}

// DefaultSuggester returns a Suggester with distance 3 and at most 5 results.
func DefaultSuggester() Suggester {
	return Suggester{MaxDistance: DefaultMaxDistance, MaxResults: DefaultMaxResults}
}

type scored struct {
	name string
	dist int
}

// Suggest returns the candidates within MaxDistance of name (case-insensitive),
// nearest first. Exact matches are never suggested.
func (s Suggester) Suggest(name string, candidates []string) []string {
	maxDist, maxResults := s.MaxDistance, s.MaxResults
	if maxDist <= 0 {
		maxDist = DefaultMaxDistance
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	// Distance ignores case, so names equal up to case are one candidate.
	// The first one listed wins.
	seen := make(map[string]bool)
	var hits []scored
	for _, c := range candidates {
		key := strings.ToLower(c)
		if c == "" || seen[key] {
			continue
		}
		seen[key] = true
		d := Distance(name, c)
		if d == 0 || d > maxDist {
			continue
		}
		hits = append(hits, scored{name: c, dist: d})
	}

	// Ties keep candidate order, so callers list in-scope names first.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].dist < hits[j].dist
	})
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}

// Distance is the case-insensitive Levenshtein distance between a and b,
// counted in runes.
func Distance(a, b string) int {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
