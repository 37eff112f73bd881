package similarity

import (
	"sort"
	"time"
)

// Candidate is a scored comparison target for clustering.
type Candidate struct {
	TicketID  string
	GroupID   *string
	Score     float64
	CreatedAt time.Time
}

// Rank filters candidates below the threshold and orders the rest by
// descending similarity. Ties are broken by recency, newer first, so the
// result is deterministic given timestamps regardless of input order.
func Rank(candidates []Candidate, threshold float64) []Candidate {
	matched := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score >= threshold {
			matched = append(matched, c)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Score != matched[j].Score {
			return matched[i].Score > matched[j].Score
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}
