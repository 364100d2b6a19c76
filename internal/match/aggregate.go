package match

import (
	"math"
	"sort"

	"github.com/Aman-CERP/fuzzymatch/internal/scorer"
)

// Aggregate joins per-field results on identity and ranks the survivors.
//
// Results are ordered by field name and the first field's score order is
// the join order. An identity survives only if every result contains it.
// Its similarity is the sum of its weighted field scores. Survivors are
// sorted by similarity descending, ties keeping join order and NaN last,
// then truncated to topN.
func Aggregate(results []*scorer.Result, topN int) []Match {
	if len(results) == 0 || topN <= 0 {
		return []Match{}
	}

	ordered := make([]*scorer.Result, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Field < ordered[j].Field
	})

	// Identity -> weighted score, one map per remaining field
	lookups := make([]map[string]float64, len(ordered)-1)
	for i, r := range ordered[1:] {
		m := make(map[string]float64, len(r.Scores))
		for _, s := range r.Scores {
			if _, dup := m[s.ID]; !dup {
				m[s.ID] = s.Weighted
			}
		}
		lookups[i] = m
	}

	first := ordered[0]
	matches := make([]Match, 0, len(first.Scores))
	seen := make(map[string]struct{}, len(first.Scores))

joining:
	for _, s := range first.Scores {
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}

		fields := make(map[string]float64, len(ordered))
		fields[first.Field] = s.Weighted
		total := s.Weighted
		for i, m := range lookups {
			w, ok := m[s.ID]
			if !ok {
				continue joining
			}
			fields[ordered[i+1].Field] = w
			total += w
		}
		matches = append(matches, Match{ID: s.ID, Similarity: total, Fields: fields})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return ranksBefore(matches[i].Similarity, matches[j].Similarity)
	})

	if len(matches) > topN {
		matches = matches[:topN]
	}
	return matches
}

// ranksBefore orders similarities descending with NaN last.
func ranksBefore(a, b float64) bool {
	switch {
	case math.IsNaN(a):
		return false
	case math.IsNaN(b):
		return true
	default:
		return a > b
	}
}
