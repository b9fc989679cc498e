// Package ranking scores corpus entries against a query vector.
package ranking

import (
	"fmt"
	"math"
	"sort"

	"jobrec/internal/domain"
	"jobrec/internal/vectorstore/memory"
)

// Cosine returns the cosine similarity of a and b, or 0 when either has zero magnitude.
func Cosine(a, b domain.Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine of %d and %d dimensions: %w", len(a), len(b), domain.ErrDimensionMismatch)
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

type scored struct {
	entry *memory.Entry
	score float64
}

// Rank scores every entry against query, drops scores below minScore and
// returns at most maxResults results by descending score. Ties keep entry order.
// A zero query matches nothing, even at minScore 0.
func Rank(
	query domain.Vector,
	entries []memory.Entry,
	maxResults int,
	minScore float64,
	bounds domain.ScoreRange,
) ([]domain.Result, error) {
	if maxResults <= 0 {
		return nil, fmt.Errorf("max results %d: %w", maxResults, domain.ErrInvalidQuery)
	}
	if !bounds.Contains(minScore) {
		return nil, fmt.Errorf("min score %v outside [%v, %v]: %w", minScore, bounds.Min, bounds.Max, domain.ErrInvalidRange)
	}

	zeroQuery := query.IsZero()
	hits := make([]scored, 0, len(entries))
	for i := range entries {
		s, err := Cosine(query, entries[i].Vector)
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", entries[i].Record.ID, err)
		}
		if zeroQuery || s < minScore {
			continue
		}
		hits = append(hits, scored{entry: &entries[i], score: s})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}

	out := make([]domain.Result, len(hits))
	for i, h := range hits {
		out[i] = domain.Result{
			ID:          h.entry.Record.ID,
			Title:       h.entry.Record.Title,
			DisplayText: h.entry.Record.Text,
			Score:       h.score,
		}
	}
	return out, nil
}
