package dedupe

import (
	"sort"

	"github.com/agenthands/roster/internal/core/model"
)

// Rank returns a copy of candidates ordered by descending score. Equal
// scores keep their enumeration order.
func Rank[R model.Record](candidates []model.Candidate[R]) []model.Candidate[R] {
	ranked := make([]model.Candidate[R], len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
