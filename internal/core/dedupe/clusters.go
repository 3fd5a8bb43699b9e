package dedupe

import (
	"github.com/agenthands/roster/internal/core/model"
)

// Cluster is a connected component of candidate pairs: every member is
// linked to every other through some chain of candidates.
type Cluster[R model.Record] struct {
	Members  []R                  `json:"members"`
	Pairs    []model.Candidate[R] `json:"pairs"`
	MaxScore int                  `json:"max_score"`
}

// Clusters groups candidates into connected components. Components are
// returned in the order their first pair appears, so clustering a ranked
// list puts the strongest group first. Singletons cannot occur.
func Clusters[R model.Record](candidates []model.Candidate[R]) []Cluster[R] {
	records := make(map[string]R)
	adj := make(map[string][]string)
	var order []string

	for _, c := range candidates {
		for _, r := range []R{c.A, c.B} {
			id := r.RecordID()
			if _, ok := records[id]; !ok {
				records[id] = r
				order = append(order, id)
			}
		}
		a, b := c.A.RecordID(), c.B.RecordID()
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}

	component := make(map[string]int)
	var clusters []Cluster[R]
	for _, id := range order {
		if _, seen := component[id]; seen {
			continue
		}
		var ids []string
		dfs(id, adj, component, len(clusters), &ids)

		cl := Cluster[R]{Members: make([]R, 0, len(ids))}
		for _, m := range ids {
			cl.Members = append(cl.Members, records[m])
		}
		clusters = append(clusters, cl)
	}

	for _, c := range candidates {
		ci := component[c.A.RecordID()]
		clusters[ci].Pairs = append(clusters[ci].Pairs, c)
		if c.Score > clusters[ci].MaxScore {
			clusters[ci].MaxScore = c.Score
		}
	}
	return clusters
}

func dfs(u string, adj map[string][]string, component map[string]int, ci int, ids *[]string) {
	component[u] = ci
	*ids = append(*ids, u)
	for _, v := range adj[u] {
		if _, seen := component[v]; !seen {
			dfs(v, adj, component, ci, ids)
		}
	}
}
