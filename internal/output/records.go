package output

import (
	"strconv"
	"strings"

	"github.com/agenthands/roster/internal/core/dedupe"
	"github.com/agenthands/roster/internal/core/model"
)

// Candidates tabulates a ranked candidate list, best first.
func Candidates[R model.Record](cands []model.Candidate[R]) Data {
	d := Data{
		Headers: []string{"#", "Score", "Match", "A", "B", "A ID", "B ID"},
		Align:   []Align{AlignRight, AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignLeft},
		Empty:   "No duplicate candidates.",
	}
	for i, c := range cands {
		d.Rows = append(d.Rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(c.Score),
			string(c.Match),
			describe(c.A),
			describe(c.B),
			c.A.RecordID(),
			c.B.RecordID(),
		})
	}
	return d
}

// Clusters tabulates one row per cluster member.
func Clusters[R model.Record](clusters []dedupe.Cluster[R]) Data {
	d := Data{
		Headers: []string{"Cluster", "Max Score", "Pairs", "Member", "ID"},
		Align:   []Align{AlignRight, AlignRight, AlignRight, AlignLeft, AlignLeft},
		Empty:   "No duplicate clusters.",
	}
	for i, c := range clusters {
		for j, m := range c.Members {
			row := []string{"", "", "", describe(m), m.RecordID()}
			if j == 0 {
				row[0] = strconv.Itoa(i + 1)
				row[1] = strconv.Itoa(c.MaxScore)
				row[2] = strconv.Itoa(len(c.Pairs))
			}
			d.Rows = append(d.Rows, row)
		}
	}
	return d
}

func Dependents(deps []model.Dependent) Data {
	d := Data{
		Headers: []string{"Kind", "ID", "Label"},
		Empty:   "No dependent records.",
	}
	for _, dep := range deps {
		d.Rows = append(d.Rows, []string{string(dep.Kind), dep.ID, dep.Label})
	}
	return d
}

// describe labels a record with the fields an operator needs to tell two
// near-identical names apart.
func describe(r model.Record) string {
	var extra []string
	switch v := r.(type) {
	case model.Organization:
		extra = []string{v.City, v.State}
	case model.Contact:
		extra = []string{v.Title, v.Email}
	}
	var parts []string
	for _, e := range extra {
		if e != "" {
			parts = append(parts, e)
		}
	}
	if len(parts) == 0 {
		return r.Label()
	}
	return r.Label() + " (" + strings.Join(parts, ", ") + ")"
}
