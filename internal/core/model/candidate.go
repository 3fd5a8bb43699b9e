package model

import "fmt"

type MatchType string

const (
	MatchNone  MatchType = "none"
	MatchExact MatchType = "exact"
	MatchFuzzy MatchType = "fuzzy"
)

// PairKey identifies an unordered pair of record ids.
type PairKey string

// PairKeySeparator joins the two ids of a PairKey. Record ids must not
// contain it, or two different pairs could share a key.
const PairKeySeparator = "|"

// PairKeyOf returns the canonical key for a and b: the two ids sorted and
// joined, so PairKeyOf(a, b) == PairKeyOf(b, a).
func PairKeyOf(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey(a + PairKeySeparator + b)
}

type Candidate[R Record] struct {
	Key   PairKey   `json:"key"`
	A     R         `json:"a"`
	B     R         `json:"b"`
	Match MatchType `json:"match"`
	Score int       `json:"score"`
}

func (c Candidate[R]) String() string {
	return fmt.Sprintf("%s %q ~ %q (%d)", c.Match, c.A.Label(), c.B.Label(), c.Score)
}

// Involves reports whether id is one of the pair's members.
func (c Candidate[R]) Involves(id string) bool {
	return c.A.RecordID() == id || c.B.RecordID() == id
}

// MergeSummary describes a completed merge for operator feedback.
type MergeSummary struct {
	Kind            Kind     `json:"kind"`
	KeepID          string   `json:"keep_id"`
	DiscardID       string   `json:"discard_id"`
	KeepLabel       string   `json:"keep_label"`
	DiscardLabel    string   `json:"discard_label"`
	FilledFields    []string `json:"filled_fields"`
	DependentKind   Kind     `json:"dependent_kind,omitempty"`
	DependentsMoved int      `json:"dependents_moved"`
	Message         string   `json:"message"`
}
