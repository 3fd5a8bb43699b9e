// Package classify decides whether two records of the same kind are the same
// real-world entity and scores how confident that guess is.
//
// Each record is first turned into a profile holding its precomputed
// comparison keys, so a pass over n records normalizes n names rather than
// n² of them.
package classify

// Thresholds are the fuzzy-match cut-offs. They were chosen empirically and
// are configurable rather than assumed optimal.
type Thresholds struct {
	SimilarityThreshold  float64
	ContainmentRatio     float64
	FirstNameMaxDistance int
	LastNameMaxDistance  int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		SimilarityThreshold:  0.90,
		ContainmentRatio:     0.60,
		FirstNameMaxDistance: 2,
		LastNameMaxDistance:  1,
	}
}

// Weights are the advisory confidence-score points. The score only orders
// candidates; it never decides a classification.
type Weights struct {
	ExactName        int
	NormalizedName   int
	SameState        int
	SameConference   int
	SameDivision     int
	SimilarityWeight int

	ContactExactField int
	ContactNearField  int
	ContactInitial    int
}

func DefaultWeights() Weights {
	return Weights{
		ExactName:         100,
		NormalizedName:    90,
		SameState:         20,
		SameConference:    15,
		SameDivision:      10,
		SimilarityWeight:  50,
		ContactExactField: 50,
		ContactNearField:  30,
		ContactInitial:    10,
	}
}
