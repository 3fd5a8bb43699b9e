package classify

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agenthands/roster/internal/core/alias"
	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/core/normalize"
	"github.com/agenthands/roster/internal/core/similarity"
	"github.com/agenthands/roster/internal/errors"
)

// OrgProfile holds the comparison keys of one organization.
type OrgProfile struct {
	ID         string
	Raw        string // folded, trimmed display name
	Normalized string
	Substitute string // normalized name with abbreviations replaced
	State      string
	Conference string
	Division   string
}

type OrganizationClassifier struct {
	Thresholds Thresholds
	Weights    Weights
}

func NewOrganizationClassifier(t Thresholds, w Weights) *OrganizationClassifier {
	return &OrganizationClassifier{Thresholds: t, Weights: w}
}

// Profile validates o and precomputes its keys.
func (c *OrganizationClassifier) Profile(o model.Organization) (OrgProfile, error) {
	if strings.TrimSpace(o.Name) == "" {
		return OrgProfile{}, errors.NewValidationError("name", o.ID, "organization name is required")
	}
	norm := normalize.Name(o.Name)
	return OrgProfile{
		ID:         o.ID,
		Raw:        normalize.Fold(o.Name),
		Normalized: norm,
		Substitute: alias.Substitute(norm),
		State:      normalize.Fold(o.State),
		Conference: normalize.Fold(o.Conference),
		Division:   normalize.Fold(o.Division),
	}, nil
}

// Compare classifies a pair of profiles and, for matches, scores it.
func (c *OrganizationClassifier) Compare(a, b OrgProfile) (model.MatchType, int) {
	sim := similarity.Similarity(a.Normalized, b.Normalized)
	match := c.classify(a, b, sim)
	if match == model.MatchNone {
		return match, 0
	}
	return match, c.score(a, b, sim)
}

// Classify validates and classifies two organizations.
func (c *OrganizationClassifier) Classify(a, b model.Organization) (model.MatchType, error) {
	pa, err := c.Profile(a)
	if err != nil {
		return model.MatchNone, err
	}
	pb, err := c.Profile(b)
	if err != nil {
		return model.MatchNone, err
	}
	match, _ := c.Compare(pa, pb)
	return match, nil
}

func (c *OrganizationClassifier) classify(a, b OrgProfile, sim float64) model.MatchType {
	if a.Raw == b.Raw || a.Normalized == b.Normalized {
		return model.MatchExact
	}

	if sim >= c.Thresholds.SimilarityThreshold {
		return model.MatchFuzzy
	}

	sameState := a.State != "" && a.State == b.State
	if !sameState {
		return model.MatchNone
	}

	if c.contained(a.Normalized, b.Normalized) {
		return model.MatchFuzzy
	}
	if a.Substitute != "" && a.Substitute == b.Substitute {
		return model.MatchFuzzy
	}
	return model.MatchNone
}

// contained reports whether one name contains the other and the shorter is
// at least ContainmentRatio of the longer.
func (c *OrganizationClassifier) contained(x, y string) bool {
	shorter, longer := x, y
	if utf8.RuneCountInString(shorter) > utf8.RuneCountInString(longer) {
		shorter, longer = longer, shorter
	}
	if !strings.Contains(longer, shorter) {
		return false
	}
	ls := utf8.RuneCountInString(longer)
	if ls == 0 {
		return true
	}
	return float64(utf8.RuneCountInString(shorter))/float64(ls) >= c.Thresholds.ContainmentRatio
}

func (c *OrganizationClassifier) score(a, b OrgProfile, sim float64) int {
	w := c.Weights
	score := 0
	switch {
	case a.Raw == b.Raw:
		score += w.ExactName
	case a.Normalized == b.Normalized:
		score += w.NormalizedName
	}
	if a.State != "" && a.State == b.State {
		score += w.SameState
	}
	if a.Conference != "" && a.Conference == b.Conference {
		score += w.SameConference
	}
	if a.Division != "" && a.Division == b.Division {
		score += w.SameDivision
	}
	return score + int(math.Round(sim*float64(w.SimilarityWeight)))
}

// Score validates and scores two organizations regardless of classification.
func (c *OrganizationClassifier) Score(a, b model.Organization) (int, error) {
	pa, err := c.Profile(a)
	if err != nil {
		return 0, err
	}
	pb, err := c.Profile(b)
	if err != nil {
		return 0, err
	}
	return c.score(pa, pb, similarity.Similarity(pa.Normalized, pb.Normalized)), nil
}
