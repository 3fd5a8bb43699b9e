package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/agenthands/roster/internal/core/alias"
	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/core/normalize"
	"github.com/agenthands/roster/internal/core/similarity"
	"github.com/agenthands/roster/internal/errors"
)

type ContactProfile struct {
	ID             string
	OrganizationID string
	First          string
	Last           string
}

type ContactClassifier struct {
	Thresholds Thresholds
	Weights    Weights
}

func NewContactClassifier(t Thresholds, w Weights) *ContactClassifier {
	return &ContactClassifier{Thresholds: t, Weights: w}
}

func (c *ContactClassifier) Profile(ct model.Contact) (ContactProfile, error) {
	switch {
	case strings.TrimSpace(ct.FirstName) == "":
		return ContactProfile{}, errors.NewValidationError("first_name", ct.ID, "contact first name is required")
	case strings.TrimSpace(ct.LastName) == "":
		return ContactProfile{}, errors.NewValidationError("last_name", ct.ID, "contact last name is required")
	case strings.TrimSpace(ct.OrganizationID) == "":
		return ContactProfile{}, errors.NewValidationError("organization_id", ct.ID, "contact must belong to an organization")
	}
	return ContactProfile{
		ID:             ct.ID,
		OrganizationID: ct.OrganizationID,
		First:          normalize.Fold(ct.FirstName),
		Last:           normalize.Fold(ct.LastName),
	}, nil
}

func (c *ContactClassifier) Compare(a, b ContactProfile) (model.MatchType, int) {
	if a.OrganizationID != b.OrganizationID {
		return model.MatchNone, 0
	}

	firstDist := similarity.Distance(a.First, b.First)
	lastDist := similarity.Distance(a.Last, b.Last)

	match := c.classify(a, b, firstDist, lastDist)
	if match == model.MatchNone {
		return match, 0
	}
	return match, c.score(a, b, firstDist, lastDist)
}

func (c *ContactClassifier) Classify(a, b model.Contact) (model.MatchType, error) {
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

func (c *ContactClassifier) classify(a, b ContactProfile, firstDist, lastDist int) model.MatchType {
	if a.First == b.First && a.Last == b.Last {
		return model.MatchExact
	}

	if lastDist > c.Thresholds.LastNameMaxDistance {
		return model.MatchNone
	}

	if alias.InitialMatch(a.First, b.First) ||
		firstDist <= c.Thresholds.FirstNameMaxDistance ||
		alias.GivenNameMatch(a.First, b.First) {
		return model.MatchFuzzy
	}
	return model.MatchNone
}

func (c *ContactClassifier) score(a, b ContactProfile, firstDist, lastDist int) int {
	w := c.Weights
	score := 0
	score += fieldPoints(firstDist, w)
	score += fieldPoints(lastDist, w)

	ra, _ := utf8.DecodeRuneInString(a.First)
	rb, _ := utf8.DecodeRuneInString(b.First)
	if ra == rb {
		score += w.ContactInitial
	}
	return score
}

func fieldPoints(dist int, w Weights) int {
	switch dist {
	case 0:
		return w.ContactExactField
	case 1:
		return w.ContactNearField
	}
	return 0
}
