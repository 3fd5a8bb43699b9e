package core

import (
	"context"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/agenthands/roster/internal/core/alias"
	"github.com/agenthands/roster/internal/core/classify"
	"github.com/agenthands/roster/internal/core/dedupe"
	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/core/normalize"
	"github.com/agenthands/roster/internal/store"
)

// organizationKind plugs organizations into the generic pipeline and
// resolver.
type organizationKind struct {
	classifier *classify.OrganizationClassifier
	store      store.RecordStore
}

func (k organizationKind) Kind() model.Kind { return model.KindOrganization }

func (k organizationKind) Prepare(o model.Organization) (classify.OrgProfile, error) {
	return k.classifier.Profile(o)
}

func (k organizationKind) Compare(a, b classify.OrgProfile) (model.MatchType, int) {
	return k.classifier.Compare(a, b)
}

// PartitionKey puts every organization in one partition.
func (k organizationKind) PartitionKey(model.Organization) string { return "" }

func (k organizationKind) BlockKey(o model.Organization, mode dedupe.Blocking) string {
	switch mode {
	case dedupe.BlockState:
		return normalize.Fold(o.State)
	case dedupe.BlockPhonetic:
		return phoneticKey(normalize.Name(o.Name))
	}
	return ""
}

func (k organizationKind) List(ctx context.Context) ([]model.Organization, error) {
	return k.store.ListOrganizations(ctx)
}

func (k organizationKind) Get(ctx context.Context, id string) (model.Organization, error) {
	return k.store.GetOrganization(ctx, id)
}

func (k organizationKind) MergeableFields() []string { return model.OrganizationFields }

func (k organizationKind) Field(o model.Organization, name string) string { return o.Field(name) }

func (k organizationKind) DependentKind() model.Kind { return model.KindContact }

// contactKind compares contacts only within their organization.
type contactKind struct {
	classifier *classify.ContactClassifier
	store      store.RecordStore
}

func (k contactKind) Kind() model.Kind { return model.KindContact }

func (k contactKind) Prepare(c model.Contact) (classify.ContactProfile, error) {
	return k.classifier.Profile(c)
}

func (k contactKind) Compare(a, b classify.ContactProfile) (model.MatchType, int) {
	return k.classifier.Compare(a, b)
}

func (k contactKind) PartitionKey(c model.Contact) string { return c.OrganizationID }

// BlockKey keys contacts by the sound of their last name. Contacts have no
// state, so state blocking leaves the organization partition whole.
func (k contactKind) BlockKey(c model.Contact, mode dedupe.Blocking) string {
	if mode != dedupe.BlockPhonetic {
		return ""
	}
	primary, _ := matchr.DoubleMetaphone(normalize.Fold(c.LastName))
	return primary
}

func (k contactKind) List(ctx context.Context) ([]model.Contact, error) {
	return k.store.ListContacts(ctx)
}

func (k contactKind) Get(ctx context.Context, id string) (model.Contact, error) {
	return k.store.GetContact(ctx, id)
}

func (k contactKind) MergeableFields() []string { return model.ContactFields }

func (k contactKind) Field(c model.Contact, name string) string { return c.Field(name) }

func (k contactKind) DependentKind() model.Kind { return model.KindAttendance }

// phoneticKey is the Double Metaphone code of the first word of a normalized
// name that is not an abbreviable word, so "st mary's" and "saint mary's"
// share a key.
func phoneticKey(normalized string) string {
	for _, tok := range strings.Fields(normalized) {
		if alias.PatternWord(tok) {
			continue
		}
		primary, _ := matchr.DoubleMetaphone(tok)
		return primary
	}
	return ""
}
