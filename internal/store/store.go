// Package store provides the record stores the roster engine reads from and
// merges into. Every backend also persists the dismissal ledger.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/roster/internal/core/ledger"
	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/errors"
)

// RecordStore is the bulk record surface used by candidate generation and
// merges.
type RecordStore interface {
	ListOrganizations(ctx context.Context) ([]model.Organization, error)
	ListContacts(ctx context.Context) ([]model.Contact, error)
	GetOrganization(ctx context.Context, id string) (model.Organization, error)
	GetContact(ctx context.Context, id string) (model.Contact, error)

	// ListDependents returns the records whose foreign key points at the
	// parent of the given kind: contacts of an organization, attendance of
	// a contact.
	ListDependents(ctx context.Context, parentKind model.Kind, parentID string) ([]model.Dependent, error)

	UpdateFields(ctx context.Context, kind model.Kind, id string, fields map[string]string) error
	ReassignForeignKey(ctx context.Context, dependentKind model.Kind, oldParentID, newParentID string) (int, error)
	Delete(ctx context.Context, kind model.Kind, id string) error

	// Inserts assign a UUID when the record has no id.
	InsertOrganization(ctx context.Context, o *model.Organization) error
	InsertContact(ctx context.Context, c *model.Contact) error
	InsertAttendance(ctx context.Context, a *model.Attendance) error
}

// Store is a RecordStore that also keeps the dismissal ledger.
type Store interface {
	RecordStore
	Dismissals() ledger.Backend
	Close(ctx context.Context) error
}

// DependentKind returns the kind holding a foreign key to parentKind.
func DependentKind(parentKind model.Kind) (model.Kind, error) {
	switch parentKind {
	case model.KindOrganization:
		return model.KindContact, nil
	case model.KindContact:
		return model.KindAttendance, nil
	}
	return "", errors.NewValidationError("kind", parentKind, "kind has no dependents")
}

// CheckFields rejects field names that are not optional scalar fields of
// kind. Backends build column lists from these names, so they must be
// checked first.
func CheckFields(kind model.Kind, fields map[string]string) error {
	var allowed []string
	switch kind {
	case model.KindOrganization:
		allowed = model.OrganizationFields
	case model.KindContact:
		allowed = model.ContactFields
	default:
		return errors.NewValidationError("kind", kind, "kind has no updatable fields")
	}
	for name := range fields {
		if !contains(allowed, name) {
			return errors.NewValidationError(name, fields[name],
				fmt.Sprintf("not an updatable %s field (allowed: %s)", kind, strings.Join(allowed, ", ")))
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// validateID rejects ids that could not be told apart inside a pair key.
func validateID(id string) error {
	if strings.Contains(id, model.PairKeySeparator) {
		return errors.NewValidationError("id", id, "record ids must not contain "+model.PairKeySeparator)
	}
	return nil
}

func validateOrganization(o *model.Organization) error {
	if err := validateID(o.ID); err != nil {
		return err
	}
	if strings.TrimSpace(o.Name) == "" {
		return errors.NewValidationError("name", o.ID, "organization name is required")
	}
	return nil
}

func validateContact(c *model.Contact) error {
	if err := validateID(c.ID); err != nil {
		return err
	}
	switch {
	case strings.TrimSpace(c.FirstName) == "":
		return errors.NewValidationError("first_name", c.ID, "contact first name is required")
	case strings.TrimSpace(c.LastName) == "":
		return errors.NewValidationError("last_name", c.ID, "contact last name is required")
	case strings.TrimSpace(c.OrganizationID) == "":
		return errors.NewValidationError("organization_id", c.ID, "contact must belong to an organization")
	}
	return nil
}

func validateAttendance(a *model.Attendance) error {
	if err := validateID(a.ID); err != nil {
		return err
	}
	if strings.TrimSpace(a.ContactID) == "" {
		return errors.NewValidationError("contact_id", a.ID, "attendance must belong to a contact")
	}
	return nil
}
