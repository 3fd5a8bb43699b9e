package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/roster/internal/core/ledger"
	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/driver"
	"github.com/agenthands/roster/internal/errors"
)

// GraphStore keeps records as nodes in Memgraph with membership and
// attendance as relationships.
type GraphStore struct {
	Driver driver.GraphDriver
}

var _ Store = (*GraphStore)(nil)

func NewGraphStore(ctx context.Context, d driver.GraphDriver) (*GraphStore, error) {
	if err := d.BuildIndices(ctx); err != nil {
		return nil, err
	}
	return &GraphStore{Driver: d}, nil
}

func (s *GraphStore) Close(ctx context.Context) error {
	return s.Driver.Close(ctx)
}

func (s *GraphStore) ListOrganizations(ctx context.Context) ([]model.Organization, error) {
	res, err := s.Driver.ExecuteQuery(ctx, driver.ListOrganizationsQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	out := make([]model.Organization, 0, len(res.Records))
	for _, rec := range res.Records {
		out = append(out, organizationFrom(rec))
	}
	return out, nil
}

func (s *GraphStore) ListContacts(ctx context.Context) ([]model.Contact, error) {
	res, err := s.Driver.ExecuteQuery(ctx, driver.ListContactsQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	out := make([]model.Contact, 0, len(res.Records))
	for _, rec := range res.Records {
		out = append(out, contactFrom(rec))
	}
	return out, nil
}

func (s *GraphStore) GetOrganization(ctx context.Context, id string) (model.Organization, error) {
	res, err := s.Driver.ExecuteQuery(ctx, driver.GetOrganizationQuery, map[string]any{"id": id})
	if err != nil {
		return model.Organization{}, fmt.Errorf("get organization %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return model.Organization{}, errors.NewNotFoundError(string(model.KindOrganization), id)
	}
	return organizationFrom(res.Records[0]), nil
}

func (s *GraphStore) GetContact(ctx context.Context, id string) (model.Contact, error) {
	res, err := s.Driver.ExecuteQuery(ctx, driver.GetContactQuery, map[string]any{"id": id})
	if err != nil {
		return model.Contact{}, fmt.Errorf("get contact %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return model.Contact{}, errors.NewNotFoundError(string(model.KindContact), id)
	}
	return contactFrom(res.Records[0]), nil
}

func (s *GraphStore) ListDependents(ctx context.Context, parentKind model.Kind, parentID string) ([]model.Dependent, error) {
	depKind, err := DependentKind(parentKind)
	if err != nil {
		return nil, err
	}
	query := driver.ListContactsOfOrganizationQuery
	if parentKind == model.KindContact {
		query = driver.ListAttendanceOfContactQuery
	}
	res, err := s.Driver.ExecuteQuery(ctx, query, map[string]any{"parent_id": parentID})
	if err != nil {
		return nil, fmt.Errorf("list dependents of %s %s: %w", parentKind, parentID, err)
	}
	out := make([]model.Dependent, 0, len(res.Records))
	for _, rec := range res.Records {
		out = append(out, model.Dependent{
			Kind:     depKind,
			ID:       str(rec, "id"),
			ParentID: parentID,
			Label:    str(rec, "label"),
		})
	}
	return out, nil
}

func (s *GraphStore) UpdateFields(ctx context.Context, kind model.Kind, id string, fields map[string]string) error {
	if err := CheckFields(kind, fields); err != nil {
		return err
	}
	query := driver.UpdateOrganizationFieldsQuery
	if kind == model.KindContact {
		query = driver.UpdateContactFieldsQuery
	}
	props := make(map[string]any, len(fields))
	for k, v := range fields {
		props[k] = v
	}
	res, err := s.Driver.ExecuteQuery(ctx, query, map[string]any{"id": id, "fields": props})
	if err != nil {
		return fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	if len(res.Records) == 0 {
		return errors.NewNotFoundError(string(kind), id)
	}
	return nil
}

func (s *GraphStore) ReassignForeignKey(ctx context.Context, dependentKind model.Kind, oldParentID, newParentID string) (int, error) {
	var query string
	switch dependentKind {
	case model.KindContact:
		query = driver.ReassignContactsQuery
	case model.KindAttendance:
		query = driver.ReassignAttendanceQuery
	default:
		return 0, errors.NewValidationError("kind", dependentKind, "not a dependent kind")
	}
	res, err := s.Driver.ExecuteQuery(ctx, query, map[string]any{"old_id": oldParentID, "new_id": newParentID})
	if err != nil {
		return 0, fmt.Errorf("reassign %s from %s to %s: %w", dependentKind, oldParentID, newParentID, err)
	}
	if len(res.Records) == 0 {
		return 0, nil
	}
	return int(num(res.Records[0], "moved")), nil
}

func (s *GraphStore) Delete(ctx context.Context, kind model.Kind, id string) error {
	var countQuery, deleteQuery string
	switch kind {
	case model.KindOrganization:
		countQuery, deleteQuery = driver.CountContactsOfOrganizationQuery, driver.DeleteOrganizationQuery
	case model.KindContact:
		countQuery, deleteQuery = driver.CountAttendanceOfContactQuery, driver.DeleteContactQuery
	case model.KindAttendance:
		deleteQuery = driver.DeleteAttendanceQuery
	default:
		return errors.NewValidationError("kind", kind, "unknown kind")
	}

	params := map[string]any{"id": id}
	if countQuery != "" {
		res, err := s.Driver.ExecuteQuery(ctx, countQuery, params)
		if err != nil {
			return fmt.Errorf("delete %s %s: %w", kind, id, err)
		}
		if len(res.Records) == 0 {
			return errors.NewNotFoundError(string(kind), id)
		}
		if n := num(res.Records[0], "dependents"); n > 0 {
			return fmt.Errorf("delete %s %s: %d dependents still attached", kind, id, n)
		}
	}

	res, err := s.Driver.ExecuteQuery(ctx, deleteQuery, params)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	if len(res.Records) == 0 || num(res.Records[0], "deleted") == 0 {
		return errors.NewNotFoundError(string(kind), id)
	}
	return nil
}

func (s *GraphStore) InsertOrganization(ctx context.Context, o *model.Organization) error {
	if err := validateOrganization(o); err != nil {
		return err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	_, err := s.Driver.ExecuteQuery(ctx, driver.SaveOrganizationQuery, map[string]any{
		"id":         o.ID,
		"name":       o.Name,
		"city":       o.City,
		"state":      o.State,
		"type":       o.Type,
		"conference": o.Conference,
		"division":   o.Division,
		"version":    o.Version,
	})
	if err != nil {
		return fmt.Errorf("insert organization %s: %w", o.ID, err)
	}
	return nil
}

func (s *GraphStore) InsertContact(ctx context.Context, c *model.Contact) error {
	if err := validateContact(c); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	res, err := s.Driver.ExecuteQuery(ctx, driver.SaveContactQuery, map[string]any{
		"id":              c.ID,
		"organization_id": c.OrganizationID,
		"first_name":      c.FirstName,
		"last_name":       c.LastName,
		"title":           c.Title,
		"email":           c.Email,
		"phone":           c.Phone,
		"version":         c.Version,
	})
	if err != nil {
		return fmt.Errorf("insert contact %s: %w", c.ID, err)
	}
	if len(res.Records) == 0 {
		return errors.NewValidationError("organization_id", c.OrganizationID, "organization does not exist")
	}
	return nil
}

func (s *GraphStore) InsertAttendance(ctx context.Context, a *model.Attendance) error {
	if err := validateAttendance(a); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	res, err := s.Driver.ExecuteQuery(ctx, driver.SaveAttendanceQuery, map[string]any{
		"id":          a.ID,
		"contact_id":  a.ContactID,
		"event":       a.Event,
		"attended_on": a.AttendedOn,
	})
	if err != nil {
		return fmt.Errorf("insert attendance %s: %w", a.ID, err)
	}
	if len(res.Records) == 0 {
		return errors.NewValidationError("contact_id", a.ContactID, "contact does not exist")
	}
	return nil
}

func (s *GraphStore) Dismissals() ledger.Backend { return graphDismissals{s.Driver} }

type graphDismissals struct{ d driver.GraphDriver }

func (g graphDismissals) GetAll(ctx context.Context) ([]string, error) {
	res, err := g.d.ExecuteQuery(ctx, driver.ListDismissalsQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("list dismissals: %w", err)
	}
	keys := make([]string, 0, len(res.Records))
	for _, rec := range res.Records {
		keys = append(keys, str(rec, "pair_key"))
	}
	return keys, nil
}

func (g graphDismissals) Add(ctx context.Context, key string) error {
	_, err := g.d.ExecuteQuery(ctx, driver.SaveDismissalQuery, map[string]any{
		"pair_key":     key,
		"dismissed_at": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("add dismissal: %w", err)
	}
	return nil
}

func (g graphDismissals) Clear(ctx context.Context) error {
	if _, err := g.d.ExecuteQuery(ctx, driver.ClearDismissalsQuery, nil); err != nil {
		return fmt.Errorf("clear dismissals: %w", err)
	}
	return nil
}

func organizationFrom(rec *neo4j.Record) model.Organization {
	return model.Organization{
		ID:         str(rec, "id"),
		Name:       str(rec, "name"),
		City:       str(rec, "city"),
		State:      str(rec, "state"),
		Type:       str(rec, "type"),
		Conference: str(rec, "conference"),
		Division:   str(rec, "division"),
		Version:    num(rec, "version"),
	}
}

func contactFrom(rec *neo4j.Record) model.Contact {
	return model.Contact{
		ID:             str(rec, "id"),
		OrganizationID: str(rec, "organization_id"),
		FirstName:      str(rec, "first_name"),
		LastName:       str(rec, "last_name"),
		Title:          str(rec, "title"),
		Email:          str(rec, "email"),
		Phone:          str(rec, "phone"),
		Version:        num(rec, "version"),
	}
}

// str reads a string column, treating null and missing as "".
func str(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func num(rec *neo4j.Record, key string) int64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
