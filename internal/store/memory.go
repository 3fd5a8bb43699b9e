package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/agenthands/roster/internal/core/ledger"
	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/errors"
)

// MemoryStore keeps everything in process. Listing order is insertion
// order. It backs tests and the "memory" backend.
type MemoryStore struct {
	mu sync.RWMutex

	orgs       map[string]*model.Organization
	orgOrder   []string
	contacts   map[string]*model.Contact
	contactSeq []string
	attendance map[string]*model.Attendance
	attendSeq  []string
	dismissals map[string]struct{}
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orgs:       make(map[string]*model.Organization),
		contacts:   make(map[string]*model.Contact),
		attendance: make(map[string]*model.Attendance),
		dismissals: make(map[string]struct{}),
	}
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

func (s *MemoryStore) ListOrganizations(ctx context.Context) ([]model.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Organization, 0, len(s.orgs))
	for _, id := range s.orgOrder {
		if o, ok := s.orgs[id]; ok {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListContacts(ctx context.Context) ([]model.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Contact, 0, len(s.contacts))
	for _, id := range s.contactSeq {
		if c, ok := s.contacts[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetOrganization(ctx context.Context, id string) (model.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orgs[id]
	if !ok {
		return model.Organization{}, errors.NewNotFoundError(string(model.KindOrganization), id)
	}
	return *o, nil
}

func (s *MemoryStore) GetContact(ctx context.Context, id string) (model.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contacts[id]
	if !ok {
		return model.Contact{}, errors.NewNotFoundError(string(model.KindContact), id)
	}
	return *c, nil
}

func (s *MemoryStore) ListDependents(ctx context.Context, parentKind model.Kind, parentID string) ([]model.Dependent, error) {
	if _, err := DependentKind(parentKind); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Dependent
	switch parentKind {
	case model.KindOrganization:
		for _, id := range s.contactSeq {
			if c, ok := s.contacts[id]; ok && c.OrganizationID == parentID {
				out = append(out, model.Dependent{Kind: model.KindContact, ID: c.ID, ParentID: parentID, Label: c.Label()})
			}
		}
	case model.KindContact:
		for _, id := range s.attendSeq {
			if a, ok := s.attendance[id]; ok && a.ContactID == parentID {
				out = append(out, model.Dependent{Kind: model.KindAttendance, ID: a.ID, ParentID: parentID, Label: a.Event})
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateFields(ctx context.Context, kind model.Kind, id string, fields map[string]string) error {
	if err := CheckFields(kind, fields); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case model.KindOrganization:
		o, ok := s.orgs[id]
		if !ok {
			return errors.NewNotFoundError(string(kind), id)
		}
		for name, v := range fields {
			switch name {
			case model.FieldCity:
				o.City = v
			case model.FieldState:
				o.State = v
			case model.FieldType:
				o.Type = v
			case model.FieldConference:
				o.Conference = v
			case model.FieldDivision:
				o.Division = v
			}
		}
		o.Version++
	case model.KindContact:
		c, ok := s.contacts[id]
		if !ok {
			return errors.NewNotFoundError(string(kind), id)
		}
		for name, v := range fields {
			switch name {
			case model.FieldTitle:
				c.Title = v
			case model.FieldEmail:
				c.Email = v
			case model.FieldPhone:
				c.Phone = v
			}
		}
		c.Version++
	}
	return nil
}

func (s *MemoryStore) ReassignForeignKey(ctx context.Context, dependentKind model.Kind, oldParentID, newParentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	switch dependentKind {
	case model.KindContact:
		for _, c := range s.contacts {
			if c.OrganizationID == oldParentID {
				c.OrganizationID = newParentID
				c.Version++
				n++
			}
		}
	case model.KindAttendance:
		for _, a := range s.attendance {
			if a.ContactID == oldParentID {
				a.ContactID = newParentID
				n++
			}
		}
	default:
		return 0, errors.NewValidationError("kind", dependentKind, "not a dependent kind")
	}
	return n, nil
}

func (s *MemoryStore) Delete(ctx context.Context, kind model.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case model.KindOrganization:
		if _, ok := s.orgs[id]; !ok {
			return errors.NewNotFoundError(string(kind), id)
		}
		for _, c := range s.contacts {
			if c.OrganizationID == id {
				return fmt.Errorf("organization %s still has contacts", id)
			}
		}
		delete(s.orgs, id)
		s.orgOrder = remove(s.orgOrder, id)
	case model.KindContact:
		if _, ok := s.contacts[id]; !ok {
			return errors.NewNotFoundError(string(kind), id)
		}
		for _, a := range s.attendance {
			if a.ContactID == id {
				return fmt.Errorf("contact %s still has attendance", id)
			}
		}
		delete(s.contacts, id)
		s.contactSeq = remove(s.contactSeq, id)
	case model.KindAttendance:
		if _, ok := s.attendance[id]; !ok {
			return errors.NewNotFoundError(string(kind), id)
		}
		delete(s.attendance, id)
		s.attendSeq = remove(s.attendSeq, id)
	default:
		return errors.NewValidationError("kind", kind, "unknown kind")
	}
	return nil
}

func (s *MemoryStore) InsertOrganization(ctx context.Context, o *model.Organization) error {
	if err := validateOrganization(o); err != nil {
		return err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.orgs[o.ID]; dup {
		return errors.NewValidationError("id", o.ID, "organization already exists")
	}
	cp := *o
	s.orgs[o.ID] = &cp
	s.orgOrder = append(s.orgOrder, o.ID)
	return nil
}

func (s *MemoryStore) InsertContact(ctx context.Context, c *model.Contact) error {
	if err := validateContact(c); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[c.OrganizationID]; !ok {
		return errors.NewValidationError("organization_id", c.OrganizationID, "organization does not exist")
	}
	if _, dup := s.contacts[c.ID]; dup {
		return errors.NewValidationError("id", c.ID, "contact already exists")
	}
	cp := *c
	s.contacts[c.ID] = &cp
	s.contactSeq = append(s.contactSeq, c.ID)
	return nil
}

func (s *MemoryStore) InsertAttendance(ctx context.Context, a *model.Attendance) error {
	if err := validateAttendance(a); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[a.ContactID]; !ok {
		return errors.NewValidationError("contact_id", a.ContactID, "contact does not exist")
	}
	if _, dup := s.attendance[a.ID]; dup {
		return errors.NewValidationError("id", a.ID, "attendance already exists")
	}
	cp := *a
	s.attendance[a.ID] = &cp
	s.attendSeq = append(s.attendSeq, a.ID)
	return nil
}

func (s *MemoryStore) Dismissals() ledger.Backend { return memoryDismissals{s} }

type memoryDismissals struct{ s *MemoryStore }

func (d memoryDismissals) GetAll(ctx context.Context) ([]string, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	out := make([]string, 0, len(d.s.dismissals))
	for k := range d.s.dismissals {
		out = append(out, k)
	}
	return out, nil
}

func (d memoryDismissals) Add(ctx context.Context, key string) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	d.s.dismissals[key] = struct{}{}
	return nil
}

func (d memoryDismissals) Clear(ctx context.Context) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	d.s.dismissals = make(map[string]struct{})
	return nil
}

func remove(list []string, id string) []string {
	for i, v := range list {
		if v == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
