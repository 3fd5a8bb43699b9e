package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/errors"
)

func newSQLite(t *testing.T) Store {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "roster.db"), 2)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func newMemory(t *testing.T) Store {
	return NewMemoryStore()
}

func backends() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": newMemory,
		"sqlite": newSQLite,
	}
}

// seed inserts two organizations, three contacts and one attendance row.
func seed(t *testing.T, s Store) (orgA, orgB, c1, c2, c3 string) {
	t.Helper()
	ctx := context.Background()

	a := &model.Organization{Name: "Texas", State: "TX"}
	b := &model.Organization{Name: "University of Texas", City: "Austin", State: "TX"}
	require.NoError(t, s.InsertOrganization(ctx, a))
	require.NoError(t, s.InsertOrganization(ctx, b))

	x := &model.Contact{OrganizationID: a.ID, FirstName: "Bill", LastName: "Smith"}
	y := &model.Contact{OrganizationID: b.ID, FirstName: "William", LastName: "Smith", Email: "ws@example.edu"}
	z := &model.Contact{OrganizationID: b.ID, FirstName: "Ann", LastName: "Lee"}
	for _, c := range []*model.Contact{x, y, z} {
		require.NoError(t, s.InsertContact(ctx, c))
	}
	require.NoError(t, s.InsertAttendance(ctx, &model.Attendance{ContactID: y.ID, Event: "Clinic 2024"}))
	return a.ID, b.ID, x.ID, y.ID, z.ID
}

func TestStoreContract(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Run("insert and list", func(t *testing.T) {
				s := open(t)
				orgA, orgB, _, _, _ := seed(t, s)
				ctx := context.Background()

				orgs, err := s.ListOrganizations(ctx)
				require.NoError(t, err)
				require.Len(t, orgs, 2)
				assert.Equal(t, orgA, orgs[0].ID)
				assert.Equal(t, orgB, orgs[1].ID)

				contacts, err := s.ListContacts(ctx)
				require.NoError(t, err)
				assert.Len(t, contacts, 3)

				o, err := s.GetOrganization(ctx, orgB)
				require.NoError(t, err)
				assert.Equal(t, "Austin", o.City)
			})

			t.Run("not found", func(t *testing.T) {
				s := open(t)
				ctx := context.Background()
				_, err := s.GetOrganization(ctx, "missing")
				assert.True(t, errors.IsNotFound(err))
				_, err = s.GetContact(ctx, "missing")
				assert.True(t, errors.IsNotFound(err))
				assert.True(t, errors.IsNotFound(s.Delete(ctx, model.KindContact, "missing")))
				assert.True(t, errors.IsNotFound(s.UpdateFields(ctx, model.KindOrganization, "missing", map[string]string{"city": "x"})))
			})

			t.Run("insert validation", func(t *testing.T) {
				s := open(t)
				ctx := context.Background()
				assert.True(t, errors.IsValidationError(s.InsertOrganization(ctx, &model.Organization{Name: " "})))
				assert.True(t, errors.IsValidationError(s.InsertContact(ctx, &model.Contact{OrganizationID: "nope", FirstName: "A", LastName: "B"})))
				assert.True(t, errors.IsValidationError(s.InsertAttendance(ctx, &model.Attendance{ContactID: "nope"})))
			})

			t.Run("ids must not contain the pair key separator", func(t *testing.T) {
				s := open(t)
				orgA, _, c1, _, _ := seed(t, s)
				ctx := context.Background()
				assert.True(t, errors.IsValidationError(s.InsertOrganization(ctx, &model.Organization{ID: "a|b", Name: "Rice"})))
				assert.True(t, errors.IsValidationError(s.InsertContact(ctx, &model.Contact{ID: "a|b", OrganizationID: orgA, FirstName: "A", LastName: "B"})))
				assert.True(t, errors.IsValidationError(s.InsertAttendance(ctx, &model.Attendance{ID: "a|b", ContactID: c1, Event: "Camp"})))
			})

			t.Run("duplicate attendance id", func(t *testing.T) {
				s := open(t)
				_, _, c1, _, _ := seed(t, s)
				ctx := context.Background()
				require.NoError(t, s.InsertAttendance(ctx, &model.Attendance{ID: "att-1", ContactID: c1, Event: "Camp"}))
				assert.Error(t, s.InsertAttendance(ctx, &model.Attendance{ID: "att-1", ContactID: c1, Event: "Camp"}))

				deps, err := s.ListDependents(ctx, model.KindContact, c1)
				require.NoError(t, err)
				assert.Len(t, deps, 1)
			})

			t.Run("update fields", func(t *testing.T) {
				s := open(t)
				orgA, _, c1, _, _ := seed(t, s)
				ctx := context.Background()

				require.NoError(t, s.UpdateFields(ctx, model.KindOrganization, orgA, map[string]string{"city": "Austin", "division": "I"}))
				o, err := s.GetOrganization(ctx, orgA)
				require.NoError(t, err)
				assert.Equal(t, "Austin", o.City)
				assert.Equal(t, "I", o.Division)
				assert.Equal(t, int64(1), o.Version)

				require.NoError(t, s.UpdateFields(ctx, model.KindContact, c1, map[string]string{"phone": "555-0100"}))
				c, err := s.GetContact(ctx, c1)
				require.NoError(t, err)
				assert.Equal(t, "555-0100", c.Phone)

				err = s.UpdateFields(ctx, model.KindOrganization, orgA, map[string]string{"name; DROP TABLE organizations": "x"})
				assert.True(t, errors.IsValidationError(err))
			})

			t.Run("dependents and reassignment", func(t *testing.T) {
				s := open(t)
				orgA, orgB, c1, c2, c3 := seed(t, s)
				ctx := context.Background()

				deps, err := s.ListDependents(ctx, model.KindOrganization, orgB)
				require.NoError(t, err)
				assert.ElementsMatch(t, []string{c2, c3}, depIDs(deps))

				err = s.Delete(ctx, model.KindOrganization, orgB)
				assert.Error(t, err, "an organization with contacts cannot be deleted")

				moved, err := s.ReassignForeignKey(ctx, model.KindContact, orgB, orgA)
				require.NoError(t, err)
				assert.Equal(t, 2, moved)

				deps, err = s.ListDependents(ctx, model.KindOrganization, orgA)
				require.NoError(t, err)
				assert.ElementsMatch(t, []string{c1, c2, c3}, depIDs(deps))

				require.NoError(t, s.Delete(ctx, model.KindOrganization, orgB))
				_, err = s.GetOrganization(ctx, orgB)
				assert.True(t, errors.IsNotFound(err))

				moved, err = s.ReassignForeignKey(ctx, model.KindAttendance, c2, c1)
				require.NoError(t, err)
				assert.Equal(t, 1, moved)
				deps, err = s.ListDependents(ctx, model.KindContact, c1)
				require.NoError(t, err)
				require.Len(t, deps, 1)
				assert.Equal(t, "Clinic 2024", deps[0].Label)
			})

			t.Run("dismissals", func(t *testing.T) {
				s := open(t)
				ctx := context.Background()
				d := s.Dismissals()

				require.NoError(t, d.Add(ctx, "a|b"))
				require.NoError(t, d.Add(ctx, "a|b"))
				require.NoError(t, d.Add(ctx, "c|d"))
				keys, err := d.GetAll(ctx)
				require.NoError(t, err)
				assert.ElementsMatch(t, []string{"a|b", "c|d"}, keys)

				require.NoError(t, d.Clear(ctx))
				keys, err = d.GetAll(ctx)
				require.NoError(t, err)
				assert.Empty(t, keys)
			})
		})
	}
}

func depIDs(deps []model.Dependent) []string {
	out := make([]string, len(deps))
	for i, d := range deps {
		out[i] = d.ID
	}
	return out
}

func TestSQLitePagesThroughLists(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	var want []string
	for i := 0; i < 7; i++ {
		o := &model.Organization{ID: fmt.Sprintf("org-%d", i), Name: fmt.Sprintf("School %d", i)}
		require.NoError(t, s.InsertOrganization(ctx, o))
		want = append(want, o.ID)
	}

	orgs, err := s.ListOrganizations(ctx)
	require.NoError(t, err)
	var got []string
	for _, o := range orgs {
		got = append(got, o.ID)
	}
	assert.Equal(t, want, got)
}

func TestSQLiteDismissalsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path, 10)
	require.NoError(t, err)
	require.NoError(t, s.Dismissals().Add(ctx, "x|y"))
	require.NoError(t, s.Close(ctx))

	s, err = NewSQLiteStore(path, 10)
	require.NoError(t, err)
	defer s.Close(ctx)
	keys, err := s.Dismissals().GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"x|y"}, keys)
}

func TestCheckFields(t *testing.T) {
	assert.NoError(t, CheckFields(model.KindOrganization, map[string]string{"city": "x", "conference": "y"}))
	assert.NoError(t, CheckFields(model.KindContact, map[string]string{"email": "x"}))
	assert.True(t, errors.IsValidationError(CheckFields(model.KindContact, map[string]string{"city": "x"})))
	assert.True(t, errors.IsValidationError(CheckFields(model.KindAttendance, map[string]string{"event": "x"})))
}
