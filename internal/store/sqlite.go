package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/agenthands/roster/internal/core/ledger"
	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/errors"
)

// SQLiteStore persists records and dismissals in a single SQLite file.
// Foreign keys are enforced, so a parent cannot be deleted while
// dependents still reference it.
type SQLiteStore struct {
	db       *sqlx.DB
	pageSize int
}

var _ Store = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS organizations (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	city       TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL DEFAULT '',
	conference TEXT NOT NULL DEFAULT '',
	division   TEXT NOT NULL DEFAULT '',
	version    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS contacts (
	id              TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id),
	first_name      TEXT NOT NULL,
	last_name       TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL DEFAULT '',
	phone           TEXT NOT NULL DEFAULT '',
	version         INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS contacts_organization_id ON contacts(organization_id);

CREATE TABLE IF NOT EXISTS attendance (
	id          TEXT PRIMARY KEY,
	contact_id  TEXT NOT NULL REFERENCES contacts(id),
	event       TEXT NOT NULL DEFAULT '',
	attended_on TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS attendance_contact_id ON attendance(contact_id);

CREATE TABLE IF NOT EXISTS dismissals (
	pair_key     TEXT PRIMARY KEY,
	dismissed_at TEXT NOT NULL
);
`

const (
	orgColumns     = "id, name, city, state, type, conference, division, version"
	contactColumns = "id, organization_id, first_name, last_name, title, email, phone, version"
)

// NewSQLiteStore opens (creating if needed) the database at dbPath. Lists
// are read pageSize rows at a time.
func NewSQLiteStore(dbPath string, pageSize int) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if pageSize <= 0 {
		pageSize = 500
	}
	return &SQLiteStore{db: db, pageSize: pageSize}, nil
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

type orgRow struct {
	Seq int64 `db:"seq"`
	model.Organization
}

type contactRow struct {
	Seq int64 `db:"seq"`
	model.Contact
}

func (s *SQLiteStore) ListOrganizations(ctx context.Context) ([]model.Organization, error) {
	var out []model.Organization
	var after int64
	for {
		var page []orgRow
		err := s.db.SelectContext(ctx, &page,
			"SELECT rowid AS seq, "+orgColumns+" FROM organizations WHERE rowid > ? ORDER BY rowid LIMIT ?",
			after, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("list organizations: %w", err)
		}
		for _, r := range page {
			out = append(out, r.Organization)
		}
		if len(page) < s.pageSize {
			return out, nil
		}
		after = page[len(page)-1].Seq
	}
}

func (s *SQLiteStore) ListContacts(ctx context.Context) ([]model.Contact, error) {
	var out []model.Contact
	var after int64
	for {
		var page []contactRow
		err := s.db.SelectContext(ctx, &page,
			"SELECT rowid AS seq, "+contactColumns+" FROM contacts WHERE rowid > ? ORDER BY rowid LIMIT ?",
			after, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("list contacts: %w", err)
		}
		for _, r := range page {
			out = append(out, r.Contact)
		}
		if len(page) < s.pageSize {
			return out, nil
		}
		after = page[len(page)-1].Seq
	}
}

func (s *SQLiteStore) GetOrganization(ctx context.Context, id string) (model.Organization, error) {
	var o model.Organization
	err := s.db.GetContext(ctx, &o, "SELECT "+orgColumns+" FROM organizations WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return o, errors.NewNotFoundError(string(model.KindOrganization), id)
	}
	if err != nil {
		return o, fmt.Errorf("get organization %s: %w", id, err)
	}
	return o, nil
}

func (s *SQLiteStore) GetContact(ctx context.Context, id string) (model.Contact, error) {
	var c model.Contact
	err := s.db.GetContext(ctx, &c, "SELECT "+contactColumns+" FROM contacts WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return c, errors.NewNotFoundError(string(model.KindContact), id)
	}
	if err != nil {
		return c, fmt.Errorf("get contact %s: %w", id, err)
	}
	return c, nil
}

func (s *SQLiteStore) ListDependents(ctx context.Context, parentKind model.Kind, parentID string) ([]model.Dependent, error) {
	var query string
	switch parentKind {
	case model.KindOrganization:
		query = `SELECT 'contact' AS kind, id, organization_id AS parent_id, TRIM(first_name || ' ' || last_name) AS label
			FROM contacts WHERE organization_id = ? ORDER BY rowid`
	case model.KindContact:
		query = `SELECT 'attendance' AS kind, id, contact_id AS parent_id, event AS label
			FROM attendance WHERE contact_id = ? ORDER BY rowid`
	default:
		_, err := DependentKind(parentKind)
		return nil, err
	}

	var rows []struct {
		Kind     string `db:"kind"`
		ID       string `db:"id"`
		ParentID string `db:"parent_id"`
		Label    string `db:"label"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, parentID); err != nil {
		return nil, fmt.Errorf("list dependents of %s %s: %w", parentKind, parentID, err)
	}
	out := make([]model.Dependent, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Dependent{Kind: model.Kind(r.Kind), ID: r.ID, ParentID: r.ParentID, Label: r.Label})
	}
	return out, nil
}

func tableFor(kind model.Kind) (string, error) {
	switch kind {
	case model.KindOrganization:
		return "organizations", nil
	case model.KindContact:
		return "contacts", nil
	case model.KindAttendance:
		return "attendance", nil
	}
	return "", errors.NewValidationError("kind", kind, "unknown kind")
}

func (s *SQLiteStore) UpdateFields(ctx context.Context, kind model.Kind, id string, fields map[string]string) error {
	if err := CheckFields(kind, fields); err != nil {
		return err
	}
	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	args := map[string]any{"id": id}
	sets := make([]string, 0, len(names)+1)
	for _, name := range names {
		sets = append(sets, fmt.Sprintf("%s = :%s", name, name))
		args[name] = fields[name]
	}
	sets = append(sets, "version = version + 1")

	res, err := s.db.NamedExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", table, strings.Join(sets, ", ")), args)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError(string(kind), id)
	}
	return nil
}

func (s *SQLiteStore) ReassignForeignKey(ctx context.Context, dependentKind model.Kind, oldParentID, newParentID string) (int, error) {
	var query string
	switch dependentKind {
	case model.KindContact:
		query = "UPDATE contacts SET organization_id = ?, version = version + 1 WHERE organization_id = ?"
	case model.KindAttendance:
		query = "UPDATE attendance SET contact_id = ? WHERE contact_id = ?"
	default:
		return 0, errors.NewValidationError("kind", dependentKind, "not a dependent kind")
	}
	res, err := s.db.ExecContext(ctx, query, newParentID, oldParentID)
	if err != nil {
		return 0, fmt.Errorf("reassign %s from %s to %s: %w", dependentKind, oldParentID, newParentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLiteStore) Delete(ctx context.Context, kind model.Kind, id string) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError(string(kind), id)
	}
	return nil
}

func (s *SQLiteStore) exists(ctx context.Context, table, id string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(1) FROM "+table+" WHERE id = ?", id); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) InsertOrganization(ctx context.Context, o *model.Organization) error {
	if err := validateOrganization(o); err != nil {
		return err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	_, err := s.db.NamedExecContext(ctx,
		"INSERT INTO organizations ("+orgColumns+") VALUES (:id, :name, :city, :state, :type, :conference, :division, :version)", o)
	if err != nil {
		return fmt.Errorf("insert organization %s: %w", o.ID, err)
	}
	return nil
}

func (s *SQLiteStore) InsertContact(ctx context.Context, c *model.Contact) error {
	if err := validateContact(c); err != nil {
		return err
	}
	ok, err := s.exists(ctx, "organizations", c.OrganizationID)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	if !ok {
		return errors.NewValidationError("organization_id", c.OrganizationID, "organization does not exist")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err = s.db.NamedExecContext(ctx,
		"INSERT INTO contacts ("+contactColumns+") VALUES (:id, :organization_id, :first_name, :last_name, :title, :email, :phone, :version)", c)
	if err != nil {
		return fmt.Errorf("insert contact %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLiteStore) InsertAttendance(ctx context.Context, a *model.Attendance) error {
	if err := validateAttendance(a); err != nil {
		return err
	}
	ok, err := s.exists(ctx, "contacts", a.ContactID)
	if err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}
	if !ok {
		return errors.NewValidationError("contact_id", a.ContactID, "contact does not exist")
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err = s.db.NamedExecContext(ctx,
		"INSERT INTO attendance (id, contact_id, event, attended_on) VALUES (:id, :contact_id, :event, :attended_on)", a)
	if err != nil {
		return fmt.Errorf("insert attendance %s: %w", a.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Dismissals() ledger.Backend { return sqliteDismissals{s.db} }

type sqliteDismissals struct{ db *sqlx.DB }

func (d sqliteDismissals) GetAll(ctx context.Context) ([]string, error) {
	var keys []string
	if err := d.db.SelectContext(ctx, &keys, "SELECT pair_key FROM dismissals ORDER BY pair_key"); err != nil {
		return nil, fmt.Errorf("list dismissals: %w", err)
	}
	return keys, nil
}

func (d sqliteDismissals) Add(ctx context.Context, key string) error {
	_, err := d.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO dismissals (pair_key, dismissed_at) VALUES (?, ?)",
		key, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("add dismissal: %w", err)
	}
	return nil
}

func (d sqliteDismissals) Clear(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM dismissals"); err != nil {
		return fmt.Errorf("clear dismissals: %w", err)
	}
	return nil
}
