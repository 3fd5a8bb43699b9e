package model

import "strings"

type Kind string

const (
	KindOrganization Kind = "organization"
	KindContact      Kind = "contact"
	KindAttendance   Kind = "attendance"
)

// Record is implemented by the deduplicated kinds.
type Record interface {
	RecordID() string
	RecordKind() Kind
	Label() string
}

type Organization struct {
	ID         string `json:"id" yaml:"id" db:"id"`
	Name       string `json:"name" yaml:"name" db:"name"`
	City       string `json:"city,omitempty" yaml:"city,omitempty" db:"city"`
	State      string `json:"state,omitempty" yaml:"state,omitempty" db:"state"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty" db:"type"`
	Conference string `json:"conference,omitempty" yaml:"conference,omitempty" db:"conference"`
	Division   string `json:"division,omitempty" yaml:"division,omitempty" db:"division"`
	Version    int64  `json:"version" yaml:"-" db:"version"`
}

func (o Organization) RecordID() string { return o.ID }
func (o Organization) RecordKind() Kind { return KindOrganization }
func (o Organization) Label() string    { return o.Name }

// Organization optional scalar fields, in reconciliation order.
const (
	FieldCity       = "city"
	FieldState      = "state"
	FieldType       = "type"
	FieldConference = "conference"
	FieldDivision   = "division"
)

var OrganizationFields = []string{FieldCity, FieldState, FieldType, FieldConference, FieldDivision}

// Field returns the value of an optional field by its store name.
func (o Organization) Field(name string) string {
	switch name {
	case FieldCity:
		return o.City
	case FieldState:
		return o.State
	case FieldType:
		return o.Type
	case FieldConference:
		return o.Conference
	case FieldDivision:
		return o.Division
	}
	return ""
}

type Contact struct {
	ID             string `json:"id" yaml:"id" db:"id"`
	OrganizationID string `json:"organization_id" yaml:"organization_id" db:"organization_id"`
	FirstName      string `json:"first_name" yaml:"first_name" db:"first_name"`
	LastName       string `json:"last_name" yaml:"last_name" db:"last_name"`
	Title          string `json:"title,omitempty" yaml:"title,omitempty" db:"title"`
	Email          string `json:"email,omitempty" yaml:"email,omitempty" db:"email"`
	Phone          string `json:"phone,omitempty" yaml:"phone,omitempty" db:"phone"`
	Version        int64  `json:"version" yaml:"-" db:"version"`
}

func (c Contact) RecordID() string { return c.ID }
func (c Contact) RecordKind() Kind { return KindContact }
func (c Contact) Label() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

const (
	FieldTitle = "title"
	FieldEmail = "email"
	FieldPhone = "phone"
)

var ContactFields = []string{FieldTitle, FieldEmail, FieldPhone}

func (c Contact) Field(name string) string {
	switch name {
	case FieldTitle:
		return c.Title
	case FieldEmail:
		return c.Email
	case FieldPhone:
		return c.Phone
	}
	return ""
}

// Attendance is an activity entry owned by a contact. It is never
// deduplicated, only re-parented.
type Attendance struct {
	ID         string `json:"id" yaml:"id" db:"id"`
	ContactID  string `json:"contact_id" yaml:"contact_id" db:"contact_id"`
	Event      string `json:"event" yaml:"event" db:"event"`
	AttendedOn string `json:"attended_on,omitempty" yaml:"attended_on,omitempty" db:"attended_on"`
}

// Dependent is the kind-agnostic view of a record holding a foreign key to
// an organization or contact.
type Dependent struct {
	Kind     Kind   `json:"kind"`
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
	Label    string `json:"label"`
}
