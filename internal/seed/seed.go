// Package seed imports a directory snapshot from YAML into a record store.
//
//	organizations:
//	  - id: mizzou
//	    name: University of Missouri
//	    state: MO
//	contacts:
//	  - id: bill
//	    organization_id: mizzou
//	    first_name: Bill
//	    last_name: Smith
//	attendance:
//	  - contact_id: bill
//	    event: Fall Showcase
package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/logging"
	"github.com/agenthands/roster/internal/store"
)

type File struct {
	Organizations []model.Organization `yaml:"organizations"`
	Contacts      []model.Contact      `yaml:"contacts"`
	Attendance    []model.Attendance   `yaml:"attendance"`
}

// Result counts the records written by Apply.
type Result struct {
	Organizations int `json:"organizations" yaml:"organizations"`
	Contacts      int `json:"contacts" yaml:"contacts"`
	Attendance    int `json:"attendance" yaml:"attendance"`
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
	}
	return &f, nil
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file '%s': %w", path, err)
	}
	return Parse(data)
}

// Apply inserts organizations, then contacts, then attendance, so every
// foreign key can point at a record written earlier. It stops at the first
// rejected record; what was written before stays written.
func Apply(ctx context.Context, s store.RecordStore, f *File) (Result, error) {
	var res Result
	for i := range f.Organizations {
		if err := s.InsertOrganization(ctx, &f.Organizations[i]); err != nil {
			return res, fmt.Errorf("organization %d (%q): %w", i, f.Organizations[i].Name, err)
		}
		res.Organizations++
	}
	for i := range f.Contacts {
		if err := s.InsertContact(ctx, &f.Contacts[i]); err != nil {
			return res, fmt.Errorf("contact %d (%q): %w", i, f.Contacts[i].Label(), err)
		}
		res.Contacts++
	}
	for i := range f.Attendance {
		if err := s.InsertAttendance(ctx, &f.Attendance[i]); err != nil {
			return res, fmt.Errorf("attendance %d: %w", i, err)
		}
		res.Attendance++
	}

	logging.FromContext(ctx).Info().
		Int("organizations", res.Organizations).
		Int("contacts", res.Contacts).
		Int("attendance", res.Attendance).
		Msg("Seeded records")
	return res, nil
}
