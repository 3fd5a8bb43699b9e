// Package merge folds one record into another of the same kind: it fills the
// survivor's empty optional fields, moves dependents across, and deletes the
// discarded record.
//
// The steps are not transactional. If a step fails after an earlier one has
// committed, the error is a PartialMergeError listing what completed; running
// the same merge again finishes the job, since completed steps have nothing
// left to do the second time.
package merge

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/errors"
	"github.com/agenthands/roster/internal/logging"
)

// Step names reported in PartialMergeError.
const (
	StepReconcile = "reconcile fields"
	StepReparent  = "reparent dependents"
	StepDelete    = "delete discard"
)

// Target is the per-kind view a Resolver needs.
type Target[R model.Record] interface {
	Kind() model.Kind
	Get(ctx context.Context, id string) (R, error)
	MergeableFields() []string
	Field(r R, name string) string
	DependentKind() model.Kind
}

// Store is the write surface used by a merge.
type Store interface {
	UpdateFields(ctx context.Context, kind model.Kind, id string, fields map[string]string) error
	ReassignForeignKey(ctx context.Context, dependentKind model.Kind, oldParentID, newParentID string) (int, error)
	Delete(ctx context.Context, kind model.Kind, id string) error
}

type Resolver[R model.Record] struct {
	target   Target[R]
	store    Store
	inflight *InFlight
}

func NewResolver[R model.Record](target Target[R], store Store, inflight *InFlight) *Resolver[R] {
	if inflight == nil {
		inflight = NewInFlight()
	}
	return &Resolver[R]{target: target, store: store, inflight: inflight}
}

// Stage returns the fields of discard worth copying onto keep: those where
// keep is empty and discard is not. Names are in reconciliation order.
func Stage[R model.Record](target Target[R], keep, discard R) (map[string]string, []string) {
	staged := make(map[string]string)
	var filled []string
	for _, f := range target.MergeableFields() {
		if strings.TrimSpace(target.Field(keep, f)) != "" {
			continue
		}
		v := target.Field(discard, f)
		if strings.TrimSpace(v) == "" {
			continue
		}
		staged[f] = v
		filled = append(filled, f)
	}
	return staged, filled
}

// Merge folds discardID into keepID.
func (r *Resolver[R]) Merge(ctx context.Context, keepID, discardID string) (*model.MergeSummary, error) {
	kind := r.target.Kind()
	keepID, discardID = strings.TrimSpace(keepID), strings.TrimSpace(discardID)
	switch {
	case keepID == "" || discardID == "":
		return nil, errors.NewValidationError("id", nil, "keep and discard ids are required")
	case keepID == discardID:
		return nil, errors.NewValidationError("discard_id", discardID, "cannot merge a record into itself")
	}

	release, err := r.inflight.Acquire(keepID, discardID)
	if err != nil {
		return nil, err
	}
	defer release()

	keep, err := r.load(ctx, keepID)
	if err != nil {
		return nil, err
	}
	discard, err := r.load(ctx, discardID)
	if err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx).With().
		Str("kind", string(kind)).
		Str("keep", keepID).
		Str("discard", discardID).
		Logger()

	var completed []string
	fail := func(step string, err error) error {
		cause := errors.NewStoreUnavailableError(step, err)
		if len(completed) == 0 {
			return cause
		}
		logger.Error().Err(err).Strs("completed", completed).Str("failed", step).Msg("merge partially applied")
		return &errors.PartialMergeError{
			Kind:      string(kind),
			KeepID:    keepID,
			DiscardID: discardID,
			Completed: append([]string(nil), completed...),
			Failed:    step,
			Err:       cause,
		}
	}

	staged, filled := Stage(r.target, keep, discard)
	if len(staged) > 0 {
		if err := r.store.UpdateFields(ctx, kind, keepID, staged); err != nil {
			return nil, fail(StepReconcile, err)
		}
		completed = append(completed, StepReconcile)
	}

	depKind := r.target.DependentKind()
	moved, err := r.store.ReassignForeignKey(ctx, depKind, discardID, keepID)
	if err != nil {
		return nil, fail(StepReparent, err)
	}
	if moved > 0 {
		completed = append(completed, StepReparent)
	}

	if err := r.store.Delete(ctx, kind, discardID); err != nil {
		return nil, fail(StepDelete, err)
	}

	summary := &model.MergeSummary{
		Kind:            kind,
		KeepID:          keepID,
		DiscardID:       discardID,
		KeepLabel:       keep.Label(),
		DiscardLabel:    discard.Label(),
		FilledFields:    filled,
		DependentKind:   depKind,
		DependentsMoved: moved,
	}
	summary.Message = message(summary)

	logger.Info().
		Strs("filled", filled).
		Int("moved", moved).
		Msg("records merged")
	return summary, nil
}

func (r *Resolver[R]) load(ctx context.Context, id string) (R, error) {
	rec, err := r.target.Get(ctx, id)
	if err != nil {
		var zero R
		if errors.IsNotFound(err) {
			return zero, errors.NewStaleRecordError(string(r.target.Kind()), id)
		}
		return zero, errors.NewStoreUnavailableError("get "+string(r.target.Kind()), err)
	}
	return rec, nil
}

func message(s *model.MergeSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Merged %q into %q", s.DiscardLabel, s.KeepLabel)
	if len(s.FilledFields) > 0 {
		fmt.Fprintf(&b, "; filled %s", strings.Join(s.FilledFields, ", "))
	}
	fmt.Fprintf(&b, "; moved %d %s record(s).", s.DependentsMoved, s.DependentKind)
	return b.String()
}
