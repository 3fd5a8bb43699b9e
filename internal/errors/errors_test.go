package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelMatching(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")

	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", NewNotFoundError("organization", "o1"), IsNotFound},
		{"validation", NewValidationError("name", "", "required"), IsValidationError},
		{"store", NewStoreUnavailableError("list organizations", cause), IsStoreUnavailable},
		{"partial", &PartialMergeError{Kind: "contact", Completed: []string{"fields"}, Failed: "delete", Err: cause}, IsPartialMerge},
		{"stale", NewStaleRecordError("contact", "c1"), IsStaleRecord},
		{"in flight", &MergeInFlightError{ID: "c1"}, IsMergeInFlight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, tt.check(wrapped), "sentinel must survive wrapping")
		})
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")

	partial := &PartialMergeError{
		Kind:      "organization",
		KeepID:    "keep",
		DiscardID: "gone",
		Completed: []string{"fields", "dependents"},
		Failed:    "delete",
		Err:       NewStoreUnavailableError("delete organization", cause),
	}

	assert.ErrorIs(t, partial, cause)
	assert.ErrorIs(t, partial, ErrStoreUnavailable)
	assert.Contains(t, partial.Error(), "completed [fields, dependents]")
	assert.Contains(t, partial.Error(), "failed at delete")
}

func TestComparisonLimitMessage(t *testing.T) {
	err := &ComparisonLimitError{Kind: "organization", Pairs: 500500, Limit: 100000}
	assert.ErrorIs(t, err, ErrComparisonLimit)
	assert.Contains(t, err.Error(), "500500")
	assert.False(t, IsValidationError(err))
}
