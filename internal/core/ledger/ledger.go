// Package ledger records operator "not a duplicate" decisions so a dismissed
// pair is never offered again until the ledger is cleared.
package ledger

import (
	"context"
	"strings"

	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/errors"
	"github.com/agenthands/roster/internal/logging"
)

// Backend persists dismissal keys. Keys are opaque to the backend.
type Backend interface {
	GetAll(ctx context.Context) ([]string, error)
	Add(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

type Ledger struct {
	backend Backend
}

func New(backend Backend) *Ledger {
	return &Ledger{backend: backend}
}

// Dismiss records that a and b are not duplicates. Dismissing the same pair
// twice is a no-op for the caller.
func (l *Ledger) Dismiss(ctx context.Context, a, b string) (model.PairKey, error) {
	key, err := pairKey(a, b)
	if err != nil {
		return "", err
	}
	if err := l.backend.Add(ctx, string(key)); err != nil {
		return "", errors.NewStoreUnavailableError("ledger add", err)
	}
	logging.FromContext(ctx).Info().Str("pair", string(key)).Msg("pair dismissed")
	return key, nil
}

func (l *Ledger) IsDismissed(ctx context.Context, a, b string) (bool, error) {
	key, err := pairKey(a, b)
	if err != nil {
		return false, err
	}
	set, err := l.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	_, ok := set[key]
	return ok, nil
}

// ClearAll forgets every dismissal.
func (l *Ledger) ClearAll(ctx context.Context) error {
	if err := l.backend.Clear(ctx); err != nil {
		return errors.NewStoreUnavailableError("ledger clear", err)
	}
	logging.FromContext(ctx).Info().Msg("dismissals cleared")
	return nil
}

// Snapshot reads the full ledger once so a generation pass can filter
// without a backend call per pair.
func (l *Ledger) Snapshot(ctx context.Context) (map[model.PairKey]struct{}, error) {
	keys, err := l.backend.GetAll(ctx)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("ledger read", err)
	}
	set := make(map[model.PairKey]struct{}, len(keys))
	for _, k := range keys {
		set[model.PairKey(k)] = struct{}{}
	}
	return set, nil
}

func pairKey(a, b string) (model.PairKey, error) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "" || b == "":
		return "", errors.NewValidationError("id", nil, "both record ids are required")
	case a == b:
		return "", errors.NewValidationError("id", a, "a record cannot be paired with itself")
	case strings.Contains(a, model.PairKeySeparator) || strings.Contains(b, model.PairKeySeparator):
		return "", errors.NewValidationError("id", a+" "+b, "record ids must not contain "+model.PairKeySeparator)
	}
	return model.PairKeyOf(a, b), nil
}
