package merge

import (
	"sync"

	"github.com/agenthands/roster/internal/errors"
)

// InFlight tracks record ids taking part in running merges. One InFlight is
// shared by every resolver of an engine.
type InFlight struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewInFlight() *InFlight {
	return &InFlight{ids: make(map[string]struct{})}
}

// Acquire claims ids atomically. It fails without claiming anything if any
// id is already held. The returned func releases the claim.
func (f *InFlight) Acquire(ids ...string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if _, busy := f.ids[id]; busy {
			return nil, &errors.MergeInFlightError{ID: id}
		}
	}
	for _, id := range ids {
		f.ids[id] = struct{}{}
	}
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, id := range ids {
			delete(f.ids, id)
		}
	}, nil
}
