package dedupe

import (
	"sync"

	"github.com/agenthands/roster/internal/core/model"
)

// Listing holds the most recently generated candidate list of one kind so
// operators can page through it, dismiss pairs, and merge without a full
// regeneration after every action. It is safe for concurrent use.
//
// Every Forget or Invalidate advances the generation, so a list computed
// from records read before that change is never stored.
type Listing[R model.Record] struct {
	mu         sync.RWMutex
	candidates []model.Candidate[R]
	valid      bool
	generation uint64
}

// Generation returns the current generation. Read it before listing
// records and pass it to Set.
func (l *Listing[R]) Generation() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.generation
}

// Current returns a copy of the cached list and whether one is held.
func (l *Listing[R]) Current() ([]model.Candidate[R], bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.valid {
		return nil, false
	}
	out := make([]model.Candidate[R], len(l.candidates))
	copy(out, l.candidates)
	return out, true
}

// Set caches a copy of candidates if no Forget or Invalidate happened since
// generation was read. It reports whether the list was stored.
func (l *Listing[R]) Set(generation uint64, candidates []model.Candidate[R]) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if generation != l.generation {
		return false
	}
	l.candidates = make([]model.Candidate[R], len(candidates))
	copy(l.candidates, candidates)
	l.valid = true
	return true
}

// Forget drops the pair with key from the cached list, if present.
func (l *Listing[R]) Forget(key model.PairKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	for i, c := range l.candidates {
		if c.Key == key {
			l.candidates = append(l.candidates[:i:i], l.candidates[i+1:]...)
			return true
		}
	}
	return false
}

// Invalidate discards the cached list; the next read must regenerate.
func (l *Listing[R]) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	l.candidates = nil
	l.valid = false
}
