// Package dedupe enumerates, ranks and groups duplicate candidates for any
// record kind. The kind-specific parts (validation, comparison, partition and
// blocking keys) come from a Strategy.
package dedupe

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/errors"
	"github.com/agenthands/roster/internal/logging"
)

// Blocking selects the cheap pre-filter applied before pairwise comparison.
type Blocking string

const (
	// BlockNone compares every pair in a partition.
	BlockNone Blocking = "none"
	// BlockState only compares records sharing a state.
	BlockState Blocking = "state"
	// BlockPhonetic only compares records sharing a phonetic name key.
	BlockPhonetic Blocking = "phonetic"
)

// ParseBlocking validates a configured blocking mode. Empty means none.
func ParseBlocking(s string) (Blocking, error) {
	switch Blocking(s) {
	case "", BlockNone:
		return BlockNone, nil
	case BlockState, BlockPhonetic:
		return Blocking(s), nil
	}
	return "", errors.NewValidationError("blocking", s, "must be one of none, state, phonetic")
}

// Strategy is the per-kind capability set used by a Pipeline. P is the
// precomputed comparison profile of one record.
type Strategy[R model.Record, P any] interface {
	Kind() model.Kind
	// Prepare validates r and computes its profile.
	Prepare(r R) (P, error)
	// Compare must be symmetric in its arguments.
	Compare(a, b P) (model.MatchType, int)
	// PartitionKey groups records that may be compared at all. Records in
	// different partitions are never paired.
	PartitionKey(r R) string
	// BlockKey buckets records inside a partition for the given mode.
	BlockKey(r R, mode Blocking) string
}

// Options tune a generation pass.
type Options struct {
	Workers        int
	MaxComparisons int // 0 means unbounded
	Blocking       Blocking
}

// Stats describe the last generation pass.
type Stats struct {
	Records     int
	Groups      int
	Comparisons int
	Dismissed   int
	Candidates  int
	Elapsed     time.Duration
}

type Pipeline[R model.Record, P any] struct {
	strategy Strategy[R, P]
	opts     Options
}

func NewPipeline[R model.Record, P any](strategy Strategy[R, P], opts Options) *Pipeline[R, P] {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Blocking == "" {
		opts.Blocking = BlockNone
	}
	return &Pipeline[R, P]{strategy: strategy, opts: opts}
}

func (p *Pipeline[R, P]) Options() Options {
	return p.opts
}

type entry[R model.Record, P any] struct {
	record  R
	profile P
}

// Generate classifies every unordered pair of records that share a
// partition and block, dropping pairs whose key is in dismissed. The result
// is in enumeration order; rank it with Rank.
func (p *Pipeline[R, P]) Generate(ctx context.Context, records []R, dismissed map[model.PairKey]struct{}) ([]model.Candidate[R], Stats, error) {
	start := time.Now()
	stats := Stats{Records: len(records)}

	groups, err := p.group(records)
	if err != nil {
		return nil, stats, err
	}
	stats.Groups = len(groups)

	for _, g := range groups {
		stats.Comparisons += len(g) * (len(g) - 1) / 2
	}
	if p.opts.MaxComparisons > 0 && stats.Comparisons > p.opts.MaxComparisons {
		return nil, stats, &errors.ComparisonLimitError{
			Kind:  string(p.strategy.Kind()),
			Pairs: stats.Comparisons,
			Limit: p.opts.MaxComparisons,
		}
	}

	// One job per (group, row). Each job owns its slot in rows, so workers
	// never share a slice.
	type job struct{ group, row int }
	var jobs []job
	for gi, g := range groups {
		for i := 0; i < len(g)-1; i++ {
			jobs = append(jobs, job{gi, i})
		}
	}
	rows := make([][]model.Candidate[R], len(jobs))
	skipped := make([]int, len(jobs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.opts.Workers)
	for ji, j := range jobs {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			rows[ji], skipped[ji] = p.compareRow(groups[j.group], j.row, dismissed)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, stats, fmt.Errorf("%s candidate generation: %w", p.strategy.Kind(), err)
	}

	var out []model.Candidate[R]
	for ji, row := range rows {
		out = append(out, row...)
		stats.Dismissed += skipped[ji]
	}
	stats.Candidates = len(out)
	stats.Elapsed = time.Since(start)

	logging.FromContext(ctx).Debug().
		Str("kind", string(p.strategy.Kind())).
		Str("blocking", string(p.opts.Blocking)).
		Int("records", stats.Records).
		Int("groups", stats.Groups).
		Int("comparisons", stats.Comparisons).
		Int("dismissed", stats.Dismissed).
		Int("candidates", stats.Candidates).
		Dur("elapsed", stats.Elapsed).
		Msg("generated candidates")

	return out, stats, nil
}

func (p *Pipeline[R, P]) compareRow(g []entry[R, P], i int, dismissed map[model.PairKey]struct{}) ([]model.Candidate[R], int) {
	var row []model.Candidate[R]
	skipped := 0
	a := g[i]
	for j := i + 1; j < len(g); j++ {
		b := g[j]
		key := model.PairKeyOf(a.record.RecordID(), b.record.RecordID())
		if _, ok := dismissed[key]; ok {
			skipped++
			continue
		}
		match, score := p.strategy.Compare(a.profile, b.profile)
		if match == model.MatchNone {
			continue
		}
		row = append(row, model.Candidate[R]{
			Key:   key,
			A:     a.record,
			B:     b.record,
			Match: match,
			Score: score,
		})
	}
	return row, skipped
}

// group prepares every record and buckets it by partition then block key.
// Buckets keep the order in which their first record appeared.
func (p *Pipeline[R, P]) group(records []R) ([][]entry[R, P], error) {
	index := make(map[string]int)
	var groups [][]entry[R, P]
	for _, r := range records {
		profile, err := p.strategy.Prepare(r)
		if err != nil {
			return nil, err
		}
		key := p.strategy.PartitionKey(r) + "\x00" + p.strategy.BlockKey(r, p.opts.Blocking)
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, nil)
		}
		groups[gi] = append(groups[gi], entry[R, P]{record: r, profile: profile})
	}
	return groups, nil
}
