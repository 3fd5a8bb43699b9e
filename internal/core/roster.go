// Package core wires the roster engine: candidate generation, ranking,
// clustering, dismissals and merges for organizations and contacts over a
// record store.
package core

import (
	"context"

	"github.com/agenthands/roster/internal/config"
	"github.com/agenthands/roster/internal/core/classify"
	"github.com/agenthands/roster/internal/core/dedupe"
	"github.com/agenthands/roster/internal/core/ledger"
	"github.com/agenthands/roster/internal/core/merge"
	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/errors"
	"github.com/agenthands/roster/internal/logging"
	"github.com/agenthands/roster/internal/store"
)

type Options struct {
	Thresholds classify.Thresholds
	Weights    classify.Weights
	Generation dedupe.Options
}

func DefaultOptions() Options {
	return Options{
		Thresholds: classify.DefaultThresholds(),
		Weights:    classify.DefaultWeights(),
		Generation: dedupe.Options{Blocking: dedupe.BlockNone},
	}
}

// OptionsFromConfig maps the matching, scoring and generation sections.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	blocking, err := dedupe.ParseBlocking(cfg.Generation.Blocking)
	if err != nil {
		return Options{}, err
	}
	m, s := cfg.Matching, cfg.Scoring
	return Options{
		Thresholds: classify.Thresholds{
			SimilarityThreshold:  m.SimilarityThreshold,
			ContainmentRatio:     m.ContainmentRatio,
			FirstNameMaxDistance: m.FirstNameMaxDistance,
			LastNameMaxDistance:  m.LastNameMaxDistance,
		},
		Weights: classify.Weights{
			ExactName:         s.ExactName,
			NormalizedName:    s.NormalizedName,
			SameState:         s.SameState,
			SameConference:    s.SameConference,
			SameDivision:      s.SameDivision,
			SimilarityWeight:  s.SimilarityWeight,
			ContactExactField: s.ContactExactField,
			ContactNearField:  s.ContactNearField,
			ContactInitial:    s.ContactInitial,
		},
		Generation: dedupe.Options{
			Workers:        cfg.Generation.Workers,
			MaxComparisons: cfg.Generation.MaxComparisons,
			Blocking:       blocking,
		},
	}, nil
}

// kindEngine is the generation and merge machinery for one record kind.
type kindEngine[R model.Record, P any] struct {
	kind     model.Kind
	list     func(ctx context.Context) ([]R, error)
	pipeline *dedupe.Pipeline[R, P]
	resolver *merge.Resolver[R]
	listing  dedupe.Listing[R]
}

func (k *kindEngine[R, P]) candidates(ctx context.Context, l *ledger.Ledger, refresh bool) ([]model.Candidate[R], error) {
	if !refresh {
		if cached, ok := k.listing.Current(); ok {
			return cached, nil
		}
	}

	gen := k.listing.Generation()
	records, err := k.list(ctx)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("list "+string(k.kind), err)
	}
	dismissed, err := l.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	generated, _, err := k.pipeline.Generate(ctx, records, dismissed)
	if err != nil {
		return nil, err
	}

	ranked := dedupe.Rank(generated)
	if !k.listing.Set(gen, ranked) {
		logging.FromContext(ctx).Debug().
			Str("kind", string(k.kind)).
			Msg("records changed during generation; list not cached")
	}
	return ranked, nil
}

// Engine is the operator-facing surface of the roster.
type Engine struct {
	Store  store.Store
	Ledger *ledger.Ledger

	organizations *kindEngine[model.Organization, classify.OrgProfile]
	contacts      *kindEngine[model.Contact, classify.ContactProfile]
}

func NewEngine(s store.Store, opts Options) *Engine {
	inflight := merge.NewInFlight()

	orgStrategy := organizationKind{
		classifier: classify.NewOrganizationClassifier(opts.Thresholds, opts.Weights),
		store:      s,
	}
	contactStrategy := contactKind{
		classifier: classify.NewContactClassifier(opts.Thresholds, opts.Weights),
		store:      s,
	}

	return &Engine{
		Store:  s,
		Ledger: ledger.New(s.Dismissals()),
		organizations: &kindEngine[model.Organization, classify.OrgProfile]{
			kind:     model.KindOrganization,
			list:     orgStrategy.List,
			pipeline: dedupe.NewPipeline[model.Organization, classify.OrgProfile](orgStrategy, opts.Generation),
			resolver: merge.NewResolver[model.Organization](orgStrategy, s, inflight),
		},
		contacts: &kindEngine[model.Contact, classify.ContactProfile]{
			kind:     model.KindContact,
			list:     contactStrategy.List,
			pipeline: dedupe.NewPipeline[model.Contact, classify.ContactProfile](contactStrategy, opts.Generation),
			resolver: merge.NewResolver[model.Contact](contactStrategy, s, inflight),
		},
	}
}

// OrganizationCandidates returns the ranked organization candidates. The
// last generated list is reused unless refresh is set.
func (e *Engine) OrganizationCandidates(ctx context.Context, refresh bool) ([]model.Candidate[model.Organization], error) {
	return e.organizations.candidates(ctx, e.Ledger, refresh)
}

// ContactCandidates returns the ranked contact candidates.
func (e *Engine) ContactCandidates(ctx context.Context, refresh bool) ([]model.Candidate[model.Contact], error) {
	return e.contacts.candidates(ctx, e.Ledger, refresh)
}

func (e *Engine) OrganizationClusters(ctx context.Context, refresh bool) ([]dedupe.Cluster[model.Organization], error) {
	cands, err := e.OrganizationCandidates(ctx, refresh)
	if err != nil {
		return nil, err
	}
	return dedupe.Clusters(cands), nil
}

func (e *Engine) ContactClusters(ctx context.Context, refresh bool) ([]dedupe.Cluster[model.Contact], error) {
	cands, err := e.ContactCandidates(ctx, refresh)
	if err != nil {
		return nil, err
	}
	return dedupe.Clusters(cands), nil
}

// Dismiss records that a and b are not duplicates and drops the pair from
// whichever cached list holds it.
func (e *Engine) Dismiss(ctx context.Context, a, b string) (model.PairKey, error) {
	key, err := e.Ledger.Dismiss(ctx, a, b)
	if err != nil {
		return "", err
	}
	e.organizations.listing.Forget(key)
	e.contacts.listing.Forget(key)
	return key, nil
}

func (e *Engine) IsDismissed(ctx context.Context, a, b string) (bool, error) {
	return e.Ledger.IsDismissed(ctx, a, b)
}

// ClearDismissals empties the ledger. Cached lists are dropped so the next
// listing re-evaluates every pair.
func (e *Engine) ClearDismissals(ctx context.Context) error {
	if err := e.Ledger.ClearAll(ctx); err != nil {
		return err
	}
	e.organizations.listing.Invalidate()
	e.contacts.listing.Invalidate()
	return nil
}

// MergeOrganizations folds discardID into keepID and moves its contacts.
func (e *Engine) MergeOrganizations(ctx context.Context, keepID, discardID string) (*model.MergeSummary, error) {
	summary, err := e.organizations.resolver.Merge(ctx, keepID, discardID)
	if touchedStore(err) {
		// Moving contacts changes organization partitions too.
		e.organizations.listing.Invalidate()
		e.contacts.listing.Invalidate()
	}
	return summary, err
}

// MergeContacts folds discardID into keepID and moves its attendance.
func (e *Engine) MergeContacts(ctx context.Context, keepID, discardID string) (*model.MergeSummary, error) {
	summary, err := e.contacts.resolver.Merge(ctx, keepID, discardID)
	if touchedStore(err) {
		e.contacts.listing.Invalidate()
	}
	return summary, err
}

// Dependents lists the records attached to a parent record.
func (e *Engine) Dependents(ctx context.Context, parentKind model.Kind, parentID string) ([]model.Dependent, error) {
	deps, err := e.Store.ListDependents(ctx, parentKind, parentID)
	if err != nil && !errors.IsValidationError(err) {
		return nil, errors.NewStoreUnavailableError("list dependents", err)
	}
	return deps, err
}

// touchedStore reports whether a merge outcome may have changed records or
// shown the cached list to be stale.
func touchedStore(err error) bool {
	return err == nil || errors.IsPartialMerge(err) || errors.IsStaleRecord(err)
}
