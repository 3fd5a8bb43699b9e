package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/roster/internal/config"
	"github.com/agenthands/roster/internal/core/dedupe"
	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/errors"
	"github.com/agenthands/roster/internal/logging"
	"github.com/agenthands/roster/internal/store"
)

type fixture struct {
	store  *store.MemoryStore
	engine *Engine

	missouri, mizzou, stMarys, saintMarys, rice string
	bill, william, ann                        string
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()
	f := &fixture{store: s, engine: NewEngine(s, opts)}

	org := func(o model.Organization) string {
		require.NoError(t, s.InsertOrganization(ctx, &o))
		return o.ID
	}
	f.missouri = org(model.Organization{Name: "University of Missouri", State: "MO", Conference: "SEC"})
	f.mizzou = org(model.Organization{Name: "Missouri", State: "MO", City: "Columbia"})
	f.stMarys = org(model.Organization{Name: "St. Mary's College", State: "CA"})
	f.saintMarys = org(model.Organization{Name: "Saint Mary's University", State: "CA"})
	f.rice = org(model.Organization{Name: "Rice", State: "TX"})

	contact := func(c model.Contact) string {
		require.NoError(t, s.InsertContact(ctx, &c))
		return c.ID
	}
	f.bill = contact(model.Contact{OrganizationID: f.missouri, FirstName: "Bill", LastName: "Smith"})
	f.william = contact(model.Contact{OrganizationID: f.mizzou, FirstName: "William", LastName: "Smith", Email: "wsmith@missouri.edu"})
	f.ann = contact(model.Contact{OrganizationID: f.rice, FirstName: "Ann", LastName: "Lee"})

	require.NoError(t, s.InsertAttendance(ctx, &model.Attendance{ContactID: f.william, Event: "Spring Clinic"}))
	return f
}

func TestOrganizationCandidatesRanked(t *testing.T) {
	f := newFixture(t, DefaultOptions())

	cands, err := f.engine.OrganizationCandidates(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, cands, 2)

	assert.Equal(t, model.PairKeyOf(f.missouri, f.mizzou), cands[0].Key)
	assert.Equal(t, model.MatchExact, cands[0].Match)
	assert.Equal(t, model.PairKeyOf(f.stMarys, f.saintMarys), cands[1].Key)
	assert.Equal(t, model.MatchFuzzy, cands[1].Match)
	assert.Greater(t, cands[0].Score, cands[1].Score)
}

func TestContactsOnlyMatchWithinOrganization(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	ctx := context.Background()

	cands, err := f.engine.ContactCandidates(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, cands, "Bill and William belong to different organizations")

	_, err = f.engine.MergeOrganizations(ctx, f.missouri, f.mizzou)
	require.NoError(t, err)

	cands, err = f.engine.ContactCandidates(ctx, false)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, model.PairKeyOf(f.bill, f.william), cands[0].Key)
	assert.Equal(t, model.MatchFuzzy, cands[0].Match)
}

func TestDismissLifecycle(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	ctx := context.Background()

	_, err := f.engine.OrganizationCandidates(ctx, false)
	require.NoError(t, err)

	key, err := f.engine.Dismiss(ctx, f.saintMarys, f.stMarys)
	require.NoError(t, err)
	assert.Equal(t, model.PairKeyOf(f.stMarys, f.saintMarys), key)

	cached, err := f.engine.OrganizationCandidates(ctx, false)
	require.NoError(t, err)
	assert.Len(t, cached, 1, "dismissed pair leaves the cached list")

	fresh, err := f.engine.OrganizationCandidates(ctx, true)
	require.NoError(t, err)
	assert.Len(t, fresh, 1, "dismissed pair is not regenerated")

	dismissed, err := f.engine.IsDismissed(ctx, f.stMarys, f.saintMarys)
	require.NoError(t, err)
	assert.True(t, dismissed)

	require.NoError(t, f.engine.ClearDismissals(ctx))
	again, err := f.engine.OrganizationCandidates(ctx, false)
	require.NoError(t, err)
	assert.Len(t, again, 2)
}

func TestMergeOrganizations(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	ctx := context.Background()

	_, err := f.engine.OrganizationCandidates(ctx, false)
	require.NoError(t, err)

	summary, err := f.engine.MergeOrganizations(ctx, f.missouri, f.mizzou)
	require.NoError(t, err)
	assert.Equal(t, []string{model.FieldCity}, summary.FilledFields)
	assert.Equal(t, 1, summary.DependentsMoved)

	keep, err := f.store.GetOrganization(ctx, f.missouri)
	require.NoError(t, err)
	assert.Equal(t, "Columbia", keep.City)
	assert.Equal(t, "SEC", keep.Conference)

	_, err = f.store.GetOrganization(ctx, f.mizzou)
	assert.True(t, errors.IsNotFound(err))

	deps, err := f.engine.Dependents(ctx, model.KindOrganization, f.missouri)
	require.NoError(t, err)
	assert.Len(t, deps, 2)

	cands, err := f.engine.OrganizationCandidates(ctx, false)
	require.NoError(t, err)
	for _, c := range cands {
		assert.False(t, c.Involves(f.mizzou), "candidate %s references a deleted record", c)
	}

	_, err = f.engine.MergeOrganizations(ctx, f.missouri, f.mizzou)
	assert.True(t, errors.IsStaleRecord(err))
}

func TestMergeContactsMovesAttendance(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	ctx := context.Background()

	_, err := f.engine.MergeOrganizations(ctx, f.missouri, f.mizzou)
	require.NoError(t, err)

	summary, err := f.engine.MergeContacts(ctx, f.bill, f.william)
	require.NoError(t, err)
	assert.Equal(t, model.KindAttendance, summary.DependentKind)
	assert.Equal(t, 1, summary.DependentsMoved)
	assert.Equal(t, []string{model.FieldEmail}, summary.FilledFields)

	deps, err := f.engine.Dependents(ctx, model.KindContact, f.bill)
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, "Spring Clinic", deps[0].Label)

	cands, err := f.engine.ContactCandidates(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestClusters(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	ctx := context.Background()
	require.NoError(t, f.store.InsertOrganization(ctx, &model.Organization{ID: "mo-3", Name: "The University of Missouri", State: "MO"}))

	clusters, err := f.engine.OrganizationClusters(ctx, true)
	require.NoError(t, err)
	require.Len(t, clusters, 2)
	assert.Len(t, clusters[0].Members, 3)
	assert.Len(t, clusters[1].Members, 2)
}

func TestComparisonLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.Generation.MaxComparisons = 3
	f := newFixture(t, opts)

	_, err := f.engine.OrganizationCandidates(context.Background(), false)
	assert.ErrorIs(t, err, errors.ErrComparisonLimit)

	opts.Generation.Blocking = dedupe.BlockState
	f = newFixture(t, opts)
	cands, err := f.engine.OrganizationCandidates(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, cands, 2)
}

func TestPhoneticBlockingKeepsAbbreviations(t *testing.T) {
	opts := DefaultOptions()
	opts.Generation.Blocking = dedupe.BlockPhonetic
	f := newFixture(t, opts)

	cands, err := f.engine.OrganizationCandidates(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, cands, 2)

	assert.Equal(t, phoneticKey("st mary's"), phoneticKey("saint mary's"))
	assert.Empty(t, phoneticKey(""))
}

type failingStore struct {
	*store.MemoryStore
}

func (failingStore) ListOrganizations(ctx context.Context) ([]model.Organization, error) {
	return nil, errors.New("database is locked")
}

func TestStoreFailureIsUnavailable(t *testing.T) {
	e := NewEngine(failingStore{store.NewMemoryStore()}, DefaultOptions())
	_, err := e.OrganizationCandidates(context.Background(), false)
	assert.True(t, errors.IsStoreUnavailable(err))
}

// pausingStore blocks the first ListOrganizations call after it has read
// the records, until release is closed.
type pausingStore struct {
	*store.MemoryStore
	once    sync.Once
	listed  chan struct{}
	release chan struct{}
}

func newPausingStore(s *store.MemoryStore) *pausingStore {
	return &pausingStore{MemoryStore: s, listed: make(chan struct{}), release: make(chan struct{})}
}

func (p *pausingStore) ListOrganizations(ctx context.Context) ([]model.Organization, error) {
	orgs, err := p.MemoryStore.ListOrganizations(ctx)
	p.once.Do(func() {
		close(p.listed)
		<-p.release
	})
	return orgs, err
}

// duringGeneration runs change while an organization generation pass is
// paused between reading records and caching its result.
func duringGeneration(t *testing.T, e *Engine, p *pausingStore, change func()) {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		_, err := e.OrganizationCandidates(context.Background(), false)
		done <- err
	}()
	<-p.listed
	change()
	close(p.release)
	require.NoError(t, <-done)
}

func TestMergeDuringGenerationIsNotCachedOver(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	ctx := context.Background()
	p := newPausingStore(f.store)
	e := NewEngine(p, DefaultOptions())

	duringGeneration(t, e, p, func() {
		_, err := e.MergeOrganizations(ctx, f.missouri, f.mizzou)
		require.NoError(t, err)
	})

	cands, err := e.OrganizationCandidates(ctx, false)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	for _, c := range cands {
		assert.False(t, c.Involves(f.mizzou), "candidate references deleted record: %s", c)
	}
}

func TestDismissDuringGenerationIsNotCachedOver(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	ctx := context.Background()
	p := newPausingStore(f.store)
	e := NewEngine(p, DefaultOptions())

	duringGeneration(t, e, p, func() {
		_, err := e.Dismiss(ctx, f.stMarys, f.saintMarys)
		require.NoError(t, err)
	})

	cands, err := e.OrganizationCandidates(ctx, false)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, model.PairKeyOf(f.missouri, f.mizzou), cands[0].Key)
}

func TestMergeIsLogged(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	_, err := f.engine.MergeOrganizations(ctx, f.missouri, f.mizzou)
	require.NoError(t, err)
	assert.True(t, tl.Contains("records merged"))
	assert.True(t, tl.Contains(f.mizzou))
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Generation.Blocking = "phonetic"
	cfg.Scoring.SameState = 5

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, dedupe.BlockPhonetic, opts.Generation.Blocking)
	assert.Equal(t, 5, opts.Weights.SameState)
	assert.Equal(t, 0.90, opts.Thresholds.SimilarityThreshold)

	cfg.Generation.Blocking = "soundex"
	_, err = OptionsFromConfig(cfg)
	assert.True(t, errors.IsValidationError(err))
}
