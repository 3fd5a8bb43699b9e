package dedupe

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/errors"
)

type item struct {
	ID    string
	Name  string
	Group string
	State string
}

func (i item) RecordID() string       { return i.ID }
func (i item) RecordKind() model.Kind { return "item" }
func (i item) Label() string          { return i.Name }

// itemStrategy matches names case-insensitively (exact) or by shared first
// letter (fuzzy), scoring by the shared prefix length.
type itemStrategy struct{}

func (itemStrategy) Kind() model.Kind { return "item" }

func (itemStrategy) Prepare(i item) (string, error) {
	if strings.TrimSpace(i.Name) == "" {
		return "", errors.NewValidationError("name", i.ID, "name is required")
	}
	return strings.ToLower(i.Name), nil
}

func (itemStrategy) Compare(a, b string) (model.MatchType, int) {
	switch {
	case a == b:
		return model.MatchExact, 100
	case a[0] == b[0]:
		n := 0
		for n < len(a) && n < len(b) && a[n] == b[n] {
			n++
		}
		return model.MatchFuzzy, n
	}
	return model.MatchNone, 0
}

func (itemStrategy) PartitionKey(i item) string { return i.Group }

func (itemStrategy) BlockKey(i item, mode Blocking) string {
	if mode == BlockState {
		return i.State
	}
	return ""
}

func keys(cands []model.Candidate[item]) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = string(c.Key)
	}
	return out
}

func TestGenerateEnumeratesEachPairOnce(t *testing.T) {
	records := []item{
		{ID: "1", Name: "alpha"},
		{ID: "2", Name: "Alpha"},
		{ID: "3", Name: "alps"},
		{ID: "4", Name: "ALPHA"},
	}
	p := NewPipeline[item, string](itemStrategy{}, Options{Workers: 2})

	cands, stats, err := p.Generate(context.Background(), records, nil)
	require.NoError(t, err)

	want := []string{"1|2", "1|3", "1|4", "2|3", "2|4", "3|4"}
	if diff := cmp.Diff(want, keys(cands)); diff != "" {
		t.Errorf("candidate keys mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 6, stats.Comparisons)
	assert.Equal(t, 6, stats.Candidates)
	assert.Equal(t, model.MatchExact, cands[0].Match)
	assert.Equal(t, model.MatchFuzzy, cands[1].Match)
	assert.Equal(t, 3, cands[1].Score)
}

func TestGenerateRespectsPartitions(t *testing.T) {
	records := []item{
		{ID: "a1", Name: "bill", Group: "org-a"},
		{ID: "b1", Name: "bill", Group: "org-b"},
		{ID: "a2", Name: "bill", Group: "org-a"},
	}
	p := NewPipeline[item, string](itemStrategy{}, Options{})

	cands, stats, err := p.Generate(context.Background(), records, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1|a2"}, keys(cands))
	assert.Equal(t, 2, stats.Groups)
	assert.Equal(t, 1, stats.Comparisons)
}

func TestGenerateBlocking(t *testing.T) {
	records := []item{
		{ID: "1", Name: "rice", State: "TX"},
		{ID: "2", Name: "rice", State: "OK"},
		{ID: "3", Name: "Rice", State: "TX"},
	}

	unblocked := NewPipeline[item, string](itemStrategy{}, Options{Blocking: BlockNone})
	cands, _, err := unblocked.Generate(context.Background(), records, nil)
	require.NoError(t, err)
	assert.Len(t, cands, 3)

	blocked := NewPipeline[item, string](itemStrategy{}, Options{Blocking: BlockState})
	cands, stats, err := blocked.Generate(context.Background(), records, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1|3"}, keys(cands))
	assert.Equal(t, 1, stats.Comparisons)
}

func TestGenerateSkipsDismissed(t *testing.T) {
	records := []item{{ID: "1", Name: "x"}, {ID: "2", Name: "x"}, {ID: "3", Name: "x"}}
	dismissed := map[model.PairKey]struct{}{model.PairKeyOf("3", "1"): {}}
	p := NewPipeline[item, string](itemStrategy{}, Options{})

	cands, stats, err := p.Generate(context.Background(), records, dismissed)
	require.NoError(t, err)
	assert.Equal(t, []string{"1|2", "2|3"}, keys(cands))
	assert.Equal(t, 1, stats.Dismissed)
}

func TestGenerateComparisonLimit(t *testing.T) {
	records := []item{{ID: "1", Name: "x"}, {ID: "2", Name: "x"}, {ID: "3", Name: "x"}}

	p := NewPipeline[item, string](itemStrategy{}, Options{MaxComparisons: 2})
	_, _, err := p.Generate(context.Background(), records, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrComparisonLimit)

	var limitErr *errors.ComparisonLimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 3, limitErr.Pairs)
	assert.Equal(t, 2, limitErr.Limit)

	p = NewPipeline[item, string](itemStrategy{}, Options{MaxComparisons: 3})
	_, _, err = p.Generate(context.Background(), records, nil)
	assert.NoError(t, err)
}

func TestGenerateValidationFailsFast(t *testing.T) {
	records := []item{{ID: "1", Name: "x"}, {ID: "2", Name: " "}}
	p := NewPipeline[item, string](itemStrategy{}, Options{})

	_, _, err := p.Generate(context.Background(), records, nil)
	assert.True(t, errors.IsValidationError(err))
}

func TestGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []item{{ID: "1", Name: "x"}, {ID: "2", Name: "x"}}
	p := NewPipeline[item, string](itemStrategy{}, Options{})

	_, _, err := p.Generate(ctx, records, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateDeterministicAcrossWorkerCounts(t *testing.T) {
	var records []item
	for i := 0; i < 60; i++ {
		records = append(records, item{
			ID:   fmt.Sprintf("r%03d", i),
			Name: fmt.Sprintf("%c%d", 'a'+i%3, i%7),
		})
	}

	serial := NewPipeline[item, string](itemStrategy{}, Options{Workers: 1})
	parallel := NewPipeline[item, string](itemStrategy{}, Options{Workers: 8})

	want, _, err := serial.Generate(context.Background(), records, nil)
	require.NoError(t, err)
	got, _, err := parallel.Generate(context.Background(), records, nil)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parallel generation differs (-serial +parallel):\n%s", diff)
	}
}

func TestParseBlocking(t *testing.T) {
	for in, want := range map[string]Blocking{"": BlockNone, "none": BlockNone, "state": BlockState, "phonetic": BlockPhonetic} {
		got, err := ParseBlocking(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseBlocking("soundex")
	assert.True(t, errors.IsValidationError(err))
}

func cand(a, b string, score int) model.Candidate[item] {
	return model.Candidate[item]{
		Key:   model.PairKeyOf(a, b),
		A:     item{ID: a, Name: a},
		B:     item{ID: b, Name: b},
		Match: model.MatchFuzzy,
		Score: score,
	}
}

func TestRankIsStableDescending(t *testing.T) {
	in := []model.Candidate[item]{cand("a", "b", 10), cand("c", "d", 50), cand("e", "f", 10), cand("g", "h", 70)}

	ranked := Rank(in)
	assert.Equal(t, []string{"g|h", "c|d", "a|b", "e|f"}, keys(ranked))
	assert.Equal(t, "a|b", string(in[0].Key), "input must not be reordered")
}

func TestClusters(t *testing.T) {
	in := []model.Candidate[item]{
		cand("a", "b", 80),
		cand("c", "d", 40),
		cand("b", "e", 60),
	}

	clusters := Clusters(in)
	require.Len(t, clusters, 2)

	ids := func(c Cluster[item]) []string {
		var out []string
		for _, m := range c.Members {
			out = append(out, m.ID)
		}
		return out
	}
	assert.Equal(t, []string{"a", "b", "e"}, ids(clusters[0]))
	assert.Len(t, clusters[0].Pairs, 2)
	assert.Equal(t, 80, clusters[0].MaxScore)
	assert.Equal(t, []string{"c", "d"}, ids(clusters[1]))
	assert.Equal(t, 40, clusters[1].MaxScore)

	assert.Empty(t, Clusters[item](nil))
}

func TestListing(t *testing.T) {
	var l Listing[item]
	_, ok := l.Current()
	assert.False(t, ok)

	require.True(t, l.Set(l.Generation(), []model.Candidate[item]{cand("a", "b", 1), cand("c", "d", 2)}))
	got, ok := l.Current()
	require.True(t, ok)
	assert.Len(t, got, 2)

	assert.True(t, l.Forget(model.PairKeyOf("b", "a")))
	assert.False(t, l.Forget("x|y"))
	got, _ = l.Current()
	assert.Equal(t, []string{"c|d"}, keys(got))

	l.Invalidate()
	_, ok = l.Current()
	assert.False(t, ok)
}

func TestListingRejectsListFromOlderGeneration(t *testing.T) {
	var l Listing[item]
	list := []model.Candidate[item]{cand("a", "b", 1)}

	gen := l.Generation()
	l.Invalidate()
	assert.False(t, l.Set(gen, list))
	_, ok := l.Current()
	assert.False(t, ok)

	gen = l.Generation()
	l.Forget(model.PairKeyOf("a", "b"))
	assert.False(t, l.Set(gen, list), "a dismissal during generation must not be undone")

	assert.True(t, l.Set(l.Generation(), list))
	got, ok := l.Current()
	require.True(t, ok)
	assert.Equal(t, []string{"a|b"}, keys(got))
}
