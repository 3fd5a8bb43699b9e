package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/roster/internal/core"
	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/errors"
	"github.com/agenthands/roster/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router *gin.Engine
	store  *store.MemoryStore

	missouri, mizzou, rice string
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()

	env := &testEnv{store: s}
	for _, o := range []*model.Organization{
		{ID: "org-1", Name: "University of Missouri", State: "MO"},
		{ID: "org-2", Name: "Missouri", State: "MO", City: "Columbia"},
		{ID: "org-3", Name: "Rice", State: "TX"},
	} {
		require.NoError(t, s.InsertOrganization(ctx, o))
	}
	env.missouri, env.mizzou, env.rice = "org-1", "org-2", "org-3"
	require.NoError(t, s.InsertContact(ctx, &model.Contact{ID: "c-1", OrganizationID: "org-2", FirstName: "Bill", LastName: "Smith"}))

	srv := NewServer(core.NewEngine(s, core.DefaultOptions()), 0)
	env.router = srv.SetupRouter()
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthSetsRequestID(t *testing.T) {
	env := setup(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestCandidatesAndDismiss(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodGet, "/candidates/organizations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["count"])

	w = env.do(t, http.MethodPost, "/dismissals", PairRequest{AID: env.mizzou, BID: env.missouri})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "org-1|org-2", decode(t, w)["key"])

	w = env.do(t, http.MethodGet, "/dismissals/check?a=org-1&b=org-2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["dismissed"])

	w = env.do(t, http.MethodGet, "/candidates/organizations?refresh=true", nil)
	assert.EqualValues(t, 0, decode(t, w)["count"])

	w = env.do(t, http.MethodDelete, "/dismissals", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/candidates/organizations", nil)
	assert.EqualValues(t, 1, decode(t, w)["count"])
}

func TestDismissRejectsSelfPair(t *testing.T) {
	env := setup(t)
	w := env.do(t, http.MethodPost, "/dismissals", PairRequest{AID: "org-1", BID: "org-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/dismissals", map[string]string{"a_id": "org-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMergeOrganizations(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/merge/organizations", MergeRequest{KeepID: env.missouri, DiscardID: env.mizzou})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary model.MergeSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, []string{"city"}, summary.FilledFields)
	assert.Equal(t, 1, summary.DependentsMoved)

	w = env.do(t, http.MethodGet, "/dependents/organizations/"+env.missouri, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["dependents"], 1)

	w = env.do(t, http.MethodPost, "/merge/organizations", MergeRequest{KeepID: env.missouri, DiscardID: env.mizzou})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestClusters(t *testing.T) {
	env := setup(t)
	w := env.do(t, http.MethodGet, "/clusters/organizations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["clusters"], 1)

	w = env.do(t, http.MethodGet, "/clusters/widgets", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		partial bool
	}{
		{"validation", errors.NewValidationError("name", "", "required"), http.StatusBadRequest, false},
		{"stale", errors.NewStaleRecordError("organization", "x"), http.StatusConflict, false},
		{"in flight", &errors.MergeInFlightError{ID: "x"}, http.StatusConflict, false},
		{"limit", &errors.ComparisonLimitError{Kind: "organization", Pairs: 10, Limit: 5}, http.StatusUnprocessableEntity, false},
		{"unavailable", errors.NewStoreUnavailableError("list", errors.New("down")), http.StatusServiceUnavailable, false},
		{"partial", &errors.PartialMergeError{
			Completed: []string{"reconcile fields"},
			Failed:    "delete discard",
			Err:       errors.NewStoreUnavailableError("delete discard", errors.New("down")),
		}, http.StatusInternalServerError, true},
		{"other", errors.New("boom"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			writeError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			if tt.partial {
				assert.Equal(t, true, body["partial"])
				assert.Equal(t, "delete discard", body["failed"])
			} else {
				assert.NotContains(t, body, "partial")
			}
		})
	}
}
