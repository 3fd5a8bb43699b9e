package driver

import (
	"context"
	"strings"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// MockDriver records executed queries and answers them from a script of
// results matched by query text.
type MockDriver struct {
	mu       sync.Mutex
	Executed []ExecutedQuery
	// Results maps a query constant to the results returned for it, in
	// order. The last result repeats once the list is exhausted.
	Results map[string][]neo4j.EagerResult
	// Errors fails the named query.
	Errors map[string]error
}

type ExecutedQuery struct {
	Query  string
	Params map[string]any
}

func NewMockDriver() *MockDriver {
	return &MockDriver{
		Results: make(map[string][]neo4j.EagerResult),
		Errors:  make(map[string]error),
	}
}

// On queues result for query.
func (m *MockDriver) On(query string, result neo4j.EagerResult) *MockDriver {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Results[query] = append(m.Results[query], result)
	return m
}

// Fail makes query return err.
func (m *MockDriver) Fail(query string, err error) *MockDriver {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[query] = err
	return m
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Executed = append(m.Executed, ExecutedQuery{Query: query, Params: params})
	if err := m.Errors[query]; err != nil {
		return neo4j.EagerResult{}, err
	}
	queue := m.Results[query]
	if len(queue) == 0 {
		return neo4j.EagerResult{}, nil
	}
	res := queue[0]
	if len(queue) > 1 {
		m.Results[query] = queue[1:]
	}
	return res, nil
}

// Ran reports how many times a query containing fragment was executed.
func (m *MockDriver) Ran(fragment string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, q := range m.Executed {
		if strings.Contains(q.Query, fragment) {
			n++
		}
	}
	return n
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}

// Rows builds an EagerResult with one record per row.
func Rows(keys []string, rows ...[]any) neo4j.EagerResult {
	res := neo4j.EagerResult{Keys: keys}
	for _, values := range rows {
		res.Records = append(res.Records, &neo4j.Record{Keys: keys, Values: values})
	}
	return res
}
