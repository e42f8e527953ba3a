package query

import (
	"context"
	"sync"

	"github.com/jacentio/feedbench/store"
)

// Meter accumulates the cost of a chain of queries, e.g. one primary query
// and the secondary lookups driven by its results. It is safe for concurrent use.
type Meter struct {
	mu      sync.Mutex
	total   float64
	queries int
	pages   int
}

// Add records one query that cost the given amount over the given number of pages.
func (m *Meter) Add(cost float64, pages int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total += cost
	m.queries++
	m.pages += pages
}

// AddResult records a completed query result.
func AddResult[T any](m *Meter, res *Result[T]) {
	if res == nil {
		return
	}
	m.Add(res.TotalCost, res.Pages)
}

// Total returns the accumulated cost.
func (m *Meter) Total() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// Queries returns the number of queries recorded.
func (m *Meter) Queries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries
}

// Pages returns the number of pages recorded across all queries.
func (m *Meter) Pages() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pages
}

// Track runs Execute and records the result in m.
// Failed queries are not recorded.
func Track[T any](ctx context.Context, m *Meter, p Pager, q store.Query, scope store.Scope) (*Result[T], error) {
	res, err := Execute[T](ctx, p, q, scope)
	if err != nil {
		return nil, err
	}
	AddResult(m, res)
	return res, nil
}
