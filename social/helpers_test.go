package social_test

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/feedbench/store"
)

// memTable is an in-memory table that understands the statements the
// measured chain issues. It serves results pageSize items at a time.
type memTable struct {
	pageSize int

	// cost prices every page; nil means 1 unit per page.
	cost func(q store.Query, scope store.Scope) float64

	// fail, when set, fails matching queries.
	fail func(q store.Query, scope store.Scope) error

	mu      sync.Mutex
	items   []store.Item
	keys    []string
	cursors map[*store.PageState]cursor
	queries int
}

type cursor struct {
	offset int
}

func newMemTable(pageSize int) *memTable {
	return &memTable{pageSize: pageSize, cursors: map[*store.PageState]cursor{}}
}

func (m *memTable) Write(_ context.Context, item store.Item, key string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make(store.Item, len(item)+1)
	for k, v := range item {
		stored[k] = v
	}
	stored["pk"] = &types.AttributeValueMemberS{Value: key}
	m.items = append(m.items, stored)
	m.keys = append(m.keys, key)
	return 1, nil
}

func (m *memTable) QueryPage(ctx context.Context, q store.Query, scope store.Scope, state *store.PageState) (*store.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.fail != nil {
		if err := m.fail(q, scope); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	offset := 0
	if state != nil {
		c, ok := m.cursors[state]
		if !ok {
			return nil, errors.New("unknown page state")
		}
		offset = c.offset
	} else {
		m.queries++
	}

	matched := m.match(q, scope)
	if q.Limit > 0 && len(matched) > int(q.Limit) {
		matched = matched[:q.Limit]
	}

	end := min(offset+m.pageSize, len(matched))
	page := &store.Page{Items: matched[offset:end], Cost: 1}
	if m.cost != nil {
		page.Cost = m.cost(q, scope)
	}
	if end < len(matched) {
		page.Next = &store.PageState{}
		m.cursors[page.Next] = cursor{offset: end}
	}
	return page, nil
}

func (m *memTable) match(q store.Query, scope store.Scope) []store.Item {
	key, scoped := scope.Key()
	var out []store.Item
	for _, item := range m.items {
		if scoped && str(item, "pk") != key {
			continue
		}
		switch {
		case strings.Contains(q.Statement, `"timeline_shard" = ?`):
			if str(item, "timeline_shard") != q.Params[0] {
				continue
			}
		case strings.Contains(q.Statement, `"type" = ?`):
			if str(item, "type") != q.Params[0] {
				continue
			}
		}
		out = append(out, item)
	}
	if strings.Contains(q.Statement, `ORDER BY "creation_date" DESC`) {
		slices.SortStableFunc(out, func(a, b store.Item) int {
			return cmp.Compare(num(b, "creation_date"), num(a, "creation_date"))
		})
	}
	return out
}

func (m *memTable) queryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries
}

func str(item store.Item, attr string) string {
	if v, ok := item[attr].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func num(item store.Item, attr string) int64 {
	if v, ok := item[attr].(*types.AttributeValueMemberN); ok {
		n, _ := strconv.ParseInt(v.Value, 10, 64)
		return n
	}
	return 0
}

func mustMarshal(t *testing.T, v any) store.Item {
	t.Helper()
	item, err := attributevalue.MarshalMap(v)
	require.NoError(t, err)
	return item
}
