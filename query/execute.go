// Package query runs paginated store queries to completion and accounts for
// the cost of every page.
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/jacentio/feedbench/store"
)

// ErrDecode is returned when a page's items cannot be decoded into the result type.
var ErrDecode = errors.New("query: decode items")

// Pager fetches one page of a query. *store.Store implements Pager.
type Pager interface {
	QueryPage(ctx context.Context, q store.Query, scope store.Scope, state *store.PageState) (*store.Page, error)
}

// Result is the complete result set of a query.
type Result[T any] struct {
	// Items are the decoded items of every page, in page order.
	Items []T

	// TotalCost is the sum of the cost of every page fetched.
	TotalCost float64

	// Pages is the number of pages fetched.
	Pages int
}

// Execute fetches every page of q within scope and returns the decoded items
// together with the summed page cost.
//
// Pages are fetched sequentially. Any page error, decode error or context
// cancellation fails the whole call; no partial result is returned.
// Cancellation errors wrap store.ErrCanceled.
func Execute[T any](ctx context.Context, p Pager, q store.Query, scope store.Scope) (*Result[T], error) {
	if p == nil {
		return nil, errors.New("query: pager is required")
	}

	res := &Result[T]{Items: []T{}}
	var state *store.PageState
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: after %d pages: %w", store.ErrCanceled, res.Pages, err)
		}

		page, err := p.QueryPage(ctx, q, scope, state)
		if err != nil {
			if !errors.Is(err, store.ErrCanceled) && (ctx.Err() != nil || store.KindOf(err) == store.KindCanceled) {
				return nil, fmt.Errorf("%w: page %d: %w", store.ErrCanceled, res.Pages+1, err)
			}
			return nil, fmt.Errorf("query: page %d: %w", res.Pages+1, err)
		}
		res.Pages++
		res.TotalCost += page.Cost

		if len(page.Items) > 0 {
			var items []T
			if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
				return nil, fmt.Errorf("%w: page %d: %w", ErrDecode, res.Pages, err)
			}
			res.Items = append(res.Items, items...)
		}

		if !page.HasMore() {
			return res, nil
		}
		state = page.Next
	}
}
