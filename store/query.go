package store

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is a serialized record as stored in DynamoDB.
type Item = map[string]types.AttributeValue

// Query is a parameterized PartiQL statement.
//
// Values are bound through Params and '?' placeholders. Statement text must be
// built only from trusted, system-generated parts (constant text, configured
// table and index names); never splice caller- or user-supplied values into it.
type Query struct {
	// Statement is the PartiQL statement, e.g. `SELECT * FROM "posts" WHERE "type" = ?`.
	Statement string

	// Params are the values bound to the statement's placeholders, in order.
	// Each value is marshaled with attributevalue.Marshal.
	Params []any

	// Limit caps the total number of items returned across all pages (0 = no cap).
	// The store stops paging once the cap is reached.
	Limit int32

	// ConsistentRead requests strongly consistent reads.
	ConsistentRead bool
}

// NewQuery returns a Query for statement with the given bound values.
func NewQuery(statement string, params ...any) Query {
	return Query{Statement: statement, Params: params}
}

// WithLimit returns a copy of q capped at n items.
func (q Query) WithLimit(n int32) Query {
	q.Limit = n
	return q
}

// Scope restricts a query to a single partition, or leaves it unscoped.
type Scope struct {
	key    string
	scoped bool
}

// Unscoped returns a scope spanning all partitions.
func Unscoped() Scope { return Scope{} }

// Partition returns a scope restricted to the partition with the given key.
func Partition(key string) Scope { return Scope{key: key, scoped: true} }

// Key returns the partition key and whether the scope is restricted.
func (s Scope) Key() (string, bool) { return s.key, s.scoped }

func (s Scope) String() string {
	if !s.scoped {
		return "unscoped"
	}
	return "partition:" + s.key
}

// PageState is the opaque continuation of a paged query.
type PageState struct {
	token     *string
	remaining int32
	page      int
}

// Page is one page of query results.
type Page struct {
	// Items are the raw items of this page.
	Items []Item

	// Cost is the capacity consumed by this page's request.
	Cost float64

	// Next continues the query; nil when the result set is exhausted.
	Next *PageState
}

// HasMore reports whether another page can be requested.
func (p *Page) HasMore() bool { return p.Next != nil }
