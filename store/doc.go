// Package store provides a partitioned store client over DynamoDB.
//
// A [Store] is bound to one table and exposes the two operations the bulk
// loader and the query executor need:
//
//	Write(ctx, item, partitionKey) (cost, error)
//	QueryPage(ctx, query, scope, state) (*Page, error)
//
// Every call reports the capacity units it consumed, which is the cost metric
// accumulated by the query package.
//
// # Queries
//
// Queries are parameterized PartiQL statements. Values are bound with '?'
// placeholders; statement text is built only from trusted parts:
//
//	q := store.NewQuery(`SELECT "id" FROM "posts" WHERE "type" = ?`, "comment")
//	page, err := s.QueryPage(ctx, q, store.Partition(postID), nil)
//
// A [Partition] scope adds a predicate on the partition key attribute and
// binds the key as the last parameter. [Unscoped] queries span all partitions.
//
// # Errors
//
// Store-reported failures are returned as [*Error] with an [ErrorKind]:
//
//   - [ErrConflict] - item with the same key already exists
//   - [ErrThrottled] - throughput exceeded
//   - [ErrPayloadTooLarge] - item exceeds the size limit
//   - [ErrNotFound] - table or index missing
//   - [ErrUnauthorized] - bad or insufficient credentials
//   - [ErrUnknown] - any other service error
//
// Cancellation wraps [ErrCanceled]. Failures without a service response
// (transport errors) are plain wrapped errors; see [IsStoreReported].
package store
