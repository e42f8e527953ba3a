package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// API is the subset of the DynamoDB client used by Store.
// *dynamodb.Client satisfies it; tests substitute a mock.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	ExecuteStatement(ctx context.Context, params *dynamodb.ExecuteStatementInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ExecuteStatementOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Pinger is implemented by stores that can check reachability before work starts.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is a partitioned store client bound to one DynamoDB table.
// It is safe for concurrent use.
type Store struct {
	client API
	config Config
}

// New creates a new Store for the table named in config.
func New(client API, config Config) (*Store, error) {
	if client == nil {
		return nil, errors.New("store: client is required")
	}
	if config.Table == "" {
		return nil, errors.New("store: table is required")
	}
	config.validate()
	return &Store{
		client: client,
		config: config,
	}, nil
}

// Table returns the table this store writes to.
func (s *Store) Table() string {
	return s.config.Table
}

// PartitionKeyAttr returns the attribute holding the partition key.
func (s *Store) PartitionKeyAttr() string {
	return s.config.PartitionKeyAttr
}

// Ping checks that the table exists and the credentials can reach it.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.config.Table),
	})
	return classify("ping", err)
}

// Write stores a serialized item under partitionKey and returns the consumed capacity.
// Unless Config.Overwrite is set, an existing item with the same key fails with ErrConflict.
// Errors are classified: store-reported failures are *Error, cancellation wraps ErrCanceled.
func (s *Store) Write(ctx context.Context, item Item, partitionKey string) (float64, error) {
	if partitionKey == "" {
		return 0, fmt.Errorf("%w: empty partition key", ErrInvalidItem)
	}

	payload := make(Item, len(item)+1)
	for k, v := range item {
		payload[k] = v
	}
	payload[s.config.PartitionKeyAttr] = &types.AttributeValueMemberS{Value: partitionKey}

	input := &dynamodb.PutItemInput{
		TableName:              aws.String(s.config.Table),
		Item:                   payload,
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	}
	if !s.config.Overwrite {
		input.ConditionExpression = aws.String("attribute_not_exists(#pk)")
		input.ExpressionAttributeNames = map[string]string{"#pk": s.config.PartitionKeyAttr}
	}

	out, err := s.client.PutItem(ctx, input)
	if err != nil {
		return 0, classify("write", err)
	}
	return consumedUnits(out.ConsumedCapacity), nil
}

// QueryPage fetches one page of q. Pass nil state for the first page and the
// previous page's Next afterwards.
//
// A scoped query is restricted to the partition by a predicate on the
// partition key attribute; the key is bound as the statement's last parameter.
func (s *Store) QueryPage(ctx context.Context, q Query, scope Scope, state *PageState) (*Page, error) {
	statement, params, err := s.bind(q, scope)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.ExecuteStatementInput{
		Statement:              aws.String(statement),
		Parameters:             params,
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	}
	if q.ConsistentRead {
		input.ConsistentRead = aws.Bool(true)
	}

	remaining := q.Limit
	pageNum := 1
	if state != nil {
		input.NextToken = state.token
		remaining = state.remaining
		pageNum = state.page + 1
	}
	if q.Limit > 0 {
		input.Limit = aws.Int32(remaining)
	}

	out, err := s.client.ExecuteStatement(ctx, input)
	if err != nil {
		return nil, classify("query", err)
	}

	items := out.Items
	if q.Limit > 0 {
		if int32(len(items)) > remaining {
			items = items[:remaining]
		}
		remaining -= int32(len(items))
	}

	page := &Page{
		Items: items,
		Cost:  consumedUnits(out.ConsumedCapacity),
	}
	if out.NextToken != nil && (q.Limit == 0 || remaining > 0) {
		page.Next = &PageState{
			token:     out.NextToken,
			remaining: remaining,
			page:      pageNum,
		}
	}
	return page, nil
}

// bind validates q and returns the statement and marshaled parameters for scope.
func (s *Store) bind(q Query, scope Scope) (string, []types.AttributeValue, error) {
	if q.Statement == "" {
		return "", nil, fmt.Errorf("%w: empty statement", ErrInvalidQuery)
	}
	if q.Limit < 0 {
		return "", nil, fmt.Errorf("%w: negative limit %d", ErrInvalidQuery, q.Limit)
	}

	statement := q.Statement
	values := q.Params
	if key, scoped := scope.Key(); scoped {
		if key == "" {
			return "", nil, fmt.Errorf("%w: empty partition key in scope", ErrInvalidQuery)
		}
		statement = scopeStatement(statement, s.config.PartitionKeyAttr)
		values = append(append([]any(nil), q.Params...), key)
	}

	if len(values) == 0 {
		return statement, nil, nil
	}
	params := make([]types.AttributeValue, 0, len(values))
	for i, v := range values {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return "", nil, fmt.Errorf("%w: marshal parameter %d: %w", ErrInvalidQuery, i, err)
		}
		params = append(params, av)
	}
	return statement, params, nil
}

// consumedUnits extracts total capacity units; 0 when the store did not report them.
func consumedUnits(cc *types.ConsumedCapacity) float64 {
	if cc == nil {
		return 0
	}
	return aws.ToFloat64(cc.CapacityUnits)
}
