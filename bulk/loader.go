// Package bulk inserts batches of records into a partitioned store concurrently.
//
// Each record is written once. A failed write becomes a Failure entry in the
// batch Report and never affects the other writes; only problems found before
// any write is dispatched (unserializable records, a store that cannot be
// reached) fail the whole call. Retrying is left to the caller, who can pick
// the failed subset from the report.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/jacentio/feedbench/store"
)

var (
	// ErrInvalidRecord is returned when a record cannot be serialized or has no partition key.
	ErrInvalidRecord = errors.New("bulk: invalid record")

	// ErrStoreUnreachable is returned when the pre-dispatch store check fails.
	ErrStoreUnreachable = errors.New("bulk: store unreachable")
)

// Writer writes one serialized item under a partition key and returns its cost.
// *store.Store implements Writer. If a Writer also implements store.Pinger,
// InsertAll pings it once before dispatching writes.
type Writer interface {
	Write(ctx context.Context, item store.Item, partitionKey string) (float64, error)
}

type prepared struct {
	item store.Item
	key  string
}

// InsertAll writes every item concurrently, at most MaxInFlight at a time, and
// returns a report with one outcome per item.
//
// partitionKeyOf must be pure; it is called once per item before dispatch.
// An empty batch returns an empty report without touching the store.
//
// If ctx is canceled mid-batch, InsertAll stops dispatching, waits for
// in-flight writes, and returns the report together with an error wrapping
// store.ErrCanceled. What the report holds then depends on the CancelPolicy.
func InsertAll[T any](ctx context.Context, w Writer, items []T, partitionKeyOf func(T) string, opts ...Option) (*Report, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if len(items) == 0 {
		return &Report{}, nil
	}
	if w == nil {
		return nil, errors.New("bulk: writer is required")
	}
	if partitionKeyOf == nil {
		return nil, fmt.Errorf("%w: partition key function is required", ErrInvalidRecord)
	}

	batch := make([]prepared, len(items))
	for i, item := range items {
		p, err := prepare(item, partitionKeyOf)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %w", ErrInvalidRecord, i, err)
		}
		batch[i] = p
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrCanceled, err)
	}
	if p, ok := w.(store.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnreachable, err)
		}
	}

	return run(ctx, w, batch, o)
}

// prepare serializes item and derives its partition key.
func prepare[T any](item T, partitionKeyOf func(T) string) (p prepared, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("partition key function panicked: %v", r)
		}
	}()

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return prepared{}, fmt.Errorf("marshal: %w", err)
	}
	key := partitionKeyOf(item)
	if key == "" {
		return prepared{}, errors.New("empty partition key")
	}
	return prepared{item: av, key: key}, nil
}

func run(ctx context.Context, w Writer, batch []prepared, o options) (*Report, error) {
	start := time.Now()
	n := len(batch)

	workers := o.maxInFlight
	if workers <= 0 || workers > n {
		workers = n
	}

	o.logger.Info("starting bulk insert",
		"batch", o.name,
		"records", n,
		"workers", workers,
	)

	// Each slot is written by exactly one worker; wg.Wait publishes them.
	outcomes := make([]Outcome, n)
	for i := range outcomes {
		outcomes[i].Index = i
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = writeOne(ctx, w, i, batch[i], o.logger)
			}
		}()
	}

dispatch:
	for i := range batch {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	for i := range outcomes {
		if outcomes[i].Status == StatusPending {
			outcomes[i].Status = StatusCanceled
			outcomes[i].Err = fmt.Errorf("%w: not dispatched: %w", store.ErrCanceled, context.Cause(ctx))
		}
	}

	report := newReport(outcomes)
	report.Elapsed = time.Since(start)

	o.logger.Info("finished bulk insert",
		"batch", o.name,
		"total", report.Total,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"canceled", report.Canceled,
		"cost", report.Cost,
		"elapsed", report.Elapsed,
	)

	if report.Canceled == 0 {
		return report, nil
	}

	err := fmt.Errorf("%w: %d of %d writes not settled: %w", store.ErrCanceled, report.Canceled, n, context.Cause(ctx))
	if o.cancelPolicy == CancelDiscardSettled {
		return discardedReport(n, report.Elapsed, err), err
	}
	return report, err
}

func writeOne(ctx context.Context, w Writer, i int, p prepared, logger *slog.Logger) (oc Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("writer panicked",
				"index", i,
				"partitionKey", p.key,
				"panic", r,
			)
			oc = Outcome{Index: i, Status: StatusFailed, Err: fmt.Errorf("bulk: writer panicked: %v", r)}
		}
	}()

	cost, err := w.Write(ctx, p.item, p.key)
	if err == nil {
		return Outcome{Index: i, Status: StatusSucceeded, Cost: cost}
	}

	if ctx.Err() != nil && store.KindOf(err) == store.KindCanceled {
		return Outcome{Index: i, Status: StatusCanceled, Err: err}
	}

	var code string
	var se *store.Error
	if errors.As(err, &se) {
		code = se.Code
	}
	logger.Warn("write failed",
		"index", i,
		"partitionKey", p.key,
		"kind", store.KindOf(err),
		"code", code,
		"error", err,
	)
	return Outcome{Index: i, Status: StatusFailed, Err: err}
}
