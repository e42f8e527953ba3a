package bulk

import (
	"errors"
	"fmt"
	"time"

	"github.com/jacentio/feedbench/store"
)

// Status is the settled state of one write.
type Status int

// Write states. StatusPending never appears in a returned report.
const (
	StatusPending Status = iota
	StatusSucceeded
	StatusFailed
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusCanceled:
		return "canceled"
	default:
		return "pending"
	}
}

// Outcome is the result of writing one item.
type Outcome struct {
	// Index is the item's position in the submitted batch.
	Index int

	Status Status

	// Err is set for failed and canceled writes.
	Err error

	// Cost is the capacity consumed by a successful write.
	Cost float64
}

// Failure describes one failed write.
type Failure struct {
	// Index is the item's position in the submitted batch.
	Index int

	// Kind is the store error kind; KindUnknown for transport failures.
	Kind store.ErrorKind

	// Code is the store's error code; empty for transport failures.
	Code string

	// StatusCode is the HTTP status of the failed response, 0 if unknown.
	StatusCode int

	// Message describes the failure.
	Message string

	// StoreReported is true when the store answered with an error code,
	// false for transport failures that carry only a message.
	StoreReported bool

	// Retryable is true for store-reported conflict and throttling failures.
	Retryable bool
}

func newFailure(oc Outcome) Failure {
	f := Failure{
		Index:         oc.Index,
		Kind:          store.KindOf(oc.Err),
		Message:       oc.Err.Error(),
		StoreReported: store.IsStoreReported(oc.Err),
		Retryable:     store.IsRetryable(oc.Err),
	}
	var se *store.Error
	if errors.As(oc.Err, &se) {
		f.Code = se.Code
		f.StatusCode = se.StatusCode
		f.Message = se.Message
	}
	return f
}

// Report is the accounting of one InsertAll call.
// Succeeded + Failed + Canceled == Total.
type Report struct {
	Total     int
	Succeeded int
	Failed    int
	Canceled  int

	// Failures lists failed writes in item order.
	Failures []Failure

	// Outcomes holds one entry per item, in item order.
	Outcomes []Outcome

	// Cost is the capacity consumed by successful writes.
	Cost float64

	// Elapsed is the wall-clock time spent dispatching and settling writes.
	Elapsed time.Duration

	// Discarded is set when a canceled batch dropped its settled outcomes
	// (CancelDiscardSettled); every entry in Outcomes is then StatusCanceled.
	Discarded bool
}

func newReport(outcomes []Outcome) *Report {
	r := &Report{
		Total:    len(outcomes),
		Outcomes: outcomes,
	}
	for _, oc := range outcomes {
		switch oc.Status {
		case StatusSucceeded:
			r.Succeeded++
			r.Cost += oc.Cost
		case StatusFailed:
			r.Failed++
			r.Failures = append(r.Failures, newFailure(oc))
		case StatusCanceled:
			r.Canceled++
		}
	}
	return r
}

// discardedReport marks every item canceled, so UnsettledIndexes covers the whole batch.
func discardedReport(n int, elapsed time.Duration, cause error) *Report {
	outcomes := make([]Outcome, n)
	for i := range outcomes {
		outcomes[i] = Outcome{Index: i, Status: StatusCanceled, Err: cause}
	}
	return &Report{
		Total:     n,
		Canceled:  n,
		Outcomes:  outcomes,
		Elapsed:   elapsed,
		Discarded: true,
	}
}

// FailedIndexes returns the indexes of failed items.
func (r *Report) FailedIndexes() []int {
	idx := make([]int, 0, len(r.Failures))
	for _, f := range r.Failures {
		idx = append(idx, f.Index)
	}
	return idx
}

// RetryableIndexes returns the indexes of items whose failure is retryable.
func (r *Report) RetryableIndexes() []int {
	var idx []int
	for _, f := range r.Failures {
		if f.Retryable {
			idx = append(idx, f.Index)
		}
	}
	return idx
}

// UnsettledIndexes returns the indexes of items canceled before settling.
func (r *Report) UnsettledIndexes() []int {
	var idx []int
	for _, oc := range r.Outcomes {
		if oc.Status == StatusCanceled {
			idx = append(idx, oc.Index)
		}
	}
	return idx
}

func (r *Report) String() string {
	return fmt.Sprintf("total=%d succeeded=%d failed=%d canceled=%d cost=%.2f",
		r.Total, r.Succeeded, r.Failed, r.Canceled, r.Cost)
}

// Select returns the items at the given indexes, e.g. to retry a failed subset.
func Select[T any](items []T, indexes []int) []T {
	out := make([]T, 0, len(indexes))
	for _, i := range indexes {
		if i >= 0 && i < len(items) {
			out = append(out, items[i])
		}
	}
	return out
}
