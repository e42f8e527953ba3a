package bulk

import "log/slog"

// DefaultMaxInFlight is the default ceiling on concurrent writes.
const DefaultMaxInFlight = 64

// CancelPolicy decides what a canceled batch reports.
type CancelPolicy int

const (
	// CancelReportSettled keeps the outcomes of writes that settled before
	// cancellation; unsettled items are reported as StatusCanceled.
	CancelReportSettled CancelPolicy = iota

	// CancelDiscardSettled drops all settled outcomes: the report marks every
	// item canceled and sets Discarded. Writes that settled before cancellation may
	// still have been applied by the store.
	CancelDiscardSettled
)

type options struct {
	maxInFlight  int
	cancelPolicy CancelPolicy
	logger       *slog.Logger
	name         string
}

func defaultOptions() options {
	return options{
		maxInFlight:  DefaultMaxInFlight,
		cancelPolicy: CancelReportSettled,
		logger:       slog.Default(),
	}
}

// Option configures InsertAll.
type Option func(*options)

// WithMaxInFlight sets the ceiling on concurrent writes.
// n <= 0 removes the ceiling: every item's write is submitted at once.
func WithMaxInFlight(n int) Option {
	return func(o *options) {
		o.maxInFlight = n
	}
}

// WithCancelPolicy sets what a canceled batch reports.
func WithCancelPolicy(p CancelPolicy) Option {
	return func(o *options) {
		o.cancelPolicy = p
	}
}

// WithLogger sets the logger for batch progress and per-item failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName labels the batch in log records (e.g. the record type).
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}
