package social

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jacentio/feedbench/bulk"
)

// Targets are the writers for the two tables.
type Targets struct {
	Users bulk.Writer
	Posts bulk.Writer
}

// SeedReport holds the bulk report of every stage that ran.
type SeedReport struct {
	Users    *bulk.Report
	Posts    *bulk.Report
	Comments *bulk.Report
	Likes    *bulk.Report
}

// Stages returns the reports of the stages that ran, in seeding order.
func (r *SeedReport) Stages() []Stage {
	var out []Stage
	for _, s := range []Stage{
		{Name: "users", Report: r.Users},
		{Name: "posts", Report: r.Posts},
		{Name: "comments", Report: r.Comments},
		{Name: "likes", Report: r.Likes},
	} {
		if s.Report != nil {
			out = append(out, s)
		}
	}
	return out
}

// Stage is one record type's bulk report.
type Stage struct {
	Name   string
	Report *bulk.Report
}

// Cost returns the capacity consumed across all stages.
func (r *SeedReport) Cost() float64 {
	var total float64
	for _, s := range r.Stages() {
		total += s.Report.Cost
	}
	return total
}

// Failed returns the number of failed writes across all stages.
func (r *SeedReport) Failed() int {
	var n int
	for _, s := range r.Stages() {
		n += s.Report.Failed
	}
	return n
}

// Seed writes d in dependency order: users, posts, comments, likes.
// Failed writes are recorded in each stage's report and do not stop seeding.
// A stage that fails as a whole (invalid records, store unreachable,
// cancellation) stops seeding; the report holds the stages that ran.
func Seed(ctx context.Context, t Targets, d *Dataset, logger *slog.Logger, opts ...bulk.Option) (*SeedReport, error) {
	if t.Users == nil || t.Posts == nil {
		return nil, errors.New("social: users and posts writers are required")
	}
	if d == nil {
		return nil, errors.New("social: dataset is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]bulk.Option{bulk.WithLogger(logger)}, opts...)

	report := &SeedReport{}
	var err error

	report.Users, err = bulk.InsertAll(ctx, t.Users, d.Users, UserKey, append(opts, bulk.WithName("users"))...)
	if err != nil {
		return report, fmt.Errorf("social: seed users: %w", err)
	}
	report.Posts, err = bulk.InsertAll(ctx, t.Posts, d.Posts, PostKey, append(opts, bulk.WithName("posts"))...)
	if err != nil {
		return report, fmt.Errorf("social: seed posts: %w", err)
	}
	report.Comments, err = bulk.InsertAll(ctx, t.Posts, d.Comments, CommentKey, append(opts, bulk.WithName("comments"))...)
	if err != nil {
		return report, fmt.Errorf("social: seed comments: %w", err)
	}
	report.Likes, err = bulk.InsertAll(ctx, t.Posts, d.Likes, LikeKey, append(opts, bulk.WithName("likes"))...)
	if err != nil {
		return report, fmt.Errorf("social: seed likes: %w", err)
	}

	logger.Info("seeding completed",
		"records", d.Size(),
		"failed", report.Failed(),
		"cost", report.Cost(),
	)
	return report, nil
}
