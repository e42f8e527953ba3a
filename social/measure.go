package social

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jacentio/feedbench/query"
	"github.com/jacentio/feedbench/store"
)

// Defaults for the measured query chain.
const (
	DefaultTopPosts    = 100
	DefaultConcurrency = 8
)

// Sources are the readers for the two tables. Scoped queries against Users
// are restricted to a user's partition, against Posts to a post's partition.
type Sources struct {
	Users query.Pager
	Posts query.Pager
}

// MeasureConfig tunes the measured query chain.
type MeasureConfig struct {
	// TopPosts is the number of most recent posts the chain starts from.
	TopPosts int

	// Concurrency bounds how many posts have their lookups in flight at once.
	Concurrency int

	Logger *slog.Logger
}

// DefaultMeasureConfig returns the standard chain settings.
func DefaultMeasureConfig() MeasureConfig {
	return MeasureConfig{
		TopPosts:    DefaultTopPosts,
		Concurrency: DefaultConcurrency,
	}
}

func (c *MeasureConfig) validate() {
	if c.TopPosts <= 0 {
		c.TopPosts = DefaultTopPosts
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// PostSummary is what the chain learns about one post.
type PostSummary struct {
	PostID       string    `json:"postId" yaml:"postId"`
	Author       string    `json:"author" yaml:"author"`
	CreationDate time.Time `json:"creationDate" yaml:"creationDate"`
	Comments     int       `json:"comments" yaml:"comments"`
	Likes        int       `json:"likes" yaml:"likes"`
}

// Measurement is the outcome of one run of the chain.
type Measurement struct {
	Posts     []PostSummary `json:"posts" yaml:"posts"`
	TotalCost float64       `json:"totalCost" yaml:"totalCost"`
	Queries   int           `json:"queries" yaml:"queries"`
	Pages     int           `json:"pages" yaml:"pages"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
}

func (m *Measurement) String() string {
	return fmt.Sprintf("total cost %.2f over %d queries (%d pages) in %s", m.TotalCost, m.Queries, m.Pages, m.Elapsed)
}

type idOnly struct {
	ID string `dynamodbav:"id"`
}

type username struct {
	Username string `dynamodbav:"username"`
}

// Statements of the chain. Identifier values are always bound parameters.
func timelineStatement(l Layout) string {
	return fmt.Sprintf(`SELECT * FROM %s.%s WHERE "timeline_shard" = ? ORDER BY "creation_date" DESC`,
		quoteIdent(l.PostsTable), quoteIdent(l.TimelineIndex))
}

func typeStatement(l Layout) string {
	return fmt.Sprintf(`SELECT "id" FROM %s WHERE "type" = ?`, quoteIdent(l.PostsTable))
}

func usernameStatement(l Layout) string {
	return fmt.Sprintf(`SELECT "username" FROM %s`, quoteIdent(l.UsersTable))
}

// Measure runs the chain and reports its summed cost: one primary query for
// the most recent posts, fanned out over the timeline shards, then for every
// post a comment count, a like count and an author lookup, each scoped to a
// single partition.
//
// Any query failure fails the whole measurement.
func Measure(ctx context.Context, src Sources, layout Layout, cfg MeasureConfig) (*Measurement, error) {
	if src.Users == nil || src.Posts == nil {
		return nil, errors.New("social: users and posts readers are required")
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	cfg.validate()

	start := time.Now()
	var meter query.Meter

	posts, err := recentPosts(ctx, src.Posts, layout, cfg, &meter)
	if err != nil {
		return nil, err
	}

	summaries, err := summarize(ctx, src, layout, cfg, posts, &meter)
	if err != nil {
		return nil, err
	}

	m := &Measurement{
		Posts:     summaries,
		TotalCost: meter.Total(),
		Queries:   meter.Queries(),
		Pages:     meter.Pages(),
		Elapsed:   time.Since(start),
	}
	cfg.Logger.Info("measurement completed",
		"posts", len(m.Posts),
		"totalCost", m.TotalCost,
		"queries", m.Queries,
		"elapsed", m.Elapsed,
	)
	return m, nil
}

// recentPosts queries every timeline shard for its newest posts and merges
// them into the overall newest cfg.TopPosts.
func recentPosts(ctx context.Context, p query.Pager, layout Layout, cfg MeasureConfig, meter *query.Meter) ([]Post, error) {
	statement := timelineStatement(layout)
	shards := layout.TimelineShards()
	perShard := make([][]Post, len(shards))
	err := fanOut(ctx, len(shards), cfg.Concurrency, func(ctx context.Context, i int) error {
		res, err := query.Track[Post](ctx, meter, p, store.NewQuery(statement, shards[i]).WithLimit(int32(cfg.TopPosts)), store.Unscoped())
		if err != nil {
			return fmt.Errorf("social: timeline shard %s: %w", shards[i], err)
		}
		perShard[i] = res.Items
		return nil
	})
	if err != nil {
		return nil, err
	}

	var posts []Post
	for _, items := range perShard {
		posts = append(posts, items...)
	}
	slices.SortStableFunc(posts, func(a, b Post) int {
		return cmp.Compare(b.CreationDate.UnixNano(), a.CreationDate.UnixNano())
	})
	if len(posts) > cfg.TopPosts {
		posts = posts[:cfg.TopPosts]
	}
	return posts, nil
}

func summarize(ctx context.Context, src Sources, layout Layout, cfg MeasureConfig, posts []Post, meter *query.Meter) ([]PostSummary, error) {
	for _, p := range posts {
		if err := ValidateID("post id", p.ID); err != nil {
			return nil, err
		}
		if err := ValidateID("author id", p.UserID); err != nil {
			return nil, err
		}
	}

	comments := store.NewQuery(typeStatement(layout), TypeComment)
	likes := store.NewQuery(typeStatement(layout), TypeLike)
	author := store.NewQuery(usernameStatement(layout))

	summaries := make([]PostSummary, len(posts))
	err := fanOut(ctx, len(posts), cfg.Concurrency, func(ctx context.Context, i int) error {
		post := posts[i]
		postScope := store.Partition(post.ID.String())

		c, err := query.Track[idOnly](ctx, meter, src.Posts, comments, postScope)
		if err != nil {
			return fmt.Errorf("social: comments of post %s: %w", post.ID, err)
		}
		l, err := query.Track[idOnly](ctx, meter, src.Posts, likes, postScope)
		if err != nil {
			return fmt.Errorf("social: likes of post %s: %w", post.ID, err)
		}
		u, err := query.Track[username](ctx, meter, src.Users, author, store.Partition(post.UserID.String()))
		if err != nil {
			return fmt.Errorf("social: author of post %s: %w", post.ID, err)
		}

		s := PostSummary{
			PostID:       post.ID.String(),
			CreationDate: post.CreationDate,
			Comments:     len(c.Items),
			Likes:        len(l.Items),
		}
		if len(u.Items) > 0 {
			s.Author = u.Items[0].Username
		}
		summaries[i] = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// fanOut calls fn for 0..n-1 with at most limit calls in flight. The first
// error cancels the remaining calls and is returned.
func fanOut(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once     sync.Once
		firstErr error
		wg       sync.WaitGroup
	)
	jobs := make(chan int)
	for range limit {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := fn(ctx, i); err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
				}
			}
		}()
	}

	dispatched := 0
dispatch:
	for i := range n {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
			dispatched++
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if dispatched < n {
		return fmt.Errorf("%w: %d of %d lookups not started: %w", store.ErrCanceled, n-dispatched, n, context.Cause(ctx))
	}
	return nil
}
