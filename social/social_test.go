package social_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/feedbench/bulk"
	"github.com/jacentio/feedbench/social"
	"github.com/jacentio/feedbench/store"
)

var clock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func smallCounts() social.Counts {
	return social.Counts{Users: 5, Posts: 20, Comments: 40, Likes: 60}
}

func generate(t *testing.T, layout social.Layout, c social.Counts) *social.Dataset {
	t.Helper()
	d, err := social.NewGenerator(layout, 42, clock).Generate(c)
	require.NoError(t, err)
	return d
}

func TestDefaultCounts(t *testing.T) {
	c := social.DefaultCounts()
	assert.Equal(t, social.Counts{Users: 100, Posts: 500, Comments: 2000, Likes: 5000}, c)
}

func TestGenerate(t *testing.T) {
	layout := social.DefaultLayout()
	layout.NumShards = 4
	d := generate(t, layout, smallCounts())

	require.Len(t, d.Users, 5)
	require.Len(t, d.Posts, 20)
	require.Len(t, d.Comments, 40)
	require.Len(t, d.Likes, 60)
	assert.Equal(t, 125, d.Size())

	users := map[strfmt.UUID]bool{}
	for _, u := range d.Users {
		assert.True(t, strfmt.IsUUID(u.ID.String()), "user id %q", u.ID)
		assert.NotEmpty(t, u.Username)
		users[u.ID] = true
	}

	posts := map[strfmt.UUID]bool{}
	shards := layout.TimelineShards()
	for _, p := range d.Posts {
		assert.NoError(t, social.ValidateID("post", p.ID))
		assert.Equal(t, p.ID, p.PostID)
		assert.Equal(t, social.TypePost, p.Type)
		assert.True(t, users[p.UserID], "post author must be a generated user")
		assert.Contains(t, shards, p.TimelineShard)
		assert.Equal(t, layout.TimelineShard(p.ID.String()), p.TimelineShard)
		assert.False(t, p.CreationDate.After(clock))
		assert.NotEmpty(t, p.Content)
		posts[p.ID] = true
	}
	for _, c := range d.Comments {
		assert.Equal(t, social.TypeComment, c.Type)
		assert.True(t, posts[c.PostID], "comment must reference a generated post")
		assert.True(t, users[c.UserID])
	}
	for _, l := range d.Likes {
		assert.Equal(t, social.TypeLike, l.Type)
		assert.True(t, posts[l.PostID], "like must reference a generated post")
		assert.True(t, users[l.UserID])
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	layout := social.DefaultLayout()
	a := generate(t, layout, smallCounts())
	b := generate(t, layout, smallCounts())
	assert.Equal(t, a, b)

	other, err := social.NewGenerator(layout, 7, clock).Generate(smallCounts())
	require.NoError(t, err)
	assert.NotEqual(t, a.Users[0].ID, other.Users[0].ID)
}

func TestGenerate_InvalidCounts(t *testing.T) {
	g := social.NewGenerator(social.DefaultLayout(), 1, clock)

	tests := []struct {
		name   string
		counts social.Counts
	}{
		{"negative", social.Counts{Users: -1}},
		{"posts without users", social.Counts{Posts: 3}},
		{"comments without posts", social.Counts{Users: 2, Comments: 3}},
		{"likes without posts", social.Counts{Users: 2, Likes: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Generate(tt.counts)
			assert.Error(t, err)
		})
	}

	d, err := g.Generate(social.Counts{})
	require.NoError(t, err)
	assert.Zero(t, d.Size())
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, social.ValidateID("id", "550e8400-e29b-41d4-a716-446655440000"))
	assert.ErrorIs(t, social.ValidateID("id", "p1"), social.ErrInvalidID)
	assert.ErrorIs(t, social.ValidateID("id", `x' OR '1'='1`), social.ErrInvalidID)
	assert.ErrorIs(t, social.ValidateID("id", ""), social.ErrInvalidID)
}

func TestLayout_Validate(t *testing.T) {
	l := social.Layout{UsersTable: "u", PostsTable: "p", NumShards: 1000}
	require.NoError(t, l.Validate())
	assert.Equal(t, social.DefaultTimelineIndex, l.TimelineIndex)
	assert.Equal(t, 256, l.NumShards)

	l = social.Layout{PostsTable: "p"}
	assert.Error(t, l.Validate())
}

func TestPartitionKeys(t *testing.T) {
	d := generate(t, social.DefaultLayout(), social.Counts{Users: 1, Posts: 1, Comments: 1, Likes: 1})

	assert.Equal(t, d.Users[0].ID.String(), social.UserKey(d.Users[0]))
	assert.Equal(t, d.Posts[0].ID.String(), social.PostKey(d.Posts[0]))
	assert.Equal(t, d.Posts[0].ID.String(), social.CommentKey(d.Comments[0]))
	assert.Equal(t, d.Posts[0].ID.String(), social.LikeKey(d.Likes[0]))
}

func TestSeed(t *testing.T) {
	d := generate(t, social.DefaultLayout(), smallCounts())
	users, posts := newMemTable(10), newMemTable(10)

	report, err := social.Seed(context.Background(), social.Targets{Users: users, Posts: posts}, d, nil, bulk.WithMaxInFlight(4))
	require.NoError(t, err)

	stages := report.Stages()
	require.Len(t, stages, 4)
	names := []string{stages[0].Name, stages[1].Name, stages[2].Name, stages[3].Name}
	assert.Equal(t, []string{"users", "posts", "comments", "likes"}, names)

	assert.Equal(t, 5, report.Users.Succeeded)
	assert.Equal(t, 20, report.Posts.Succeeded)
	assert.Equal(t, 40, report.Comments.Succeeded)
	assert.Equal(t, 60, report.Likes.Succeeded)
	assert.Equal(t, 0, report.Failed())
	assert.Equal(t, 125.0, report.Cost())

	assert.Len(t, users.items, 5)
	assert.Len(t, posts.items, 120)

	postIDs := map[string]bool{}
	for _, p := range d.Posts {
		postIDs[p.ID.String()] = true
	}
	for _, k := range posts.keys {
		assert.True(t, postIDs[k], "posts table key %q must be a post id", k)
	}
}

// unreachable fails the pre-dispatch ping.
type unreachable struct{ *memTable }

func (unreachable) Ping(context.Context) error {
	return &store.Error{Op: "ping", Kind: store.KindNotFound, Code: "ResourceNotFoundException"}
}

func TestSeed_StopsWhenStageFails(t *testing.T) {
	d := generate(t, social.DefaultLayout(), smallCounts())
	users := newMemTable(10)

	report, err := social.Seed(context.Background(), social.Targets{Users: users, Posts: unreachable{newMemTable(10)}}, d, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, bulk.ErrStoreUnreachable)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NotNil(t, report)
	assert.Len(t, report.Stages(), 1)
	assert.Equal(t, 5, report.Users.Succeeded)
	assert.Nil(t, report.Posts)
}

func TestSeed_RequiresTargets(t *testing.T) {
	_, err := social.Seed(context.Background(), social.Targets{}, &social.Dataset{}, nil)
	assert.Error(t, err)
}

func seeded(t *testing.T, layout social.Layout, c social.Counts, pageSize int) (*social.Dataset, *memTable, *memTable) {
	t.Helper()
	d := generate(t, layout, c)
	users, posts := newMemTable(pageSize), newMemTable(pageSize)
	_, err := social.Seed(context.Background(), social.Targets{Users: users, Posts: posts}, d, nil)
	require.NoError(t, err)
	return d, users, posts
}

func TestMeasure(t *testing.T) {
	for _, shards := range []int{1, 4} {
		t.Run(fmt.Sprintf("shards=%d", shards), func(t *testing.T) {
			layout := social.DefaultLayout()
			layout.NumShards = shards
			d, users, posts := seeded(t, layout, smallCounts(), 3)

			cfg := social.DefaultMeasureConfig()
			cfg.TopPosts = 10
			cfg.Concurrency = 3

			m, err := social.Measure(context.Background(), social.Sources{Users: users, Posts: posts}, layout, cfg)
			require.NoError(t, err)
			require.Len(t, m.Posts, 10)

			// Newest ten posts, newest first.
			want := slices.Clone(d.Posts)
			slices.SortStableFunc(want, func(a, b social.Post) int { return b.CreationDate.Compare(a.CreationDate) })
			for i, s := range m.Posts {
				assert.True(t, s.CreationDate.Equal(want[i].CreationDate), "post %d out of order", i)
			}

			authors := map[strfmt.UUID]string{}
			for _, u := range d.Users {
				authors[u.ID] = u.Username
			}
			byID := map[string]social.Post{}
			for _, p := range d.Posts {
				byID[p.ID.String()] = p
			}
			for _, s := range m.Posts {
				p, ok := byID[s.PostID]
				require.True(t, ok)
				assert.Equal(t, authors[p.UserID], s.Author)

				var comments, likes int
				for _, c := range d.Comments {
					if c.PostID == p.ID {
						comments++
					}
				}
				for _, l := range d.Likes {
					if l.PostID == p.ID {
						likes++
					}
				}
				assert.Equal(t, comments, s.Comments, "comments of %s", s.PostID)
				assert.Equal(t, likes, s.Likes, "likes of %s", s.PostID)
			}

			// One query per shard, then three per post.
			assert.Equal(t, shards+3*10, m.Queries)
			assert.Equal(t, users.queryCount()+posts.queryCount(), m.Queries)
			assert.InDelta(t, float64(m.Pages), m.TotalCost, 1e-9, "every page costs one unit")
		})
	}
}

func TestMeasure_SumsChainCost(t *testing.T) {
	layout := social.DefaultLayout()
	_, users, posts := seeded(t, layout, social.Counts{Users: 1, Posts: 1, Comments: 2, Likes: 3}, 100)

	posts.cost = func(q store.Query, _ store.Scope) float64 {
		switch {
		case strings.Contains(q.Statement, "timeline_shard"):
			return 1.0
		case len(q.Params) > 0 && q.Params[0] == social.TypeComment:
			return 0.2
		default:
			return 0.3
		}
	}
	users.cost = func(store.Query, store.Scope) float64 { return 0 }

	m, err := social.Measure(context.Background(), social.Sources{Users: users, Posts: posts}, layout, social.DefaultMeasureConfig())
	require.NoError(t, err)

	assert.InDelta(t, 1.5, m.TotalCost, 1e-9)
	assert.Equal(t, 4, m.Queries)
	require.Len(t, m.Posts, 1)
	assert.Equal(t, 2, m.Posts[0].Comments)
	assert.Equal(t, 3, m.Posts[0].Likes)
	assert.Contains(t, m.String(), "total cost 1.50 over 4 queries")
}

func TestMeasure_QueryFailureFailsChain(t *testing.T) {
	layout := social.DefaultLayout()
	_, users, posts := seeded(t, layout, smallCounts(), 5)

	users.fail = func(store.Query, store.Scope) error {
		return &store.Error{Op: "query", Kind: store.KindThrottled, Code: "ThrottlingException"}
	}

	m, err := social.Measure(context.Background(), social.Sources{Users: users, Posts: posts}, layout, social.DefaultMeasureConfig())
	assert.Nil(t, m)
	assert.ErrorIs(t, err, store.ErrThrottled)
}

func TestMeasure_Canceled(t *testing.T) {
	layout := social.DefaultLayout()
	_, users, posts := seeded(t, layout, smallCounts(), 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, err := social.Measure(ctx, social.Sources{Users: users, Posts: posts}, layout, social.DefaultMeasureConfig())
	assert.Nil(t, m)
	assert.ErrorIs(t, err, store.ErrCanceled)
}

func TestMeasure_EmptyTables(t *testing.T) {
	m, err := social.Measure(context.Background(), social.Sources{Users: newMemTable(5), Posts: newMemTable(5)}, social.DefaultLayout(), social.DefaultMeasureConfig())
	require.NoError(t, err)
	assert.Empty(t, m.Posts)
	assert.Equal(t, 1, m.Queries)
}

func TestMeasure_RejectsMalformedIDs(t *testing.T) {
	posts := newMemTable(5)
	_, err := posts.Write(context.Background(), mustMarshal(t, social.Post{
		ID:            "not-a-uuid",
		UserID:        "also-not",
		Type:          social.TypePost,
		CreationDate:  clock,
		TimelineShard: social.DefaultLayout().TimelineShard("not-a-uuid"),
	}), "not-a-uuid")
	require.NoError(t, err)

	_, err = social.Measure(context.Background(), social.Sources{Users: newMemTable(5), Posts: posts}, social.DefaultLayout(), social.DefaultMeasureConfig())
	assert.ErrorIs(t, err, social.ErrInvalidID)
}

func TestMeasure_RequiresSources(t *testing.T) {
	_, err := social.Measure(context.Background(), social.Sources{}, social.DefaultLayout(), social.DefaultMeasureConfig())
	assert.Error(t, err)
	assert.False(t, errors.Is(err, store.ErrCanceled))
}
