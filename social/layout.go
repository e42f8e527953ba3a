package social

import (
	"errors"
	"strings"

	"github.com/jacentio/feedbench/internal/shard"
)

// Default table and index names.
const (
	DefaultUsersTable    = "users"
	DefaultPostsTable    = "posts"
	DefaultTimelineIndex = "timeline"

	// TimelinePrefix prefixes every timeline shard partition.
	TimelinePrefix = "timeline"
)

// Layout names the tables and the timeline index the workload uses.
type Layout struct {
	// UsersTable holds users, partitioned by user id.
	UsersTable string

	// PostsTable holds posts, comments and likes, partitioned by post id.
	PostsTable string

	// TimelineIndex is the sparse global secondary index over posts, hash key
	// timeline_shard and range key creation_date.
	TimelineIndex string

	// NumShards spreads the timeline over this many index partitions (1 to 256).
	NumShards int
}

// DefaultLayout returns a Layout with default names and a single timeline shard.
func DefaultLayout() Layout {
	return Layout{
		UsersTable:    DefaultUsersTable,
		PostsTable:    DefaultPostsTable,
		TimelineIndex: DefaultTimelineIndex,
		NumShards:     1,
	}
}

// Validate checks names and clamps NumShards.
func (l *Layout) Validate() error {
	if l.UsersTable == "" || l.PostsTable == "" {
		return errors.New("social: table names are required")
	}
	if l.TimelineIndex == "" {
		l.TimelineIndex = DefaultTimelineIndex
	}
	l.NumShards = shard.Clamp(l.NumShards)
	return nil
}

// TimelineShard returns the timeline partition for a post.
func (l Layout) TimelineShard(postID string) string {
	return shard.TimelineKey(TimelinePrefix, postID, l.NumShards)
}

// TimelineShards returns every timeline partition.
func (l Layout) TimelineShards() []string {
	return shard.All(TimelinePrefix, l.NumShards)
}

// quoteIdent quotes a configured table or index name for a PartiQL statement.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
