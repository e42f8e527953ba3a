// Package social is the feed workload: users, posts, comments and likes stored
// across two partitioned tables, the data generator that seeds them, and the
// measured query chain that reads them back.
package social

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
)

// Record types sharing the posts table.
const (
	TypePost    = "post"
	TypeComment = "comment"
	TypeLike    = "like"
)

// ErrInvalidID is returned when a record carries an identifier that is not a UUID.
var ErrInvalidID = errors.New("social: invalid id")

// User is stored in the users table, partitioned by its id.
type User struct {
	ID       strfmt.UUID `dynamodbav:"id"`
	Username string      `dynamodbav:"username"`
}

// Post is stored in the posts table, partitioned by its id.
// TimelineShard places the post on the timeline index; comments and likes
// never set it, which keeps the index sparse.
type Post struct {
	ID            strfmt.UUID `dynamodbav:"id"`
	UserID        strfmt.UUID `dynamodbav:"user_id"`
	PostID        strfmt.UUID `dynamodbav:"post_id"`
	Type          string      `dynamodbav:"type"`
	Content       string      `dynamodbav:"content"`
	CreationDate  time.Time   `dynamodbav:"creation_date,unixtime"`
	TimelineShard string      `dynamodbav:"timeline_shard,omitempty"`
}

// Comment is stored in the posts table, in its post's partition.
type Comment struct {
	ID           strfmt.UUID `dynamodbav:"id"`
	UserID       strfmt.UUID `dynamodbav:"user_id"`
	PostID       strfmt.UUID `dynamodbav:"post_id"`
	Type         string      `dynamodbav:"type"`
	Content      string      `dynamodbav:"content"`
	CreationDate time.Time   `dynamodbav:"creation_date,unixtime"`
}

// Like is stored in the posts table, in its post's partition.
type Like struct {
	ID           strfmt.UUID `dynamodbav:"id"`
	UserID       strfmt.UUID `dynamodbav:"user_id"`
	PostID       strfmt.UUID `dynamodbav:"post_id"`
	Type         string      `dynamodbav:"type"`
	CreationDate time.Time   `dynamodbav:"creation_date,unixtime"`
}

// Partition key functions, one per record type.
func UserKey(u User) string       { return u.ID.String() }
func PostKey(p Post) string       { return p.ID.String() }
func CommentKey(c Comment) string { return c.PostID.String() }
func LikeKey(l Like) string       { return l.PostID.String() }

// ValidateID checks that id is a well-formed UUID. Ids read back from the
// store are validated before they are bound as partition scopes.
func ValidateID(field string, id strfmt.UUID) error {
	if !strfmt.IsUUID(id.String()) {
		return fmt.Errorf("%w: %s %q", ErrInvalidID, field, id)
	}
	return nil
}
