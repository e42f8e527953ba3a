package social

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

// Counts is the number of records of each type to generate.
type Counts struct {
	Users    int
	Posts    int
	Comments int
	Likes    int
}

// DefaultCounts returns the standard workload size.
func DefaultCounts() Counts {
	return Counts{
		Users:    100,
		Posts:    500,
		Comments: 2000,
		Likes:    5000,
	}
}

// Dataset is a generated workload, ready to be seeded.
type Dataset struct {
	Users    []User
	Posts    []Post
	Comments []Comment
	Likes    []Like
}

// Size returns the total number of records.
func (d *Dataset) Size() int {
	return len(d.Users) + len(d.Posts) + len(d.Comments) + len(d.Likes)
}

// Generator produces random records. A Generator seeded with the same value
// produces the same dataset for the same counts and clock.
type Generator struct {
	rng    *rand.Rand
	layout Layout
	now    time.Time

	// Window bounds how far back creation dates go.
	Window time.Duration
}

// NewGenerator returns a Generator for layout using the given seed.
func NewGenerator(layout Layout, seed int64, now time.Time) *Generator {
	return &Generator{
		rng:    rand.New(rand.NewSource(seed)),
		layout: layout,
		now:    now.UTC().Truncate(time.Second),
		Window: 30 * 24 * time.Hour,
	}
}

// Generate builds a dataset. Posts reference generated users; comments and
// likes reference generated users and posts. Comments and likes need at least
// one post, and every record but users needs at least one user.
func (g *Generator) Generate(c Counts) (*Dataset, error) {
	if c.Users < 0 || c.Posts < 0 || c.Comments < 0 || c.Likes < 0 {
		return nil, fmt.Errorf("social: negative count in %+v", c)
	}
	if c.Users == 0 && c.Posts+c.Comments+c.Likes > 0 {
		return nil, fmt.Errorf("social: %d users cannot author %d posts, comments and likes", c.Users, c.Posts+c.Comments+c.Likes)
	}
	if c.Posts == 0 && c.Comments+c.Likes > 0 {
		return nil, fmt.Errorf("social: comments and likes need at least one post")
	}

	d := &Dataset{
		Users:    make([]User, c.Users),
		Posts:    make([]Post, c.Posts),
		Comments: make([]Comment, c.Comments),
		Likes:    make([]Like, c.Likes),
	}

	for i := range d.Users {
		d.Users[i] = User{
			ID:       g.id(),
			Username: g.username(),
		}
	}
	for i := range d.Posts {
		id := g.id()
		d.Posts[i] = Post{
			ID:            id,
			UserID:        d.Users[g.rng.Intn(len(d.Users))].ID,
			PostID:        id,
			Type:          TypePost,
			Content:       g.paragraphs(5),
			CreationDate:  g.date(),
			TimelineShard: g.layout.TimelineShard(id.String()),
		}
	}
	for i := range d.Comments {
		d.Comments[i] = Comment{
			ID:           g.id(),
			UserID:       d.Users[g.rng.Intn(len(d.Users))].ID,
			PostID:       d.Posts[g.rng.Intn(len(d.Posts))].ID,
			Type:         TypeComment,
			Content:      g.paragraphs(1),
			CreationDate: g.date(),
		}
	}
	for i := range d.Likes {
		d.Likes[i] = Like{
			ID:           g.id(),
			UserID:       d.Users[g.rng.Intn(len(d.Users))].ID,
			PostID:       d.Posts[g.rng.Intn(len(d.Posts))].ID,
			Type:         TypeLike,
			CreationDate: g.date(),
		}
	}
	return d, nil
}

func (g *Generator) id() strfmt.UUID {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		// rand.Rand.Read never fails.
		panic(err)
	}
	return strfmt.UUID(id.String())
}

func (g *Generator) date() time.Time {
	back := time.Duration(g.rng.Int63n(int64(g.Window)))
	return g.now.Add(-back).Truncate(time.Second)
}

var (
	handles = []string{"river", "maple", "quartz", "ember", "harbor", "lumen", "cinder", "fjord", "willow", "onyx", "pixel", "tundra"}
	words   = strings.Fields(`lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod
		tempor incididunt ut labore et dolore magna aliqua enim ad minim veniam quis nostrud
		exercitation ullamco laboris nisi aliquip ex ea commodo consequat duis aute irure in
		reprehenderit voluptate velit esse cillum fugiat nulla pariatur excepteur sint occaecat`)
)

func (g *Generator) username() string {
	return fmt.Sprintf("%s_%s%d",
		handles[g.rng.Intn(len(handles))],
		handles[g.rng.Intn(len(handles))],
		g.rng.Intn(10000))
}

func (g *Generator) paragraphs(n int) string {
	paras := make([]string, n)
	for i := range paras {
		sentences := make([]string, 3+g.rng.Intn(3))
		for j := range sentences {
			ws := make([]string, 6+g.rng.Intn(8))
			for k := range ws {
				ws[k] = words[g.rng.Intn(len(words))]
			}
			s := strings.Join(ws, " ")
			sentences[j] = strings.ToUpper(s[:1]) + s[1:] + "."
		}
		paras[i] = strings.Join(sentences, " ")
	}
	return strings.Join(paras, "\n\n")
}
