// Package dataset holds the normalized activity record of one Reddit user.
package dataset

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoActivity is returned when a user has neither posts nor comments.
	// Private, suspended and non-existent accounts all end up here.
	ErrNoActivity = errors.New("no posts or comments found: the account may be private or non-existent")

	// ErrCountMismatch means the metadata totals disagree with the sequences.
	ErrCountMismatch = errors.New("metadata counts do not match activity")
)

// Reddit fullname prefixes used in parent ids.
const (
	CommentPrefix = "t1_"
	PostPrefix    = "t3_"
)

type Post struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Subreddit    string    `json:"subreddit"`
	CreatedAt    time.Time `json:"created_at"`
	Score        int       `json:"score"`
	UpvoteRatio  float64   `json:"upvote_ratio"`
	CommentCount int       `json:"comment_count"`
	URL          string    `json:"url"`
	IsSelfText   bool      `json:"is_self_text"`
}

type Comment struct {
	ID               string    `json:"id"`
	Body             string    `json:"body"`
	Subreddit        string    `json:"subreddit"`
	CreatedAt        time.Time `json:"created_at"`
	Score            int       `json:"score"`
	ParentID         string    `json:"parent_id"`
	LinkID           string    `json:"link_id"`
	IsOriginalPoster bool      `json:"is_original_poster"`
}

// IsReply reports whether the comment answers another comment.
func (c Comment) IsReply() bool {
	return strings.HasPrefix(c.ParentID, CommentPrefix)
}

// IsTopLevel reports whether the comment answers a post directly.
func (c Comment) IsTopLevel() bool {
	return strings.HasPrefix(c.ParentID, PostPrefix)
}

type Metadata struct {
	ScrapedAt     time.Time `json:"scraped_at"`
	TotalPosts    int       `json:"total_posts"`
	TotalComments int       `json:"total_comments"`
}

// Dataset is the input to every analysis stage. Posts and comments keep
// the order the source returned them in (most recent first).
type Dataset struct {
	Username string    `json:"username"`
	Posts    []Post    `json:"posts"`
	Comments []Comment `json:"comments"`
	Metadata Metadata  `json:"metadata"`
}

// New builds a Dataset whose metadata counts match the given sequences.
func New(username string, posts []Post, comments []Comment, scrapedAt time.Time) *Dataset {
	return &Dataset{
		Username: username,
		Posts:    posts,
		Comments: comments,
		Metadata: Metadata{
			ScrapedAt:     scrapedAt,
			TotalPosts:    len(posts),
			TotalComments: len(comments),
		},
	}
}

// Validate checks the dataset can be analyzed.
func (d *Dataset) Validate() error {
	if len(d.Posts) == 0 && len(d.Comments) == 0 {
		return ErrNoActivity
	}
	if d.Metadata.TotalPosts != len(d.Posts) || d.Metadata.TotalComments != len(d.Comments) {
		return fmt.Errorf("%w: metadata says %d posts / %d comments, have %d / %d",
			ErrCountMismatch, d.Metadata.TotalPosts, d.Metadata.TotalComments, len(d.Posts), len(d.Comments))
	}
	return nil
}

// Timestamps returns post timestamps followed by comment timestamps.
func (d *Dataset) Timestamps() []time.Time {
	out := make([]time.Time, 0, len(d.Posts)+len(d.Comments))
	for _, p := range d.Posts {
		out = append(out, p.CreatedAt)
	}
	for _, c := range d.Comments {
		out = append(out, c.CreatedAt)
	}
	return out
}

// Subreddits returns the subreddit of every item, posts first.
func (d *Dataset) Subreddits() []string {
	out := make([]string, 0, len(d.Posts)+len(d.Comments))
	for _, p := range d.Posts {
		out = append(out, p.Subreddit)
	}
	for _, c := range d.Comments {
		out = append(out, c.Subreddit)
	}
	return out
}

// ContentItems renders posts as "POST: title body" and comments as
// "COMMENT: body", limited to the first maxPosts and maxComments items.
// A negative limit means no limit.
func (d *Dataset) ContentItems(maxPosts, maxComments int) []string {
	posts := d.Posts
	if maxPosts >= 0 && len(posts) > maxPosts {
		posts = posts[:maxPosts]
	}
	comments := d.Comments
	if maxComments >= 0 && len(comments) > maxComments {
		comments = comments[:maxComments]
	}

	items := make([]string, 0, len(posts)+len(comments))
	for _, p := range posts {
		items = append(items, fmt.Sprintf("POST: %s %s", p.Title, p.Body))
	}
	for _, c := range comments {
		items = append(items, "COMMENT: "+c.Body)
	}
	return items
}
