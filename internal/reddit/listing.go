package reddit

import (
	"math"
	"time"

	"github.com/apresai/persona/internal/dataset"
)

type listing struct {
	Data struct {
		After    string  `json:"after"`
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string    `json:"kind"`
	Data thingData `json:"data"`
}

// thingData covers the fields of both t3 (link) and t1 (comment) objects.
type thingData struct {
	ID          string  `json:"id"`
	Subreddit   string  `json:"subreddit"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       int     `json:"score"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	NumComments int     `json:"num_comments"`
	URL         string  `json:"url"`
	IsSelf      bool    `json:"is_self"`
	Body        string  `json:"body"`
	ParentID    string  `json:"parent_id"`
	LinkID      string  `json:"link_id"`
	IsSubmitter bool    `json:"is_submitter"`
}

func (d thingData) createdAt() time.Time {
	sec, frac := math.Modf(d.CreatedUTC)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

func (d thingData) post() dataset.Post {
	return dataset.Post{
		ID:           d.ID,
		Title:        d.Title,
		Body:         d.Selftext,
		Subreddit:    d.Subreddit,
		CreatedAt:    d.createdAt(),
		Score:        d.Score,
		UpvoteRatio:  d.UpvoteRatio,
		CommentCount: d.NumComments,
		URL:          d.URL,
		IsSelfText:   d.IsSelf,
	}
}

func (d thingData) comment() dataset.Comment {
	return dataset.Comment{
		ID:               d.ID,
		Body:             d.Body,
		Subreddit:        d.Subreddit,
		CreatedAt:        d.createdAt(),
		Score:            d.Score,
		ParentID:         d.ParentID,
		LinkID:           d.LinkID,
		IsOriginalPoster: d.IsSubmitter,
	}
}
