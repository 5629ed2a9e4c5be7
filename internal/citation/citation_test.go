package citation

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apresai/persona/internal/chunk"
	"github.com/apresai/persona/internal/dataset"
	"github.com/apresai/persona/internal/stats"
)

var ts = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func index(ds *dataset.Dataset) Set {
	return Index(stats.Compute(ds, stats.Options{}), ds)
}

func TestInterestCitationsPerSubreddit(t *testing.T) {
	var posts []dataset.Post
	var comments []dataset.Comment
	for i := 0; i < 4; i++ {
		posts = append(posts, dataset.Post{ID: fmt.Sprintf("p%d", i), Title: "t", Subreddit: "golang", Body: "b", CreatedAt: ts})
		comments = append(comments, dataset.Comment{ID: fmt.Sprintf("c%d", i), Subreddit: "golang", Body: "c", CreatedAt: ts})
	}
	set := index(dataset.New("u", posts, comments, ts))

	require.Len(t, set.Interests, 4)
	assert.Equal(t, "p0", set.Interests[0].SourceID)
	assert.Equal(t, "p1", set.Interests[1].SourceID)
	assert.Equal(t, SourceComment, set.Interests[2].SourceType)
	assert.Equal(t, "c1", set.Interests[3].SourceID)
	assert.Equal(t, "golang", set.Interests[0].Subreddit)
}

func TestInterestCitationsCoverTopFiveSubreddits(t *testing.T) {
	var posts []dataset.Post
	for i := 0; i < 7; i++ {
		posts = append(posts, dataset.Post{ID: fmt.Sprint(i), Subreddit: fmt.Sprintf("sub%d", i), CreatedAt: ts})
	}
	set := index(dataset.New("u", posts, nil, ts))
	require.Len(t, set.Interests, 5)
	assert.Equal(t, "sub4", set.Interests[4].Subreddit)
}

func TestPreviewTruncation(t *testing.T) {
	body := strings.Repeat("a", 250)
	set := index(dataset.New("u", []dataset.Post{{ID: "p", Subreddit: "s", Body: body, CreatedAt: ts}}, nil, ts))
	require.Len(t, set.Interests, 1)
	assert.Equal(t, strings.Repeat("a", 200)+chunk.Ellipsis, set.Interests[0].Preview)
}

func TestCommunicationStyleCitations(t *testing.T) {
	var posts []dataset.Post
	for i := 0; i < 5; i++ {
		posts = append(posts, dataset.Post{ID: fmt.Sprintf("p%d", i), Body: strings.Repeat("x", 600), CreatedAt: ts})
	}
	posts = append(posts, dataset.Post{ID: "short", Body: strings.Repeat("x", 500), CreatedAt: ts})
	comments := []dataset.Comment{
		{ID: "c0", Body: strings.Repeat("y", 201), CreatedAt: ts},
		{ID: "c1", Body: strings.Repeat("y", 200), CreatedAt: ts},
	}
	set := index(dataset.New("u", posts, comments, ts))

	require.Len(t, set.CommunicationStyle, 4)
	assert.Equal(t, "Long post with 600 characters", set.CommunicationStyle[0].Evidence)
	assert.Equal(t, DetailedCommunication, set.CommunicationStyle[0].Characteristic)
	assert.Equal(t, "p2", set.CommunicationStyle[2].SourceID)
	assert.Equal(t, "c0", set.CommunicationStyle[3].SourceID)
	assert.Equal(t, "Long comment with 201 characters", set.CommunicationStyle[3].Evidence)
}

func TestPersonalityCitations(t *testing.T) {
	posts := []dataset.Post{
		{ID: "a", Title: "Why?", CreatedAt: ts},
		{ID: "b", Title: "Statement", CreatedAt: ts},
		{ID: "c", Title: "How?", CreatedAt: ts},
		{ID: "d", Title: "What?", CreatedAt: ts},
		{ID: "e", Title: "Who?", CreatedAt: ts},
	}
	set := index(dataset.New("u", posts, nil, ts))
	require.Len(t, set.Personality, 3)
	assert.Equal(t, []string{"a", "c", "d"}, []string{set.Personality[0].SourceID, set.Personality[1].SourceID, set.Personality[2].SourceID})
	assert.Equal(t, InquisitiveNature, set.Personality[0].Characteristic)
	assert.Equal(t, "Asks questions in post titles", set.Personality[0].Evidence)
}

func TestIndexIsDeterministic(t *testing.T) {
	ds := dataset.New("u",
		[]dataset.Post{{ID: "p", Title: "Q?", Subreddit: "s", Body: strings.Repeat("z", 700), CreatedAt: ts}},
		[]dataset.Comment{{ID: "c", Subreddit: "s", Body: "hello", CreatedAt: ts}},
		ts)
	assert.Equal(t, index(ds), index(ds))
	assert.Equal(t, 4, index(ds).Len())
}
