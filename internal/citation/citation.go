// Package citation links persona claims back to the posts and comments
// that support them.
package citation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/apresai/persona/internal/chunk"
	"github.com/apresai/persona/internal/dataset"
	"github.com/apresai/persona/internal/stats"
)

type SourceType string

const (
	SourcePost    SourceType = "post"
	SourceComment SourceType = "comment"
)

type Category string

const (
	CategoryInterests          Category = "interests"
	CategoryCommunicationStyle Category = "communication_style"
	CategoryPersonality        Category = "personality"
)

// Characteristics attached to non-interest citations.
const (
	DetailedCommunication = "detailed_communication"
	InquisitiveNature     = "inquisitive_nature"
)

const (
	interestSubreddits   = 5
	perSubreddit         = 2
	previewChars         = 200
	longPostChars        = 500
	longCommentChars     = 200
	longItemsPerKind     = 3
	questionPostCitation = 3
)

// Citation points at one source item. Interest citations carry a content
// Preview; the others carry a Characteristic and an Evidence annotation.
type Citation struct {
	SourceType     SourceType `json:"type"`
	SourceID       string     `json:"id"`
	Title          string     `json:"title,omitempty"`
	Subreddit      string     `json:"subreddit,omitempty"`
	Category       Category   `json:"category"`
	Characteristic string     `json:"characteristic,omitempty"`
	Evidence       string     `json:"evidence,omitempty"`
	Preview        string     `json:"content_preview,omitempty"`
}

// Set groups citations by the claim category they support.
type Set struct {
	Interests          []Citation `json:"interests"`
	CommunicationStyle []Citation `json:"communication_style"`
	Personality        []Citation `json:"personality"`
}

// Len is the total number of citations.
func (s Set) Len() int {
	return len(s.Interests) + len(s.CommunicationStyle) + len(s.Personality)
}

// Index builds every citation from the dataset in dataset order.
func Index(b *stats.Bundle, ds *dataset.Dataset) Set {
	return Set{
		Interests:          interests(b, ds),
		CommunicationStyle: communicationStyle(ds),
		Personality:        personality(ds),
	}
}

func interests(b *stats.Bundle, ds *dataset.Dataset) []Citation {
	out := []Citation{}
	for _, sub := range b.TopSubredditNames(interestSubreddits) {
		n := 0
		for _, p := range ds.Posts {
			if n == perSubreddit {
				break
			}
			if p.Subreddit != sub {
				continue
			}
			out = append(out, Citation{
				SourceType: SourcePost,
				SourceID:   p.ID,
				Title:      p.Title,
				Subreddit:  p.Subreddit,
				Category:   CategoryInterests,
				Preview:    chunk.Truncate(p.Body, previewChars),
			})
			n++
		}

		n = 0
		for _, c := range ds.Comments {
			if n == perSubreddit {
				break
			}
			if c.Subreddit != sub {
				continue
			}
			out = append(out, Citation{
				SourceType: SourceComment,
				SourceID:   c.ID,
				Subreddit:  c.Subreddit,
				Category:   CategoryInterests,
				Preview:    chunk.Truncate(c.Body, previewChars),
			})
			n++
		}
	}
	return out
}

func communicationStyle(ds *dataset.Dataset) []Citation {
	out := []Citation{}
	n := 0
	for _, p := range ds.Posts {
		if n == longItemsPerKind {
			break
		}
		length := utf8.RuneCountInString(p.Body)
		if length <= longPostChars {
			continue
		}
		out = append(out, Citation{
			SourceType:     SourcePost,
			SourceID:       p.ID,
			Title:          p.Title,
			Category:       CategoryCommunicationStyle,
			Characteristic: DetailedCommunication,
			Evidence:       fmt.Sprintf("Long post with %d characters", length),
		})
		n++
	}

	n = 0
	for _, c := range ds.Comments {
		if n == longItemsPerKind {
			break
		}
		length := utf8.RuneCountInString(c.Body)
		if length <= longCommentChars {
			continue
		}
		out = append(out, Citation{
			SourceType:     SourceComment,
			SourceID:       c.ID,
			Category:       CategoryCommunicationStyle,
			Characteristic: DetailedCommunication,
			Evidence:       fmt.Sprintf("Long comment with %d characters", length),
		})
		n++
	}
	return out
}

func personality(ds *dataset.Dataset) []Citation {
	out := []Citation{}
	for _, p := range ds.Posts {
		if len(out) == questionPostCitation {
			break
		}
		if !strings.Contains(p.Title, "?") {
			continue
		}
		out = append(out, Citation{
			SourceType:     SourcePost,
			SourceID:       p.ID,
			Title:          p.Title,
			Category:       CategoryPersonality,
			Characteristic: InquisitiveNature,
			Evidence:       "Asks questions in post titles",
		})
	}
	return out
}
