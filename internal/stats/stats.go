// Package stats computes the descriptive statistics of a user's activity.
// Everything here is deterministic and free of I/O.
package stats

import (
	"encoding/json"
	"math"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/apresai/persona/internal/dataset"
)

const (
	topSubredditLimit = 10
	peakHourLimit     = 5
	longPostChars     = 500
)

// Options controls how timestamps are bucketed.
type Options struct {
	// Location used for hour and weekday bucketing. Nil means UTC.
	Location *time.Location
}

// Ratio is a float that serializes +Inf as the string "Infinity".
type Ratio float64

func (r Ratio) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(r), 1) {
		return []byte(`"Infinity"`), nil
	}
	return json.Marshal(float64(r))
}

func (r Ratio) IsInf() bool { return math.IsInf(float64(r), 1) }

type SubredditCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Bundle is the full statistical picture of one dataset.
type Bundle struct {
	TotalPosts            int                   `json:"total_posts"`
	TotalComments         int                   `json:"total_comments"`
	TotalActivity         int                   `json:"total_activity"`
	PostToCommentRatio    Ratio                 `json:"post_to_comment_ratio"`
	TopSubreddits         []SubredditCount      `json:"top_subreddits"`
	Activity              ActivityPattern       `json:"activity_pattern"`
	Engagement            Engagement            `json:"engagement_metrics"`
	ContentStyle          ContentStyle          `json:"content_style"`
	Interaction           InteractionStyle      `json:"interaction_style"`
	Communication         Communication         `json:"text_metrics"`
	Language              LanguageStyle         `json:"language_style"`
	CommunicationPatterns CommunicationPatterns `json:"communication_patterns"`
	SubredditCategories   []CategoryMatch       `json:"subreddit_interests"`
	Timezone              string                `json:"activity_timezone"`
}

type Engagement struct {
	AvgPostScore    float64 `json:"avg_post_score"`
	AvgCommentScore float64 `json:"avg_comment_score"`
	QuestionPosts   int     `json:"question_posts"`
	LongPosts       int     `json:"long_posts"`
	ReplyComments   int     `json:"reply_comments"`
}

type ContentStyle struct {
	TextPosts      int `json:"text_posts"`
	LinkPosts      int `json:"link_posts"`
	QuestionTitles int `json:"question_titles"`
	CapsTitles     int `json:"caps_titles"`
}

type InteractionStyle struct {
	DirectReplies    int     `json:"direct_replies"`
	PostReplies      int     `json:"post_replies"`
	InteractionRatio float64 `json:"interaction_ratio"`
}

type CommunicationPatterns struct {
	AvgPostLength        float64 `json:"avg_post_length"`
	AvgCommentLength     float64 `json:"avg_comment_length"`
	VerbosityScore       float64 `json:"verbosity_score"`
	EngagementPreference string  `json:"engagement_preference"`
}

// Behavior groups the records the behavior prompts consume.
type Behavior struct {
	Engagement   Engagement       `json:"engagement_metrics"`
	ContentStyle ContentStyle     `json:"content_style"`
	Interaction  InteractionStyle `json:"interaction_style"`
}

// CommunicationStyle groups the text metrics and language style.
type CommunicationStyle struct {
	Text     Communication `json:"text_metrics"`
	Language LanguageStyle `json:"language_style"`
}

// Basic is the subset of the bundle describing overall volume.
type Basic struct {
	TotalPosts         int              `json:"total_posts"`
	TotalComments      int              `json:"total_comments"`
	TotalActivity      int              `json:"total_activity"`
	PostToCommentRatio Ratio            `json:"post_to_comment_ratio"`
	TopSubreddits      []SubredditCount `json:"top_subreddits"`
	Activity           ActivityPattern  `json:"activity_pattern"`
}

func (b *Bundle) Basic() Basic {
	return Basic{
		TotalPosts:         b.TotalPosts,
		TotalComments:      b.TotalComments,
		TotalActivity:      b.TotalActivity,
		PostToCommentRatio: b.PostToCommentRatio,
		TopSubreddits:      b.TopSubreddits,
		Activity:           b.Activity,
	}
}

func (b *Bundle) Behavior() Behavior {
	return Behavior{Engagement: b.Engagement, ContentStyle: b.ContentStyle, Interaction: b.Interaction}
}

func (b *Bundle) CommunicationStyle() CommunicationStyle {
	return CommunicationStyle{Text: b.Communication, Language: b.Language}
}

// TopSubredditNames returns up to n subreddit names in rank order.
func (b *Bundle) TopSubredditNames(n int) []string {
	names := make([]string, 0, n)
	for i, s := range b.TopSubreddits {
		if i == n {
			break
		}
		names = append(names, s.Name)
	}
	return names
}

// Compute derives every statistic from ds.
func Compute(ds *dataset.Dataset, opts Options) *Bundle {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	b := &Bundle{
		TotalPosts:    len(ds.Posts),
		TotalComments: len(ds.Comments),
		TotalActivity: len(ds.Posts) + len(ds.Comments),
	}
	if b.TotalComments == 0 {
		b.PostToCommentRatio = Ratio(math.Inf(1))
	} else {
		b.PostToCommentRatio = Ratio(float64(b.TotalPosts) / float64(b.TotalComments))
	}

	for _, c := range rank(ds.Subreddits(), topSubredditLimit) {
		b.TopSubreddits = append(b.TopSubreddits, SubredditCount{Name: c.key, Count: c.count})
	}

	times := ds.Timestamps()
	b.Activity = activityPattern(times, loc)
	b.Timezone = inferTimezone(times, loc)
	b.Engagement = engagement(ds)
	b.ContentStyle = contentStyle(ds)
	b.Interaction = interactionStyle(ds)
	b.Communication, b.Language = communication(ds)
	b.CommunicationPatterns = communicationPatterns(ds)
	b.SubredditCategories = Categorize(ds.Subreddits())
	return b
}

func engagement(ds *dataset.Dataset) Engagement {
	var e Engagement
	if len(ds.Posts) > 0 {
		total := 0
		for _, p := range ds.Posts {
			total += p.Score
			if strings.Contains(p.Title, "?") {
				e.QuestionPosts++
			}
			if utf8.RuneCountInString(p.Body) > longPostChars {
				e.LongPosts++
			}
		}
		e.AvgPostScore = float64(total) / float64(len(ds.Posts))
	}
	if len(ds.Comments) > 0 {
		total := 0
		for _, c := range ds.Comments {
			total += c.Score
			if c.IsReply() {
				e.ReplyComments++
			}
		}
		e.AvgCommentScore = float64(total) / float64(len(ds.Comments))
	}
	return e
}

func contentStyle(ds *dataset.Dataset) ContentStyle {
	var s ContentStyle
	for _, p := range ds.Posts {
		if p.IsSelfText {
			s.TextPosts++
		} else {
			s.LinkPosts++
		}
		if strings.Contains(p.Title, "?") {
			s.QuestionTitles++
		}
		if isUpper(p.Title) {
			s.CapsTitles++
		}
	}
	return s
}

// isUpper reports whether s has at least one cased letter and no lower
// case ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func interactionStyle(ds *dataset.Dataset) InteractionStyle {
	var s InteractionStyle
	for _, c := range ds.Comments {
		switch {
		case c.IsReply():
			s.DirectReplies++
		case c.IsTopLevel():
			s.PostReplies++
		}
	}
	if len(ds.Comments) > 0 {
		s.InteractionRatio = float64(s.DirectReplies) / float64(len(ds.Comments))
	}
	return s
}

func communicationPatterns(ds *dataset.Dataset) CommunicationPatterns {
	var p CommunicationPatterns

	postTotal, postN := 0, 0
	for _, post := range ds.Posts {
		if post.Body == "" {
			continue
		}
		postTotal += utf8.RuneCountInString(post.Body)
		postN++
	}
	if postN > 0 {
		p.AvgPostLength = float64(postTotal) / float64(postN)
	}

	commentTotal := 0
	for _, c := range ds.Comments {
		commentTotal += utf8.RuneCountInString(c.Body)
	}
	if len(ds.Comments) > 0 {
		p.AvgCommentLength = float64(commentTotal) / float64(len(ds.Comments))
	}

	p.VerbosityScore = (p.AvgPostLength + p.AvgCommentLength) / 2
	p.EngagementPreference = "comments"
	if len(ds.Posts) > len(ds.Comments) {
		p.EngagementPreference = "posts"
	}
	return p
}

type counted[K comparable] struct {
	key   K
	count int
}

// rank tallies keys and orders them by count, breaking ties by first
// appearance. limit <= 0 keeps everything.
func rank[K comparable](keys []K, limit int) []counted[K] {
	index := make(map[K]int)
	var out []counted[K]
	for _, k := range keys {
		if i, ok := index[k]; ok {
			out[i].count++
			continue
		}
		index[k] = len(out)
		out = append(out, counted[K]{key: k, count: 1})
	}
	slices.SortStableFunc(out, func(a, b counted[K]) int { return b.count - a.count })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
