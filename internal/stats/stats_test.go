package stats

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apresai/persona/internal/dataset"
)

// Monday 2024-03-04.
var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func at(day, hour int) time.Time {
	return monday.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
}

func TestComputeBasicCounts(t *testing.T) {
	ds := dataset.New("u",
		[]dataset.Post{
			{Title: "a", Subreddit: "golang", CreatedAt: at(0, 9), Score: 10},
			{Title: "b", Subreddit: "golang", CreatedAt: at(0, 9), Score: 2},
			{Title: "c", Subreddit: "rust", CreatedAt: at(1, 14), Score: 3},
		},
		[]dataset.Comment{
			{Body: "x", Subreddit: "rust", CreatedAt: at(2, 21), ParentID: "t1_a", Score: 1},
			{Body: "y", Subreddit: "python", CreatedAt: at(2, 9), ParentID: "t3_b", Score: 5},
		},
		monday)

	b := Compute(ds, Options{})
	assert.Equal(t, 3, b.TotalPosts)
	assert.Equal(t, 2, b.TotalComments)
	assert.Equal(t, 5, b.TotalActivity)
	assert.InDelta(t, 1.5, float64(b.PostToCommentRatio), 1e-9)

	assert.Equal(t, []SubredditCount{{"golang", 2}, {"rust", 2}, {"python", 1}}, b.TopSubreddits)

	assert.Equal(t, 3, b.Activity.HourCounts[9])
	assert.Equal(t, HourCount{Hour: 9, Count: 3}, b.Activity.PeakHours[0])
	assert.Equal(t, DayCount{Day: 0, Name: "Monday", Count: 2}, b.Activity.PeakDays[0])
	assert.InDelta(t, 3.0/24, b.Activity.Consistency, 1e-9)
	assert.Equal(t, TimezoneUSEastern, b.Timezone)

	assert.InDelta(t, 5.0, b.Engagement.AvgPostScore, 1e-9)
	assert.InDelta(t, 3.0, b.Engagement.AvgCommentScore, 1e-9)
	assert.Equal(t, 1, b.Engagement.ReplyComments)
	assert.Equal(t, 1, b.Interaction.DirectReplies)
	assert.Equal(t, 1, b.Interaction.PostReplies)
	assert.InDelta(t, 0.5, b.Interaction.InteractionRatio, 1e-9)
	assert.Equal(t, "posts", b.CommunicationPatterns.EngagementPreference)
}

func TestRatioIsInfiniteWithoutComments(t *testing.T) {
	ds := dataset.New("u", []dataset.Post{{Title: "only", CreatedAt: monday}}, nil, monday)
	b := Compute(ds, Options{})
	assert.True(t, b.PostToCommentRatio.IsInf())

	data, err := json.Marshal(b.Basic())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"post_to_comment_ratio":"Infinity"`)
}

func TestTopSubredditsLimitAndTies(t *testing.T) {
	var posts []dataset.Post
	for i := 0; i < 12; i++ {
		posts = append(posts, dataset.Post{Subreddit: string(rune('a' + i)), CreatedAt: monday})
	}
	posts = append(posts, dataset.Post{Subreddit: "l", CreatedAt: monday})
	b := Compute(dataset.New("u", posts, nil, monday), Options{})

	require.Len(t, b.TopSubreddits, 10)
	assert.Equal(t, "l", b.TopSubreddits[0].Name)
	assert.Equal(t, "a", b.TopSubreddits[1].Name)
	assert.Equal(t, "i", b.TopSubreddits[9].Name)
}

func TestEmptyActivity(t *testing.T) {
	b := Compute(dataset.New("u", nil, nil, monday), Options{})
	assert.True(t, b.Activity.IsEmpty())
	assert.Equal(t, TimezoneUnknown, b.Timezone)
	assert.Zero(t, b.Engagement.AvgPostScore)
	assert.Zero(t, b.Communication.AvgWordsPerSentence)
	assert.Zero(t, b.Language.VocabularyDiversity)
}

func TestTimezoneBuckets(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{6, TimezoneUSEastern},
		{12, TimezoneUSEastern},
		{13, TimezoneUSPacific},
		{19, TimezoneUSPacific},
		{20, TimezoneEuropean},
		{23, TimezoneEuropean},
		{3, TimezoneUnassigned},
	}
	for _, tt := range tests {
		got := inferTimezone([]time.Time{at(0, tt.hour)}, time.UTC)
		assert.Equal(t, tt.want, got, "hour %d", tt.hour)
	}
}

func TestLocationShiftsBuckets(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	a := activityPattern([]time.Time{at(0, 20)}, tokyo)
	assert.Equal(t, 1, a.HourCounts[5])
	assert.Equal(t, 1, a.DayCounts[1])
}

func TestAnalyzeText(t *testing.T) {
	c, l := analyzeText("However, this works! Does it? lol 😀 fr")
	assert.Equal(t, 8, c.TotalWords)
	assert.Equal(t, 2, c.Sentences)
	assert.Equal(t, 1, c.Exclamations)
	assert.Equal(t, 1, c.Questions)
	assert.Equal(t, 1, c.Emoji)
	assert.InDelta(t, 1.0/(1+2+1), l.FormalityScore, 1e-9)
	assert.InDelta(t, 1.0, l.VocabularyDiversity, 1e-9)
}

func TestFormalityCountsSubstrings(t *testing.T) {
	formal, informal := keywordCounts("From freedom, the lollipop. HOWEVER, howeverish")
	assert.Equal(t, 2, formal)
	assert.Equal(t, 3, informal)
}

func TestCategorize(t *testing.T) {
	got := Categorize([]string{"Python", "learnprogramming", "Python", "cooking", "aww"})
	require.Len(t, got, 8)
	assert.Equal(t, CategoryNames()[0], got[0].Category)

	byName := map[string][]string{}
	for _, m := range got {
		byName[m.Category] = m.Subreddits
	}
	assert.Equal(t, []string{"Python", "learnprogramming"}, byName["Technology"])
	assert.Equal(t, []string{"learnprogramming"}, byName["Education"])
	assert.Equal(t, []string{"cooking"}, byName["Lifestyle"])
	assert.Empty(t, byName["Finance"])
}

func TestContentStyle(t *testing.T) {
	ds := dataset.New("u", []dataset.Post{
		{Title: "WHY IS THIS?", IsSelfText: true, Body: strings.Repeat("z", 501)},
		{Title: "a link", IsSelfText: false},
	}, nil, monday)
	b := Compute(ds, Options{})
	assert.Equal(t, ContentStyle{TextPosts: 1, LinkPosts: 1, QuestionTitles: 1, CapsTitles: 1}, b.ContentStyle)
	assert.Equal(t, 1, b.Engagement.LongPosts)
	assert.InDelta(t, 501.0, b.CommunicationPatterns.AvgPostLength, 1e-9)
	assert.Equal(t, "posts", b.CommunicationPatterns.EngagementPreference)
}
