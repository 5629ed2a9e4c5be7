package stats

import (
	"regexp"
	"strings"

	"github.com/apresai/persona/internal/dataset"
)

var sentenceEnd = regexp.MustCompile(`[.!?]+`)

var (
	formalWords   = []string{"therefore", "however", "furthermore", "nevertheless", "consequently"}
	informalWords = []string{"lol", "haha", "omg", "btw", "tbh", "ngl", "fr"}
)

// Communication holds raw text metrics over all of a user's writing.
type Communication struct {
	TotalWords          int     `json:"total_words"`
	Sentences           int     `json:"sentences"`
	AvgWordsPerSentence float64 `json:"avg_words_per_sentence"`
	Emoji               int     `json:"emoji_usage"`
	Exclamations        int     `json:"exclamation_usage"`
	Questions           int     `json:"question_usage"`
}

type LanguageStyle struct {
	VocabularyDiversity float64 `json:"vocabulary_diversity"`
	FormalityScore      float64 `json:"formality_score"`
	TotalWords          int     `json:"total_words"`
	UniqueWords         int     `json:"unique_words"`
}

func isEmoji(r rune) bool {
	return r >= 0x1F600 && r <= 0x1FFFF
}

// communication measures everything the user wrote: "title body" of each
// post and each comment body, joined with single spaces.
func communication(ds *dataset.Dataset) (Communication, LanguageStyle) {
	parts := make([]string, 0, len(ds.Posts)+len(ds.Comments))
	for _, p := range ds.Posts {
		parts = append(parts, p.Title+" "+p.Body)
	}
	for _, c := range ds.Comments {
		parts = append(parts, c.Body)
	}
	return analyzeText(strings.Join(parts, " "))
}

func analyzeText(text string) (Communication, LanguageStyle) {
	words := strings.Fields(text)

	var c Communication
	c.TotalWords = len(words)
	c.Sentences = len(sentenceEnd.FindAllStringIndex(text, -1))
	if c.Sentences > 0 {
		c.AvgWordsPerSentence = float64(c.TotalWords) / float64(c.Sentences)
	}
	c.Exclamations = strings.Count(text, "!")
	c.Questions = strings.Count(text, "?")
	for _, r := range text {
		if isEmoji(r) {
			c.Emoji++
		}
	}

	var l LanguageStyle
	l.TotalWords = len(words)
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}
	l.UniqueWords = len(unique)
	if len(words) > 0 {
		l.VocabularyDiversity = float64(l.UniqueWords) / float64(len(words))
	}

	formal, informal := keywordCounts(text)
	l.FormalityScore = float64(formal) / float64(formal+informal+1)
	return c, l
}

// keywordCounts counts case-insensitive, non-overlapping occurrences of
// the formal and informal markers anywhere in the text, so "fr" also hits
// inside "from".
func keywordCounts(text string) (formal, informal int) {
	lower := strings.ToLower(text)
	for _, w := range formalWords {
		formal += strings.Count(lower, w)
	}
	for _, w := range informalWords {
		informal += strings.Count(lower, w)
	}
	return formal, informal
}
