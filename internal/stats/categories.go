package stats

import "strings"

// CategoryMatch lists the user's subreddits that fall under one category.
type CategoryMatch struct {
	Category   string   `json:"category"`
	Subreddits []string `json:"subreddits"`
}

type category struct {
	name     string
	keywords []string
}

// Fixed order; output follows it.
var categories = []category{
	{"Technology", []string{"programming", "python", "javascript", "MachineLearning", "technology", "coding", "webdev"}},
	{"Gaming", []string{"gaming", "Games", "pcgaming", "nintendo", "playstation", "xbox", "steam"}},
	{"Lifestyle", []string{"fitness", "cooking", "DIY", "productivity", "minimalism", "health", "selfimprovement"}},
	{"Entertainment", []string{"movies", "television", "music", "books", "netflix", "anime", "comics"}},
	{"News", []string{"news", "worldnews", "politics", "UpliftingNews", "science"}},
	{"Education", []string{"explainlikeimfive", "todayilearned", "askscience", "learnprogramming"}},
	{"Finance", []string{"investing", "personalfinance", "stocks", "cryptocurrency", "financialindependence"}},
	{"Career", []string{"jobs", "careeradvice", "entrepreneur", "cscareerquestions"}},
}

// CategoryNames returns the category names in output order.
func CategoryNames() []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.name
	}
	return names
}

// Categorize maps distinct subreddits (first-seen order) onto every
// category whose keyword is a case-insensitive substring of the name.
// Every category is present in the result, possibly with no subreddits.
func Categorize(subreddits []string) []CategoryMatch {
	seen := make(map[string]bool)
	var distinct []string
	for _, s := range subreddits {
		if !seen[s] {
			seen[s] = true
			distinct = append(distinct, s)
		}
	}

	out := make([]CategoryMatch, len(categories))
	for i, c := range categories {
		out[i] = CategoryMatch{Category: c.name, Subreddits: []string{}}
		for _, sub := range distinct {
			if matchesAny(sub, c.keywords) {
				out[i].Subreddits = append(out[i].Subreddits, sub)
			}
		}
	}
	return out
}

func matchesAny(subreddit string, keywords []string) bool {
	lower := strings.ToLower(subreddit)
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
