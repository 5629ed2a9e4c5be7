package persona

import (
	"fmt"
	"strings"

	"github.com/apresai/persona/internal/citation"
	"github.com/apresai/persona/internal/stats"
)

// Format lays out the persona. It performs no I/O. in.Stats must be set;
// an empty dataset still yields a zero-valued bundle.
func Format(in Input) *Persona {
	b := in.Stats
	sec := in.Sections

	p := &Persona{Username: in.Username, GeneratedAt: in.GeneratedAt}
	add := func(name, body string) {
		p.Sections = append(p.Sections, Section{Name: name, Body: body})
	}

	add(SectionHeader, fmt.Sprintf("\n# USER PERSONA: %s\nGenerated on: %s\n\n",
		in.Username, in.GeneratedAt.Format(timestampLayout)))

	add(SectionPersonalInfo, fmt.Sprintf(
		"## PERSONAL INFORMATION\nUsername: %s\nActivity Level: %s\nPrimary Communities: %s\n\n%s\n\n",
		in.Username,
		ClassifyActivity(b.TotalActivity),
		strings.Join(b.TopSubredditNames(3), ", "),
		sec.PersonalInfo.Text))

	add(SectionPersonality, fmt.Sprintf("## PERSONALITY TRAITS\n%s\n\n", sec.Traits.Text))

	add(SectionBehavior, fmt.Sprintf(
		"## BEHAVIOR & HABITS\n%s\n\n### Activity Patterns\n%s\n\n### Engagement Metrics\n%s\n\n",
		sec.Behavior.Text,
		formatActivity(b),
		formatEngagement(b)))

	add(SectionMotivations, fmt.Sprintf("## MOTIVATIONS\n%s\n\nPrimary Drivers: %s\n\n",
		sec.Motivations.Text, strings.Join(PrimaryDrivers(in.Analysis), ", ")))

	add(SectionFrustrations, fmt.Sprintf("## FRUSTRATIONS\n%s\n\nBehavioral Indicators: %s\n\n",
		sec.Frustrations.Text, strings.Join(FrustrationIndicators(b), ", ")))

	add(SectionGoals, fmt.Sprintf("## GOALS & NEEDS\n%s\n\nPriority Areas: %s\n\n",
		sec.Goals.Text, strings.Join(b.TopSubredditNames(5), ", ")))

	add(SectionCitations, fmt.Sprintf(
		"## CITATIONS & EVIDENCE\n\n### Interest Evidence\n%s\n\n### Communication Style Evidence\n%s\n\n### Personality Evidence\n%s\n\n",
		formatCitations(in.Citations.Interests),
		formatCitations(in.Citations.CommunicationStyle),
		formatCitations(in.Citations.Personality)))

	add(SectionFooter, "---\n"+footer+"\n")
	return p
}

func formatActivity(b *stats.Bundle) string {
	if b.Activity.IsEmpty() {
		return NoActivityPattern
	}
	a := b.Activity

	hours := make([]string, len(a.PeakHours))
	for i, h := range a.PeakHours {
		hours[i] = fmt.Sprintf("%02d:00 (%d)", h.Hour, h.Count)
	}
	days := make([]string, len(a.PeakDays))
	for i, d := range a.PeakDays {
		days[i] = fmt.Sprintf("%s (%d)", d.Name, d.Count)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Peak Hours: %s\n", strings.Join(hours, ", "))
	fmt.Fprintf(&sb, "Peak Days: %s\n", strings.Join(days, ", "))
	fmt.Fprintf(&sb, "Activity Consistency: %.2f\n", a.Consistency)
	return sb.String()
}

func formatEngagement(b *stats.Bundle) string {
	e := b.Engagement
	var sb strings.Builder
	fmt.Fprintf(&sb, "Avg Post Score: %.2f\n", e.AvgPostScore)
	fmt.Fprintf(&sb, "Avg Comment Score: %.2f\n", e.AvgCommentScore)
	fmt.Fprintf(&sb, "Question Posts: %d\n", e.QuestionPosts)
	fmt.Fprintf(&sb, "Long Posts: %d\n", e.LongPosts)
	fmt.Fprintf(&sb, "Reply Comments: %d\n", e.ReplyComments)
	return sb.String()
}

func formatCitations(cs []citation.Citation) string {
	if len(cs) == 0 {
		return NoCitations
	}

	var sb strings.Builder
	for i, c := range cs {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, strings.ToUpper(string(c.SourceType)))
		if c.Title != "" {
			fmt.Fprintf(&sb, " - %s", c.Title)
		}
		if c.Subreddit != "" {
			fmt.Fprintf(&sb, " (r/%s)", c.Subreddit)
		}
		if c.Characteristic != "" {
			fmt.Fprintf(&sb, "\n   Characteristic: %s", c.Characteristic)
		}
		if c.Evidence != "" {
			fmt.Fprintf(&sb, "\n   Evidence: %s", c.Evidence)
		}
		if c.Category == citation.CategoryInterests {
			fmt.Fprintf(&sb, "\n   Content: %s", c.Preview)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
