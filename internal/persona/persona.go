// Package persona assembles the final persona document.
package persona

import (
	"strings"
	"time"

	"github.com/apresai/persona/internal/citation"
	"github.com/apresai/persona/internal/stats"
	"github.com/apresai/persona/internal/synth"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	footer          = "Generated by Reddit User Persona Generator"

	NoCitations       = "No citations available"
	NoActivityPattern = "No activity patterns available"
)

// Section names in document order.
const (
	SectionHeader       = "header"
	SectionPersonalInfo = "personal_information"
	SectionPersonality  = "personality_traits"
	SectionBehavior     = "behavior_and_habits"
	SectionMotivations  = "motivations"
	SectionFrustrations = "frustrations"
	SectionGoals        = "goals_and_needs"
	SectionCitations    = "citations_and_evidence"
	SectionFooter       = "footer"
)

// Input is everything the formatter reads. GeneratedAt is supplied by the
// caller so formatting stays deterministic.
type Input struct {
	Username    string
	GeneratedAt time.Time
	Stats       *stats.Bundle
	Analysis    *synth.Analysis
	Sections    *synth.Sections
	Citations   citation.Set
}

type Section struct {
	Name string
	Body string
}

// Persona is the rendered document as an ordered list of sections.
type Persona struct {
	Username    string
	GeneratedAt time.Time
	Sections    []Section
}

// String renders the whole document.
func (p *Persona) String() string {
	var sb strings.Builder
	for _, s := range p.Sections {
		sb.WriteString(s.Body)
	}
	return sb.String()
}

// Section returns the named section body.
func (p *Persona) Section(name string) (string, bool) {
	for _, s := range p.Sections {
		if s.Name == name {
			return s.Body, true
		}
	}
	return "", false
}

// Activity tiers by total activity.
const (
	TierVeryActive = "Very Active"
	TierActive     = "Active"
	TierModerate   = "Moderate"
	TierLight      = "Light"
	TierMinimal    = "Minimal"
)

// ClassifyActivity maps a total activity count onto a tier.
func ClassifyActivity(total int) string {
	switch {
	case total > 200:
		return TierVeryActive
	case total > 100:
		return TierActive
	case total > 50:
		return TierModerate
	case total > 20:
		return TierLight
	default:
		return TierMinimal
	}
}

// PrimaryDrivers lists broad motivations once at least one interests
// analysis was generated.
func PrimaryDrivers(a *synth.Analysis) []string {
	if a == nil || len(a.Interests.Analyses) == 0 {
		return nil
	}
	return []string{"Learning", "Community", "Entertainment", "Problem-solving"}
}

// FrustrationIndicators flags low engagement on the kinds of content the
// user actually produced.
func FrustrationIndicators(b *stats.Bundle) []string {
	var out []string
	if b.TotalPosts > 0 && b.Engagement.AvgPostScore < 5 {
		out = append(out, "Low post engagement")
	}
	if b.TotalComments > 0 && b.Engagement.AvgCommentScore < 2 {
		out = append(out, "Low comment engagement")
	}
	return out
}
