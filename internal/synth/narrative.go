package synth

import (
	"encoding/json"

	"github.com/apresai/persona/internal/stats"
)

// Dimension names one qualitative analysis or persona section.
type Dimension string

const (
	DimInterests    Dimension = "interests"
	DimPersonality  Dimension = "personality"
	DimDemographics Dimension = "demographics"

	DimPersonalInfo Dimension = "personal_info"
	DimTraits       Dimension = "personality_traits"
	DimBehavior     Dimension = "behavior"
	DimMotivations  Dimension = "motivations"
	DimFrustrations Dimension = "frustrations"
	DimGoals        Dimension = "goals"
)

var labels = map[Dimension]string{
	DimInterests:    "interests",
	DimPersonality:  "personality",
	DimDemographics: "demographic",
	DimPersonalInfo: "personal info",
	DimTraits:       "personality traits",
	DimBehavior:     "behavior",
	DimMotivations:  "motivation",
	DimFrustrations: "frustration",
	DimGoals:        "goals",
}

// Label is the human form used in placeholder text.
func (d Dimension) Label() string {
	if l, ok := labels[d]; ok {
		return l
	}
	return string(d)
}

// Outcome records how a narrative was produced.
type Outcome string

const (
	OutcomeGenerated Outcome = "generated"
	OutcomeFallback  Outcome = "fallback"
	OutcomeSkipped   Outcome = "skipped"
)

// UnableToGenerate replaces a persona section whose generation failed.
const UnableToGenerate = "Unable to generate content"

// NotAvailable stands in for an upstream narrative that was not generated.
const NotAvailable = "Not available"

// InsufficientContent is the placeholder for a dimension whose input was
// below the minimum length.
func InsufficientContent(d Dimension) string {
	return "Insufficient content for " + d.Label() + " analysis"
}

// AnalysisError is the placeholder for a failed analysis dimension.
func AnalysisError(d Dimension) string {
	return "Error in " + d.Label() + " analysis"
}

// Narrative is one piece of generated (or placeholder) prose.
type Narrative struct {
	Dimension Dimension
	Text      string
	Outcome   Outcome
	Err       error
}

// MarshalJSON renders only the text so narratives embed cleanly in prompts.
func (n Narrative) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Text)
}

func (n Narrative) Generated() bool { return n.Outcome == OutcomeGenerated }

// Interests holds one narrative per surviving content chunk. Chunks whose
// generation failed are left out.
type Interests struct {
	Analyses   []Narrative           `json:"interest_analysis"`
	Categories []stats.CategoryMatch `json:"subreddit_interests"`
}

type Personality struct {
	Analysis Narrative                   `json:"personality_analysis"`
	Patterns stats.CommunicationPatterns `json:"communication_patterns"`
}

type Demographics struct {
	Analysis Narrative `json:"demographic_analysis"`
	Timezone string    `json:"activity_timezone"`
}

// Analysis is the output of the qualitative analysis stage.
type Analysis struct {
	Interests    Interests
	Personality  Personality
	Demographics Demographics

	// FailedInterestChunks counts chunks dropped after a generation error.
	FailedInterestChunks int
}

// Sections holds the six persona sections in document order.
type Sections struct {
	PersonalInfo Narrative
	Traits       Narrative
	Behavior     Narrative
	Motivations  Narrative
	Frustrations Narrative
	Goals        Narrative
}

// All returns the sections in document order.
func (s *Sections) All() []Narrative {
	return []Narrative{s.PersonalInfo, s.Traits, s.Behavior, s.Motivations, s.Frustrations, s.Goals}
}

// Narratives returns every narrative of the analysis.
func (a *Analysis) Narratives() []Narrative {
	out := append([]Narrative(nil), a.Interests.Analyses...)
	return append(out, a.Personality.Analysis, a.Demographics.Analysis)
}
