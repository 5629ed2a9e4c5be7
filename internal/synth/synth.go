// Package synth turns activity content and statistics into generated
// narratives, one generation call at a time.
package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/apresai/persona/internal/chunk"
	"github.com/apresai/persona/internal/dataset"
	"github.com/apresai/persona/internal/llm"
	"github.com/apresai/persona/internal/metrics"
	"github.com/apresai/persona/internal/prompt"
	"github.com/apresai/persona/internal/stats"
)

// Limits bounds the content sent to each analysis.
type Limits struct {
	ChunkBatchSize    int
	InterestsMaxChars int

	PersonalityPosts    int
	PersonalityComments int
	PersonalityMaxChars int

	DemographicsPosts    int
	DemographicsComments int
	DemographicsMaxChars int

	// MinChars is the shortest input worth a generation call.
	MinChars int
}

func DefaultLimits() Limits {
	return Limits{
		ChunkBatchSize:       chunk.DefaultBatchSize,
		InterestsMaxChars:    8000,
		PersonalityPosts:     15,
		PersonalityComments:  25,
		PersonalityMaxChars:  8000,
		DemographicsPosts:    8,
		DemographicsComments: 15,
		DemographicsMaxChars: 6000,
		MinChars:             chunk.DefaultMinChars,
	}
}

// StepFunc is called before each dimension is generated.
type StepFunc func(dim Dimension)

type Option func(*Synthesizer)

func WithLimits(l Limits) Option { return func(s *Synthesizer) { s.limits = l } }

func WithStepFunc(f StepFunc) Option { return func(s *Synthesizer) { s.onStep = f } }

// Synthesizer owns one generator handle for its whole lifetime.
type Synthesizer struct {
	gen       llm.Generator
	templates *prompt.Set
	log       *slog.Logger
	limits    Limits
	onStep    StepFunc
}

func New(gen llm.Generator, templates *prompt.Set, logger *slog.Logger, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		gen:       gen,
		templates: templates,
		log:       logger,
		limits:    DefaultLimits(),
		onStep:    func(Dimension) {},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Analyze runs the interests, personality and demographics analyses.
func (s *Synthesizer) Analyze(ctx context.Context, ds *dataset.Dataset, b *stats.Bundle) *Analysis {
	a := &Analysis{}

	chunks := chunk.Chunk(ds.ContentItems(-1, -1), chunk.Options{
		BatchSize: s.limits.ChunkBatchSize,
		MaxChars:  s.limits.InterestsMaxChars,
		MinChars:  s.limits.MinChars,
	})
	s.log.DebugContext(ctx, "Interest chunks prepared", "chunks", len(chunks))
	a.Interests.Analyses = []Narrative{}
	for _, c := range chunks {
		n := s.generate(ctx, DimInterests, prompt.Interests, map[string]string{"content": c}, AnalysisError(DimInterests))
		if n.Generated() {
			a.Interests.Analyses = append(a.Interests.Analyses, n)
		} else {
			a.FailedInterestChunks++
		}
	}
	a.Interests.Categories = b.SubredditCategories

	personality := s.limitedContent(ds, s.limits.PersonalityPosts, s.limits.PersonalityComments, s.limits.PersonalityMaxChars)
	a.Personality = Personality{
		Analysis: s.generate(ctx, DimPersonality, prompt.Personality, map[string]string{"content": personality}, AnalysisError(DimPersonality)),
		Patterns: b.CommunicationPatterns,
	}

	demographics := s.limitedContent(ds, s.limits.DemographicsPosts, s.limits.DemographicsComments, s.limits.DemographicsMaxChars)
	a.Demographics = Demographics{
		Analysis: s.generate(ctx, DimDemographics, prompt.Demographics, map[string]string{"content": demographics}, AnalysisError(DimDemographics)),
		Timezone: b.Timezone,
	}
	return a
}

// Sections generates the six persona sections in order. Goals consume
// the motivations narrative produced just before them.
func (s *Synthesizer) Sections(ctx context.Context, username string, b *stats.Bundle, a *Analysis) *Sections {
	basic := toJSON(b.Basic())
	behavior := toJSON(b.Behavior())
	communication := toJSON(b.CommunicationStyle())
	interests := toJSON(a.Interests)

	sec := &Sections{}
	sec.PersonalInfo = s.generate(ctx, DimPersonalInfo, prompt.PersonalInfo, map[string]string{
		"username":     username,
		"stats":        basic,
		"demographics": toJSON(a.Demographics),
		"interests":    interests,
	}, UnableToGenerate)

	sec.Traits = s.generate(ctx, DimTraits, prompt.PersonalityTraits, map[string]string{
		"analysis":      a.Personality.Analysis.Text,
		"communication": communication,
	}, UnableToGenerate)

	sec.Behavior = s.generate(ctx, DimBehavior, prompt.Behavior, map[string]string{
		"patterns": behavior,
		"stats":    basic,
	}, UnableToGenerate)

	sec.Motivations = s.generate(ctx, DimMotivations, prompt.Motivations, map[string]string{
		"interests":   interests,
		"personality": toJSON(a.Personality),
	}, UnableToGenerate)

	sec.Frustrations = s.generate(ctx, DimFrustrations, prompt.Frustrations, map[string]string{
		"behavior":      behavior,
		"communication": communication,
	}, UnableToGenerate)

	motivations := NotAvailable
	if sec.Motivations.Generated() {
		motivations = sec.Motivations.Text
	}
	sec.Goals = s.generate(ctx, DimGoals, prompt.Goals, map[string]string{
		"interests":   interests,
		"motivations": motivations,
	}, UnableToGenerate)

	return sec
}

// limitedContent joins the first posts and comments with newlines, cut to
// maxChars.
func (s *Synthesizer) limitedContent(ds *dataset.Dataset, posts, comments, maxChars int) string {
	text := strings.Join(ds.ContentItems(posts, comments), "\n")
	return chunk.Truncate(text, maxChars)
}

// generate renders the template and makes one generation call. Input
// below the minimum length is skipped; any failure yields fallback.
func (s *Synthesizer) generate(ctx context.Context, dim Dimension, tmpl string, values map[string]string, fallback string) Narrative {
	s.onStep(dim)
	log := s.log.With("dimension", string(dim))

	if n := contentLength(values); n < s.limits.MinChars {
		log.InfoContext(ctx, "Skipping generation, insufficient content", "chars", n, "min_chars", s.limits.MinChars)
		return s.record(Narrative{Dimension: dim, Text: InsufficientContent(dim), Outcome: OutcomeSkipped})
	}

	text, err := s.templates.Render(tmpl, values)
	if err == nil {
		text, err = s.gen.Generate(ctx, text)
	}
	if err != nil {
		log.WarnContext(ctx, "Generation failed, using fallback", "error", err)
		return s.record(Narrative{Dimension: dim, Text: fallback, Outcome: OutcomeFallback, Err: err})
	}

	log.DebugContext(ctx, "Generated narrative", "chars", utf8.RuneCountInString(text))
	return s.record(Narrative{Dimension: dim, Text: text, Outcome: OutcomeGenerated})
}

func (s *Synthesizer) record(n Narrative) Narrative {
	metrics.GenerationsTotal.WithLabelValues(string(n.Dimension), string(n.Outcome)).Inc()
	return n
}

// contentLength counts the runes of every slot value except the username,
// which carries no analyzable content.
func contentLength(values map[string]string) int {
	n := 0
	for k, v := range values {
		if k == "username" {
			continue
		}
		n += utf8.RuneCountInString(v)
	}
	return n
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}
