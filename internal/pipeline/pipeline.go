// Package pipeline runs one persona generation end to end.
package pipeline

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/apresai/persona/internal/citation"
	"github.com/apresai/persona/internal/dataset"
	"github.com/apresai/persona/internal/llm"
	"github.com/apresai/persona/internal/metrics"
	"github.com/apresai/persona/internal/persona"
	"github.com/apresai/persona/internal/progress"
	"github.com/apresai/persona/internal/prompt"
	"github.com/apresai/persona/internal/stats"
	"github.com/apresai/persona/internal/storage"
	"github.com/apresai/persona/internal/synth"
)

var tracer = otel.Tracer("persona-pipeline")

// Source supplies the activity dataset for a username.
type Source interface {
	Fetch(ctx context.Context, username string) (*dataset.Dataset, error)
}

type PipelineError struct {
	Stage   string
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Stage, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Pipeline wires the stages together. Source, Generator and Templates are
// required; the rest have usable zero values.
type Pipeline struct {
	Source    Source
	Generator llm.Generator
	Templates *prompt.Set
	Logger    *slog.Logger

	// Now stamps the document. Defaults to time.Now.
	Now        func() time.Time
	OnProgress progress.Callback
	// Location buckets activity hours and days. Defaults to UTC.
	Location *time.Location
	// Publisher, when set, uploads the finished document.
	Publisher storage.Publisher
	// SaveDataset, when set, writes the fetched dataset as JSON.
	SaveDataset string
	Limits      *synth.Limits
	// RunDir writes each run under outputDir/<run id> so concurrent runs
	// for the same user never share a file.
	RunDir bool
}

type Result struct {
	RunID    string
	Username string
	Path     string
	Text     string
	Stats    *stats.Bundle

	Outcomes             map[synth.Outcome]int
	FailedInterestChunks int

	Key string
	URL string
}

// Run generates the persona for username into outputDir.
func (p *Pipeline) Run(ctx context.Context, username, outputDir string) (res *Result, err error) {
	start := time.Now()
	runID := newRunID()
	log := p.logger().With("run_id", runID, "username", username)
	emit := p.emitter(start)

	ctx, span := tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.String("username", username),
	))
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, "pipeline failed")
			emit(progress.Event{Stage: progress.StageComplete, Message: "Failed", Error: err})
		}
		metrics.PipelineRunsTotal.WithLabelValues(status).Inc()
		span.End()
	}()

	log.InfoContext(ctx, "Persona generation started", "output_dir", outputDir)

	// Stage 1: fetch and validate
	emit(progress.Event{Stage: progress.StageFetch, Message: fmt.Sprintf("Fetching activity for u/%s...", username), Percent: 0.02})
	var ds *dataset.Dataset
	err = p.stage(ctx, progress.StageFetch, func(ctx context.Context) error {
		var ferr error
		ds, ferr = p.Source.Fetch(ctx, username)
		if ferr != nil {
			return ferr
		}
		return ds.Validate()
	})
	if err != nil {
		msg := "failed to fetch activity"
		if errors.Is(err, dataset.ErrNoActivity) {
			msg = "no analyzable activity"
		}
		return nil, &PipelineError{Stage: string(progress.StageFetch), Message: msg, Err: err}
	}
	log.InfoContext(ctx, "Activity loaded", "posts", len(ds.Posts), "comments", len(ds.Comments))

	if p.SaveDataset != "" {
		if err := dataset.Save(ds, p.SaveDataset); err != nil {
			return nil, &PipelineError{Stage: string(progress.StageFetch), Message: "failed to save dataset", Err: err}
		}
		log.InfoContext(ctx, "Dataset saved", "path", p.SaveDataset)
	}

	// Stage 2: statistics
	emit(progress.Event{Stage: progress.StageStats, Message: "Computing statistics...", Percent: 0.1})
	var b *stats.Bundle
	p.span(ctx, progress.StageStats, func(context.Context) {
		b = stats.Compute(ds, stats.Options{Location: p.location()})
	})
	log.DebugContext(ctx, "Statistics computed", "total_activity", b.TotalActivity, "timezone", b.Timezone)

	// Stages 3 and 4: narratives
	syn := synth.New(p.Generator, p.Templates, log, p.synthOptions(emit)...)

	emit(progress.Event{Stage: progress.StageAnalyze, Message: "Analyzing content...", Percent: 0.15})
	var analysis *synth.Analysis
	p.span(ctx, progress.StageAnalyze, func(ctx context.Context) {
		analysis = syn.Analyze(ctx, ds, b)
	})
	if err := ctx.Err(); err != nil {
		return nil, &PipelineError{Stage: string(progress.StageAnalyze), Message: "cancelled", Err: err}
	}

	var sections *synth.Sections
	p.span(ctx, progress.StageSections, func(ctx context.Context) {
		sections = syn.Sections(ctx, username, b, analysis)
	})
	if err := ctx.Err(); err != nil {
		return nil, &PipelineError{Stage: string(progress.StageSections), Message: "cancelled", Err: err}
	}

	// Stage 5: citations and layout
	emit(progress.Event{Stage: progress.StageCitations, Message: "Collecting citations...", Percent: 0.88})
	var doc *persona.Persona
	p.span(ctx, progress.StageCitations, func(context.Context) {
		doc = persona.Format(persona.Input{
			Username:    username,
			GeneratedAt: p.now(),
			Stats:       b,
			Analysis:    analysis,
			Sections:    sections,
			Citations:   citation.Index(b, ds),
		})
	})
	text := doc.String()

	// Stage 6: write
	emit(progress.Event{Stage: progress.StageWrite, Message: "Writing persona...", Percent: 0.92})
	dir := outputDir
	if p.RunDir {
		dir = filepath.Join(outputDir, runID)
	}
	path := filepath.Join(dir, FileName(username))
	err = p.stage(ctx, progress.StageWrite, func(context.Context) error {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		return os.WriteFile(path, []byte(text), 0644)
	})
	if err != nil {
		return nil, &PipelineError{Stage: string(progress.StageWrite), Message: "failed to write persona", Err: err}
	}

	res = &Result{
		RunID:                runID,
		Username:             username,
		Path:                 path,
		Text:                 text,
		Stats:                b,
		Outcomes:             countOutcomes(analysis, sections),
		FailedInterestChunks: analysis.FailedInterestChunks,
	}

	// Stage 7: publish
	if p.Publisher != nil {
		emit(progress.Event{Stage: progress.StagePublish, Message: "Publishing...", Percent: 0.96})
		err = p.stage(ctx, progress.StagePublish, func(ctx context.Context) error {
			var perr error
			res.Key, res.URL, perr = p.Publisher.Publish(ctx, runID, username, []byte(text))
			return perr
		})
		if err != nil {
			return nil, &PipelineError{Stage: string(progress.StagePublish), Message: "failed to publish persona", Err: err}
		}
		log.InfoContext(ctx, "Persona published", "key", res.Key, "url", res.URL)
	}

	log.InfoContext(ctx, "Persona generation complete",
		"path", path,
		"generated", res.Outcomes[synth.OutcomeGenerated],
		"fallback", res.Outcomes[synth.OutcomeFallback],
		"skipped", res.Outcomes[synth.OutcomeSkipped],
		"failed_interest_chunks", res.FailedInterestChunks,
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
	emit(progress.Event{
		Stage:      progress.StageComplete,
		Message:    "Persona complete",
		Percent:    1,
		OutputFile: path,
		URL:        res.URL,
	})
	return res, nil
}

// stage runs fn inside a span and records its duration.
func (p *Pipeline) stage(ctx context.Context, s progress.Stage, fn func(context.Context) error) error {
	var err error
	p.span(ctx, s, func(ctx context.Context) {
		if err = fn(ctx); err != nil {
			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, string(s)+" failed")
		}
	})
	return err
}

// span is stage for steps that cannot fail.
func (p *Pipeline) span(ctx context.Context, s progress.Stage, fn func(context.Context)) {
	ctx, span := tracer.Start(ctx, "pipeline."+string(s))
	defer span.End()

	start := time.Now()
	fn(ctx)
	metrics.PipelineStageDuration.WithLabelValues(string(s)).Observe(time.Since(start).Seconds())
}

// synthOptions maps narrative steps onto progress events. Analysis steps
// have no known total; the six sections do.
func (p *Pipeline) synthOptions(emit progress.Callback) []synth.Option {
	var opts []synth.Option
	if p.Limits != nil {
		opts = append(opts, synth.WithLimits(*p.Limits))
	}

	sectionStep := 0
	opts = append(opts, synth.WithStepFunc(func(d synth.Dimension) {
		switch d {
		case synth.DimInterests, synth.DimPersonality, synth.DimDemographics:
			emit(progress.Event{
				Stage:   progress.StageAnalyze,
				Message: fmt.Sprintf("Analyzing %s...", d.Label()),
				Percent: analyzePercent(d),
			})
		default:
			sectionStep++
			emit(progress.Event{
				Stage:     progress.StageSections,
				Message:   "Writing persona sections...",
				Percent:   0.55 + 0.3*float64(sectionStep-1)/sectionCount,
				Step:      sectionStep,
				StepTotal: sectionCount,
			})
		}
	}))
	return opts
}

const sectionCount = 6

func analyzePercent(d synth.Dimension) float64 {
	switch d {
	case synth.DimPersonality:
		return 0.4
	case synth.DimDemographics:
		return 0.48
	default:
		return 0.2
	}
}

func (p *Pipeline) emitter(start time.Time) progress.Callback {
	cb := p.OnProgress
	if cb == nil {
		cb = progress.NopCallback
	}
	return func(e progress.Event) {
		e.Elapsed = time.Since(start)
		cb(e)
	}
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) location() *time.Location {
	if p.Location != nil {
		return p.Location
	}
	return time.UTC
}

func countOutcomes(a *synth.Analysis, s *synth.Sections) map[synth.Outcome]int {
	out := make(map[synth.Outcome]int)
	for _, n := range a.Narratives() {
		out[n.Outcome]++
	}
	for _, n := range s.All() {
		out[n.Outcome]++
	}
	return out
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// FileName is the persona file name for username.
func FileName(username string) string {
	return unsafeFileChars.ReplaceAllString(username, "_") + "_persona.txt"
}

func newRunID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
