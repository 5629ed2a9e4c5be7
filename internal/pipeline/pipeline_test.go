package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apresai/persona/internal/dataset"
	"github.com/apresai/persona/internal/llm/llmtest"
	"github.com/apresai/persona/internal/progress"
	"github.com/apresai/persona/internal/prompt"
	"github.com/apresai/persona/internal/synth"
)

var t0 = time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

type staticSource struct {
	ds  *dataset.Dataset
	err error
}

func (s staticSource) Fetch(context.Context, string) (*dataset.Dataset, error) {
	return s.ds, s.err
}

type fakePublisher struct {
	body []byte
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, runID, username string, body []byte) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	f.body = body
	key := fmt.Sprintf("personas/%s/%s_persona.txt", runID, username)
	return key, "https://cdn.test/" + key, nil
}

func newPipeline(t *testing.T, src Source, gen *llmtest.Fake) *Pipeline {
	t.Helper()
	set, err := prompt.Default()
	require.NoError(t, err)
	return &Pipeline{
		Source:    src,
		Generator: gen,
		Templates: set,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:       func() time.Time { return t0 },
	}
}

func fivePosts() *dataset.Dataset {
	var posts []dataset.Post
	for i := 0; i < 5; i++ {
		title := fmt.Sprintf("Weekend project update number %d", i)
		if i == 2 {
			title = "Which linter do you all use?"
		}
		posts = append(posts, dataset.Post{
			ID: fmt.Sprintf("p%d", i), Title: title, Subreddit: "golang",
			Body: strings.Repeat("Spent the weekend refactoring a service. ", 3), CreatedAt: t0.Add(time.Duration(i) * time.Hour),
		})
	}
	return dataset.New("gopher", posts, nil, t0)
}

func TestRunNoActivityIsFatal(t *testing.T) {
	dir := t.TempDir()
	gen := &llmtest.Fake{}
	p := newPipeline(t, staticSource{ds: dataset.New("ghost", nil, nil, t0)}, gen)

	res, err := p.Run(context.Background(), "ghost", dir)
	require.Error(t, err)
	assert.Nil(t, res)

	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "fetch", pe.Stage)
	assert.ErrorIs(t, err, dataset.ErrNoActivity)
	assert.Zero(t, gen.Calls())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunSourceError(t *testing.T) {
	p := newPipeline(t, staticSource{err: errors.New("connection reset")}, &llmtest.Fake{})
	_, err := p.Run(context.Background(), "gopher", t.TempDir())

	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "fetch", pe.Stage)
	assert.ErrorContains(t, err, "connection reset")
}

func TestRunPostsOnly(t *testing.T) {
	dir := t.TempDir()
	p := newPipeline(t, staticSource{ds: fivePosts()}, &llmtest.Fake{})

	res, err := p.Run(context.Background(), "gopher", dir)
	require.NoError(t, err)

	assert.True(t, res.Stats.PostToCommentRatio.IsInf())
	assert.Equal(t, 1, strings.Count(res.Text, "Evidence: Asks questions in post titles"))
	assert.Contains(t, res.Text, "POST - Which linter do you all use?")
	assert.NotEmpty(t, res.RunID)

	written, err := os.ReadFile(filepath.Join(dir, "gopher_persona.txt"))
	require.NoError(t, err)
	assert.Equal(t, res.Text, string(written))
	assert.Equal(t, filepath.Join(dir, "gopher_persona.txt"), res.Path)
}

func TestRunInsufficientContentSkipsBackend(t *testing.T) {
	ds := dataset.New("brief", []dataset.Post{{ID: "p", Title: "hi", Subreddit: "test", CreatedAt: t0}}, nil, t0)
	gen := &llmtest.Fake{}
	p := newPipeline(t, staticSource{ds: ds}, gen)

	res, err := p.Run(context.Background(), "brief", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Outcomes[synth.OutcomeSkipped])
	assert.Equal(t, 6, gen.Calls())
	for _, pr := range gen.Prompts() {
		assert.NotContains(t, pr, "POST: hi")
	}

	joined := strings.Join(gen.Prompts(), "\n")
	assert.Contains(t, joined, synth.InsufficientContent(synth.DimPersonality))
}

func TestRunBackendDown(t *testing.T) {
	gen := &llmtest.Fake{Fail: true}
	p := newPipeline(t, staticSource{ds: fivePosts()}, gen)

	res, err := p.Run(context.Background(), "gopher", t.TempDir())
	require.NoError(t, err)

	assert.Zero(t, res.Outcomes[synth.OutcomeGenerated])
	assert.Equal(t, 6, strings.Count(res.Text, synth.UnableToGenerate))
	assert.Equal(t, 1, res.FailedInterestChunks)

	headers := []string{
		"# USER PERSONA: gopher", "## PERSONAL INFORMATION", "## PERSONALITY TRAITS",
		"## BEHAVIOR & HABITS", "## MOTIVATIONS", "## FRUSTRATIONS", "## GOALS & NEEDS",
		"## CITATIONS & EVIDENCE",
	}
	pos := 0
	for _, h := range headers {
		i := strings.Index(res.Text[pos:], h)
		require.GreaterOrEqual(t, i, 0, "missing or out of order: %q", h)
		pos += i + len(h)
	}
}

func TestRunDirSeparatesRuns(t *testing.T) {
	dir := t.TempDir()
	p := newPipeline(t, staticSource{ds: fivePosts()}, &llmtest.Fake{})
	p.RunDir = true

	first, err := p.Run(context.Background(), "gopher", dir)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), "gopher", dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, first.RunID, "gopher_persona.txt"), first.Path)
	assert.Equal(t, filepath.Join(dir, second.RunID, "gopher_persona.txt"), second.Path)
	assert.NotEqual(t, first.Path, second.Path)
	for _, res := range []*Result{first, second} {
		written, err := os.ReadFile(res.Path)
		require.NoError(t, err)
		assert.Equal(t, res.Text, string(written))
	}
	assert.NoFileExists(t, filepath.Join(dir, "gopher_persona.txt"))
}

func TestRunPublishes(t *testing.T) {
	pub := &fakePublisher{}
	p := newPipeline(t, staticSource{ds: fivePosts()}, &llmtest.Fake{})
	p.Publisher = pub

	var events []progress.Event
	p.OnProgress = func(e progress.Event) { events = append(events, e) }

	res, err := p.Run(context.Background(), "gopher", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, res.Text, string(pub.body))
	assert.Equal(t, "https://cdn.test/personas/"+res.RunID+"/gopher_persona.txt", res.URL)

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, progress.StageComplete, last.Stage)
	assert.Equal(t, res.URL, last.URL)
	assert.Equal(t, res.Path, last.OutputFile)

	var sectionSteps int
	for _, e := range events {
		if e.Stage == progress.StageSections {
			sectionSteps++
			assert.Equal(t, 6, e.StepTotal)
		}
	}
	assert.Equal(t, 6, sectionSteps)
}

func TestRunPublishFailure(t *testing.T) {
	p := newPipeline(t, staticSource{ds: fivePosts()}, &llmtest.Fake{})
	p.Publisher = &fakePublisher{err: errors.New("access denied")}

	_, err := p.Run(context.Background(), "gopher", t.TempDir())
	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "publish", pe.Stage)
}

func TestRunSavesDataset(t *testing.T) {
	dir := t.TempDir()
	p := newPipeline(t, staticSource{ds: fivePosts()}, &llmtest.Fake{})
	p.SaveDataset = filepath.Join(dir, "gopher.json")

	_, err := p.Run(context.Background(), "gopher", filepath.Join(dir, "nested", "out"))
	require.NoError(t, err)

	saved, err := dataset.Load(p.SaveDataset)
	require.NoError(t, err)
	assert.Len(t, saved.Posts, 5)
	assert.FileExists(t, filepath.Join(dir, "nested", "out", "gopher_persona.txt"))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Hungry-Move-6603_persona.txt", FileName("Hungry-Move-6603"))
	assert.Equal(t, "a_b_persona.txt", FileName("a/b"))
}
