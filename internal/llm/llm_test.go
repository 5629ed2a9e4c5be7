package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	text string
	err  error
	got  string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.got = prompt
	return s.text, s.err
}

func TestNewRejectsUnknownModel(t *testing.T) {
	_, err := New(context.Background(), Config{Model: "gpt-9"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
}

func TestNewGeminiRequiresKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	_, err := New(context.Background(), Config{Model: "gemini-flash"})
	assert.Error(t, err)
}

func TestNewClaudeIsTraced(t *testing.T) {
	g, err := New(context.Background(), Config{Model: "haiku", AnthropicAPIKey: "test"})
	require.NoError(t, err)
	_, ok := g.(*traced)
	assert.True(t, ok)
}

func TestIsValidModel(t *testing.T) {
	for _, m := range Models() {
		assert.True(t, IsValidModel(m), m)
	}
	assert.False(t, IsValidModel("opus"))
}

func TestWithTracingPassesThrough(t *testing.T) {
	stub := &stubGenerator{text: "hello"}
	out, err := WithTracing(stub, "haiku").Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "prompt", stub.got)

	boom := errors.New("boom")
	_, err = WithTracing(&stubGenerator{err: boom}, "haiku").Generate(context.Background(), "p")
	assert.ErrorIs(t, err, boom)
}
