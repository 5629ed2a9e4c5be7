package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHasEveryTemplate(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	want := []string{Behavior, Demographics, Frustrations, Goals, Interests, PersonalInfo, Personality, PersonalityTraits, Motivations}
	assert.ElementsMatch(t, want, s.Names())
}

func TestRenderFillsSlots(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	out, err := s.Render(PersonalInfo, map[string]string{
		"username":     "spez",
		"stats":        "{}",
		"demographics": "DEMO",
		"interests":    "INTERESTS",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Username: spez")
	assert.Contains(t, out, "Demographics: DEMO")
	assert.False(t, strings.Contains(out, "{{"))
}

func TestRenderMissingSlot(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	_, err = s.Render(Goals, map[string]string{"interests": "x"})
	assert.ErrorIs(t, err, ErrMissingSlot)

	_, err = s.Render("nope", nil)
	assert.Error(t, err)
}

func TestParseRejectsDuplicates(t *testing.T) {
	doc := []byte("templates:\n  - name: a\n    text: x\n  - name: a\n    text: y\n")
	_, err := Parse(doc)
	assert.Error(t, err)
}

func TestParseRejectsUndeclaredSlot(t *testing.T) {
	doc := []byte("templates:\n  - name: a\n    slots: [content]\n    text: \"Read {{.contnet}}\"\n")
	_, err := Parse(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndeclaredSlot)
	assert.Contains(t, err.Error(), "contnet")
}

func TestParseChecksFieldsInsideBranches(t *testing.T) {
	doc := []byte("templates:\n  - name: a\n    slots: [content]\n    text: \"{{if .content}}{{.content}}{{else}}{{.stats}}{{end}}\"\n")
	_, err := Parse(doc)
	assert.ErrorIs(t, err, ErrUndeclaredSlot)

	ok := []byte("templates:\n  - name: a\n    slots: [content]\n    text: \"{{if .content}}{{.content}}{{end}}\"\n")
	_, err = Parse(ok)
	assert.NoError(t, err)
}
