package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PERSONA_MAX_POSTS", "PERSONA_MAX_COMMENTS", "PERSONA_REQUEST_DELAY", "PERSONA_MODEL", "PERSONA_OUTPUT_DIR", "PERSONA_TZ", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	assert.Equal(t, 100, cfg.Reddit.MaxPosts)
	assert.Equal(t, 200, cfg.Reddit.MaxComments)
	assert.Equal(t, time.Second, cfg.Reddit.RequestDelay)
	assert.Equal(t, "haiku", cfg.Model)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Empty(t, cfg.GeminiAPIKey)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PERSONA_MAX_POSTS", "25")
	t.Setenv("PERSONA_MAX_COMMENTS", "not-a-number")
	t.Setenv("PERSONA_REQUEST_DELAY", "250ms")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "g-key")

	cfg := FromEnv()
	assert.Equal(t, 25, cfg.Reddit.MaxPosts)
	assert.Equal(t, 200, cfg.Reddit.MaxComments)
	assert.Equal(t, 250*time.Millisecond, cfg.Reddit.RequestDelay)
	assert.Equal(t, "g-key", cfg.GeminiAPIKey)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REDDIT_USER_AGENT=from-dotenv/2.0\n"), 0644))
	t.Chdir(dir)
	t.Setenv("REDDIT_USER_AGENT", "")
	os.Unsetenv("REDDIT_USER_AGENT")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv/2.0", cfg.Reddit.UserAgent)
}

func TestLocation(t *testing.T) {
	loc, err := Config{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = Config{Timezone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}
