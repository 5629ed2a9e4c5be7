// Package config reads runtime settings from the environment. A .env file
// in the working directory is loaded first; real environment variables win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Reddit Reddit

	Model           string
	AnthropicAPIKey string
	GeminiAPIKey    string
	AWSRegion       string

	OutputDir string
	Timezone  string

	S3Bucket      string
	PublicBaseURL string
}

type Reddit struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	MaxPosts     int
	MaxComments  int
	RequestDelay time.Duration
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		Reddit: Reddit{
			ClientID:     envString("REDDIT_CLIENT_ID", ""),
			ClientSecret: envString("REDDIT_CLIENT_SECRET", ""),
			UserAgent:    envString("REDDIT_USER_AGENT", "PersonaGenerator/1.0"),
			MaxPosts:     envInt("PERSONA_MAX_POSTS", 100),
			MaxComments:  envInt("PERSONA_MAX_COMMENTS", 200),
			RequestDelay: envDuration("PERSONA_REQUEST_DELAY", time.Second),
		},
		Model:           envString("PERSONA_MODEL", "haiku"),
		AnthropicAPIKey: envString("ANTHROPIC_API_KEY", ""),
		GeminiAPIKey:    envString("GEMINI_API_KEY", envString("GOOGLE_API_KEY", "")),
		AWSRegion:       envString("AWS_REGION", "us-east-1"),
		OutputDir:       envString("PERSONA_OUTPUT_DIR", "output"),
		Timezone:        envString("PERSONA_TZ", "UTC"),
		S3Bucket:        envString("S3_BUCKET", ""),
		PublicBaseURL:   envString("PERSONA_PUBLIC_BASE_URL", ""),
	}
}

// Location resolves Timezone, accepting "Local" and IANA names.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
