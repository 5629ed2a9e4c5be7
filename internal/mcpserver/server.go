package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/apresai/persona/internal/config"
	"github.com/apresai/persona/internal/llm"
	"github.com/apresai/persona/internal/prompt"
	"github.com/apresai/persona/internal/reddit"
	"github.com/apresai/persona/internal/storage"
)

// Config holds server configuration.
type Config struct {
	Port          int
	AWSRegion     string
	S3Bucket      string
	PublicBaseURL string
	OutputDir     string
	DefaultModel  string
	Timezone      string
	MaxRuns       int
	SecretPrefix  string // e.g. "/persona/mcp/"
}

// DefaultConfig returns a Config populated from environment variables.
func DefaultConfig() Config {
	return Config{
		Port:          envInt("PORT", 8000),
		AWSRegion:     envOr("AWS_REGION", "us-east-1"),
		S3Bucket:      envOr("S3_BUCKET", ""),
		PublicBaseURL: envOr("PERSONA_PUBLIC_BASE_URL", ""),
		OutputDir:     envOr("PERSONA_OUTPUT_DIR", os.TempDir()),
		DefaultModel:  envOr("PERSONA_MODEL", "haiku"),
		Timezone:      envOr("PERSONA_TZ", "UTC"),
		MaxRuns:       envInt("PERSONA_MAX_RUNS", 3),
		SecretPrefix:  envOr("SECRET_PREFIX", ""),
	}
}

// Server is the MCP server for persona generation.
type Server struct {
	cfg      Config
	mcp      *server.MCPServer
	handlers *Handlers
	log      *slog.Logger
}

// New creates and configures the MCP server.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	if cfg.SecretPrefix != "" {
		if err := loadSecrets(ctx, awsCfg, cfg.SecretPrefix, logger); err != nil {
			logger.Warn("Failed to load secrets from Secrets Manager, falling back to env vars",
				"error", err)
		}
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	templates, err := prompt.Default()
	if err != nil {
		return nil, err
	}

	// Secrets are in the environment by now; .env fills any gaps.
	appCfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	source := reddit.New(ctx, reddit.OptionsFromConfig(appCfg.Reddit), logger)

	deps := Deps{
		Source:       source,
		Templates:    templates,
		DefaultModel: cfg.DefaultModel,
		OutputDir:    cfg.OutputDir,
		Location:     loc,
		MaxRuns:      cfg.MaxRuns,
		NewGenerator: func(ctx context.Context, model string) (llm.Generator, error) {
			return llm.New(ctx, llm.Config{
				Model:           model,
				AnthropicAPIKey: appCfg.AnthropicAPIKey,
				GeminiAPIKey:    appCfg.GeminiAPIKey,
				AWSRegion:       cfg.AWSRegion,
			})
		},
	}
	if cfg.S3Bucket != "" {
		s3Client := s3.NewFromConfig(awsCfg)
		deps.Publisher = storage.NewS3Publisher(s3Client, cfg.S3Bucket, cfg.PublicBaseURL)
	}
	handlers := NewHandlers(deps, logger)

	mcpServer := server.NewMCPServer(
		"persona",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	tools := ToolDefs()
	mcpServer.AddTool(tools[0], handlers.HandleGeneratePersona)
	mcpServer.AddTool(tools[1], handlers.HandleGetUserStats)

	return &Server{
		cfg:      cfg,
		mcp:      mcpServer,
		handlers: handlers,
		log:      logger,
	}, nil
}

// Start runs the HTTP MCP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.log.Info("Starting MCP server", "addr", addr)

	httpServer := server.NewStreamableHTTPServer(s.mcp,
		server.WithStateLess(true),
	)
	return httpServer.Start(addr)
}

// loadSecrets fetches API keys from Secrets Manager and sets them as env vars.
func loadSecrets(ctx context.Context, cfg aws.Config, prefix string, logger *slog.Logger) error {
	client := secretsmanager.NewFromConfig(cfg)

	secrets := map[string]string{
		"ANTHROPIC_API_KEY":    prefix + "ANTHROPIC_API_KEY",
		"GEMINI_API_KEY":       prefix + "GEMINI_API_KEY",
		"REDDIT_CLIENT_ID":     prefix + "REDDIT_CLIENT_ID",
		"REDDIT_CLIENT_SECRET": prefix + "REDDIT_CLIENT_SECRET",
	}

	for envVar, secretID := range secrets {
		if os.Getenv(envVar) != "" {
			continue
		}

		result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: &secretID,
		})
		if err != nil {
			logger.Info("Secret not found", "secret_id", secretID, "error", err)
			continue
		}
		if result.SecretString != nil {
			os.Setenv(envVar, *result.SecretString)
			logger.Info("Loaded secret", "secret_id", secretID)
		}
	}

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
