package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/apresai/persona/internal/dataset"
	"github.com/apresai/persona/internal/llm"
	"github.com/apresai/persona/internal/pipeline"
	"github.com/apresai/persona/internal/prompt"
	"github.com/apresai/persona/internal/reddit"
	"github.com/apresai/persona/internal/stats"
	"github.com/apresai/persona/internal/storage"
)

var tracer = otel.Tracer("persona-mcp")

// ToolDefs returns the MCP tool definitions.
func ToolDefs() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "generate_persona",
			Description: "Generate a user persona from a Reddit account's public posts and comments. Returns the persona document with citations.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"username": map[string]any{
						"type":        "string",
						"description": "Reddit username or profile URL (https://www.reddit.com/user/<name>/)",
					},
					"model": map[string]any{
						"type":        "string",
						"description": "Generation model: haiku, sonnet, gemini-flash, gemini-pro, nova-lite",
						"default":     "haiku",
					},
				},
				Required: []string{"username"},
			},
		},
		{
			Name:        "get_user_stats",
			Description: "Compute activity statistics for a Reddit user without calling a generation model.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"username": map[string]any{
						"type":        "string",
						"description": "Reddit username or profile URL",
					},
				},
				Required: []string{"username"},
			},
		},
	}
}

// Deps are the collaborators the handlers run pipelines with.
type Deps struct {
	Source       pipeline.Source
	Templates    *prompt.Set
	Publisher    storage.Publisher
	NewGenerator func(ctx context.Context, model string) (llm.Generator, error)
	DefaultModel string
	OutputDir    string
	Location     *time.Location
	MaxRuns      int
}

// Handlers contains tool handler implementations.
type Handlers struct {
	deps Deps
	log  *slog.Logger

	mu         sync.Mutex
	generators map[string]llm.Generator
	running    int
}

// NewHandlers creates tool handlers.
func NewHandlers(deps Deps, logger *slog.Logger) *Handlers {
	if deps.MaxRuns <= 0 {
		deps.MaxRuns = 3
	}
	if deps.DefaultModel == "" {
		deps.DefaultModel = "haiku"
	}
	return &Handlers{deps: deps, log: logger, generators: make(map[string]llm.Generator)}
}

// HandleGeneratePersona runs the full pipeline for one user.
func (h *Handlers) HandleGeneratePersona(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.generate_persona")
	defer span.End()

	username, err := reddit.ParseUsername(mcp.ParseString(req, "username", ""))
	if err != nil {
		span.SetStatus(codes.Error, "invalid username")
		return mcp.NewToolResultError(err.Error()), nil
	}
	model := mcp.ParseString(req, "model", h.deps.DefaultModel)
	span.SetAttributes(
		attribute.String("username", username),
		attribute.String("model", model),
	)
	if !llm.IsValidModel(model) {
		span.SetStatus(codes.Error, "invalid model")
		return mcp.NewToolResultError(fmt.Sprintf("invalid model %q", model)), nil
	}

	if err := h.acquire(); err != nil {
		span.SetStatus(codes.Error, "busy")
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer h.release()

	gen, err := h.generator(ctx, model)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generator setup failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to set up model %s: %v", model, err)), nil
	}

	p := &pipeline.Pipeline{
		Source:    h.deps.Source,
		Generator: gen,
		Templates: h.deps.Templates,
		Logger:    h.log,
		Location:  h.deps.Location,
		Publisher: h.deps.Publisher,
		RunDir:    true,
	}
	res, err := p.Run(ctx, username, h.deps.OutputDir)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pipeline failed")
		return mcp.NewToolResultError(fmt.Sprintf("persona generation failed: %v", err)), nil
	}

	span.SetAttributes(attribute.String("run_id", res.RunID))
	h.log.InfoContext(ctx, "Persona generated", "run_id", res.RunID, "username", username, "model", model)

	result := map[string]any{
		"run_id":   res.RunID,
		"username": res.Username,
		"path":     res.Path,
		"persona":  res.Text,
		"outcomes": res.Outcomes,
	}
	if res.URL != "" {
		result["url"] = res.URL
	}
	return jsonResult(result)
}

// HandleGetUserStats returns the statistics bundle.
func (h *Handlers) HandleGetUserStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.get_user_stats")
	defer span.End()

	username, err := reddit.ParseUsername(mcp.ParseString(req, "username", ""))
	if err != nil {
		span.SetStatus(codes.Error, "invalid username")
		return mcp.NewToolResultError(err.Error()), nil
	}
	span.SetAttributes(attribute.String("username", username))

	ds, err := h.deps.Source.Fetch(ctx, username)
	if err == nil {
		err = ds.Validate()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		if errors.Is(err, dataset.ErrNoActivity) {
			return mcp.NewToolResultError(fmt.Sprintf("u/%s has no analyzable activity", username)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch activity: %v", err)), nil
	}

	b := stats.Compute(ds, stats.Options{Location: h.deps.Location})
	span.SetAttributes(attribute.Int("total_activity", b.TotalActivity))
	return jsonResult(map[string]any{
		"username": username,
		"stats":    b,
	})
}

// generator returns the cached generator for model, creating it once.
func (h *Handlers) generator(ctx context.Context, model string) (llm.Generator, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if g, ok := h.generators[model]; ok {
		return g, nil
	}
	g, err := h.deps.NewGenerator(ctx, model)
	if err != nil {
		return nil, err
	}
	h.generators[model] = g
	return g, nil
}

func (h *Handlers) acquire() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running >= h.deps.MaxRuns {
		return fmt.Errorf("max concurrent runs reached (%d)", h.deps.MaxRuns)
	}
	h.running++
	return nil
}

func (h *Handlers) release() {
	h.mu.Lock()
	h.running--
	h.mu.Unlock()
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
