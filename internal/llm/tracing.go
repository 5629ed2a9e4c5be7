package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/apresai/persona/internal/metrics"
)

var tracer = otel.Tracer("persona-llm")

type traced struct {
	inner Generator
	model string
}

// WithTracing records a span and a latency sample for every call to g.
func WithTracing(g Generator, model string) Generator {
	return &traced{inner: g, model: model}
}

func (t *traced) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("model", t.model),
		attribute.Int("prompt_chars", len(prompt)),
	)

	start := time.Now()
	text, err := t.inner.Generate(ctx, prompt)
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
	} else {
		span.SetAttributes(attribute.Int("response_chars", len(text)))
	}
	metrics.LLMRequestDuration.WithLabelValues(t.model, status).Observe(time.Since(start).Seconds())
	return text, err
}
