// Package services – TransformService
//
// TransformService owns one transform request end to end: mock short-circuit,
// content-addressed cache lookup, upstream call, cache write, and the health
// side effect. Upstream-originating failures are returned as *APIError and
// recorded on the health monitor; validation failures are not.
//
// Observability: Transform is OpenTelemetry-instrumented and counts outcomes
// in the promptgear_* Prometheus collectors.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aryan-Gandhi/PromptGenerator/internal/cache"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/domain"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/mockgen"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/observability"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/upstream"
)

// Upstream produces a structured prompt from the provider.
type Upstream interface {
	Transform(ctx context.Context, prompt string, mode *string, model string) (upstream.Completion, error)
}

// HealthRecorder receives the outcome of every completed transform.
type HealthRecorder interface {
	RecordSuccess()
	RecordFailure(message string, status int)
}

// Result is a successful transform.
type Result struct {
	StructuredPrompt string
	Model            string
	Usage            *int
	Mocked           bool
	Cached           bool
}

// TransformService coordinates mock mode, the cache and the upstream caller.
type TransformService struct {
	Store    cache.Store
	Upstream Upstream
	Health   HealthRecorder

	MockEnabled  bool
	DefaultModel string

	// Deadline bounds the whole upstream retry sequence. Zero disables it.
	Deadline time.Duration

	// Now stamps cache records; nil means time.Now.
	Now func() time.Time
}

// ResolveModel returns the requested model, or DefaultModel when the request
// omitted it or sent a blank value.
func (s *TransformService) ResolveModel(requested *string) string {
	if requested != nil {
		if m := strings.TrimSpace(*requested); m != "" {
			return m
		}
	}
	return s.DefaultModel
}

// Transform resolves in to a structured prompt.
func (s *TransformService) Transform(ctx context.Context, in domain.TransformInput) (*Result, error) {
	tr := otel.Tracer("services/TransformService")
	ctx, span := tr.Start(ctx, "Transform")
	defer span.End()

	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	model := s.ResolveModel(in.Model)
	span.SetAttributes(
		attribute.String("llm.model", model),
		attribute.String("llm.mode", in.ModeValue()),
		attribute.Bool("mock", s.MockEnabled),
	)
	lg := zerolog.Ctx(ctx)

	if s.MockEnabled {
		s.Health.RecordSuccess()
		observability.Transforms.WithLabelValues("mock").Inc()
		return &Result{
			StructuredPrompt: mockgen.Build(prompt, in.ModeValue()),
			Model:            model,
			Mocked:           true,
		}, nil
	}

	key := cache.Key(prompt, in.Mode, model)
	if res := s.lookup(ctx, key, model); res != nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		s.Health.RecordSuccess()
		observability.Transforms.WithLabelValues("cache").Inc()
		return res, nil
	}

	callCtx := ctx
	if s.Deadline > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.Deadline)
		defer cancel()
	}

	comp, err := s.Upstream.Transform(callCtx, prompt, in.Mode, model)
	if err != nil {
		apiErr := Normalize(err)
		s.Health.RecordFailure(apiErr.Message, apiErr.Status)
		observability.Transforms.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, apiErr.Message)
		lg.Error().Err(err).Int("status", apiErr.Status).Str("model", model).Msg("transform failed")
		return nil, apiErr
	}

	rec := domain.CachedTransform{
		StructuredPrompt: comp.StructuredPrompt,
		Model:            model,
		Usage:            comp.Usage,
		CachedAt:         s.now().UTC(),
	}
	// The write outlives a client disconnect.
	if err := s.Store.Put(context.WithoutCancel(ctx), key, rec); err != nil {
		lg.Warn().Err(err).Str("cache_key", key).Msg("cache write failed")
	}

	s.Health.RecordSuccess()
	observability.Transforms.WithLabelValues("upstream").Inc()
	return &Result{
		StructuredPrompt: comp.StructuredPrompt,
		Model:            model,
		Usage:            comp.Usage,
	}, nil
}

// lookup returns a cached result, or nil on a miss. Store errors and records
// without text count as misses.
func (s *TransformService) lookup(ctx context.Context, key, model string) *Result {
	_, span := otel.Tracer("services/TransformService").Start(ctx, "cache.Get",
		trace.WithAttributes(attribute.String("cache.key", key)),
	)
	defer span.End()

	rec, ok, err := s.Store.Get(ctx, key)
	if err != nil {
		observability.CacheLookups.WithLabelValues("error").Inc()
		span.RecordError(err)
		zerolog.Ctx(ctx).Warn().Err(err).Str("cache_key", key).Msg("cache read failed")
		return nil
	}
	if !ok || !rec.Valid() {
		observability.CacheLookups.WithLabelValues("miss").Inc()
		return nil
	}
	observability.CacheLookups.WithLabelValues("hit").Inc()

	if rec.Model != "" {
		model = rec.Model
	}
	return &Result{
		StructuredPrompt: rec.StructuredPrompt,
		Model:            model,
		Usage:            rec.Usage,
		Cached:           true,
	}
}

func (s *TransformService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
