// Package upstream calls the OpenAI Responses API to restructure prompts.
//
// A call makes up to MaxRetries+1 attempts. Each attempt gets its own
// timeout (Timeout + attempt*TimeoutStep). Transport errors, timeouts and the
// retryable statuses are retried after an exponential backoff delay, raised
// to the provider's Retry-After when that is larger, jittered and capped.
// The last failed attempt is returned as a *Failure.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aryan-Gandhi/PromptGenerator/internal/observability"
)

const (
	// maxResponseBytes caps how much of a provider reply is read.
	maxResponseBytes = 4 << 20

	// DefaultMaxJitter is the jitter bound used by the service.
	DefaultMaxJitter = 200 * time.Millisecond
)

// Config holds the call policy. Zero durations are not valid; see
// config.UpstreamConfig for the defaults.
type Config struct {
	Endpoint       string
	APIKey         string
	Timeout        time.Duration
	TimeoutStep    time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// MaxJitter bounds the random delay added to each backoff. Zero disables jitter.
	MaxJitter time.Duration
}

// Completion is the text produced by a successful call.
type Completion struct {
	StructuredPrompt string
	Usage            *int
}

// Client performs upstream calls. It is safe for concurrent use.
type Client struct {
	cfg    Config
	http   *http.Client
	tracer trace.Tracer

	// test seams
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration
	now    func() time.Time
}

// New returns a Client using hc for transport; a nil hc uses a fresh
// http.Client without a global timeout (attempts carry their own).
func New(cfg Config, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		cfg:    cfg,
		http:   hc,
		tracer: otel.Tracer("upstream/Client"),
		sleep:  sleepCtx,
		jitter: randomJitter,
		now:    time.Now,
	}
}

type inputPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type inputMessage struct {
	Role    string      `json:"role"`
	Content []inputPart `json:"content"`
}

type requestPayload struct {
	Model string         `json:"model"`
	Input []inputMessage `json:"input"`
}

func newPayload(model, system, prompt string) requestPayload {
	return requestPayload{
		Model: model,
		Input: []inputMessage{
			{Role: "system", Content: []inputPart{{Type: "input_text", Text: system}}},
			{Role: "user", Content: []inputPart{{Type: "input_text", Text: prompt}}},
		},
	}
}

// attempt is the raw outcome of one HTTP exchange.
type attempt struct {
	status     int
	body       []byte
	retryAfter string
	err        error
}

// Transform restructures prompt with model. mode selects the system prompt
// hint; nil and "" both mean no mode.
//
// Errors: ErrMissingAPIKey, ErrNoContent, a *Failure for exhausted or
// terminal attempts, or a wrapped decode error for a malformed 2xx body.
func (c *Client) Transform(ctx context.Context, prompt string, mode *string, model string) (Completion, error) {
	if c.cfg.APIKey == "" {
		return Completion{}, ErrMissingAPIKey
	}
	modeVal := ""
	if mode != nil {
		modeVal = *mode
	}
	payload, err := json.Marshal(newPayload(model, BuildSystemPrompt(modeVal), prompt))
	if err != nil {
		return Completion{}, fmt.Errorf("encode upstream payload: %w", err)
	}

	ctx, span := c.tracer.Start(ctx, "upstream.Transform",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.model", model),
			attribute.String("llm.mode", modeVal),
		),
	)
	defer span.End()

	lg := zerolog.Ctx(ctx)
	bo := &backoff.ExponentialBackOff{
		InitialInterval:     c.cfg.InitialBackoff,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         c.cfg.MaxBackoff,
	}
	bo.Reset()

	for n := 0; ; n++ {
		timeout := c.cfg.Timeout + time.Duration(n)*c.cfg.TimeoutStep
		res := c.do(ctx, payload, timeout)
		span.AddEvent("attempt", trace.WithAttributes(
			attribute.Int("attempt", n+1),
			attribute.Int("http.status_code", res.status),
		))

		if res.err == nil && res.status >= 200 && res.status < 300 {
			observability.UpstreamAttempts.WithLabelValues("success").Inc()
			span.SetAttributes(attribute.Int("upstream.attempts", n+1))
			comp, err := parseCompletion(res.body)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return Completion{}, err
			}
			return comp, nil
		}

		fail := failureOf(res, timeout)

		if ctx.Err() != nil {
			observability.UpstreamAttempts.WithLabelValues("canceled").Inc()
			lg.Warn().Err(ctx.Err()).Int("attempt", n+1).Int("status", fail.Status).Msg("upstream call abandoned")
			return Completion{}, c.finish(span, fail)
		}

		if n >= c.cfg.MaxRetries || !IsRetryable(fail.Status) {
			observability.UpstreamAttempts.WithLabelValues("terminal").Inc()
			lg.Error().Int("attempt", n+1).Int("status", fail.Status).Bool("retryable", IsRetryable(fail.Status)).Msg("upstream call failed")
			return Completion{}, c.finish(span, fail)
		}

		delay := c.delay(bo.NextBackOff(), parseRetryAfter(res.retryAfter, c.now()))
		observability.UpstreamAttempts.WithLabelValues("retry").Inc()
		lg.Warn().Int("attempt", n+1).Int("status", fail.Status).Dur("delay", delay).Msg("upstream attempt failed, retrying")

		if err := c.sleep(ctx, delay); err != nil {
			observability.UpstreamAttempts.WithLabelValues("canceled").Inc()
			return Completion{}, c.finish(span, fail)
		}
	}
}

func (c *Client) finish(span trace.Span, fail *Failure) error {
	span.SetAttributes(attribute.Int("http.status_code", fail.Status))
	span.SetStatus(codes.Error, fail.Error())
	return fail
}

// do performs one POST bounded by timeout.
func (c *Client) do(ctx context.Context, payload []byte, timeout time.Duration) attempt {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := c.now()
	req, err := http.NewRequestWithContext(actx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return attempt{err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	otel.GetTextMapPropagator().Inject(actx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		observability.UpstreamLatency.WithLabelValues("transport").Observe(time.Since(start).Seconds())
		return attempt{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	observability.UpstreamLatency.WithLabelValues(observability.StatusClass(resp.StatusCode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return attempt{err: err}
	}
	return attempt{
		status:     resp.StatusCode,
		body:       body,
		retryAfter: resp.Header.Get("Retry-After"),
	}
}

// failureOf classifies a non-2xx attempt. Timeouts map to 408, other
// transport errors to StatusTransport.
func failureOf(res attempt, timeout time.Duration) *Failure {
	if res.err == nil {
		return &Failure{Status: res.status, Body: string(res.body)}
	}
	if errors.Is(res.err, context.DeadlineExceeded) {
		return &Failure{
			Status: http.StatusRequestTimeout,
			Body:   fmt.Sprintf("upstream request timed out after %dms", timeout.Milliseconds()),
		}
	}
	return &Failure{Status: StatusTransport, Body: res.err.Error()}
}

// delay combines the backoff step with Retry-After, adds jitter and caps the
// result at MaxBackoff.
func (c *Client) delay(step, retryAfter time.Duration) time.Duration {
	d := min(step, c.cfg.MaxBackoff)
	if retryAfter > d {
		d = retryAfter
	}
	if c.cfg.MaxJitter > 0 {
		d += c.jitter(c.cfg.MaxJitter)
	}
	return min(d, c.cfg.MaxBackoff)
}

func parseCompletion(body []byte) (Completion, error) {
	var r responsesResult
	if err := json.Unmarshal(body, &r); err != nil {
		return Completion{}, fmt.Errorf("decode upstream response: %w", err)
	}
	text := extractText(&r)
	if text == "" {
		return Completion{}, ErrNoContent
	}
	comp := Completion{StructuredPrompt: text}
	if r.Usage != nil {
		comp.Usage = r.Usage.TotalTokens
	}
	return comp, nil
}

// parseRetryAfter accepts delay-seconds (fractions allowed) or an HTTP date.
// Unparseable or past values yield 0.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return rand.N(max)
}
