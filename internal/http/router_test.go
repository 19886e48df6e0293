package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Aryan-Gandhi/PromptGenerator/internal/cache"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/config"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/domain"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/health"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/services"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/upstream"
)

const extOrigin = "chrome-extension://abcdefghijklmnop"

func testConfig() config.Config {
	return config.Config{
		MaxBodyBytes: 1 << 20,
		RateRPS:      0,
		RateBurst:    1,
		CORS:         config.CORSConfig{AllowedOrigins: []string{"chrome-extension://*", "<no-origin>"}},
		OTEL:         config.OTELConfig{ServiceName: "promptgear-test"},
	}
}

// providerServer answers every call with status/body and counts calls.
func providerServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newEngine(t *testing.T, cfg config.Config, endpoint string) (*gin.Engine, *health.Monitor) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mon := health.New()
	client := upstream.New(upstream.Config{
		Endpoint:       endpoint,
		APIKey:         "sk-test",
		Timeout:        2 * time.Second,
		TimeoutStep:    time.Second,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}, nil)
	svc := &services.TransformService{
		Store:        cache.NewMemory(time.Hour),
		Upstream:     client,
		Health:       mon,
		MockEnabled:  cfg.MockEnabled(),
		DefaultModel: "gpt-4o-mini",
	}

	r := gin.New()
	RegisterRoutes(r, Deps{Transform: svc, Health: mon}, cfg)
	return r, mon
}

func send(r http.Handler, method, path, body, origin string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	return m
}

func TestRouter_MockModeEndToEnd(t *testing.T) {
	cfg := testConfig()
	cfg.MockFlag = "true"
	srv, calls := providerServer(t, http.StatusOK, `{"output_text":"never"}`)
	r, _ := newEngine(t, cfg, srv.URL)

	w := send(r, http.MethodPost, "/transform", `{"prompt":"Analyze network security logs","mode":"research"}`, extOrigin)
	if w.Code != http.StatusOK {
		t.Fatalf("transform = %d %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	sp, _ := body["structuredPrompt"].(string)
	if body["mocked"] != true || body["cached"] != nil || !strings.Contains(sp, "Role: cybersecurity analyst.") {
		t.Fatalf("mock body unexpected: %v", body)
	}
	if usage, _ := body["usage"].(map[string]any); usage == nil || usage["totalTokens"] != nil {
		t.Fatalf("usage must be {totalTokens:null}: %v", body["usage"])
	}
	if w.Header().Get("Access-Control-Allow-Origin") != extOrigin {
		t.Fatalf("ACAO = %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
	if calls.Load() != 0 {
		t.Fatalf("mock mode must not call the provider")
	}

	w = send(r, http.MethodGet, "/health", "", "")
	hb := decode(t, w)
	if w.Code != http.StatusOK || hb["status"] != "ok" || hb["mockMode"] != true || hb["lastSuccessfulTransform"] == nil {
		t.Fatalf("health after mock = %d %v", w.Code, hb)
	}
}

func TestRouter_EmptyObjectIs400AndHealthUntouched(t *testing.T) {
	srv, calls := providerServer(t, http.StatusOK, `{"output_text":"x"}`)
	r, _ := newEngine(t, testConfig(), srv.URL)

	w := send(r, http.MethodPost, "/transform", `{}`, extOrigin)
	if w.Code != http.StatusBadRequest || w.Body.String() != `{"error":"Missing required field: prompt"}` {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
	w = send(r, http.MethodPost, "/transform", `{"prompt":`, extOrigin)
	if w.Code != http.StatusBadRequest || w.Body.String() != `{"error":"Invalid JSON body"}` {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
	if calls.Load() != 0 {
		t.Fatalf("validation failures must not reach the provider")
	}

	w = send(r, http.MethodGet, "/health", "", "")
	hb := decode(t, w)
	if w.Code != http.StatusServiceUnavailable || hb["status"] != "degraded" || hb["lastError"] != nil {
		t.Fatalf("fresh health = %d %v", w.Code, hb)
	}
}

func TestRouter_ExhaustedRetriesDegradeHealth(t *testing.T) {
	srv, calls := providerServer(t, http.StatusServiceUnavailable, `{"error":{"message":"The server is overloaded"}}`)
	r, _ := newEngine(t, testConfig(), srv.URL)

	w := send(r, http.MethodPost, "/transform", `{"prompt":"plan a trip to Lisbon"}`, extOrigin)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("transform = %d %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["error"] != "The server is overloaded" || body["status"] != float64(503) || body["retryable"] != true || body["details"] == nil {
		t.Fatalf("error body = %v", body)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("provider calls = %d; want 3", got)
	}

	w = send(r, http.MethodGet, "/health", "", "")
	hb := decode(t, w)
	le, _ := hb["lastError"].(map[string]any)
	if w.Code != http.StatusServiceUnavailable || le == nil || le["httpStatus"] != float64(503) || le["message"] != "The server is overloaded" {
		t.Fatalf("health after failure = %d %v", w.Code, hb)
	}
}

func TestRouter_SecondCallServedFromCache(t *testing.T) {
	srv, calls := providerServer(t, http.StatusOK, `{"output_text":["Role: engineer.","Task: fix it."],"usage":{"total_tokens":33}}`)
	r, _ := newEngine(t, testConfig(), srv.URL)

	const req = `{"prompt":"fix my flaky test","mode":"coding"}`
	first := decode(t, send(r, http.MethodPost, "/transform", req, extOrigin))
	second := decode(t, send(r, http.MethodPost, "/transform", req, extOrigin))

	if first["structuredPrompt"] != "Role: engineer.\nTask: fix it." || first["cached"] != nil {
		t.Fatalf("first = %v", first)
	}
	if second["structuredPrompt"] != first["structuredPrompt"] || second["cached"] != true || second["model"] != "gpt-4o-mini" {
		t.Fatalf("second = %v", second)
	}
	if u, _ := second["usage"].(map[string]any); u["totalTokens"] != float64(33) {
		t.Fatalf("cached usage = %v", second["usage"])
	}
	if calls.Load() != 1 {
		t.Fatalf("provider calls = %d; want 1", calls.Load())
	}

	// A different mode is a different key.
	_ = send(r, http.MethodPost, "/transform", `{"prompt":"fix my flaky test"}`, extOrigin)
	if calls.Load() != 2 {
		t.Fatalf("absent mode must miss, calls = %d", calls.Load())
	}
}

func TestRouter_OriginPolicy(t *testing.T) {
	srv, calls := providerServer(t, http.StatusOK, `{"output_text":"ok"}`)
	cfg := testConfig()
	cfg.CORS.AllowedOrigins = []string{"https://app.example", "chrome-extension://*"}
	r, _ := newEngine(t, cfg, srv.URL)

	cases := []struct {
		name, method, origin string
		wantCode             int
		wantACAO             string
	}{
		{"preflight exact", http.MethodOptions, "https://app.example", 204, "https://app.example"},
		{"preflight prefix", http.MethodOptions, extOrigin, 204, extOrigin},
		{"preflight denied", http.MethodOptions, "https://evil.example", 403, ""},
		{"preflight no origin", http.MethodOptions, "", 403, ""},
		{"post denied", http.MethodPost, "https://evil.example", 403, ""},
		{"post no origin", http.MethodPost, "", 403, ""},
		{"post allowed", http.MethodPost, "https://app.example", 200, "https://app.example"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := ""
			if tc.method == http.MethodPost {
				body = `{"prompt":"hello"}`
			}
			w := send(r, tc.method, "/transform", body, tc.origin)
			if w.Code != tc.wantCode {
				t.Fatalf("code = %d; want %d (%s)", w.Code, tc.wantCode, w.Body.String())
			}
			h := w.Header()
			if h.Get("Access-Control-Allow-Origin") != tc.wantACAO || h.Get("Vary") != "Origin" {
				t.Fatalf("headers = %#v", h)
			}
			if h.Get("Access-Control-Allow-Methods") != "POST, OPTIONS" || h.Get("Access-Control-Allow-Headers") != "content-type, authorization" {
				t.Fatalf("allow headers = %#v", h)
			}
			if tc.method == http.MethodOptions && w.Body.Len() != 0 {
				t.Fatalf("preflight must have no body, got %q", w.Body.String())
			}
			if tc.method == http.MethodPost && tc.wantCode == 403 && w.Body.String() != `{"error":"Origin not allowed"}` {
				t.Fatalf("denied body = %s", w.Body.String())
			}
		})
	}
	if calls.Load() != 1 {
		t.Fatalf("only the allowed POST may reach the provider, calls = %d", calls.Load())
	}
}

func TestRouter_EmptyAllowListFailsClosed(t *testing.T) {
	srv, _ := providerServer(t, http.StatusOK, `{"output_text":"ok"}`)
	cfg := testConfig()
	cfg.CORS.AllowedOrigins = nil
	r, _ := newEngine(t, cfg, srv.URL)

	if w := send(r, http.MethodPost, "/transform", `{"prompt":"x"}`, extOrigin); w.Code != http.StatusForbidden {
		t.Fatalf("empty list must deny, got %d", w.Code)
	}
	// Health is not origin-gated.
	if w := send(r, http.MethodGet, "/health", "", extOrigin); w.Header().Get("Access-Control-Allow-Origin") != "" || w.Code != http.StatusServiceUnavailable {
		t.Fatalf("health = %d %#v", w.Code, w.Header())
	}
}

func TestRouter_FallbacksMetricsAndHeaders(t *testing.T) {
	srv, _ := providerServer(t, http.StatusOK, `{"output_text":"ok"}`)
	r, _ := newEngine(t, testConfig(), srv.URL)

	cases := []struct {
		method, path string
		wantCode     int
		wantBody     string
	}{
		{http.MethodGet, "/transform", 405, `{"error":"Method not allowed"}`},
		{http.MethodDelete, "/transform", 405, `{"error":"Method not allowed"}`},
		{http.MethodPost, "/transform/", 404, `{"error":"Not found"}`},
		{http.MethodPost, "/health", 404, `{"error":"Not found"}`},
		{http.MethodGet, "/", 404, `{"error":"Not found"}`},
	}
	for _, tc := range cases {
		w := send(r, tc.method, tc.path, "", "")
		if w.Code != tc.wantCode || w.Body.String() != tc.wantBody {
			t.Fatalf("%s %s = %d %s", tc.method, tc.path, w.Code, w.Body.String())
		}
		if w.Header().Get("X-Request-ID") == "" || w.Header().Get("X-Content-Type-Options") != "nosniff" || w.Header().Get("Cache-Control") != "no-store" {
			t.Fatalf("ambient headers missing on %s %s: %#v", tc.method, tc.path, w.Header())
		}
	}

	w := send(r, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "promptgear_http_requests_total") {
		t.Fatalf("metrics = %d", w.Code)
	}
	if w := send(r, http.MethodGet, "/swagger/index.html", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("swagger must be off by default, got %d", w.Code)
	}
}

func TestRouter_SwaggerAndGzipWhenEnabled(t *testing.T) {
	srv, _ := providerServer(t, http.StatusOK, `{"output_text":"ok"}`)
	cfg := testConfig()
	cfg.SwaggerEnabled = true
	cfg.GzipEnabled = true
	r, _ := newEngine(t, cfg, srv.URL)

	if w := send(r, http.MethodGet, "/swagger/doc.json", "", ""); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/transform") {
		t.Fatalf("swagger doc = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip response, headers %#v", w.Header())
	}
}

func TestRouter_RateLimitOnlyOnTransform(t *testing.T) {
	srv, _ := providerServer(t, http.StatusOK, `{"output_text":"ok"}`)
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	r, mon := newEngine(t, cfg, srv.URL)

	if w := send(r, http.MethodPost, "/transform", `{"prompt":"a"}`, extOrigin); w.Code != http.StatusOK {
		t.Fatalf("first = %d", w.Code)
	}
	w := send(r, http.MethodPost, "/transform", `{"prompt":"b"}`, extOrigin)
	if w.Code != http.StatusTooManyRequests || w.Body.String() != `{"error":"Rate limit exceeded"}` || w.Header().Get("Retry-After") != "1" {
		t.Fatalf("second = %d %s", w.Code, w.Body.String())
	}
	for i := 0; i < 3; i++ {
		if w := send(r, http.MethodGet, "/health", "", ""); w.Code != http.StatusOK {
			t.Fatalf("health must not be limited, got %d", w.Code)
		}
	}
	if rep, _ := mon.Report(false); rep.LastError != nil {
		t.Fatalf("local rate limiting must not touch health")
	}
}

type panicking struct{}

func (panicking) Transform(context.Context, domain.TransformInput) (*services.Result, error) {
	panic("boom")
}

func TestRouter_PanicIsJSON500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, Deps{Transform: panicking{}, Health: health.New()}, testConfig())

	w := send(r, http.MethodPost, "/transform", `{"prompt":"x"}`, extOrigin)
	if w.Code != http.StatusInternalServerError || w.Body.String() != `{"error":"Unexpected error"}` {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(8))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	if w := send(r, http.MethodPost, "/echo", "1234", ""); w.Code != http.StatusOK {
		t.Fatalf("small body = %d", w.Code)
	}
	if w := send(r, http.MethodPost, "/echo", strings.Repeat("x", 64), ""); w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("large body = %d", w.Code)
	}
}
