// Transform and health HTTP handlers.
//
// Endpoints:
//   - POST    /transform   (restructure a prompt)
//   - GET     /health      (health report)
//   - OPTIONS *            (CORS preflight)
//
// Handlers are transport-thin: they check the origin decision, bind input,
// call the TransformService and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Aryan-Gandhi/PromptGenerator/internal/domain"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/health"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/http/middleware"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/services"
)

//
// Service contracts
//

// TransformService turns a raw prompt into a structured one.
type TransformService interface {
	Transform(ctx context.Context, in domain.TransformInput) (*services.Result, error)
}

// HealthReporter renders the health report and its HTTP status.
type HealthReporter interface {
	Report(mockMode bool) (health.Report, int)
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	transform TransformService
	health    HealthReporter
	mockMode  bool
}

// New constructs Handlers. mockMode is reported by /health.
func New(ts TransformService, hr HealthReporter, mockMode bool) *Handlers {
	return &Handlers{transform: ts, health: hr, mockMode: mockMode}
}

//
// DTOs
//

// TransformRequest is the JSON payload of POST /transform.
type TransformRequest struct {
	// Prompt is the raw prompt; it must be non-empty after trimming.
	Prompt string `json:"prompt" example:"help me write a cover letter for a data role"`
	// Mode optionally selects domain guidance (coding, research, travel, writing, …).
	Mode *string `json:"mode,omitempty" example:"writing"`
	// Model overrides DEFAULT_MODEL.
	Model *string `json:"model,omitempty" example:"gpt-4o-mini"`
}

// Usage reports token accounting; TotalTokens is null when unknown.
type Usage struct {
	TotalTokens *int `json:"totalTokens" example:"182"`
}

// TransformResponse is the success body of POST /transform.
type TransformResponse struct {
	StructuredPrompt string `json:"structuredPrompt" example:"Role: career coach.\nTask: ..."`
	Model            string `json:"model" example:"gpt-4o-mini"`
	Usage            Usage  `json:"usage"`
	Mocked           bool   `json:"mocked,omitempty" example:"true"`
	Cached           bool   `json:"cached,omitempty" example:"true"`
}

func toResponse(r *services.Result) TransformResponse {
	return TransformResponse{
		StructuredPrompt: r.StructuredPrompt,
		Model:            r.Model,
		Usage:            Usage{TotalTokens: r.Usage},
		Mocked:           r.Mocked,
		Cached:           r.Cached,
	}
}

//
// Handlers
//

// Transform godoc
// @ID          transformPrompt
// @Summary     Restructure a prompt
// @Description Returns a structured version of the prompt. Repeated input is served from the cache.
// @Tags        Transform
// @Accept      json
// @Produce     json
//
// @Param       Origin  header  string  false "Caller origin, checked against ALLOWED_ORIGINS"  example(chrome-extension://abcdefghijklmnop)
// @Param       body    body    handlers.TransformRequest  true  "Prompt to restructure"
//
// @Success     200  {object}  handlers.TransformResponse
// @Failure     400  {object}  handlers.ErrorResponse          "Invalid JSON body or missing prompt"
// @Failure     403  {object}  handlers.ErrorResponse          "Origin not allowed"
// @Failure     413  {object}  handlers.ErrorResponse          "Request body too large"
// @Failure     429  {object}  handlers.UpstreamErrorResponse  "Provider rate limit (the local limiter answers with ErrorResponse)"
// @Failure     502  {object}  handlers.UpstreamErrorResponse  "Provider unreachable or returned no content"
// @Router      /transform [post]
func (h *Handlers) Transform(c *gin.Context) {
	if !middleware.CORSDecisionFrom(c).Allowed {
		middleware.LoggerFrom(c).Warn().
			Str("origin", middleware.OriginLabel(c)).
			Msg("blocked request from origin")
		fail(c, http.StatusForbidden, MsgOriginNotAllowed)
		return
	}

	var req TransformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
			return
		}
		fail(c, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	res, err := h.transform.Transform(c.Request.Context(), domain.TransformInput{
		Prompt: req.Prompt,
		Mode:   req.Mode,
		Model:  req.Model,
	})
	if err != nil {
		var apiErr *services.APIError
		switch {
		case errors.Is(err, services.ErrEmptyPrompt):
			fail(c, http.StatusBadRequest, MsgMissingPrompt)
		case errors.As(err, &apiErr):
			failUpstream(c, apiErr)
		default:
			fail(c, http.StatusInternalServerError, MsgUnexpected)
		}
		return
	}
	ok(c, http.StatusOK, toResponse(res))
}

// Health godoc
// @ID          health
// @Summary     Health report
// @Description Reports whether the most recent transform outcome was a success. 503 while degraded (no success yet, or the last call failed).
// @Tags        Health
// @Produce     json
// @Success     200  {object}  health.Report
// @Failure     503  {object}  health.Report  "Degraded"
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	report, status := h.health.Report(h.mockMode)
	ok(c, status, report)
}

// Preflight answers CORS preflight requests for any path: 204 when the origin
// is allowed, 403 otherwise. Neither carries a body; the CORS middleware has
// already written the headers.
func Preflight(c *gin.Context) {
	if middleware.CORSDecisionFrom(c).Allowed {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.AbortWithStatus(http.StatusForbidden)
}

// Fallback serves every request no route matched: preflights, 405 for
// /transform with the wrong method, 404 for everything else.
func Fallback(c *gin.Context) {
	switch {
	case c.Request.Method == http.MethodOptions:
		Preflight(c)
	case c.Request.URL.Path == "/transform":
		fail(c, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
	default:
		fail(c, http.StatusNotFound, MsgNotFound)
	}
}
