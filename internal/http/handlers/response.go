// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response envelopes shared by all endpoints. Errors
// are a single-member object; upstream failures additionally carry the
// outward status, a retry hint and, when the provider answered with JSON,
// its parsed body:
//
//	HTTP/1.1 404 Not Found
//	{"error":"Not found"}
//
//	HTTP/1.1 429 Too Many Requests
//	{"error":"Rate limit reached","status":429,"retryable":true,"details":{…}}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Aryan-Gandhi/PromptGenerator/internal/http/middleware"
	"github.com/Aryan-Gandhi/PromptGenerator/internal/services"
)

// ErrorResponse is the error envelope for validation, routing and origin
// failures.
type ErrorResponse struct {
	Error string `json:"error" example:"Not found"`
}

// UpstreamErrorResponse is returned when the provider call failed.
type UpstreamErrorResponse struct {
	Error     string `json:"error" example:"Rate limit reached"`
	Status    int    `json:"status" example:"429"`
	Retryable bool   `json:"retryable" example:"true"`
	// Parsed provider body; omitted unless it was a JSON object or array.
	Details any `json:"details,omitempty" swaggertype:"object"`
}

// fail aborts the request with an ErrorResponse. Server errors are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}

// Fail is the exported variant of fail for the router fallbacks.
func Fail(c *gin.Context, status int, msg string) { fail(c, status, msg) }

// failUpstream renders a normalized upstream failure with its own status.
func failUpstream(c *gin.Context, e *services.APIError) {
	c.AbortWithStatusJSON(e.Status, UpstreamErrorResponse{
		Error:     e.Message,
		Status:    e.Status,
		Retryable: e.Retryable,
		Details:   e.Details,
	})
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
