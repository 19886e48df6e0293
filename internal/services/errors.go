// Package services defines the transform orchestration. This file holds the
// service-level error values and the reduction of upstream failures to the
// outward error shape.
//
// Translation into HTTP responses is performed at the handler layer.
package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Aryan-Gandhi/PromptGenerator/internal/upstream"
)

// ErrEmptyPrompt is returned when the prompt is empty after trimming.
var ErrEmptyPrompt = errors.New("prompt is empty")

// DefaultErrorMessage is used when a failure carries no usable message.
const DefaultErrorMessage = "Unexpected error"

// APIError is a failure reduced to what the caller sees: message, HTTP
// status, whether the original failure was transient, and the provider's
// structured error payload when it sent one.
type APIError struct {
	Message   string
	Status    int
	Retryable bool
	Details   any
}

func (e *APIError) Error() string { return e.Message }

// Normalize reduces err to an APIError.
//
// An *upstream.Failure keeps its status (transport 0 becomes 502). The
// message comes from the provider's error.message when the body is a JSON
// object with an "error" member, otherwise from the raw body text. Details
// are set only for JSON object or array bodies. Any other error is a
// non-retryable 502 carrying err's text.
func Normalize(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var f *upstream.Failure
	if !errors.As(err, &f) {
		msg := DefaultErrorMessage
		if err != nil && err.Error() != "" {
			msg = err.Error()
		}
		return &APIError{Message: msg, Status: http.StatusBadGateway}
	}

	status := f.Status
	if status == upstream.StatusTransport {
		status = http.StatusBadGateway
	}
	out := &APIError{
		Message:   DefaultErrorMessage,
		Status:    status,
		Retryable: upstream.IsRetryable(status),
	}

	var parsed any
	if f.Body == "" || json.Unmarshal([]byte(f.Body), &parsed) != nil {
		parsed = f.Body
	}

	switch v := parsed.(type) {
	case map[string]any:
		out.Details = v
		if inner, ok := v["error"]; ok {
			if obj, ok := inner.(map[string]any); ok {
				if msg, ok := obj["message"].(string); ok {
					out.Message = msg
				}
			}
		} else if strings.TrimSpace(f.Body) != "" {
			out.Message = f.Body
		}
	case []any:
		out.Details = v
		out.Message = f.Body
	case string:
		if strings.TrimSpace(v) != "" {
			out.Message = v
		}
	default:
		// JSON scalars (numbers, booleans, null) are reported verbatim.
		if strings.TrimSpace(f.Body) != "" {
			out.Message = f.Body
		}
	}
	return out
}
