package upstream

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned before any network I/O when no credential is configured.
	ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set in the service environment")

	// ErrNoContent is returned when a 2xx reply carries no extractable text.
	// It is terminal: the call itself succeeded.
	ErrNoContent = errors.New("upstream response did not include any content")
)

// StatusTransport is the synthetic status of a connection-level failure.
const StatusTransport = 0

// retryableStatus lists provider statuses worth another attempt.
var retryableStatus = map[int]struct{}{
	408: {}, 409: {}, 425: {}, 429: {},
	500: {}, 502: {}, 503: {}, 504: {}, 524: {},
}

// IsRetryable reports whether a failure with status is transient. Transport
// failures (StatusTransport) are retryable.
func IsRetryable(status int) bool {
	if status == StatusTransport {
		return true
	}
	_, ok := retryableStatus[status]
	return ok
}

// Failure is the last failed attempt of an upstream call: the provider's HTTP
// status (StatusTransport for connection errors, 408 for timeouts) and the raw
// response body or transport error message.
type Failure struct {
	Status int
	Body   string
}

func (f *Failure) Error() string {
	const max = 200
	body := f.Body
	if len(body) > max {
		body = body[:max] + "…"
	}
	return fmt.Sprintf("upstream failure (status %d): %s", f.Status, body)
}

// Retryable reports whether the failure's status is in the retryable set.
func (f *Failure) Retryable() bool { return IsRetryable(f.Status) }
