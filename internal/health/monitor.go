// Package health tracks the most recent transform success and failure of this
// process and renders them as a coarse liveness signal.
//
// State is per service instance and resets on restart. It is a diagnostic,
// not an authoritative view: concurrent requests may complete in any order.
package health

import (
	"net/http"
	"sync"
	"time"
)

// TimeLayout renders timestamps as ISO-8601 UTC with milliseconds.
const TimeLayout = "2006-01-02T15:04:05.000Z"

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

type failure struct {
	at      time.Time
	message string
	status  *int
}

// Monitor records transform outcomes. The zero value is not usable; call New.
type Monitor struct {
	mu          sync.RWMutex
	lastSuccess *time.Time
	lastError   *failure
	now         func() time.Time
}

// New returns a Monitor with no recorded outcomes.
func New() *Monitor {
	return &Monitor{now: time.Now}
}

// RecordSuccess marks a completed transform and clears the error record.
func (m *Monitor) RecordSuccess() {
	now := m.now()
	m.mu.Lock()
	m.lastSuccess = &now
	m.lastError = nil
	m.mu.Unlock()
}

// RecordFailure stores the latest failure; the success record is kept.
// A status <= 0 is recorded as unknown.
func (m *Monitor) RecordFailure(message string, status int) {
	f := &failure{at: m.now(), message: message}
	if status > 0 {
		f.status = &status
	}
	m.mu.Lock()
	m.lastError = f
	m.mu.Unlock()
}

// ErrorReport is the lastError member of a Report.
type ErrorReport struct {
	Timestamp  string `json:"timestamp" example:"2025-01-02T03:04:05.000Z"`
	Message    string `json:"message" example:"Rate limit reached"`
	HTTPStatus *int   `json:"httpStatus" example:"429"`
}

// Report is the GET /health body.
type Report struct {
	Status                  string       `json:"status" example:"ok"`
	MockMode                bool         `json:"mockMode" example:"false"`
	LastSuccessfulTransform *string      `json:"lastSuccessfulTransform" example:"2025-01-02T03:04:05.000Z"`
	LastError               *ErrorReport `json:"lastError"`
	Timestamp               string       `json:"timestamp" example:"2025-01-02T03:04:06.000Z"`
}

// Report renders the current state and the matching HTTP status (200 when
// ok, 503 when degraded). Status is ok only when a success exists and it is
// not older than the last error.
func (m *Monitor) Report(mockMode bool) (Report, int) {
	m.mu.RLock()
	success := m.lastSuccess
	lastErr := m.lastError
	m.mu.RUnlock()

	r := Report{
		Status:    StatusDegraded,
		MockMode:  mockMode,
		Timestamp: format(m.now()),
	}
	if success != nil {
		s := format(*success)
		r.LastSuccessfulTransform = &s
	}
	if lastErr != nil {
		r.LastError = &ErrorReport{
			Timestamp:  format(lastErr.at),
			Message:    lastErr.message,
			HTTPStatus: lastErr.status,
		}
	}

	if success != nil && (lastErr == nil || !success.Before(lastErr.at)) {
		r.Status = StatusOK
		return r, http.StatusOK
	}
	return r, http.StatusServiceUnavailable
}

func format(t time.Time) string { return t.UTC().Format(TimeLayout) }
