package meili

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sony/gobreaker/v2"

	"meilisearch-mcp/internal/domain"
)

// APIError is returned by every Client method that fails. It always unwraps to
// domain.ErrBackendUnavailable and, when the failure has a more precise
// category, to that sentinel as well.
type APIError struct {
	Op      string // "GET /indexes"
	Status  int    // 0 for transport failures
	Code    string // Meilisearch error code, e.g. "index_not_found"
	Type    string // Meilisearch error type, e.g. "invalid_request"
	Message string
	Err     error // transport or circuit breaker error
}

func (e *APIError) Error() string {
	var sb strings.Builder
	sb.WriteString(domain.ErrBackendUnavailable.Error())
	sb.WriteString(": ")
	sb.WriteString(e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&sb, ": HTTP %d", e.Status)
		if e.Code != "" {
			sb.WriteString(" ")
			sb.WriteString(e.Code)
		}
	}
	switch {
	case e.Message != "":
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	case e.Err != nil:
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *APIError) Unwrap() []error {
	errs := []error{domain.ErrBackendUnavailable}
	if c := e.category(); c != nil {
		errs = append(errs, c)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *APIError) category() error {
	switch {
	case e.Status == http.StatusNotFound:
		return domain.ErrNotFound
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return domain.ErrAuthInvalid
	case e.Status == http.StatusTooManyRequests:
		return domain.ErrRateLimit
	case e.Status == 0 && errors.Is(e.Err, context.DeadlineExceeded):
		return domain.ErrTimeout
	}
	return nil
}

// mapHTTPError builds an APIError from a non-2xx response. Meilisearch replies
// with {"message","code","type","link"}; other bodies are kept verbatim.
func mapHTTPError(op string, status int, body []byte) *APIError {
	apiErr := &APIError{Op: op, Status: status}
	var payload struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Type    string `json:"type"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		apiErr.Message = payload.Message
		apiErr.Code = payload.Code
		apiErr.Type = payload.Type
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// transientPatterns are substrings of transport errors that indicate the
// backend may answer a later call. Checked case-insensitively.
var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"timeout",
	"deadline exceeded",
	"temporarily unavailable",
	"eof",
}

// IsTransient reports whether err is a failure the backend may recover from:
// transport errors, 5xx, 429, timeouts and an open circuit. It never drives a
// retry; the gateway only records it.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	if errors.Is(err, domain.ErrRateLimit) || errors.Is(err, domain.ErrTimeout) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 500 {
		return true
	}
	if apiErr != nil && apiErr.Status != 0 {
		return false
	}

	lower := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
