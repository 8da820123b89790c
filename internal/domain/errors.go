package domain

import (
	"errors"
	"fmt"
)

// Category sentinels.
var (
	ErrNotFound     = fmt.Errorf("not found")
	ErrInvalidInput = fmt.Errorf("invalid input")
	ErrTimeout      = fmt.Errorf("operation timed out")
)

// Sentinel errors for the domain layer.
var (
	ErrToolNotFound       = fmt.Errorf("tool %w", ErrNotFound)
	ErrBackendUnavailable = fmt.Errorf("backend call failed")
	ErrRateLimit          = fmt.Errorf("rate limit exceeded")
	ErrAuthInvalid        = fmt.Errorf("authentication failed")
	ErrConfigLoad         = fmt.Errorf("failed to load configuration")
	ErrDecryption         = fmt.Errorf("decryption failed")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op     string // operation name (e.g., "Registry.Register")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// UnknownToolError is returned when a tool name is not in the catalog.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string { return "Unknown tool: " + e.Name }

func (e *UnknownToolError) Unwrap() error { return ErrToolNotFound }

// ValidationError reports an argument bag rejected before any backend call.
type ValidationError struct {
	Tool   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// FailureKind is the closed set of failure categories seen at the dispatch boundary.
type FailureKind string

const (
	KindNotFound           FailureKind = "not_found"
	KindValidationFailed   FailureKind = "validation_failed"
	KindBackendUnavailable FailureKind = "backend_unavailable"
	KindInternal           FailureKind = "internal"
)

// KindOf classifies err into a FailureKind. Tool lookups take precedence over
// backend 404s so that an unknown tool is never reported as a backend failure.
func KindOf(err error) FailureKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrToolNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput):
		return KindValidationFailed
	case errors.Is(err, ErrBackendUnavailable):
		return KindBackendUnavailable
	default:
		return KindInternal
	}
}

// ErrorCode is a machine-parseable error category for logs and spans.
type ErrorCode string

const (
	CodeUnknown            ErrorCode = "UNKNOWN"
	CodeToolNotFound       ErrorCode = "TOOL_NOT_FOUND"
	CodeInvalidInput       ErrorCode = "INVALID_INPUT"
	CodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeTimeout            ErrorCode = "TIMEOUT"
	CodeRateLimit          ErrorCode = "RATE_LIMIT"
	CodeAuthInvalid        ErrorCode = "AUTH_INVALID"
	CodeConfigLoad         ErrorCode = "CONFIG_LOAD"
	CodeDecryption         ErrorCode = "DECRYPTION"
)

// errorCodeOrder lists sentinels from most to least specific. A backend 404
// wraps both ErrBackendUnavailable and ErrNotFound, and must report NOT_FOUND.
var errorCodeOrder = []struct {
	err  error
	code ErrorCode
}{
	{ErrToolNotFound, CodeToolNotFound},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrRateLimit, CodeRateLimit},
	{ErrAuthInvalid, CodeAuthInvalid},
	{ErrTimeout, CodeTimeout},
	{ErrNotFound, CodeNotFound},
	{ErrBackendUnavailable, CodeBackendUnavailable},
	{ErrConfigLoad, CodeConfigLoad},
	{ErrDecryption, CodeDecryption},
}

// ErrorCodeOf returns the machine-parseable error code for the given error.
// Returns CodeUnknown if no matching sentinel is found.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}
	for _, e := range errorCodeOrder {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return CodeUnknown
}
