package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateMeilisearch(cfg, ve)
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	validateServer(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateMeilisearch(cfg *Config, ve *ValidationError) {
	m := cfg.Meilisearch
	if err := ValidateBaseURL(m.URL); err != nil {
		ve.Add("meilisearch.url: %v", err)
	}
	if m.Timeout <= 0 {
		ve.Add("meilisearch.timeout must be > 0")
	}
	if m.ChatTimeout <= 0 {
		ve.Add("meilisearch.chat_timeout must be > 0")
	}
	if m.RateLimit.RequestsPerSecond < 0 {
		ve.Add("meilisearch.rate_limit.requests_per_second must be >= 0")
	}
	if m.RateLimit.Burst < 0 {
		ve.Add("meilisearch.rate_limit.burst must be >= 0")
	}
	if m.CircuitBreaker.Enabled && m.CircuitBreaker.Timeout < 0 {
		ve.Add("meilisearch.circuit_breaker.timeout must be >= 0")
	}
}

func validateLogger(cfg *Config, ve *ValidationError) {
	switch strings.ToLower(cfg.Logger.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		ve.Add("logger.level %q is invalid (want debug, info, warn, error)", cfg.Logger.Level)
	}
	switch strings.ToLower(cfg.Logger.Format) {
	case "", "text", "json":
	default:
		ve.Add("logger.format %q is invalid (want text, json)", cfg.Logger.Format)
	}
	if strings.EqualFold(cfg.Logger.Output, "stdout") {
		ve.Add("logger.output cannot be stdout: stdout carries the MCP protocol stream")
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if !cfg.Tracer.Enabled {
		return
	}
	switch cfg.Tracer.Exporter {
	case "", "noop", "stdout":
	default:
		ve.Add("tracer.exporter %q is invalid (want noop, stdout)", cfg.Tracer.Exporter)
	}
}

func validateServer(cfg *Config, ve *ValidationError) {
	if cfg.Server.Name == "" {
		ve.Add("server.name is required")
	}
	if cfg.Server.Version == "" {
		ve.Add("server.version is required")
	}
}

// ValidateBaseURL checks that raw is an absolute http(s) URL with a host.
func ValidateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
