package meili

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"meilisearch-mcp/internal/infra/config"
	"meilisearch-mcp/internal/infra/middleware"
	"meilisearch-mcp/internal/infra/tracer"
)

// maxResponseBody is the maximum response body size read from Meilisearch.
const maxResponseBody = 32 * 1024 * 1024 // 32 MB

// Default timeouts when Options leaves them unset.
const (
	defaultTimeout     = 30 * time.Second
	defaultChatTimeout = 60 * time.Second
)

// Options configures a Client.
type Options struct {
	URL            string
	APIKey         string
	UserAgent      string
	Timeout        time.Duration
	ChatTimeout    time.Duration
	RateLimit      config.RateLimitConfig
	CircuitBreaker config.CircuitBreakerConfig

	// Transport overrides the pooled transport; used by tests.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// OptionsFromConfig maps the meilisearch config section to Options.
func OptionsFromConfig(cfg config.MeilisearchConfig, logger *slog.Logger) Options {
	return Options{
		URL:            cfg.URL,
		APIKey:         cfg.APIKey,
		UserAgent:      cfg.UserAgent,
		Timeout:        cfg.Timeout,
		ChatTimeout:    cfg.ChatTimeout,
		RateLimit:      cfg.RateLimit,
		CircuitBreaker: cfg.CircuitBreaker,
		Logger:         logger,
	}
}

// Client is a typed Meilisearch HTTP client bound to one base URL and
// credential. It is immutable; rebinding means building a new Client.
type Client struct {
	baseURL  string
	base     http.RoundTripper
	http     *http.Client
	chatHTTP *http.Client
	breaker  *gobreaker.CircuitBreaker[*http.Response]
	logger   *slog.Logger
}

// New creates a Client. The base URL must already be validated.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	chatTimeout := opts.ChatTimeout
	if chatTimeout <= 0 {
		chatTimeout = defaultChatTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "meilisearch-mcp/v" + config.Version
	}

	base := opts.Transport
	if base == nil {
		base = newPooledTransport()
	}
	transport := middleware.Chain(base,
		middleware.Headers(map[string]string{
			"User-Agent":    userAgent,
			"Authorization": bearer(opts.APIKey),
		}),
		middleware.RateLimit(opts.RateLimit.RequestsPerSecond, opts.RateLimit.Burst),
	)

	c := &Client{
		baseURL:  strings.TrimRight(opts.URL, "/"),
		base:     base,
		http:     &http.Client{Transport: transport, Timeout: timeout},
		chatHTTP: &http.Client{Transport: transport, Timeout: chatTimeout},
		logger:   logger,
	}
	if opts.CircuitBreaker.Enabled {
		c.breaker = newBreaker(c.baseURL, opts.CircuitBreaker, logger)
	}
	return c
}

func bearer(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	return "Bearer " + apiKey
}

// CloseIdleConnections releases pooled connections once the client has been
// replaced.
func (c *Client) CloseIdleConnections() {
	if t, ok := c.base.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
}

// newPooledTransport returns an http.Transport sized for a single backend host.
func newPooledTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
}

// call describes one backend request.
type call struct {
	method string
	path   string
	query  url.Values
	body   any
	chat   bool // use the chat timeout
	stream bool // expect text/event-stream
}

func (r call) op() string { return r.method + " " + r.path }

// send performs the request through the circuit breaker and returns the open
// response on 2xx. The caller must close the body.
func (c *Client) send(ctx context.Context, r call) (*http.Response, error) {
	ctx, span := tracer.StartSpan(ctx, "meili.request")
	defer span.End()
	span.SetAttributes(
		tracer.StringAttr("http.method", r.method),
		tracer.StringAttr("meili.path", r.path),
	)

	var body io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return nil, &APIError{Op: r.op(), Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(buf)
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, &APIError{Op: r.op(), Err: fmt.Errorf("create request: %w", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	client := c.http
	if r.chat {
		client = c.chatHTTP
	}

	do := func() (*http.Response, error) {
		resp, err := client.Do(req)
		if err != nil {
			return nil, &APIError{Op: r.op(), Err: err}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			defer resp.Body.Close()
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
			return nil, mapHTTPError(r.op(), resp.StatusCode, respBody)
		}
		return resp, nil
	}

	var resp *http.Response
	if c.breaker != nil {
		resp, err = c.breaker.Execute(do)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &APIError{Op: r.op(), Err: fmt.Errorf("circuit open: %w", err)}
		}
	} else {
		resp, err = do()
	}
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(tracer.IntAttr("http.status_code", resp.StatusCode))
	tracer.SetOK(span)
	return resp, nil
}

// do performs r and decodes the JSON response. An empty body (204) yields nil.
// Numbers are decoded as json.Number so large identifiers keep their precision.
func (c *Client) do(ctx context.Context, r call) (any, error) {
	resp, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &APIError{Op: r.op(), Err: fmt.Errorf("read response: %w", err)}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, &APIError{Op: r.op(), Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return out, nil
}

// doObject is do for endpoints that answer with a JSON object.
func (c *Client) doObject(ctx context.Context, r call) (map[string]any, error) {
	out, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return map[string]any{}, nil
	}
	obj, ok := out.(map[string]any)
	if !ok {
		return nil, &APIError{Op: r.op(), Err: fmt.Errorf("unexpected response shape %T", out)}
	}
	return obj, nil
}

func segment(s string) string { return url.PathEscape(s) }
