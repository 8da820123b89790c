package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func okTransport(seen *http.Request) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		*seen = *r
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
	})
}

func TestHeadersSetsValuesWithoutMutatingCaller(t *testing.T) {
	var seen http.Request
	rt := Chain(okTransport(&seen), Headers(map[string]string{
		"User-Agent":    "meilisearch-mcp/v0.5.0",
		"Authorization": "",
	}))

	req := httptest.NewRequest(http.MethodGet, "http://localhost:7700/health", nil)
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}

	if got := seen.Header.Get("User-Agent"); got != "meilisearch-mcp/v0.5.0" {
		t.Errorf("User-Agent = %q", got)
	}
	if _, ok := seen.Header["Authorization"]; ok {
		t.Error("empty header values should be skipped")
	}
	if req.Header.Get("User-Agent") != "" {
		t.Error("caller request should not be mutated")
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}
	var seen http.Request
	rt := Chain(okTransport(&seen), mark("outer"), mark("inner"))
	if _, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://x/", nil)); err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("order = %v", order)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	var calls atomic.Int32
	base := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})
	rt := Chain(base, RateLimit(0, 0))
	for i := 0; i < 50; i++ {
		if _, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://x/", nil)); err != nil {
			t.Fatalf("RoundTrip: %v", err)
		}
	}
	if calls.Load() != 50 {
		t.Errorf("calls = %d, want 50", calls.Load())
	}
}

func TestRateLimitCancelledWhileWaiting(t *testing.T) {
	var calls atomic.Int32
	base := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})
	// One token per minute: the second request must wait far past its deadline.
	rt := Chain(base, RateLimit(1.0/60, 1))

	if _, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://x/", nil)); err != nil {
		t.Fatalf("first RoundTrip: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "http://x/", nil).WithContext(ctx)
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatal("expected rate limit error")
	}
	if calls.Load() != 1 {
		t.Errorf("second request should not reach the backend, calls = %d", calls.Load())
	}
}
