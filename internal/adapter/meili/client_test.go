package meili

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meilisearch-mcp/internal/domain"
	"meilisearch-mcp/internal/infra/config"
)

// roundTripFunc is an http.RoundTripper backed by a function.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc, apiKey string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{URL: srv.URL, APIKey: apiKey, Logger: newTestLogger()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestClientSendsBearerAndUserAgent(t *testing.T) {
	var auth, ua string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		ua = r.Header.Get("User-Agent")
		writeJSON(w, http.StatusOK, map[string]any{"status": "available"})
	}, "masterKey")

	assert.True(t, c.IsHealthy(context.Background()))
	assert.Equal(t, "Bearer masterKey", auth)
	assert.Equal(t, "meilisearch-mcp/v"+config.Version, ua)
}

func TestClientOmitsAuthorizationWithoutKey(t *testing.T) {
	var present bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["Authorization"]
		writeJSON(w, http.StatusOK, map[string]any{"pkgVersion": "1.15.0"})
	}, "")

	v, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.15.0", v["pkgVersion"])
	assert.False(t, present)
}

func TestGetDocumentsQuery(t *testing.T) {
	var path, offset, limit, fields string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		offset = r.URL.Query().Get("offset")
		limit = r.URL.Query().Get("limit")
		fields = r.URL.Query().Get("fields")
		writeJSON(w, http.StatusOK, map[string]any{"results": []any{}, "offset": 0, "limit": 20, "total": 0})
	}, "")

	_, err := c.GetDocuments(context.Background(), "movies", DocumentsQuery{Offset: 0, Limit: 20, Fields: []string{"id", "title"}})
	require.NoError(t, err)
	assert.Equal(t, "/indexes/movies/documents", path)
	assert.Equal(t, "0", offset)
	assert.Equal(t, "20", limit)
	assert.Equal(t, "id,title", fields)
}

func TestNumbersKeepPrecision(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"taskUid": 9007199254740993, "status": "enqueued"}`)
	}, "")

	task, err := c.CreateIndex(context.Background(), "movies", "")
	require.NoError(t, err)
	assert.Equal(t, json.Number("9007199254740993"), task["taskUid"])
}

func TestCreateIndexBody(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusAccepted, map[string]any{"taskUid": 1})
	}, "")

	_, err := c.CreateIndex(context.Background(), "movies", "id")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"uid": "movies", "primaryKey": "id"}, body)
}

func TestAPIErrorMapping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"message": "Index `nope` not found.",
			"code":    "index_not_found",
			"type":    "invalid_request",
			"link":    "https://docs.meilisearch.com/errors#index_not_found",
		})
	}, "")

	_, err := c.GetSettings(context.Background(), "nope")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "index_not_found", apiErr.Code)
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.CodeNotFound, domain.ErrorCodeOf(err))
	assert.Equal(t, domain.KindBackendUnavailable, domain.KindOf(err))
	assert.Equal(t, "backend call failed: GET /indexes/nope/settings: HTTP 404 index_not_found: Index `nope` not found.", err.Error())
}

func TestAPIErrorNonJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream down")
	}, "")

	_, err := c.Stats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502: upstream down")
	assert.True(t, IsTransient(err))
}

func TestTransportErrorIsBackendUnavailable(t *testing.T) {
	c := New(Options{
		URL:    "http://meili.invalid:7700",
		Logger: newTestLogger(),
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: connection refused")
		}),
	})

	_, err := c.Version(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, IsTransient(err))
	assert.False(t, c.IsHealthy(context.Background()))
}

func TestSearchSingleIndex(t *testing.T) {
	var path string
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{"hits": []any{map[string]any{"id": 1}}})
	}, "")

	limit := 5
	_, err := c.Search(context.Background(), SearchRequest{Query: "batman", IndexUID: "movies", Limit: &limit, Sort: []string{"year:desc"}})
	require.NoError(t, err)
	assert.Equal(t, "/indexes/movies/search", path)
	assert.Equal(t, "batman", body["q"])
	assert.Equal(t, float64(5), body["limit"])
	assert.NotContains(t, body, "offset")
	assert.NotContains(t, body, "filter")
}

func TestSearchAllIndexesUsesMultiSearch(t *testing.T) {
	var queries []map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/indexes":
			writeJSON(w, http.StatusOK, map[string]any{"results": []any{
				map[string]any{"uid": "movies"},
				map[string]any{"uid": "books"},
			}})
		case "/multi-search":
			var payload struct {
				Queries []map[string]any `json:"queries"`
			}
			json.NewDecoder(r.Body).Decode(&payload)
			queries = payload.Queries
			writeJSON(w, http.StatusOK, map[string]any{"results": []any{}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}, "")

	_, err := c.Search(context.Background(), SearchRequest{Query: "dune"})
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, "movies", queries[0]["indexUid"])
	assert.Equal(t, "books", queries[1]["indexUid"])
	assert.Equal(t, "dune", queries[1]["q"])
}

func TestSearchAllIndexesEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"results": []any{}})
	}, "")

	res, err := c.Search(context.Background(), SearchRequest{Query: "x"})
	require.NoError(t, err)
	assert.Equal(t, []any{}, res["results"])
}

func TestGetTasksQueryEncoding(t *testing.T) {
	var raw string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{"results": []any{}})
	}, "")

	_, err := c.GetTasks(context.Background(), map[string]any{
		"limit":     float64(10),
		"reverse":   true,
		"statuses":  []any{"failed", "canceled"},
		"indexUids": []any{},
		"from":      nil,
	})
	require.NoError(t, err)
	assert.Equal(t, "limit=10&reverse=true&statuses=failed%2Ccanceled", raw)
}

func TestChatCompletionStream(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}, "k")

	temp := 0.2
	s, err := c.ChatCompletionStream(context.Background(), ChatRequest{Query: "hi", Temperature: &temp, IndexUIDs: []string{"movies"}})
	require.NoError(t, err)
	text, err := Collect(s)
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
	assert.Equal(t, true, body["stream"])
	assert.Equal(t, 0.2, body["temperature"])
	assert.NotContains(t, body, "model")
	assert.NotContains(t, body, "maxTokens")
}

func TestChatCompletionStreamHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "The provided API key is invalid.", "code": "invalid_api_key"})
	}, "bad")

	_, err := c.ChatCompletionStream(context.Background(), ChatRequest{Query: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
	assert.False(t, IsTransient(err))
}

func TestChatCompletionBlocking(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, false, body["stream"])
		writeJSON(w, http.StatusOK, map[string]any{"choices": []any{map[string]any{"message": map[string]any{"content": "hi"}}}})
	}, "")

	out, err := c.ChatCompletion(context.Background(), ChatRequest{Query: "hi"})
	require.NoError(t, err)
	assert.Contains(t, out, "choices")
}

func TestWorkspaceEndpoints(t *testing.T) {
	type seen struct{ method, path, query string }
	var calls []seen
	var createBody, updateBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, seen{r.Method, r.URL.Path, r.URL.RawQuery})
		switch r.Method {
		case http.MethodPost:
			json.NewDecoder(r.Body).Decode(&createBody)
		case http.MethodPatch:
			json.NewDecoder(r.Body).Decode(&updateBody)
		}
		writeJSON(w, http.StatusOK, map[string]any{"uid": "support"})
	}, "")
	ctx := context.Background()

	_, err := c.CreateChatWorkspace(ctx, "support", Workspace{Name: "Support", MaxTokens: 100})
	require.NoError(t, err)
	_, err = c.UpdateChatWorkspace(ctx, "support", Workspace{Model: "gpt-4"})
	require.NoError(t, err)
	_, err = c.ListChatWorkspaces(ctx, 10, 0)
	require.NoError(t, err)
	_, err = c.GetChatWorkspace(ctx, "support")
	require.NoError(t, err)
	_, err = c.DeleteChatWorkspace(ctx, "support")
	require.NoError(t, err)

	assert.Equal(t, []seen{
		{http.MethodPost, "/chat/workspaces", ""},
		{http.MethodPatch, "/chat/workspaces/support", ""},
		{http.MethodGet, "/chat/workspaces", "limit=10"},
		{http.MethodGet, "/chat/workspaces/support", ""},
		{http.MethodDelete, "/chat/workspaces/support", ""},
	}, calls)
	assert.Equal(t, map[string]any{"uid": "support", "name": "Support", "maxTokens": float64(100)}, createBody)
	assert.Equal(t, map[string]any{"model": "gpt-4"}, updateBody)
}

func TestDeleteKeyNoContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/keys/abc", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}, "")
	require.NoError(t, c.DeleteKey(context.Background(), "abc"))
}

func TestCreateKeySendsNullExpiry(t *testing.T) {
	var raw map[string]json.RawMessage
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		writeJSON(w, http.StatusCreated, map[string]any{"key": "secret"})
	}, "")

	_, err := c.CreateKey(context.Background(), KeyRequest{Actions: []string{"search"}, Indexes: []string{"*"}})
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw["expiresAt"]))
	assert.NotContains(t, raw, "description")
}

func TestIndexMetrics(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/indexes/movies/stats":
			writeJSON(w, http.StatusOK, map[string]any{
				"numberOfDocuments": 31968,
				"isIndexing":        false,
				"fieldDistribution": map[string]any{"title": 31968},
			})
		case "/indexes/movies":
			writeJSON(w, http.StatusOK, map[string]any{
				"uid":        "movies",
				"primaryKey": "id",
				"createdAt":  "2024-01-02T03:04:05.123456Z",
				"updatedAt":  "not a date",
			})
		}
	}, "")

	m, err := c.IndexMetrics(context.Background(), "movies")
	require.NoError(t, err)
	assert.Equal(t, int64(31968), m.NumberOfDocuments)
	require.NotNil(t, m.PrimaryKey)
	assert.Equal(t, "id", *m.PrimaryKey)
	require.NotNil(t, m.CreatedAt)
	assert.Equal(t, 2024, m.CreatedAt.Year())
	assert.Nil(t, m.UpdatedAt)
	assert.Contains(t, m.FieldDistribution, "title")
}

func TestHealthStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			writeJSON(w, http.StatusOK, map[string]any{"status": "available"})
		case "/version":
			writeJSON(w, http.StatusOK, map[string]any{"pkgVersion": "1.15.0"})
		case "/stats":
			writeJSON(w, http.StatusOK, map[string]any{"databaseSize": 1})
		case "/indexes":
			writeJSON(w, http.StatusOK, map[string]any{"results": []any{map[string]any{"uid": "a"}, map[string]any{"uid": "b"}}})
		}
	}, "")

	hs, err := c.HealthStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, hs.IsHealthy)
	assert.Equal(t, 2, hs.IndexesCount)
	assert.False(t, hs.CheckedAt.IsZero())

	info, err := c.SystemInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "available", info.Health["status"])
}

func TestCircuitBreakerOpensOnTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := New(Options{
		URL:    "http://meili.test",
		Logger: newTestLogger(),
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:     true,
			MaxFailures: 2,
			Timeout:     time.Minute,
		},
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls.Add(1)
			return nil, errors.New("connection refused")
		}),
	})

	for i := 0; i < 2; i++ {
		_, err := c.Stats(context.Background())
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, c.BreakerState())

	_, err := c.Stats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit open")
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.Equal(t, int32(2), calls.Load(), "open circuit must not reach the backend")
}

func TestCircuitBreakerIgnoresClientErrors(t *testing.T) {
	c := New(Options{
		URL:            "http://meili.test",
		Logger:         newTestLogger(),
		CircuitBreaker: config.CircuitBreakerConfig{Enabled: true, MaxFailures: 1},
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusNotFound,
				Body:       io.NopCloser(strings.NewReader(`{"message":"Task ` + "`1`" + ` not found.","code":"task_not_found"}`)),
				Request:    r,
			}, nil
		}),
	})

	for i := 0; i < 3; i++ {
		_, err := c.GetTask(context.Background(), 1)
		require.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, c.BreakerState())
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"5xx", &APIError{Op: "GET /stats", Status: 503}, true},
		{"429", &APIError{Op: "GET /stats", Status: 429}, true},
		{"404", &APIError{Op: "GET /stats", Status: 404}, false},
		{"400 mentioning timeout", &APIError{Op: "POST /search", Status: 400, Message: "invalid timeout"}, false},
		{"deadline", &APIError{Op: "GET /stats", Err: context.DeadlineExceeded}, true},
		{"open circuit", fmt.Errorf("wrap: %w", gobreaker.ErrOpenState), true},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
