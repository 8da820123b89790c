package tool

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"meilisearch-mcp/internal/adapter/meili"
	"meilisearch-mcp/internal/domain"
)

// fakeBackend records the last call and returns canned results.
type fakeBackend struct {
	healthy bool
	result  map[string]any
	value   any
	err     error

	calls      []string
	indexUID   string
	docQuery   meili.DocumentsQuery
	search     meili.SearchRequest
	filters    map[string]any
	keyReq     meili.KeyRequest
	chatReq    meili.ChatRequest
	workspace  meili.Workspace
	streamBody string
}

func (f *fakeBackend) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeBackend) ret(name string) (map[string]any, error) {
	f.record(name)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeBackend) IsHealthy(context.Context) bool { f.record("IsHealthy"); return f.healthy }
func (f *fakeBackend) Version(context.Context) (map[string]any, error) {
	return f.ret("Version")
}
func (f *fakeBackend) Stats(context.Context) (map[string]any, error) { return f.ret("Stats") }

func (f *fakeBackend) CreateIndex(_ context.Context, uid, _ string) (map[string]any, error) {
	f.indexUID = uid
	return f.ret("CreateIndex")
}
func (f *fakeBackend) ListIndexes(context.Context) (map[string]any, error) {
	return f.ret("ListIndexes")
}
func (f *fakeBackend) DeleteIndex(_ context.Context, uid string) (map[string]any, error) {
	f.indexUID = uid
	return f.ret("DeleteIndex")
}

func (f *fakeBackend) GetDocuments(_ context.Context, uid string, q meili.DocumentsQuery) (map[string]any, error) {
	f.indexUID, f.docQuery = uid, q
	return f.ret("GetDocuments")
}
func (f *fakeBackend) GetDocument(_ context.Context, uid, _ string) (map[string]any, error) {
	f.indexUID = uid
	return f.ret("GetDocument")
}
func (f *fakeBackend) AddDocuments(_ context.Context, uid string, _ []any, _ string) (map[string]any, error) {
	f.indexUID = uid
	return f.ret("AddDocuments")
}
func (f *fakeBackend) UpdateDocuments(_ context.Context, uid string, _ []any, _ string) (map[string]any, error) {
	f.indexUID = uid
	return f.ret("UpdateDocuments")
}
func (f *fakeBackend) DeleteDocument(_ context.Context, uid, _ string) (map[string]any, error) {
	f.indexUID = uid
	return f.ret("DeleteDocument")
}
func (f *fakeBackend) DeleteDocuments(_ context.Context, uid string, _ []any) (map[string]any, error) {
	f.indexUID = uid
	return f.ret("DeleteDocuments")
}
func (f *fakeBackend) DeleteAllDocuments(_ context.Context, uid string) (map[string]any, error) {
	f.indexUID = uid
	return f.ret("DeleteAllDocuments")
}

func (f *fakeBackend) GetSettings(_ context.Context, uid string) (map[string]any, error) {
	f.indexUID = uid
	return f.ret("GetSettings")
}
func (f *fakeBackend) UpdateSettings(_ context.Context, uid string, _ map[string]any) (map[string]any, error) {
	f.indexUID = uid
	return f.ret("UpdateSettings")
}

func (f *fakeBackend) Search(_ context.Context, r meili.SearchRequest) (map[string]any, error) {
	f.search = r
	return f.ret("Search")
}

func (f *fakeBackend) GetTask(context.Context, int64) (map[string]any, error) {
	return f.ret("GetTask")
}
func (f *fakeBackend) GetTasks(_ context.Context, filters map[string]any) (map[string]any, error) {
	f.filters = filters
	return f.ret("GetTasks")
}
func (f *fakeBackend) CancelTasks(_ context.Context, filters map[string]any) (map[string]any, error) {
	f.filters = filters
	return f.ret("CancelTasks")
}

func (f *fakeBackend) GetKeys(context.Context, *int, *int) (map[string]any, error) {
	return f.ret("GetKeys")
}
func (f *fakeBackend) CreateKey(_ context.Context, r meili.KeyRequest) (map[string]any, error) {
	f.keyReq = r
	return f.ret("CreateKey")
}
func (f *fakeBackend) DeleteKey(context.Context, string) error {
	f.record("DeleteKey")
	return f.err
}

func (f *fakeBackend) HealthStatus(context.Context) (*meili.HealthStatus, error) {
	f.record("HealthStatus")
	if f.err != nil {
		return nil, f.err
	}
	return &meili.HealthStatus{IsHealthy: true, IndexesCount: 2}, nil
}
func (f *fakeBackend) IndexMetrics(_ context.Context, uid string) (*meili.IndexMetrics, error) {
	f.record("IndexMetrics")
	if f.err != nil {
		return nil, f.err
	}
	return &meili.IndexMetrics{IndexUID: uid, NumberOfDocuments: 3}, nil
}
func (f *fakeBackend) SystemInfo(context.Context) (*meili.SystemInfo, error) {
	f.record("SystemInfo")
	if f.err != nil {
		return nil, f.err
	}
	return &meili.SystemInfo{Version: f.result, Health: map[string]any{"status": "available"}}, nil
}

func (f *fakeBackend) ChatCompletion(_ context.Context, r meili.ChatRequest) (any, error) {
	f.record("ChatCompletion")
	f.chatReq = r
	return f.value, f.err
}
func (f *fakeBackend) ChatCompletionStream(_ context.Context, r meili.ChatRequest) (*meili.Stream, error) {
	f.record("ChatCompletionStream")
	f.chatReq = r
	if f.err != nil {
		return nil, f.err
	}
	return meili.NewStream(io.NopCloser(strings.NewReader(f.streamBody))), nil
}
func (f *fakeBackend) CreateChatWorkspace(_ context.Context, uid string, w meili.Workspace) (any, error) {
	f.record("CreateChatWorkspace")
	f.indexUID, f.workspace = uid, w
	return f.value, f.err
}
func (f *fakeBackend) UpdateChatWorkspace(_ context.Context, uid string, w meili.Workspace) (any, error) {
	f.record("UpdateChatWorkspace")
	f.indexUID, f.workspace = uid, w
	return f.value, f.err
}
func (f *fakeBackend) ListChatWorkspaces(context.Context, int, int) (any, error) {
	f.record("ListChatWorkspaces")
	return f.value, f.err
}
func (f *fakeBackend) GetChatWorkspace(_ context.Context, uid string) (any, error) {
	f.record("GetChatWorkspace")
	f.indexUID = uid
	return f.value, f.err
}
func (f *fakeBackend) DeleteChatWorkspace(_ context.Context, uid string) (any, error) {
	f.record("DeleteChatWorkspace")
	f.indexUID = uid
	return f.value, f.err
}

var _ Backend = (*fakeBackend)(nil)

// fakeConn is an in-memory Connection.
type fakeConn struct {
	settings domain.ConnectionSettings
	err      error
}

func (c *fakeConn) Settings() domain.ConnectionSettings { return c.settings }

func (c *fakeConn) Update(url, apiKey string) (domain.ConnectionSettings, error) {
	if c.err != nil {
		return domain.ConnectionSettings{}, c.err
	}
	if url != "" {
		c.settings.URL = url
	}
	if apiKey != "" {
		c.settings.APIKey = apiKey
	}
	return c.settings, nil
}

func newTestEnv(b *fakeBackend) Env {
	return Env{
		Backend: b,
		Conn:    &fakeConn{settings: domain.ConnectionSettings{URL: "http://localhost:7700"}},
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// invoke runs the full validate, prepare, run and render path for one tool.
func invoke(t testing.TB, r *Registry, env Env, name string, args domain.Arguments) (string, error) {
	t.Helper()
	e, err := r.Get(name)
	if err != nil {
		return "", err
	}
	if err := e.Validate(args); err != nil {
		return "", err
	}
	reply, err := e.Run(context.Background(), env, e.Prepare(args))
	if err != nil {
		return "", err
	}
	text, _ := reply.Render()
	return text, nil
}
