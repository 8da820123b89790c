package tool

import (
	"context"

	"meilisearch-mcp/internal/adapter/meili"
	"meilisearch-mcp/internal/domain"
)

// Backend is the Meilisearch surface the handlers call. *meili.Client
// implements it; tests substitute a fake.
type Backend interface {
	IsHealthy(ctx context.Context) bool
	Version(ctx context.Context) (map[string]any, error)
	Stats(ctx context.Context) (map[string]any, error)

	CreateIndex(ctx context.Context, uid, primaryKey string) (map[string]any, error)
	ListIndexes(ctx context.Context) (map[string]any, error)
	DeleteIndex(ctx context.Context, uid string) (map[string]any, error)

	GetDocuments(ctx context.Context, indexUID string, q meili.DocumentsQuery) (map[string]any, error)
	GetDocument(ctx context.Context, indexUID, documentID string) (map[string]any, error)
	AddDocuments(ctx context.Context, indexUID string, docs []any, primaryKey string) (map[string]any, error)
	UpdateDocuments(ctx context.Context, indexUID string, docs []any, primaryKey string) (map[string]any, error)
	DeleteDocument(ctx context.Context, indexUID, documentID string) (map[string]any, error)
	DeleteDocuments(ctx context.Context, indexUID string, documentIDs []any) (map[string]any, error)
	DeleteAllDocuments(ctx context.Context, indexUID string) (map[string]any, error)

	GetSettings(ctx context.Context, indexUID string) (map[string]any, error)
	UpdateSettings(ctx context.Context, indexUID string, settings map[string]any) (map[string]any, error)

	Search(ctx context.Context, r meili.SearchRequest) (map[string]any, error)

	GetTask(ctx context.Context, taskUID int64) (map[string]any, error)
	GetTasks(ctx context.Context, filters map[string]any) (map[string]any, error)
	CancelTasks(ctx context.Context, filters map[string]any) (map[string]any, error)

	GetKeys(ctx context.Context, offset, limit *int) (map[string]any, error)
	CreateKey(ctx context.Context, r meili.KeyRequest) (map[string]any, error)
	DeleteKey(ctx context.Context, key string) error

	HealthStatus(ctx context.Context) (*meili.HealthStatus, error)
	IndexMetrics(ctx context.Context, indexUID string) (*meili.IndexMetrics, error)
	SystemInfo(ctx context.Context) (*meili.SystemInfo, error)

	ChatCompletion(ctx context.Context, r meili.ChatRequest) (any, error)
	ChatCompletionStream(ctx context.Context, r meili.ChatRequest) (*meili.Stream, error)
	CreateChatWorkspace(ctx context.Context, uid string, w meili.Workspace) (any, error)
	UpdateChatWorkspace(ctx context.Context, uid string, w meili.Workspace) (any, error)
	ListChatWorkspaces(ctx context.Context, limit, offset int) (any, error)
	GetChatWorkspace(ctx context.Context, uid string) (any, error)
	DeleteChatWorkspace(ctx context.Context, uid string) (any, error)
}

// Connection exposes the live connection settings to the two connection
// tools. Update is the only writer.
type Connection interface {
	Settings() domain.ConnectionSettings
	Update(url, apiKey string) (domain.ConnectionSettings, error)
}

var _ Backend = (*meili.Client)(nil)
