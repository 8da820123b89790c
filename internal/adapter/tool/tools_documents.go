package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"meilisearch-mcp/internal/adapter/meili"
	"meilisearch-mcp/internal/domain"
)

// Defaults applied when get-documents is called without a page window.
const (
	defaultDocumentsOffset = 0
	defaultDocumentsLimit  = 20
)

type getDocumentsParams struct {
	IndexUID string   `json:"indexUid"`
	Offset   int      `json:"offset"`
	Limit    int      `json:"limit"`
	Fields   []string `json:"fields"`
}

type documentParams struct {
	IndexUID   string `json:"indexUid"`
	DocumentID any    `json:"documentId"`
}

type writeDocumentsParams struct {
	IndexUID   string `json:"indexUid"`
	Documents  []any  `json:"documents"`
	PrimaryKey string `json:"primaryKey"`
}

type deleteDocumentsParams struct {
	IndexUID    string `json:"indexUid"`
	DocumentIDs []any  `json:"documentIds"`
}

type indexParams struct {
	IndexUID string `json:"indexUid"`
}

const documentIDSchema = `{"type": ["string", "integer"]}`

func requireIndex(tool, indexUID string) error {
	if err := RequireField("indexUid", indexUID); err != nil {
		return &domain.ValidationError{Tool: tool, Reason: err.Error()}
	}
	return nil
}

// documentID renders a string or integer primary key value for a URL path.
func documentID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}

func documentTools() []Definition {
	return []Definition{
		{
			Name:        "get-documents",
			Description: "Get documents from an index",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"indexUid": {"type": "string"},
					"offset": {"type": "integer"},
					"limit": {"type": "integer"},
					"fields": {"type": "array", "items": {"type": "string"}}
				},
				"required": ["indexUid"],
				"additionalProperties": false
			}`),
			Defaults: map[string]any{"offset": defaultDocumentsOffset, "limit": defaultDocumentsLimit},
			Handler: bind("get-documents", func(ctx context.Context, env Env, p getDocumentsParams) (Reply, error) {
				if err := requireIndex("get-documents", p.IndexUID); err != nil {
					return Reply{}, err
				}
				docs, err := env.Backend.GetDocuments(ctx, p.IndexUID, meili.DocumentsQuery{Offset: p.Offset, Limit: p.Limit, Fields: p.Fields})
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply("Documents:\n", docs), nil
			}),
		},
		{
			Name:        "get-document",
			Description: "Get a single document by its primary key value",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"indexUid": {"type": "string"},
					"documentId": ` + documentIDSchema + `
				},
				"required": ["indexUid", "documentId"],
				"additionalProperties": false
			}`),
			Handler: bind("get-document", func(ctx context.Context, env Env, p documentParams) (Reply, error) {
				if err := requireIndex("get-document", p.IndexUID); err != nil {
					return Reply{}, err
				}
				doc, err := env.Backend.GetDocument(ctx, p.IndexUID, documentID(p.DocumentID))
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply("Document:\n", doc), nil
			}),
		},
		{
			Name:        "add-documents",
			Description: "Add documents to an index",
			Schema:      json.RawMessage(writeDocumentsSchema),
			Handler: bind("add-documents", func(ctx context.Context, env Env, p writeDocumentsParams) (Reply, error) {
				if err := requireIndex("add-documents", p.IndexUID); err != nil {
					return Reply{}, err
				}
				task, err := env.Backend.AddDocuments(ctx, p.IndexUID, p.Documents, p.PrimaryKey)
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply("Added documents: ", task), nil
			}),
		},
		{
			Name:        "update-documents",
			Description: "Add or partially update documents in an index",
			Schema:      json.RawMessage(writeDocumentsSchema),
			Handler: bind("update-documents", func(ctx context.Context, env Env, p writeDocumentsParams) (Reply, error) {
				if err := requireIndex("update-documents", p.IndexUID); err != nil {
					return Reply{}, err
				}
				task, err := env.Backend.UpdateDocuments(ctx, p.IndexUID, p.Documents, p.PrimaryKey)
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply("Updated documents: ", task), nil
			}),
		},
		{
			Name:        "delete-document",
			Description: "Delete a single document by its primary key value",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"indexUid": {"type": "string"},
					"documentId": ` + documentIDSchema + `
				},
				"required": ["indexUid", "documentId"],
				"additionalProperties": false
			}`),
			Handler: bind("delete-document", func(ctx context.Context, env Env, p documentParams) (Reply, error) {
				if err := requireIndex("delete-document", p.IndexUID); err != nil {
					return Reply{}, err
				}
				task, err := env.Backend.DeleteDocument(ctx, p.IndexUID, documentID(p.DocumentID))
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply("Deleted document: ", task), nil
			}),
		},
		{
			Name:        "delete-documents",
			Description: "Delete multiple documents by primary key value",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"indexUid": {"type": "string"},
					"documentIds": {"type": "array", "items": ` + documentIDSchema + `}
				},
				"required": ["indexUid", "documentIds"],
				"additionalProperties": false
			}`),
			Handler: bind("delete-documents", func(ctx context.Context, env Env, p deleteDocumentsParams) (Reply, error) {
				if err := requireIndex("delete-documents", p.IndexUID); err != nil {
					return Reply{}, err
				}
				task, err := env.Backend.DeleteDocuments(ctx, p.IndexUID, p.DocumentIDs)
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply("Deleted documents: ", task), nil
			}),
		},
		{
			Name:        "delete-all-documents",
			Description: "Delete every document of an index",
			Schema:      json.RawMessage(indexOnlySchema),
			Handler: bind("delete-all-documents", func(ctx context.Context, env Env, p indexParams) (Reply, error) {
				if err := requireIndex("delete-all-documents", p.IndexUID); err != nil {
					return Reply{}, err
				}
				task, err := env.Backend.DeleteAllDocuments(ctx, p.IndexUID)
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply("Deleted all documents: ", task), nil
			}),
		},
	}
}

const writeDocumentsSchema = `{
	"type": "object",
	"properties": {
		"indexUid": {"type": "string"},
		"documents": {
			"type": "array",
			"items": {"type": "object", "additionalProperties": true}
		},
		"primaryKey": {"type": "string"}
	},
	"required": ["indexUid", "documents"],
	"additionalProperties": false
}`

const indexOnlySchema = `{
	"type": "object",
	"properties": {"indexUid": {"type": "string"}},
	"required": ["indexUid"],
	"additionalProperties": false
}`
