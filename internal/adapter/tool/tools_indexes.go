package tool

import (
	"context"
	"encoding/json"

	"meilisearch-mcp/internal/domain"
)

type createIndexParams struct {
	UID        string `json:"uid"`
	PrimaryKey string `json:"primaryKey"`
}

type indexUIDParams struct {
	UID string `json:"uid"`
}

func indexTools() []Definition {
	return []Definition{
		{
			Name:        "create-index",
			Description: "Create a new Meilisearch index",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"uid": {"type": "string"},
					"primaryKey": {"type": "string"}
				},
				"required": ["uid"],
				"additionalProperties": false
			}`),
			Handler: bind("create-index", func(ctx context.Context, env Env, p createIndexParams) (Reply, error) {
				if err := RequireField("uid", p.UID); err != nil {
					return Reply{}, &domain.ValidationError{Tool: "create-index", Reason: err.Error()}
				}
				task, err := env.Backend.CreateIndex(ctx, p.UID, p.PrimaryKey)
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply("Created index: ", task), nil
			}),
		},
		{
			Name:        "list-indexes",
			Description: "List all Meilisearch indexes",
			Schema:      json.RawMessage(emptyObjectSchema),
			Handler: func(ctx context.Context, env Env, _ domain.Arguments) (Reply, error) {
				indexes, err := env.Backend.ListIndexes(ctx)
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply("Indexes:\n", indexes), nil
			},
		},
		{
			Name:        "delete-index",
			Description: "Delete a Meilisearch index",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {"uid": {"type": "string"}},
				"required": ["uid"],
				"additionalProperties": false
			}`),
			Handler: bind("delete-index", func(ctx context.Context, env Env, p indexUIDParams) (Reply, error) {
				if err := RequireField("uid", p.UID); err != nil {
					return Reply{}, &domain.ValidationError{Tool: "delete-index", Reason: err.Error()}
				}
				if _, err := env.Backend.DeleteIndex(ctx, p.UID); err != nil {
					return Reply{}, err
				}
				return TextReply("Successfully deleted index: " + p.UID), nil
			}),
		},
	}
}
