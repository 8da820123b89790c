package tool

import (
	"context"
	"encoding/json"

	"meilisearch-mcp/internal/adapter/meili"
	"meilisearch-mcp/internal/domain"
)

type getKeysParams struct {
	Offset *int `json:"offset"`
	Limit  *int `json:"limit"`
}

type createKeyParams struct {
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
	Indexes     []string `json:"indexes"`
	ExpiresAt   *string  `json:"expiresAt"`
}

type deleteKeyParams struct {
	Key string `json:"key"`
}

func keyTools() []Definition {
	return []Definition{
		{
			Name:        "get-keys",
			Description: "Get list of API keys",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"offset": {"type": "integer"},
					"limit": {"type": "integer"}
				},
				"additionalProperties": false
			}`),
			Handler: bind("get-keys", func(ctx context.Context, env Env, p getKeysParams) (Reply, error) {
				keys, err := env.Backend.GetKeys(ctx, p.Offset, p.Limit)
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply("API keys: ", keys), nil
			}),
		},
		{
			Name:        "create-key",
			Description: "Create a new API key",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"description": {"type": "string"},
					"actions": {"type": "array", "items": {"type": "string"}},
					"indexes": {"type": "array", "items": {"type": "string"}},
					"expiresAt": {"type": "string"}
				},
				"required": ["actions", "indexes"],
				"additionalProperties": false
			}`),
			Handler: bind("create-key", func(ctx context.Context, env Env, p createKeyParams) (Reply, error) {
				key, err := env.Backend.CreateKey(ctx, meili.KeyRequest{
					Description: p.Description,
					Actions:     p.Actions,
					Indexes:     p.Indexes,
					ExpiresAt:   p.ExpiresAt,
				})
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply("Created API key: ", key), nil
			}),
		},
		{
			Name:        "delete-key",
			Description: "Delete an API key",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {"key": {"type": "string"}},
				"required": ["key"],
				"additionalProperties": false
			}`),
			Handler: bind("delete-key", func(ctx context.Context, env Env, p deleteKeyParams) (Reply, error) {
				if err := RequireField("key", p.Key); err != nil {
					return Reply{}, &domain.ValidationError{Tool: "delete-key", Reason: err.Error()}
				}
				if err := env.Backend.DeleteKey(ctx, p.Key); err != nil {
					return Reply{}, err
				}
				return TextReply("Successfully deleted API key: " + p.Key), nil
			}),
		},
	}
}
