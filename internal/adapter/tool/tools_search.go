package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"meilisearch-mcp/internal/adapter/meili"
)

type updateSettingsParams struct {
	IndexUID string         `json:"indexUid"`
	Settings map[string]any `json:"settings"`
}

type searchParams struct {
	Query    string   `json:"query"`
	IndexUID string   `json:"indexUid"`
	Limit    *int     `json:"limit"`
	Offset   *int     `json:"offset"`
	Filter   string   `json:"filter"`
	Sort     []string `json:"sort"`
}

func searchTools() []Definition {
	return []Definition{
		{
			Name:        "get-settings",
			Description: "Get current settings for an index",
			Schema:      json.RawMessage(indexOnlySchema),
			Handler: bind("get-settings", func(ctx context.Context, env Env, p indexParams) (Reply, error) {
				if err := requireIndex("get-settings", p.IndexUID); err != nil {
					return Reply{}, err
				}
				settings, err := env.Backend.GetSettings(ctx, p.IndexUID)
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply("Current settings: ", settings), nil
			}),
		},
		{
			Name:        "update-settings",
			Description: "Update settings for an index",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"indexUid": {"type": "string"},
					"settings": {"type": "object", "additionalProperties": true}
				},
				"required": ["indexUid", "settings"],
				"additionalProperties": false
			}`),
			Handler: bind("update-settings", func(ctx context.Context, env Env, p updateSettingsParams) (Reply, error) {
				if err := requireIndex("update-settings", p.IndexUID); err != nil {
					return Reply{}, err
				}
				task, err := env.Backend.UpdateSettings(ctx, p.IndexUID, p.Settings)
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply("Settings updated: ", task), nil
			}),
		},
		{
			Name:        "search",
			Description: "Search through Meilisearch indices. If indexUid is not provided, it will search across all indices.",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string"},
					"indexUid": {"type": "string"},
					"limit": {"type": "integer"},
					"offset": {"type": "integer"},
					"filter": {"type": "string"},
					"sort": {"type": "array", "items": {"type": "string"}}
				},
				"required": ["query"],
				"additionalProperties": false
			}`),
			Handler: bind("search", func(ctx context.Context, env Env, p searchParams) (Reply, error) {
				res, err := env.Backend.Search(ctx, meili.SearchRequest{
					Query:    p.Query,
					IndexUID: p.IndexUID,
					Limit:    p.Limit,
					Offset:   p.Offset,
					Filter:   p.Filter,
					Sort:     p.Sort,
				})
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply(fmt.Sprintf("Search results for '%s':\n", p.Query), res), nil
			}),
		},
	}
}
