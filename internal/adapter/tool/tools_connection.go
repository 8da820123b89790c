package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"meilisearch-mcp/internal/domain"
)

const maskedAPIKey = "********"

type updateConnectionParams struct {
	URL    string `json:"url"`
	APIKey string `json:"api_key"`
}

func connectionTools() []Definition {
	return []Definition{
		{
			Name:        "get-connection-settings",
			Description: "Get current Meilisearch connection settings",
			Schema:      json.RawMessage(emptyObjectSchema),
			Handler:     getConnectionSettings,
		},
		{
			Name:        "update-connection-settings",
			Description: "Update Meilisearch connection settings",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"url": {"type": "string"},
					"api_key": {"type": "string"}
				},
				"additionalProperties": false
			}`),
			Handler: bind("update-connection-settings", updateConnectionSettings),
		},
		{
			Name:        "health-check",
			Description: "Check Meilisearch server health",
			Schema:      json.RawMessage(emptyObjectSchema),
			Handler: func(ctx context.Context, env Env, _ domain.Arguments) (Reply, error) {
				if env.Backend.IsHealthy(ctx) {
					return TextReply("Meilisearch is available"), nil
				}
				return TextReply("Meilisearch is unavailable"), nil
			},
		},
		{
			Name:        "get-version",
			Description: "Get Meilisearch version information",
			Schema:      json.RawMessage(emptyObjectSchema),
			Handler: func(ctx context.Context, env Env, _ domain.Arguments) (Reply, error) {
				v, err := env.Backend.Version(ctx)
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply("Version info: ", v), nil
			},
		},
		{
			Name:        "get-stats",
			Description: "Get database statistics",
			Schema:      json.RawMessage(emptyObjectSchema),
			Handler: func(ctx context.Context, env Env, _ domain.Arguments) (Reply, error) {
				stats, err := env.Backend.Stats(ctx)
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply("Database stats: ", stats), nil
			},
		},
	}
}

func getConnectionSettings(_ context.Context, env Env, _ domain.Arguments) (Reply, error) {
	s := env.Conn.Settings()
	key := "Not set"
	if s.HasAPIKey() {
		key = maskedAPIKey
	}
	return TextReply(fmt.Sprintf("Current connection settings:\nURL: %s\nAPI Key: %s", s.URL, key)), nil
}

// updateConnectionSettings applies a partial update: an empty or absent field
// keeps its current value.
func updateConnectionSettings(_ context.Context, env Env, p updateConnectionParams) (Reply, error) {
	if err := ValidateURL("url", p.URL); err != nil {
		return Reply{}, &domain.ValidationError{Tool: "update-connection-settings", Reason: err.Error()}
	}
	s, err := env.Conn.Update(p.URL, p.APIKey)
	if err != nil {
		return Reply{}, err
	}
	env.Logger.Info("Updated Meilisearch connection settings", "url", s.URL)
	return TextReply("Successfully updated connection settings to URL: " + s.URL), nil
}
