package tool

import (
	"context"
	"encoding/json"

	"meilisearch-mcp/internal/domain"
)

func monitoringTools() []Definition {
	return []Definition{
		{
			Name:        "get-health-status",
			Description: "Get comprehensive health status of Meilisearch",
			Schema:      json.RawMessage(emptyObjectSchema),
			Handler: func(ctx context.Context, env Env, _ domain.Arguments) (Reply, error) {
				status, err := env.Backend.HealthStatus(ctx)
				if err != nil {
					return Reply{}, err
				}
				env.Logger.Info("Health status checked", "is_healthy", status.IsHealthy, "indexes_count", status.IndexesCount)
				return LabeledReply("Health status: ", status), nil
			},
		},
		{
			Name:        "get-index-metrics",
			Description: "Get detailed metrics for an index",
			Schema:      json.RawMessage(indexOnlySchema),
			Handler: bind("get-index-metrics", func(ctx context.Context, env Env, p indexParams) (Reply, error) {
				if err := requireIndex("get-index-metrics", p.IndexUID); err != nil {
					return Reply{}, err
				}
				metrics, err := env.Backend.IndexMetrics(ctx, p.IndexUID)
				if err != nil {
					return Reply{}, err
				}
				env.Logger.Info("Index metrics retrieved", "index", p.IndexUID)
				return LabeledReply("Index metrics: ", metrics), nil
			}),
		},
		{
			Name:        "get-system-info",
			Description: "Get system-level information",
			Schema:      json.RawMessage(emptyObjectSchema),
			Handler: func(ctx context.Context, env Env, _ domain.Arguments) (Reply, error) {
				info, err := env.Backend.SystemInfo(ctx)
				if err != nil {
					return Reply{}, err
				}
				env.Logger.Info("System information retrieved")
				return LabeledReply("System information: ", info), nil
			},
		},
	}
}
