package meili

import (
	"context"
	"encoding/json"
	"time"
)

// HealthStatus is a combined view of availability, version and stats.
type HealthStatus struct {
	IsHealthy    bool           `json:"is_healthy"`
	Version      map[string]any `json:"version"`
	Stats        map[string]any `json:"stats"`
	IndexesCount int            `json:"indexes_count"`
	CheckedAt    time.Time      `json:"checked_at"`
}

// IndexMetrics summarizes one index.
type IndexMetrics struct {
	IndexUID          string         `json:"index_uid"`
	NumberOfDocuments int64          `json:"number_of_documents"`
	FieldDistribution map[string]any `json:"field_distribution"`
	IsIndexing        bool           `json:"is_indexing"`
	PrimaryKey        *string        `json:"primary_key"`
	CreatedAt         *time.Time     `json:"created_at"`
	UpdatedAt         *time.Time     `json:"updated_at"`
}

// SystemInfo bundles version, stats and health.
type SystemInfo struct {
	Version map[string]any `json:"version"`
	Stats   map[string]any `json:"stats"`
	Health  map[string]any `json:"health"`
}

// HealthStatus gathers a HealthStatus. An unhealthy backend is reported in
// IsHealthy; failing to read version, stats or indexes is an error.
func (c *Client) HealthStatus(ctx context.Context) (*HealthStatus, error) {
	healthy := c.IsHealthy(ctx)
	version, err := c.Version(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := c.Stats(ctx)
	if err != nil {
		return nil, err
	}
	list, err := c.ListIndexes(ctx)
	if err != nil {
		return nil, err
	}
	return &HealthStatus{
		IsHealthy:    healthy,
		Version:      version,
		Stats:        stats,
		IndexesCount: len(indexUIDs(list)),
		CheckedAt:    time.Now().UTC(),
	}, nil
}

// IndexMetrics combines index stats with the index description.
func (c *Client) IndexMetrics(ctx context.Context, indexUID string) (*IndexMetrics, error) {
	stats, err := c.IndexStats(ctx, indexUID)
	if err != nil {
		return nil, err
	}
	index, err := c.GetIndex(ctx, indexUID)
	if err != nil {
		return nil, err
	}

	m := &IndexMetrics{IndexUID: indexUID}
	if n, ok := stats["numberOfDocuments"].(json.Number); ok {
		m.NumberOfDocuments, _ = n.Int64()
	}
	m.FieldDistribution, _ = stats["fieldDistribution"].(map[string]any)
	if m.FieldDistribution == nil {
		m.FieldDistribution = map[string]any{}
	}
	m.IsIndexing, _ = stats["isIndexing"].(bool)
	if pk, ok := index["primaryKey"].(string); ok {
		m.PrimaryKey = &pk
	}
	m.CreatedAt = parseTime(index["createdAt"])
	m.UpdatedAt = parseTime(index["updatedAt"])
	return m, nil
}

// SystemInfo gathers version, stats and health.
func (c *Client) SystemInfo(ctx context.Context) (*SystemInfo, error) {
	version, err := c.Version(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := c.Stats(ctx)
	if err != nil {
		return nil, err
	}
	health, err := c.Health(ctx)
	if err != nil {
		return nil, err
	}
	return &SystemInfo{Version: version, Stats: stats, Health: health}, nil
}

func parseTime(v any) *time.Time {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}
