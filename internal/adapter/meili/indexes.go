package meili

import (
	"context"
	"net/http"
)

// Health returns the raw /health body ({"status":"available"}).
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	return c.doObject(ctx, call{method: http.MethodGet, path: "/health"})
}

// IsHealthy reports whether /health answers "available". Any failure is
// reported as unhealthy.
func (c *Client) IsHealthy(ctx context.Context) bool {
	body, err := c.Health(ctx)
	if err != nil {
		return false
	}
	status, _ := body["status"].(string)
	return status == "available"
}

// Version returns the /version body.
func (c *Client) Version(ctx context.Context) (map[string]any, error) {
	return c.doObject(ctx, call{method: http.MethodGet, path: "/version"})
}

// Stats returns the global /stats body.
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	return c.doObject(ctx, call{method: http.MethodGet, path: "/stats"})
}

// IndexStats returns /indexes/{uid}/stats.
func (c *Client) IndexStats(ctx context.Context, uid string) (map[string]any, error) {
	return c.doObject(ctx, call{method: http.MethodGet, path: "/indexes/" + segment(uid) + "/stats"})
}

// CreateIndex enqueues index creation. primaryKey is optional.
func (c *Client) CreateIndex(ctx context.Context, uid, primaryKey string) (map[string]any, error) {
	body := map[string]any{"uid": uid}
	if primaryKey != "" {
		body["primaryKey"] = primaryKey
	}
	return c.doObject(ctx, call{method: http.MethodPost, path: "/indexes", body: body})
}

// GetIndex returns one index description.
func (c *Client) GetIndex(ctx context.Context, uid string) (map[string]any, error) {
	return c.doObject(ctx, call{method: http.MethodGet, path: "/indexes/" + segment(uid)})
}

// ListIndexes returns the paginated /indexes body ({"results":[...],"total":n,...}).
func (c *Client) ListIndexes(ctx context.Context) (map[string]any, error) {
	return c.doObject(ctx, call{method: http.MethodGet, path: "/indexes", query: pageQuery(0, 1000)})
}

// DeleteIndex enqueues index deletion.
func (c *Client) DeleteIndex(ctx context.Context, uid string) (map[string]any, error) {
	return c.doObject(ctx, call{method: http.MethodDelete, path: "/indexes/" + segment(uid)})
}

// indexUIDs extracts the uid of every entry in a ListIndexes body.
func indexUIDs(list map[string]any) []string {
	results, _ := list["results"].([]any)
	uids := make([]string, 0, len(results))
	for _, r := range results {
		idx, ok := r.(map[string]any)
		if !ok {
			continue
		}
		if uid, ok := idx["uid"].(string); ok && uid != "" {
			uids = append(uids, uid)
		}
	}
	return uids
}
