package meili

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// GetTask returns one task by uid.
func (c *Client) GetTask(ctx context.Context, taskUID int64) (map[string]any, error) {
	return c.doObject(ctx, call{method: http.MethodGet, path: "/tasks/" + strconv.FormatInt(taskUID, 10)})
}

// GetTasks lists tasks. filters holds already-allowed query parameters such
// as limit, from, statuses or afterEnqueuedAt.
func (c *Client) GetTasks(ctx context.Context, filters map[string]any) (map[string]any, error) {
	return c.doObject(ctx, call{method: http.MethodGet, path: "/tasks", query: encodeQuery(filters)})
}

// CancelTasks enqueues a task cancelation matching filters.
func (c *Client) CancelTasks(ctx context.Context, filters map[string]any) (map[string]any, error) {
	return c.doObject(ctx, call{method: http.MethodPost, path: "/tasks/cancel", query: encodeQuery(filters)})
}

// encodeQuery renders loosely typed filter values the way Meilisearch expects
// them in a query string: lists are comma separated, nil values are dropped.
func encodeQuery(params map[string]any) url.Values {
	q := url.Values{}
	for k, v := range params {
		if s, ok := queryValue(v); ok {
			q.Set(k, s)
		}
	}
	return q
}

func queryValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case json.Number:
		return val.String(), true
	case []string:
		return strings.Join(val, ","), len(val) > 0
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := queryValue(item); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ","), len(parts) > 0
	default:
		return fmt.Sprint(val), true
	}
}
