package meili

import (
	"context"
	"net/http"
)

// KeyRequest creates an API key. A nil ExpiresAt never expires.
type KeyRequest struct {
	Description string
	Actions     []string
	Indexes     []string
	ExpiresAt   *string
}

// GetKeys lists API keys; offset and limit are optional.
func (c *Client) GetKeys(ctx context.Context, offset, limit *int) (map[string]any, error) {
	params := map[string]any{}
	if offset != nil {
		params["offset"] = *offset
	}
	if limit != nil {
		params["limit"] = *limit
	}
	return c.doObject(ctx, call{method: http.MethodGet, path: "/keys", query: encodeQuery(params)})
}

// CreateKey creates an API key and returns it, secret included.
func (c *Client) CreateKey(ctx context.Context, r KeyRequest) (map[string]any, error) {
	body := map[string]any{
		"actions":   r.Actions,
		"indexes":   r.Indexes,
		"expiresAt": r.ExpiresAt,
	}
	if r.Description != "" {
		body["description"] = r.Description
	}
	return c.doObject(ctx, call{method: http.MethodPost, path: "/keys", body: body})
}

// DeleteKey deletes an API key by key value or uid.
func (c *Client) DeleteKey(ctx context.Context, key string) error {
	_, err := c.do(ctx, call{method: http.MethodDelete, path: "/keys/" + segment(key)})
	return err
}
