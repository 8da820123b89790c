package meili

import (
	"context"
	"net/http"
)

// ChatRequest is a retrieval-augmented chat completion request.
type ChatRequest struct {
	Query        string
	Model        string
	Temperature  *float64
	MaxTokens    int
	IndexUIDs    []string
	WorkspaceUID string
}

func (r ChatRequest) payload(stream bool) map[string]any {
	body := map[string]any{"query": r.Query, "stream": stream}
	if r.Model != "" {
		body["model"] = r.Model
	}
	if r.Temperature != nil {
		body["temperature"] = *r.Temperature
	}
	if r.MaxTokens > 0 {
		body["maxTokens"] = r.MaxTokens
	}
	if len(r.IndexUIDs) > 0 {
		body["indexUids"] = r.IndexUIDs
	}
	if r.WorkspaceUID != "" {
		body["workspaceUid"] = r.WorkspaceUID
	}
	return body
}

// ChatCompletion performs a blocking completion and returns the decoded body.
func (c *Client) ChatCompletion(ctx context.Context, r ChatRequest) (any, error) {
	return c.do(ctx, call{method: http.MethodPost, path: "/chat/completions", body: r.payload(false), chat: true})
}

// ChatCompletionStream opens a streamed completion. The caller must Close the
// returned Stream.
func (c *Client) ChatCompletionStream(ctx context.Context, r ChatRequest) (*Stream, error) {
	resp, err := c.send(ctx, call{method: http.MethodPost, path: "/chat/completions", body: r.payload(true), chat: true, stream: true})
	if err != nil {
		return nil, err
	}
	return NewStream(resp.Body), nil
}

// Workspace holds chat workspace fields. Zero values are omitted from requests.
type Workspace struct {
	Name        string
	Description string
	Model       string
	Temperature *float64
	MaxTokens   int
	IndexUIDs   []string
}

func (w Workspace) payload() map[string]any {
	body := map[string]any{}
	if w.Name != "" {
		body["name"] = w.Name
	}
	if w.Description != "" {
		body["description"] = w.Description
	}
	if w.Model != "" {
		body["model"] = w.Model
	}
	if w.Temperature != nil {
		body["temperature"] = *w.Temperature
	}
	if w.MaxTokens > 0 {
		body["maxTokens"] = w.MaxTokens
	}
	if len(w.IndexUIDs) > 0 {
		body["indexUids"] = w.IndexUIDs
	}
	return body
}

func workspacePath(uid string) string { return "/chat/workspaces/" + segment(uid) }

// CreateChatWorkspace creates workspace uid.
func (c *Client) CreateChatWorkspace(ctx context.Context, uid string, w Workspace) (any, error) {
	body := w.payload()
	body["uid"] = uid
	body["name"] = w.Name
	return c.do(ctx, call{method: http.MethodPost, path: "/chat/workspaces", body: body, chat: true})
}

// UpdateChatWorkspace patches workspace uid with the non-zero fields of w.
func (c *Client) UpdateChatWorkspace(ctx context.Context, uid string, w Workspace) (any, error) {
	return c.do(ctx, call{method: http.MethodPatch, path: workspacePath(uid), body: w.payload(), chat: true})
}

// ListChatWorkspaces lists workspaces; zero limit or offset are not sent.
func (c *Client) ListChatWorkspaces(ctx context.Context, limit, offset int) (any, error) {
	params := map[string]any{}
	if limit > 0 {
		params["limit"] = limit
	}
	if offset > 0 {
		params["offset"] = offset
	}
	return c.do(ctx, call{method: http.MethodGet, path: "/chat/workspaces", query: encodeQuery(params), chat: true})
}

// GetChatWorkspace returns workspace uid.
func (c *Client) GetChatWorkspace(ctx context.Context, uid string) (any, error) {
	return c.do(ctx, call{method: http.MethodGet, path: workspacePath(uid), chat: true})
}

// DeleteChatWorkspace deletes workspace uid.
func (c *Client) DeleteChatWorkspace(ctx context.Context, uid string) (any, error) {
	return c.do(ctx, call{method: http.MethodDelete, path: workspacePath(uid), chat: true})
}
