package tool

import (
	"context"
	"encoding/json"
	"net/http"

	"meilisearch-mcp/internal/adapter/meili"
	"meilisearch-mcp/internal/domain"
)

type chatCompletionParams struct {
	Query        string   `json:"query"`
	Model        string   `json:"model"`
	Temperature  *float64 `json:"temperature"`
	MaxTokens    int      `json:"maxTokens"`
	IndexUIDs    []string `json:"indexUids"`
	WorkspaceUID string   `json:"workspaceUid"`
	Stream       bool     `json:"stream"`
}

type workspaceParams struct {
	UID         string   `json:"uid"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   int      `json:"maxTokens"`
	IndexUIDs   []string `json:"indexUids"`
}

func (p workspaceParams) workspace() meili.Workspace {
	return meili.Workspace{
		Name:        p.Name,
		Description: p.Description,
		Model:       p.Model,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		IndexUIDs:   p.IndexUIDs,
	}
}

type workspaceUIDParams struct {
	UID string `json:"uid"`
}

type listWorkspacesParams struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func chatTools() []Definition {
	return []Definition{
		{
			Name:        "chat-completion",
			Description: "Generate a chat completion response using Meilisearch's chat feature with RAG",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "The user's query or prompt"},
					"model": {"type": "string", "description": "The model to use (e.g., 'gpt-4', 'gpt-3.5-turbo')"},
					"temperature": {"type": "number", "description": "Controls randomness (0-1)"},
					"maxTokens": {"type": "integer", "description": "Maximum tokens in response"},
					"indexUids": {"type": "array", "items": {"type": "string"}, "description": "List of index UIDs to search for context"},
					"workspaceUid": {"type": "string", "description": "Chat workspace UID to use"},
					"stream": {"type": "boolean", "description": "Whether to stream the response", "default": true}
				},
				"required": ["query"],
				"additionalProperties": false
			}`),
			Defaults: map[string]any{"stream": true},
			Handler:  bind("chat-completion", chatCompletion),
		},
		{
			Name:        "create-chat-workspace",
			Description: "Create a new chat workspace for managing chat settings",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"uid": {"type": "string", "description": "Unique identifier for the workspace"},
					"name": {"type": "string", "description": "Name of the workspace"},
					"description": {"type": "string", "description": "Description of the workspace"},
					"model": {"type": "string", "description": "Default model for this workspace"},
					"temperature": {"type": "number", "description": "Default temperature for this workspace"},
					"maxTokens": {"type": "integer", "description": "Default max tokens for this workspace"},
					"indexUids": {"type": "array", "items": {"type": "string"}, "description": "Default index UIDs for this workspace"}
				},
				"required": ["uid", "name"],
				"additionalProperties": false
			}`),
			Handler: bind("create-chat-workspace", func(ctx context.Context, env Env, p workspaceParams) (Reply, error) {
				if err := ValidateAll(RequireField("uid", p.UID), RequireField("name", p.Name)); err != nil {
					return Reply{}, &domain.ValidationError{Tool: "create-chat-workspace", Reason: err.Error()}
				}
				res, err := env.Backend.CreateChatWorkspace(ctx, p.UID, p.workspace())
				if err != nil {
					return Reply{}, err
				}
				env.Logger.Info("Chat workspace created", "workspace_uid", p.UID)
				return LabeledReply("Chat workspace created: ", res), nil
			}),
		},
		{
			Name:        "update-chat-workspace",
			Description: "Update an existing chat workspace",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"uid": {"type": "string", "description": "Unique identifier of the workspace to update"},
					"name": {"type": "string", "description": "New name for the workspace"},
					"description": {"type": "string", "description": "New description for the workspace"},
					"model": {"type": "string", "description": "New default model for this workspace"},
					"temperature": {"type": "number", "description": "New default temperature for this workspace"},
					"maxTokens": {"type": "integer", "description": "New default max tokens for this workspace"},
					"indexUids": {"type": "array", "items": {"type": "string"}, "description": "New default index UIDs for this workspace"}
				},
				"required": ["uid"],
				"additionalProperties": false
			}`),
			Handler: bind("update-chat-workspace", func(ctx context.Context, env Env, p workspaceParams) (Reply, error) {
				if err := requireWorkspace("update-chat-workspace", p.UID); err != nil {
					return Reply{}, err
				}
				res, err := env.Backend.UpdateChatWorkspace(ctx, p.UID, p.workspace())
				if err != nil {
					return Reply{}, err
				}
				env.Logger.Info("Chat workspace updated", "workspace_uid", p.UID)
				return LabeledReply("Chat workspace updated: ", res), nil
			}),
		},
		{
			Name:        "list-chat-workspaces",
			Description: "List all chat workspaces",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"limit": {"type": "integer", "description": "Maximum number of workspaces to return"},
					"offset": {"type": "integer", "description": "Number of workspaces to skip"}
				},
				"additionalProperties": false
			}`),
			Handler: bind("list-chat-workspaces", func(ctx context.Context, env Env, p listWorkspacesParams) (Reply, error) {
				res, err := env.Backend.ListChatWorkspaces(ctx, p.Limit, p.Offset)
				if err != nil {
					return Reply{}, err
				}
				env.Logger.Info("Chat workspaces listed")
				return LabeledReply("Chat workspaces: ", res), nil
			}),
		},
		{
			Name:        "get-chat-workspace",
			Description: "Get details of a specific chat workspace",
			Schema:      json.RawMessage(workspaceUIDSchema("Unique identifier of the workspace")),
			Handler: bind("get-chat-workspace", func(ctx context.Context, env Env, p workspaceUIDParams) (Reply, error) {
				if err := requireWorkspace("get-chat-workspace", p.UID); err != nil {
					return Reply{}, err
				}
				res, err := env.Backend.GetChatWorkspace(ctx, p.UID)
				if err != nil {
					return Reply{}, err
				}
				env.Logger.Info("Chat workspace retrieved", "workspace_uid", p.UID)
				return LabeledReply("Chat workspace: ", res), nil
			}),
		},
		{
			Name:        "delete-chat-workspace",
			Description: "Delete a chat workspace",
			Schema:      json.RawMessage(workspaceUIDSchema("Unique identifier of the workspace to delete")),
			Handler: bind("delete-chat-workspace", func(ctx context.Context, env Env, p workspaceUIDParams) (Reply, error) {
				if err := requireWorkspace("delete-chat-workspace", p.UID); err != nil {
					return Reply{}, err
				}
				res, err := env.Backend.DeleteChatWorkspace(ctx, p.UID)
				if err != nil {
					return Reply{}, err
				}
				env.Logger.Info("Chat workspace deleted", "workspace_uid", p.UID)
				return LabeledReply("Chat workspace deleted: ", res), nil
			}),
		},
	}
}

// chatCompletion always returns the whole answer. With stream set the
// streamed endpoint is used and its fragments are joined in arrival order.
func chatCompletion(ctx context.Context, env Env, p chatCompletionParams) (Reply, error) {
	req := meili.ChatRequest{
		Query:        p.Query,
		Model:        p.Model,
		Temperature:  p.Temperature,
		MaxTokens:    p.MaxTokens,
		IndexUIDs:    p.IndexUIDs,
		WorkspaceUID: p.WorkspaceUID,
	}

	if !p.Stream {
		res, err := env.Backend.ChatCompletion(ctx, req)
		if err != nil {
			return Reply{}, err
		}
		env.Logger.Info("Chat completion generated", "query", p.Query)
		return JSONReply(res), nil
	}

	stream, err := env.Backend.ChatCompletionStream(ctx, req)
	if err != nil {
		return Reply{}, err
	}
	text, err := meili.Collect(stream)
	if err != nil {
		return Reply{}, &meili.APIError{Op: http.MethodPost + " /chat/completions", Err: err}
	}
	env.Logger.Info("Chat completion streamed", "query", p.Query, "response_length", len(text))
	return TextReply(text), nil
}

func requireWorkspace(tool, uid string) error {
	if err := RequireField("uid", uid); err != nil {
		return &domain.ValidationError{Tool: tool, Reason: err.Error()}
	}
	return nil
}

func workspaceUIDSchema(description string) string {
	desc, _ := json.Marshal(description)
	return `{
		"type": "object",
		"properties": {"uid": {"type": "string", "description": ` + string(desc) + `}},
		"required": ["uid"],
		"additionalProperties": false
	}`
}
