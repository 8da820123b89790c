package tool

import (
	"context"
	"encoding/json"

	"meilisearch-mcp/internal/domain"
)

// taskFilterKeys is the allow-list of get-tasks query parameters. Any other
// key is dropped before the backend call instead of being rejected.
var taskFilterKeys = []string{
	"limit",
	"from",
	"reverse",
	"batchUids",
	"uids",
	"canceledBy",
	"types",
	"statuses",
	"indexUids",
	"afterEnqueuedAt",
	"beforeEnqueuedAt",
	"afterStartedAt",
	"beforeStartedAt",
	"afterFinishedAt",
	"beforeFinishedAt",
}

type getTaskParams struct {
	TaskUID int64 `json:"taskUid"`
}

func taskTools() []Definition {
	return []Definition{
		{
			Name:        "get-task",
			Description: "Get information about a specific task",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {"taskUid": {"type": "integer"}},
				"required": ["taskUid"],
				"additionalProperties": false
			}`),
			Handler: bind("get-task", func(ctx context.Context, env Env, p getTaskParams) (Reply, error) {
				task, err := env.Backend.GetTask(ctx, p.TaskUID)
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply("Task information: ", task), nil
			}),
		},
		{
			Name:        "get-tasks",
			Description: "Get list of tasks with optional filters",
			// additionalProperties stays open: unknown keys are dropped by Allowed,
			// not rejected. TestGetTasksDropsUnknownFilters pins this.
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"limit": {"type": "integer"},
					"from": {"type": "integer"},
					"reverse": {"type": "boolean"},
					"batchUids": {"type": "array", "items": {"type": "string"}},
					"uids": {"type": "array", "items": {"type": "integer"}},
					"canceledBy": {"type": "array", "items": {"type": "string"}},
					"types": {"type": "array", "items": {"type": "string"}},
					"statuses": {"type": "array", "items": {"type": "string"}},
					"indexUids": {"type": "array", "items": {"type": "string"}},
					"afterEnqueuedAt": {"type": "string"},
					"beforeEnqueuedAt": {"type": "string"},
					"afterStartedAt": {"type": "string"},
					"beforeStartedAt": {"type": "string"},
					"afterFinishedAt": {"type": "string"},
					"beforeFinishedAt": {"type": "string"}
				},
				"additionalProperties": true
			}`),
			Allowed: taskFilterKeys,
			Handler: func(ctx context.Context, env Env, args domain.Arguments) (Reply, error) {
				tasks, err := env.Backend.GetTasks(ctx, args)
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply("Tasks: ", tasks), nil
			},
		},
		{
			Name:        "cancel-tasks",
			Description: "Cancel tasks based on filters",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"uids": {"type": "string"},
					"indexUids": {"type": "string"},
					"types": {"type": "string"},
					"statuses": {"type": "string"}
				},
				"additionalProperties": false
			}`),
			Handler: func(ctx context.Context, env Env, args domain.Arguments) (Reply, error) {
				res, err := env.Backend.CancelTasks(ctx, args)
				if err != nil {
					return Reply{}, err
				}
				return LabeledReply("Tasks cancelled: ", res), nil
			},
		},
	}
}
