package domain

import (
	"encoding/json"
	"strings"
)

// ToolSchema describes a tool for the MCP tools/list reply.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"inputSchema"`
}

// Arguments is the caller-supplied argument bag of one tool invocation.
type Arguments map[string]any

// Clone returns a shallow copy; nil yields an empty bag.
func (a Arguments) Clone() Arguments {
	out := make(Arguments, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// ContentKindText is the only content block kind produced.
const ContentKindText = "text"

// ContentBlock is one element of an Envelope.
type ContentBlock struct {
	Kind string `json:"type"`
	Text string `json:"text"`
}

// Envelope is the reply to every tool invocation, success or failure.
type Envelope struct {
	Content []ContentBlock `json:"content"`
}

// TextEnvelope wraps s as the sole text block of an Envelope.
func TextEnvelope(s string) Envelope {
	return Envelope{Content: []ContentBlock{{Kind: ContentKindText, Text: s}}}
}

// ErrorPrefix starts the text of every failed invocation.
const ErrorPrefix = "Error: "

// ErrorEnvelope renders err as a failed-invocation envelope.
func ErrorEnvelope(err error) Envelope {
	return TextEnvelope(ErrorPrefix + err.Error())
}

// Text returns the concatenated text of all blocks.
func (e Envelope) Text() string {
	if len(e.Content) == 1 {
		return e.Content[0].Text
	}
	var sb strings.Builder
	for _, b := range e.Content {
		sb.WriteString(b.Text)
	}
	return sb.String()
}

// ConnectionSettings is the process-wide backend address and credential.
type ConnectionSettings struct {
	URL    string
	APIKey string
}

// HasAPIKey reports whether a credential is configured.
func (c ConnectionSettings) HasAPIKey() bool { return c.APIKey != "" }
