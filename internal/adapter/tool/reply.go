package tool

import (
	"context"
	"encoding/json"

	"meilisearch-mcp/internal/domain"
)

// Reply is a handler result before serialization: either fixed text, or a
// label followed by a serialized body.
type Reply struct {
	label string
	body  any
	text  string
	plain bool
}

// TextReply returns s verbatim.
func TextReply(s string) Reply { return Reply{text: s, plain: true} }

// LabeledReply renders label immediately followed by body as indented JSON.
func LabeledReply(label string, body any) Reply { return Reply{label: label, body: body} }

// JSONReply renders body as indented JSON with no label.
func JSONReply(body any) Reply { return Reply{body: body} }

// Render produces the envelope text. The second result reports that the
// serializer had to fall back to a string form for part of the body.
func (r Reply) Render() (string, bool) {
	if r.plain {
		return r.text, false
	}
	body, fallback := Serialize(r.body)
	return r.label + body, fallback
}

// bind adapts a typed handler to Handler. Arguments are decoded into P
// through JSON, the way tool params always have been; a decode failure is a
// validation error.
func bind[P any](name string, fn func(ctx context.Context, env Env, p P) (Reply, error)) Handler {
	return func(ctx context.Context, env Env, args domain.Arguments) (Reply, error) {
		p, err := ParseParams[P](name, args)
		if err != nil {
			return Reply{}, err
		}
		return fn(ctx, env, p)
	}
}

// ParseParams decodes args into P.
func ParseParams[P any](name string, args domain.Arguments) (P, error) {
	var p P
	if args == nil {
		args = domain.Arguments{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return p, &domain.ValidationError{Tool: name, Reason: "invalid params: " + err.Error()}
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, &domain.ValidationError{Tool: name, Reason: "invalid params: " + err.Error()}
	}
	return p, nil
}
