package tool

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"meilisearch-mcp/internal/domain"
)

func compileSchema(name string, raw json.RawMessage) (*jsonschema.Schema, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("tool %q has no input schema", name)
	}
	compiler := jsonschema.NewCompiler()
	url := name + ".json"
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource for %q: %w", name, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema for %q: %w", name, err)
	}
	return compiled, nil
}

// Validate checks args against the tool's schema. A nil bag validates as {}.
// Values are round-tripped through JSON so Go numeric types validate the same
// way decoded protocol numbers do.
func (e *Entry) Validate(args domain.Arguments) error {
	if args == nil {
		args = domain.Arguments{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return &domain.ValidationError{Tool: e.def.Name, Reason: "arguments are not JSON: " + err.Error()}
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return &domain.ValidationError{Tool: e.def.Name, Reason: "arguments are not JSON: " + err.Error()}
	}

	if err := e.schema.Validate(v); err != nil {
		return &domain.ValidationError{Tool: e.def.Name, Reason: describeValidation(err)}
	}
	return nil
}

// describeValidation flattens a jsonschema error tree into its leaf messages,
// each prefixed by the offending argument path.
func describeValidation(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var msgs []string
	var walk func(*jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			msg := v.Message
			if loc := strings.TrimPrefix(v.InstanceLocation, "/"); loc != "" {
				msg = loc + ": " + msg
			}
			msgs = append(msgs, msg)
			return
		}
		for _, c := range v.Causes {
			walk(c)
		}
	}
	walk(ve)
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}
