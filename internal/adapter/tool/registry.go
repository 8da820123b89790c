package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"meilisearch-mcp/internal/domain"
)

// Handler runs one tool with arguments that already passed validation,
// default substitution and filtering.
type Handler func(ctx context.Context, env Env, args domain.Arguments) (Reply, error)

// Definition is one row of the tool catalog.
type Definition struct {
	Name        string
	Description string
	Schema      json.RawMessage

	// Defaults fills absent (or null) arguments before the handler runs.
	Defaults map[string]any
	// Allowed, when non-nil, drops every argument not listed.
	Allowed []string

	Handler Handler
}

// Env is what a handler may touch during one invocation.
type Env struct {
	Backend Backend
	Conn    Connection
	Logger  *slog.Logger
}

// Entry is a registered tool with its compiled schema.
type Entry struct {
	def     Definition
	schema  *jsonschema.Schema
	allowed map[string]struct{}
}

// Name returns the tool name.
func (e *Entry) Name() string { return e.def.Name }

// Schema returns the descriptor published to clients.
func (e *Entry) Schema() domain.ToolSchema {
	return domain.ToolSchema{Name: e.def.Name, Description: e.def.Description, Parameters: e.def.Schema}
}

// Run calls the bound handler.
func (e *Entry) Run(ctx context.Context, env Env, args domain.Arguments) (Reply, error) {
	return e.def.Handler(ctx, env, args)
}

// Prepare applies default substitution, then the allow-list filter. args is
// not modified.
func (e *Entry) Prepare(args domain.Arguments) domain.Arguments {
	out := args.Clone()
	for k, v := range e.def.Defaults {
		if cur, ok := out[k]; !ok || cur == nil {
			out[k] = v
		}
	}
	if e.allowed == nil {
		return out
	}
	for k := range out {
		if _, ok := e.allowed[k]; !ok {
			delete(out, k)
		}
	}
	return out
}

// Registry is the fixed, ordered tool catalog. It is immutable after
// NewRegistry returns and safe for concurrent use.
type Registry struct {
	entries []*Entry
	byName  map[string]*Entry
}

// NewRegistry compiles every definition's schema. Definitions keep their
// order; duplicate names and invalid schemas are errors.
func NewRegistry(defs []Definition) (*Registry, error) {
	r := &Registry{
		entries: make([]*Entry, 0, len(defs)),
		byName:  make(map[string]*Entry, len(defs)),
	}
	for _, d := range defs {
		if _, exists := r.byName[d.Name]; exists {
			return nil, domain.NewDomainError("Registry.Register", domain.ErrInvalidInput, fmt.Sprintf("tool %q already registered", d.Name))
		}
		if d.Handler == nil {
			return nil, domain.NewDomainError("Registry.Register", domain.ErrInvalidInput, fmt.Sprintf("tool %q has no handler", d.Name))
		}
		schema, err := compileSchema(d.Name, d.Schema)
		if err != nil {
			return nil, err
		}
		e := &Entry{def: d, schema: schema}
		if d.Allowed != nil {
			e.allowed = make(map[string]struct{}, len(d.Allowed))
			for _, k := range d.Allowed {
				e.allowed[k] = struct{}{}
			}
		}
		r.entries = append(r.entries, e)
		r.byName[d.Name] = e
	}
	return r, nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (*Entry, error) {
	e, ok := r.byName[name]
	if !ok {
		return nil, &domain.UnknownToolError{Name: name}
	}
	return e, nil
}

// Len returns the catalog size.
func (r *Registry) Len() int { return len(r.entries) }

// Schemas returns every tool descriptor in catalog order.
func (r *Registry) Schemas() []domain.ToolSchema {
	schemas := make([]domain.ToolSchema, 0, len(r.entries))
	for _, e := range r.entries {
		schemas = append(schemas, e.Schema())
	}
	return schemas
}
