package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	"meilisearch-mcp/internal/adapter/meili"
	"meilisearch-mcp/internal/adapter/tool"
	"meilisearch-mcp/internal/domain"
	"meilisearch-mcp/internal/infra/tracer"
)

// redactedKeys are argument keys whose values never reach the log.
var redactedKeys = map[string]bool{"api_key": true}

// Gateway dispatches tool invocations. Invoke never returns an error: every
// failure becomes an "Error: ..." envelope plus one log record.
type Gateway struct {
	registry *tool.Registry
	conn     *ConnectionHolder
	logger   *slog.Logger
}

// NewGateway creates a gateway over registry and conn.
func NewGateway(registry *tool.Registry, conn *ConnectionHolder, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{registry: registry, conn: conn, logger: logger}
}

// ListTools returns the catalog in its fixed order.
func (g *Gateway) ListTools() []domain.ToolSchema {
	return g.registry.Schemas()
}

// Invoke runs tool name with args and returns exactly one envelope.
func (g *Gateway) Invoke(ctx context.Context, name string, args domain.Arguments) domain.Envelope {
	callID := ulid.Make().String()
	ctx, span := tracer.StartSpan(ctx, "gateway.invoke",
		trace.WithAttributes(
			tracer.StringAttr("tool.name", name),
			tracer.StringAttr("call.id", callID),
		),
	)
	defer span.End()

	start := time.Now()
	text, err := g.dispatch(ctx, name, callID, args)
	if err != nil {
		tracer.RecordError(span, err)
		g.logger.Error("tool invocation failed",
			"tool", name,
			"call_id", callID,
			"code", domain.ErrorCodeOf(err),
			"kind", domain.KindOf(err),
			"transient", meili.IsTransient(err),
			"error", err,
			"arguments", redact(args),
		)
		return domain.ErrorEnvelope(err)
	}

	tracer.SetOK(span)
	g.logger.Debug("tool invoked", "tool", name, "call_id", callID, "duration", time.Since(start))
	return domain.TextEnvelope(text)
}

func (g *Gateway) dispatch(ctx context.Context, name, callID string, args domain.Arguments) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("tool handler panicked", "tool", name, "call_id", callID, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("internal error in %s: %v", name, r)
		}
	}()

	entry, err := g.registry.Get(name)
	if err != nil {
		return "", err
	}
	if err := entry.Validate(args); err != nil {
		return "", err
	}

	b := g.conn.snapshot()
	env := tool.Env{
		Backend: b.backend,
		Conn:    g.conn,
		Logger:  g.logger.With("tool", name, "call_id", callID),
	}
	reply, err := entry.Run(ctx, env, entry.Prepare(args))
	if err != nil {
		return "", err
	}

	text, fallback := reply.Render()
	if fallback {
		g.logger.Warn("result rendered with string fallback",
			"tool", name,
			"call_id", callID,
			"kind", "serialization_fallback",
		)
	}
	return text, nil
}

func redact(args domain.Arguments) domain.Arguments {
	out := args.Clone()
	for k := range out {
		if redactedKeys[k] {
			out[k] = "********"
		}
	}
	return out
}
