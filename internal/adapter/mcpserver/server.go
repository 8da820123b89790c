// Package mcpserver serves the tool gateway over the Model Context Protocol.
package mcpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"meilisearch-mcp/internal/domain"
	"meilisearch-mcp/internal/infra/config"
)

// Invoker is the dispatch surface exposed as MCP tools.
type Invoker interface {
	ListTools() []domain.ToolSchema
	Invoke(ctx context.Context, name string, args domain.Arguments) domain.Envelope
}

// Server adapts an Invoker to an MCP server. It holds no business logic: each
// tools/call is forwarded as is and the envelope is copied into the result.
type Server struct {
	mcp    *server.MCPServer
	logger *slog.Logger
}

// New registers every tool of inv, in catalog order.
func New(inv Invoker, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := server.NewMCPServer(cfg.Name, cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, ts := range inv.ListTools() {
		s.AddTool(mcp.NewToolWithRawSchema(ts.Name, ts.Description, ts.Parameters), handler(inv, ts.Name))
	}
	return &Server{mcp: s, logger: logger}
}

func handler(inv Invoker, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return toResult(inv.Invoke(ctx, name, domain.Arguments(req.GetArguments()))), nil
	}
}

// toResult copies env into a tool result. Failures are already text blocks
// starting with "Error: ", so IsError stays false.
func toResult(env domain.Envelope) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(env.Content))
	for _, b := range env.Content {
		content = append(content, mcp.NewTextContent(b.Text))
	}
	return &mcp.CallToolResult{Content: content}
}

// Serve reads JSON-RPC messages from in and writes replies to out until in is
// closed or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	s.logger.Info("MCP server listening on stdio")
	err := stdio.Listen(ctx, in, out)
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		s.logger.Info("MCP server stopped")
		return nil
	}
	return err
}
