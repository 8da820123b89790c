package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"meilisearch-mcp/internal/adapter/mcpserver"
	"meilisearch-mcp/internal/adapter/meili"
	"meilisearch-mcp/internal/adapter/tool"
	"meilisearch-mcp/internal/domain"
	"meilisearch-mcp/internal/infra/config"
	"meilisearch-mcp/internal/infra/logger"
	"meilisearch-mcp/internal/infra/tracer"
	"meilisearch-mcp/internal/usecase"
)

func runServe(ctx context.Context, flags cliFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// 1. Config
	cfg, err := loadConfig(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// 2. Logger & Tracer
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer, os.Stderr)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer tracerShutdown(context.Background())

	// 3. Gateway
	gw, err := newGateway(cfg, log)
	if err != nil {
		return err
	}

	// 4. Graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting meilisearch-mcp",
		"version", config.Version,
		"url", cfg.Meilisearch.URL,
		"api_key_set", cfg.Meilisearch.APIKey != "",
		"tools", len(gw.ListTools()),
	)

	// 5. Serve
	srv := mcpserver.New(gw, cfg.Server, log)
	return srv.Serve(ctx, os.Stdin, os.Stdout)
}

// newGateway wires the registry, the connection holder and the backend factory.
func newGateway(cfg *config.Config, log *slog.Logger) (*usecase.Gateway, error) {
	registry, err := tool.NewCatalogRegistry()
	if err != nil {
		return nil, fmt.Errorf("tool registry: %w", err)
	}

	base := meili.OptionsFromConfig(cfg.Meilisearch, log)
	factory := func(s domain.ConnectionSettings) tool.Backend {
		opts := base
		opts.URL = s.URL
		opts.APIKey = s.APIKey
		return meili.New(opts)
	}
	conn, err := usecase.NewConnectionHolder(domain.ConnectionSettings{
		URL:    cfg.Meilisearch.URL,
		APIKey: cfg.Meilisearch.APIKey,
	}, factory)
	if err != nil {
		return nil, fmt.Errorf("connection: %w", err)
	}
	return usecase.NewGateway(registry, conn, log), nil
}
