package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	mcpadapter "github.com/kirillkom/agro-knowledge/internal/adapters/mcp"
	"github.com/kirillkom/agro-knowledge/internal/bootstrap"
	"github.com/kirillkom/agro-knowledge/internal/config"
	"github.com/kirillkom/agro-knowledge/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	// stdout carries the protocol.
	logger := logging.NewJSONLoggerTo(os.Stderr, "agrokb-mcp", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	server, err := mcpadapter.NewServer(&mcpadapter.Ports{
		Searcher: app.RetrieveUC,
		Catalog:  app.Catalog,
		Library:  app.LibraryUC,
	})
	if err != nil {
		logger.Error("mcp_init_failed", "error", err)
		os.Exit(1)
	}

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("mcp_server_error", "error", err)
		os.Exit(1)
	}
}
