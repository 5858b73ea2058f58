package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kirillkom/agro-knowledge/internal/adapters/cli"
	"github.com/kirillkom/agro-knowledge/internal/bootstrap"
	"github.com/kirillkom/agro-knowledge/internal/config"
	"github.com/kirillkom/agro-knowledge/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	// The CLI always ingests in-process.
	cfg.IngestMode = bootstrap.IngestModeSync
	logger := logging.NewJSONLoggerTo(os.Stderr, "agrokb-cli", envOr("LOG_LEVEL", "warn"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, closeFn := cli.NewRootCommand(func(ctx context.Context) (*cli.Services, func(), error) {
		app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		return &cli.Services{
			Ingestor: app.IngestUC,
			Searcher: app.RetrieveUC,
			Library:  app.LibraryUC,
			Catalog:  app.Catalog,
			Advice:   app.AskUC,
			SeedCatalog: func(ctx context.Context) (int, int, error) {
				loader, err := bootstrap.ConnectNeo4j(ctx, cfg)
				if err != nil {
					return 0, 0, err
				}
				defer loader.Close(context.WithoutCancel(ctx))
				if err := loader.Seed(ctx, app.Catalog); err != nil {
					return 0, 0, err
				}
				return len(app.Catalog.Crops()), len(app.Catalog.Fertilizers()), nil
			},
		}, app.Close, nil
	})

	err := root.ExecuteContext(ctx)
	closeFn()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
