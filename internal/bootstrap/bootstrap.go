package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/agro-knowledge/internal/config"
	"github.com/kirillkom/agro-knowledge/internal/core/ports"
	"github.com/kirillkom/agro-knowledge/internal/core/usecase"
	rediscache "github.com/kirillkom/agro-knowledge/internal/infrastructure/cache/redis"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/catalog"
	catalogneo4j "github.com/kirillkom/agro-knowledge/internal/infrastructure/catalog/neo4j"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/chunking"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/embedding"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/extractor"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/queue/nats"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/repository/memory"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/repository/sqlite"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/resilience"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/workpool"
)

const (
	IngestModeSync  = "sync"
	IngestModeQueue = "queue"
)

type Options struct {
	Logger *slog.Logger
	// Observer receives ingestion and retrieval measurements. May be nil.
	Observer ports.KnowledgeObserver
	// ConnectQueue forces a NATS connection even in sync mode (the worker).
	ConnectQueue bool
}

type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Store    ports.KnowledgeStore
	Catalog  *catalog.Graph
	Executor *resilience.Executor
	Queue    *nats.Queue

	// IngestUC always runs the pipeline in-process.
	IngestUC *usecase.IngestUseCase
	// Uploads is what the HTTP adapter hands files to: the pipeline in sync
	// mode, the queue submitter in queue mode.
	Uploads    ports.DocumentIngestor
	RetrieveUC *usecase.RetrieveUseCase
	LibraryUC  *usecase.LibraryUseCase
	AskUC      *usecase.AskUseCase
	ProcessUC  *usecase.ProcessIngestUseCase

	closers []func()
}

type modelEmbedder interface {
	ports.Embedder
	Model() string
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Logger: logger}
	ready := false
	defer func() {
		if !ready {
			app.Close()
		}
	}()

	var err error
	app.Store, err = app.openStore(ctx)
	if err != nil {
		return nil, err
	}

	app.Catalog, err = loadCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app.Executor = resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.RetryMaxAttempts,
		RetryInitialBackoff: cfg.RetryInitialBackoff,
		BreakerEnabled:      cfg.BreakerEnabled,
		BreakerOpenTimeout:  cfg.BreakerOpenTimeout,
	}).WithLogger(logger)

	embedder, generator, err := app.llmBackends(ctx)
	if err != nil {
		return nil, err
	}

	gatewayOpts := []embedding.Option{embedding.WithLogger(logger)}
	if cfg.EmbeddingCacheEnabled {
		cache, err := rediscache.NewEmbeddingCache(ctx, rediscache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.EmbeddingCacheTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("init embedding cache: %w", err)
		}
		app.closers = append(app.closers, func() { _ = cache.Close() })
		model := embedder.Model()
		gatewayOpts = append(gatewayOpts, embedding.WithCache(cache, func(text string) string {
			return rediscache.Key(model, text)
		}))
	}
	gateway := embedding.NewGateway(embedder, gatewayOpts...)

	pool := workpool.New(workpool.Config{
		Concurrency: cfg.EmbedConcurrency,
		Interval:    cfg.EmbedInterval,
	})
	textExtractor := extractor.NewRouter(pdf.NewExtractor(), plaintext.NewExtractor())
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	app.IngestUC = usecase.NewIngestUseCase(app.Store, textExtractor, chunker, gateway, pool, opts.Observer, logger)
	app.RetrieveUC = usecase.NewRetrieveUseCase(app.Store, gateway, app.Catalog, usecase.RetrievalConfig{
		RelevanceThreshold: cfg.RAGRelevanceThreshold,
		TopK:               cfg.RAGTopK,
		StructuredScore:    cfg.RAGStructuredScore,
	}, opts.Observer, logger)
	app.LibraryUC = usecase.NewLibraryUseCase(app.Store, logger)
	app.AskUC = usecase.NewAskUseCase(app.RetrieveUC, generator)
	app.Uploads = app.IngestUC

	mode := strings.ToLower(cfg.IngestMode)
	if mode != IngestModeSync && mode != IngestModeQueue {
		return nil, fmt.Errorf("unknown INGEST_MODE %q", cfg.IngestMode)
	}
	if mode == IngestModeQueue || opts.ConnectQueue {
		storage, err := localfs.New(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("init upload staging: %w", err)
		}
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: app.Executor,
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.Queue = queue
		app.closers = append(app.closers, queue.Close)
		app.ProcessUC = usecase.NewProcessIngestUseCase(storage, app.IngestUC, app.Store, logger)
		if mode == IngestModeQueue {
			app.Uploads = usecase.NewQueuedIngestUseCase(storage, queue)
		}
	}

	logger.Info("bootstrap_completed",
		"store", cfg.StoreDriver,
		"embedding_provider", cfg.EmbeddingProvider,
		"generation_provider", cfg.GenerationProvider,
		"catalog_source", cfg.CatalogSource,
		"ingest_mode", mode,
		"embedding_cache", cfg.EmbeddingCacheEnabled,
		"crops", len(app.Catalog.Crops()),
		"fertilizers", len(app.Catalog.Fertilizers()),
	)
	ready = true
	return app, nil
}

func (a *App) openStore(ctx context.Context) (ports.KnowledgeStore, error) {
	switch strings.ToLower(a.Config.StoreDriver) {
	case "postgres":
		db, err := postgres.OpenDB(a.Config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		store := postgres.NewKnowledgeStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return store, nil
	case "sqlite":
		store, err := sqlite.Open(ctx, a.Config.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		return store, nil
	case "memory":
		return memory.NewKnowledgeStore(), nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", a.Config.StoreDriver)
	}
}

func (a *App) llmBackends(ctx context.Context) (modelEmbedder, ports.AnswerGenerator, error) {
	cfg := a.Config

	var ollamaClient *ollama.Client
	ollamaBackend := func() *ollama.Client {
		if ollamaClient == nil {
			ollamaClient = ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, cfg.OllamaTimeout, a.Executor)
		}
		return ollamaClient
	}
	var geminiClient *gemini.Client
	geminiBackend := func() (*gemini.Client, error) {
		if geminiClient != nil {
			return geminiClient, nil
		}
		if cfg.GeminiAPIKey == "" {
			return nil, errors.New("GEMINI_API_KEY is required for the gemini provider")
		}
		c, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiGenModel, cfg.GeminiEmbedModel, a.Executor)
		if err != nil {
			return nil, fmt.Errorf("init gemini: %w", err)
		}
		geminiClient = c
		return c, nil
	}

	var embedder modelEmbedder
	switch strings.ToLower(cfg.EmbeddingProvider) {
	case "ollama":
		embedder = ollama.NewEmbedder(ollamaBackend())
	case "gemini":
		c, err := geminiBackend()
		if err != nil {
			return nil, nil, err
		}
		embedder = gemini.NewEmbedder(c)
	default:
		return nil, nil, fmt.Errorf("unknown EMBEDDING_PROVIDER %q", cfg.EmbeddingProvider)
	}

	var generator ports.AnswerGenerator
	switch strings.ToLower(cfg.GenerationProvider) {
	case "ollama":
		generator = ollama.NewGenerator(ollamaBackend())
	case "gemini":
		c, err := geminiBackend()
		if err != nil {
			return nil, nil, err
		}
		generator = gemini.NewGenerator(c)
	default:
		return nil, nil, fmt.Errorf("unknown GENERATION_PROVIDER %q", cfg.GenerationProvider)
	}
	return embedder, generator, nil
}

func loadCatalog(ctx context.Context, cfg config.Config) (*catalog.Graph, error) {
	switch strings.ToLower(cfg.CatalogSource) {
	case "", "embedded":
		return catalog.Default()
	case "file":
		return catalog.LoadFile(cfg.CatalogFile)
	case "neo4j":
		loader, err := ConnectNeo4j(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer loader.Close(context.WithoutCancel(ctx))
		return loader.Load(ctx)
	default:
		return nil, fmt.Errorf("unknown CATALOG_SOURCE %q", cfg.CatalogSource)
	}
}

// ConnectNeo4j is shared with the CLI seed command.
func ConnectNeo4j(ctx context.Context, cfg config.Config) (*catalogneo4j.Loader, error) {
	return catalogneo4j.Connect(ctx, catalogneo4j.Config{
		URI:      cfg.Neo4jURI,
		User:     cfg.Neo4jUser,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
	})
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
