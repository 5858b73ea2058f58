package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
	"github.com/kirillkom/agro-knowledge/internal/core/ports"
	"github.com/kirillkom/agro-knowledge/internal/core/similarity"
)

type RetrievalConfig struct {
	// RelevanceThreshold is exclusive: a chunk must score strictly above it.
	RelevanceThreshold float64
	TopK               int
	// StructuredScore is the fixed score given to a catalog match.
	StructuredScore float64
}

func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		RelevanceThreshold: 0.55,
		TopK:               3,
		StructuredScore:    0.8,
	}
}

// RetrieveUseCase scores every stored chunk against the query embedding,
// adds the catalog match if any, and formats the best results as a prompt
// context block. It never fails: store and embedding problems degrade to
// fewer results.
type RetrieveUseCase struct {
	store      ports.KnowledgeStore
	embeddings ports.EmbeddingGateway
	catalog    ports.ReferenceCatalog
	cfg        RetrievalConfig
	observer   ports.KnowledgeObserver
	logger     *slog.Logger
}

func NewRetrieveUseCase(
	store ports.KnowledgeStore,
	embeddings ports.EmbeddingGateway,
	catalog ports.ReferenceCatalog,
	cfg RetrievalConfig,
	observer ports.KnowledgeObserver,
	logger *slog.Logger,
) *RetrieveUseCase {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultRetrievalConfig().TopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrieveUseCase{
		store:      store,
		embeddings: embeddings,
		catalog:    catalog,
		cfg:        cfg,
		observer:   observer,
		logger:     logger,
	}
}

func (uc *RetrieveUseCase) Search(ctx context.Context, query string) string {
	return FormatResults(query, uc.Retrieve(ctx, query))
}

// Retrieve returns at most TopK results ordered by descending score.
func (uc *RetrieveUseCase) Retrieve(ctx context.Context, query string) []domain.QueryResult {
	started := time.Now()
	if strings.TrimSpace(query) == "" {
		uc.observe(0, false, true, started)
		return nil
	}

	vectorHits := uc.vectorResults(ctx, query)
	results := make([]domain.QueryResult, 0, len(vectorHits)+1)
	results = append(results, vectorHits...)

	// The catalog hit goes last so an uploaded chunk wins a tie on score.
	structuredHit := false
	if match, ok := uc.catalog.Search(query); ok {
		structuredHit = true
		results = append(results, domain.QueryResult{
			Text:        match.Render(),
			Score:       uc.cfg.StructuredScore,
			SourceLabel: domain.SourceSystemCore,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > uc.cfg.TopK {
		results = results[:uc.cfg.TopK]
	}

	uc.observe(len(vectorHits), structuredHit, len(results) == 0, started)
	return results
}

func (uc *RetrieveUseCase) vectorResults(ctx context.Context, query string) []domain.QueryResult {
	queryVec := uc.embeddings.Embed(ctx, query)
	if len(queryVec) == 0 {
		return nil
	}

	chunks, err := uc.store.GetAllChunks(ctx)
	if err != nil {
		uc.logger.Warn("retrieval_store_read_failed", "error", err)
		return nil
	}

	out := make([]domain.QueryResult, 0)
	for _, c := range chunks {
		if !c.HasEmbedding() {
			continue
		}
		score := similarity.Cosine(queryVec, c.Embedding)
		if score > uc.cfg.RelevanceThreshold {
			out = append(out, domain.QueryResult{
				Text:        c.Text,
				Score:       score,
				SourceLabel: domain.SourceUserDocument,
			})
		}
	}
	return out
}

func (uc *RetrieveUseCase) observe(vectorHits int, structuredHit, noData bool, started time.Time) {
	if uc.observer != nil {
		uc.observer.ObserveRetrieval(vectorHits, structuredHit, noData, time.Since(started))
	}
}

// FormatResults renders results as "[SOURCE: label (Score: 0.00)]" blocks
// separated by blank lines, or the no-data marker when results is empty.
func FormatResults(query string, results []domain.QueryResult) string {
	if len(results) == 0 {
		return NoDataMessage(query)
	}
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("[SOURCE: %s (Score: %.2f)]\n%s", r.SourceLabel, r.Score, r.Text))
	}
	return strings.Join(blocks, "\n\n")
}

func NoDataMessage(query string) string {
	return fmt.Sprintf(
		"%s The knowledge base does not contain specific verified norms for %q. Use general agronomic principles for Central Asia.",
		domain.NoDataPrefix, query,
	)
}
