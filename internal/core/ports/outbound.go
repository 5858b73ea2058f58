package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
)

// KnowledgeStore persists documents and their chunks. DeleteDocument must
// remove every chunk whose DocumentID matches.
type KnowledgeStore interface {
	SaveDocument(ctx context.Context, doc *domain.Document) error
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error
	GetAllDocuments(ctx context.Context) ([]domain.Document, error)
	GetAllChunks(ctx context.Context) ([]domain.Chunk, error)
	DeleteDocument(ctx context.Context, id string) error
}

// Embedder calls an external embedding service for a single text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingGateway never fails: an empty vector means "not available".
type EmbeddingGateway interface {
	Embed(ctx context.Context, text string) []float32
}

// EmbeddingCache memoizes vectors by key.
type EmbeddingCache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vector []float32) error
}

// TextExtractor returns plain text for an uploaded file.
type TextExtractor interface {
	Extract(ctx context.Context, file domain.SourceFile) (string, error)
}

// Chunker splits text into retrievable segments.
type Chunker interface {
	Split(text string) []string
}

// ReferenceCatalog is the curated fallback corpus.
type ReferenceCatalog interface {
	Search(query string) (domain.CatalogMatch, bool)
	CropNames() []string
	FertilizerNames() []string
}

// TaskRunner runs n indexed tasks under the runner's concurrency and rate limits.
type TaskRunner interface {
	Run(ctx context.Context, n int, task func(ctx context.Context, i int) error) error
}

// ObjectStorage stages uploaded files for queued ingestion.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes ingest requests.
type MessageQueue interface {
	PublishIngestRequest(ctx context.Context, req domain.IngestRequest) error
	SubscribeIngestRequests(ctx context.Context, handler func(context.Context, domain.IngestRequest) error) error
}

// AnswerGenerator produces text from a prompt.
type AnswerGenerator interface {
	GenerateFromPrompt(ctx context.Context, prompt string) (string, error)
}

// KnowledgeObserver records pipeline outcomes. Implementations must be safe
// for concurrent use.
type KnowledgeObserver interface {
	ObserveIngest(status string, duration time.Duration, chunks, embedded int)
	ObserveRetrieval(vectorHits int, structuredHit bool, noData bool, duration time.Duration)
}
