package ports

import (
	"context"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
)

// ProgressFunc receives ingestion phase notifications. It may be nil.
type ProgressFunc func(domain.ProgressEvent)

// DocumentIngestor turns an uploaded file into a searchable document.
type DocumentIngestor interface {
	Ingest(ctx context.Context, file domain.SourceFile, progress ProgressFunc) (*domain.Document, error)
}

// KnowledgeSearcher returns a context block for a generation prompt. It never fails.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string) string
}

// DocumentLibrary is the read/delete side of ingested documents.
type DocumentLibrary interface {
	ListDocuments(ctx context.Context) []domain.Document
	DeleteDocument(ctx context.Context, id string) error
}

// CatalogReader enumerates the reference catalog.
type CatalogReader interface {
	CropNames() []string
	FertilizerNames() []string
}

// AdviceService answers a question grounded on retrieved context.
type AdviceService interface {
	Ask(ctx context.Context, question string) (*domain.Answer, error)
}

// IngestRequestProcessor runs a queued ingest request.
type IngestRequestProcessor interface {
	Process(ctx context.Context, req domain.IngestRequest) error
}
