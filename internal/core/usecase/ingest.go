package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
	"github.com/kirillkom/agro-knowledge/internal/core/ports"
)

// IngestUseCase runs extract, chunk, embed and persist for one upload.
// Nothing is persisted when extraction fails. Chunks are written before the
// document so a READY document never points at missing chunks.
type IngestUseCase struct {
	store      ports.KnowledgeStore
	extractor  ports.TextExtractor
	chunker    ports.Chunker
	embeddings ports.EmbeddingGateway
	runner     ports.TaskRunner
	observer   ports.KnowledgeObserver
	logger     *slog.Logger
	now        func() time.Time
}

func NewIngestUseCase(
	store ports.KnowledgeStore,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embeddings ports.EmbeddingGateway,
	runner ports.TaskRunner,
	observer ports.KnowledgeObserver,
	logger *slog.Logger,
) *IngestUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestUseCase{
		store:      store,
		extractor:  extractor,
		chunker:    chunker,
		embeddings: embeddings,
		runner:     runner,
		observer:   observer,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (uc *IngestUseCase) Ingest(ctx context.Context, file domain.SourceFile, progress ports.ProgressFunc) (*domain.Document, error) {
	return uc.IngestAs(ctx, uuid.NewString(), uc.now(), file, progress)
}

// IngestAs runs the pipeline under a caller-assigned document id, so a
// retried request overwrites its earlier chunks.
func (uc *IngestUseCase) IngestAs(
	ctx context.Context,
	documentID string,
	uploadedAt time.Time,
	file domain.SourceFile,
	progress ports.ProgressFunc,
) (*domain.Document, error) {
	if documentID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest", errors.New("document id is required"))
	}
	if file.Name == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest", errors.New("file name is required"))
	}

	started := time.Now()
	report := newProgressReporter(progress)

	doc, embedded, total, err := uc.run(ctx, documentID, uploadedAt, file, report)
	if err != nil {
		uc.observe("failed", started, total, embedded)
		uc.logger.Error("ingest_failed", "document_id", documentID, "title", file.Name, "error", err)
		return nil, err
	}

	uc.observe("ready", started, total, embedded)
	uc.logger.Info("ingest_completed",
		"document_id", doc.ID,
		"title", doc.Title,
		"chunks", total,
		"embedded", embedded,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	report.emit(domain.PhaseDone, "Done!")
	return doc, nil
}

func (uc *IngestUseCase) run(
	ctx context.Context,
	documentID string,
	uploadedAt time.Time,
	file domain.SourceFile,
	report *progressReporter,
) (*domain.Document, int, int, error) {
	report.emit(domain.PhaseExtract, "Reading File...")
	text, err := uc.extract(ctx, file)
	if err != nil {
		return nil, 0, 0, err
	}

	report.emit(domain.PhaseChunk, fmt.Sprintf("Parsed %d chars. Chunking...", len([]rune(text))))
	texts := uc.chunker.Split(text)

	chunks, err := uc.embed(ctx, documentID, texts, report)
	if err != nil {
		return nil, 0, len(texts), err
	}
	embedded := 0
	for _, c := range chunks {
		if c.HasEmbedding() {
			embedded++
		}
	}

	report.emit(domain.PhasePersist, "Saving to Knowledge Base...")
	if err := uc.store.SaveChunks(ctx, chunks); err != nil {
		return nil, embedded, len(chunks), fmt.Errorf("save chunks: %w", err)
	}

	doc := &domain.Document{
		ID:         documentID,
		Title:      file.Name,
		SourceType: file.SourceType(),
		UploadedAt: uploadedAt,
		Status:     domain.StatusReady,
		ChunkCount: embedded,
	}
	if err := uc.store.SaveDocument(ctx, doc); err != nil {
		if len(chunks) > 0 {
			if cleanupErr := uc.store.DeleteDocument(ctx, documentID); cleanupErr != nil {
				uc.logger.Warn("ingest_cleanup_failed", "document_id", documentID, "error", cleanupErr)
			}
		}
		return nil, embedded, len(chunks), fmt.Errorf("save document: %w", err)
	}
	return doc, embedded, len(chunks), nil
}

func (uc *IngestUseCase) extract(ctx context.Context, file domain.SourceFile) (string, error) {
	text, err := uc.extractor.Extract(ctx, file)
	if err == nil {
		return text, nil
	}
	if domain.IsKind(err, domain.ErrExtraction) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("extract text: %w", err)
	}
	return "", domain.WrapError(domain.ErrExtraction, "extract text", err)
}

// embed keeps chunker order. A chunk whose embedding failed keeps its text
// and an empty vector.
func (uc *IngestUseCase) embed(ctx context.Context, documentID string, texts []string, report *progressReporter) ([]domain.Chunk, error) {
	chunks := make([]domain.Chunk, len(texts))
	total := len(texts)

	err := uc.runner.Run(ctx, total, func(ctx context.Context, i int) error {
		report.emit(domain.PhaseEmbed, fmt.Sprintf("Embedding chunk %d/%d...", i+1, total))
		chunks[i] = domain.Chunk{
			ID:         domain.ChunkID(documentID, i),
			DocumentID: documentID,
			Ordinal:    i,
			Text:       texts[i],
			Embedding:  uc.embeddings.Embed(ctx, texts[i]),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	return chunks, nil
}

func (uc *IngestUseCase) observe(status string, started time.Time, chunks, embedded int) {
	if uc.observer != nil {
		uc.observer.ObserveIngest(status, time.Since(started), chunks, embedded)
	}
}

type progressReporter struct {
	mu sync.Mutex
	fn ports.ProgressFunc
}

func newProgressReporter(fn ports.ProgressFunc) *progressReporter {
	return &progressReporter{fn: fn}
}

func (r *progressReporter) emit(phase domain.IngestPhase, message string) {
	if r.fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fn(domain.ProgressEvent{Phase: phase, Message: message})
}
