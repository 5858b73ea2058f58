package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
	"github.com/kirillkom/agro-knowledge/internal/core/ports"
)

// QueuedIngestUseCase stages an upload and hands it to the worker through
// the message queue.
type QueuedIngestUseCase struct {
	storage ports.ObjectStorage
	queue   ports.MessageQueue
	now     func() time.Time
}

func NewQueuedIngestUseCase(storage ports.ObjectStorage, queue ports.MessageQueue) *QueuedIngestUseCase {
	return &QueuedIngestUseCase{
		storage: storage,
		queue:   queue,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Submit returns a provisional PROCESSING document. Nothing is written to
// the knowledge store until the worker finishes.
func (uc *QueuedIngestUseCase) Submit(ctx context.Context, file domain.SourceFile) (*domain.Document, error) {
	if file.Name == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit ingest", errors.New("file name is required"))
	}

	id := uuid.NewString()
	uploadedAt := uc.now()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(file.Name))

	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(file.Content)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	req := domain.IngestRequest{
		DocumentID: id,
		Title:      file.Name,
		MimeType:   file.MimeType,
		StorageKey: storageKey,
		UploadedAt: uploadedAt,
	}
	if err := uc.queue.PublishIngestRequest(ctx, req); err != nil {
		_ = uc.storage.Delete(ctx, storageKey)
		return nil, fmt.Errorf("publish ingest request: %w", err)
	}

	return &domain.Document{
		ID:         id,
		Title:      file.Name,
		SourceType: file.SourceType(),
		UploadedAt: uploadedAt,
		Status:     domain.StatusProcessing,
	}, nil
}

// Ingest makes the queued path usable wherever a DocumentIngestor is
// expected. Progress is reported by the worker, not here.
func (uc *QueuedIngestUseCase) Ingest(ctx context.Context, file domain.SourceFile, _ ports.ProgressFunc) (*domain.Document, error) {
	return uc.Submit(ctx, file)
}

// documentIngestor is the part of IngestUseCase the worker needs.
type documentIngestor interface {
	IngestAs(ctx context.Context, documentID string, uploadedAt time.Time, file domain.SourceFile, progress ports.ProgressFunc) (*domain.Document, error)
}

// ProcessIngestUseCase is the worker side of queued ingestion.
type ProcessIngestUseCase struct {
	storage  ports.ObjectStorage
	ingestor documentIngestor
	store    ports.KnowledgeStore
	logger   *slog.Logger
}

func NewProcessIngestUseCase(
	storage ports.ObjectStorage,
	ingestor documentIngestor,
	store ports.KnowledgeStore,
	logger *slog.Logger,
) *ProcessIngestUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessIngestUseCase{
		storage:  storage,
		ingestor: ingestor,
		store:    store,
		logger:   logger,
	}
}

// Process runs the pipeline for a queued request. The upload was already
// acknowledged, so a failure is recorded as an ERROR document.
func (uc *ProcessIngestUseCase) Process(ctx context.Context, req domain.IngestRequest) error {
	if req.DocumentID == "" || req.StorageKey == "" {
		return domain.WrapError(domain.ErrInvalidInput, "process ingest", errors.New("document id and storage key are required"))
	}

	file, err := uc.load(ctx, req)
	if err == nil {
		_, err = uc.ingestor.IngestAs(ctx, req.DocumentID, req.UploadedAt, file, func(ev domain.ProgressEvent) {
			uc.logger.Debug("ingest_progress", "document_id", req.DocumentID, "phase", ev.Phase, "message", ev.Message)
		})
	}
	if err != nil {
		uc.markFailed(ctx, req)
		return err
	}

	if delErr := uc.storage.Delete(ctx, req.StorageKey); delErr != nil {
		uc.logger.Warn("staged_upload_cleanup_failed", "storage_key", req.StorageKey, "error", delErr)
	}
	return nil
}

func (uc *ProcessIngestUseCase) load(ctx context.Context, req domain.IngestRequest) (domain.SourceFile, error) {
	reader, err := uc.storage.Open(ctx, req.StorageKey)
	if err != nil {
		return domain.SourceFile{}, fmt.Errorf("open staged upload: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return domain.SourceFile{}, fmt.Errorf("read staged upload: %w", err)
	}
	return domain.SourceFile{Name: req.Title, MimeType: req.MimeType, Content: raw}, nil
}

func (uc *ProcessIngestUseCase) markFailed(ctx context.Context, req domain.IngestRequest) {
	doc := &domain.Document{
		ID:         req.DocumentID,
		Title:      req.Title,
		SourceType: domain.SourceFile{MimeType: req.MimeType}.SourceType(),
		UploadedAt: req.UploadedAt,
		Status:     domain.StatusError,
	}
	if err := uc.store.SaveDocument(ctx, doc); err != nil {
		uc.logger.Error("mark_document_failed", "document_id", req.DocumentID, "error", err)
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, base)
	if base == "" || base == "." {
		return "upload"
	}
	return base
}
