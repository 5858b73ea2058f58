package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
	"github.com/kirillkom/agro-knowledge/internal/core/ports"
)

type LibraryUseCase struct {
	store  ports.KnowledgeStore
	logger *slog.Logger
}

func NewLibraryUseCase(store ports.KnowledgeStore, logger *slog.Logger) *LibraryUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &LibraryUseCase{store: store, logger: logger}
}

// ListDocuments returns documents newest first. A store read failure yields
// an empty list.
func (uc *LibraryUseCase) ListDocuments(ctx context.Context) []domain.Document {
	docs, err := uc.store.GetAllDocuments(ctx)
	if err != nil {
		uc.logger.Warn("library_store_read_failed", "error", err)
		return []domain.Document{}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	return docs
}

// DeleteDocument removes the document and all of its chunks.
func (uc *LibraryUseCase) DeleteDocument(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "delete document", errors.New("id is required"))
	}
	if err := uc.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	uc.logger.Info("document_deleted", "document_id", id)
	return nil
}
