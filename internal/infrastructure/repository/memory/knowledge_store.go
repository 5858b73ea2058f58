// Package memory is a process-local knowledge store for tests and demos.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
)

type KnowledgeStore struct {
	mu         sync.RWMutex
	documents  map[string]domain.Document
	chunks     map[string]domain.Chunk
	byDocument map[string]map[string]struct{}
}

func NewKnowledgeStore() *KnowledgeStore {
	return &KnowledgeStore{
		documents:  make(map[string]domain.Document),
		chunks:     make(map[string]domain.Chunk),
		byDocument: make(map[string]map[string]struct{}),
	}
}

func (s *KnowledgeStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "save document", fmt.Errorf("document id is required"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

func (s *KnowledgeStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	for _, c := range chunks {
		if c.ID == "" || c.DocumentID == "" {
			return domain.WrapError(domain.ErrInvalidInput, "save chunks", fmt.Errorf("chunk id and document id are required"))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		if prev, ok := s.chunks[c.ID]; ok && prev.DocumentID != c.DocumentID {
			delete(s.byDocument[prev.DocumentID], c.ID)
		}
		c.Embedding = append([]float32(nil), c.Embedding...)
		s.chunks[c.ID] = c
		idx, ok := s.byDocument[c.DocumentID]
		if !ok {
			idx = make(map[string]struct{})
			s.byDocument[c.DocumentID] = idx
		}
		idx[c.ID] = struct{}{}
	}
	return nil
}

func (s *KnowledgeStore) GetAllDocuments(context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		out = append(out, doc)
	}
	return out, nil
}

// GetAllChunks returns chunks ordered by document and ordinal.
func (s *KnowledgeStore) GetAllChunks(context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	out := make([]domain.Chunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		out = append(out, c)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].DocumentID != out[j].DocumentID {
			return out[i].DocumentID < out[j].DocumentID
		}
		return out[i].Ordinal < out[j].Ordinal
	})
	return out, nil
}

func (s *KnowledgeStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, hadDoc := s.documents[id]
	idx := s.byDocument[id]
	if !hadDoc && len(idx) == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "delete document", fmt.Errorf("id %s", id))
	}
	for chunkID := range idx {
		delete(s.chunks, chunkID)
	}
	delete(s.byDocument, id)
	delete(s.documents, id)
	return nil
}
