package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
	"github.com/kirillkom/agro-knowledge/internal/core/ports"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/chunking"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/workpool"
)

func newIngestForTest(store ports.KnowledgeStore, extractor ports.TextExtractor, emb ports.EmbeddingGateway, obs ports.KnowledgeObserver) *IngestUseCase {
	return NewIngestUseCase(
		store,
		extractor,
		chunking.NewSplitter(chunking.DefaultChunkSize, chunking.DefaultOverlap),
		emb,
		workpool.New(workpool.Config{Concurrency: 1}),
		obs,
		nil,
	)
}

// threeChunkText splits into exactly three chunks with the default chunker.
func threeChunkText() string {
	segment := strings.Repeat("a", 949) + "."
	return segment + segment + segment
}

func TestIngestRoundTripRetrieval(t *testing.T) {
	ctx := context.Background()
	store := newStoreFake()
	emb := &wordEmbedder{}
	ingest := newIngestForTest(store, &extractorFake{}, emb, nil)

	phrase := "Drip irrigation of saffron on terraced plots needs 4 liters per plant weekly."
	doc, err := ingest.Ingest(ctx, domain.SourceFile{
		Name:     "saffron.txt",
		MimeType: "text/plain",
		Content:  []byte(phrase),
	}, nil)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if doc.Status != domain.StatusReady || doc.ChunkCount != 1 {
		t.Fatalf("unexpected document %+v", doc)
	}

	retrieve := NewRetrieveUseCase(store, emb, catalogFake{}, DefaultRetrievalConfig(), nil, nil)
	out := retrieve.Search(ctx, phrase)
	if !strings.Contains(out, "[SOURCE: USER UPLOADED DOCUMENT (Score: 1.00)]") {
		t.Fatalf("expected user document hit, got:\n%s", out)
	}
	if !strings.Contains(out, phrase) {
		t.Fatalf("expected original chunk text, got:\n%s", out)
	}
}

func TestIngestEmbeddingFailureStillReady(t *testing.T) {
	ctx := context.Background()
	store := newStoreFake()
	obs := &observerFake{}
	ingest := newIngestForTest(store, &extractorFake{}, failingEmbedder{}, obs)

	doc, err := ingest.Ingest(ctx, domain.SourceFile{Name: "norms.txt", Content: []byte(threeChunkText())}, nil)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if doc.Status != domain.StatusReady {
		t.Fatalf("expected READY, got %s", doc.Status)
	}
	if doc.ChunkCount != 0 {
		t.Fatalf("expected chunkCount 0 without embeddings, got %d", doc.ChunkCount)
	}

	chunks, _ := store.GetAllChunks(ctx)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 persisted chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.HasEmbedding() {
			t.Fatalf("chunk %d unexpectedly has embedding", i)
		}
		if c.DocumentID != doc.ID || c.ID != domain.ChunkID(doc.ID, i) || c.Ordinal != i {
			t.Fatalf("unexpected chunk identity %+v", c)
		}
	}
	if len(obs.ingests) != 1 || obs.ingests[0] != "ready" {
		t.Fatalf("expected ready observation, got %v", obs.ingests)
	}
}

func TestIngestCountsOnlyEmbeddedChunks(t *testing.T) {
	ctx := context.Background()
	store := newStoreFake()
	segment := strings.Repeat("a", 949) + "."
	emb := fixedEmbedder{segment: {1, 0}}
	ingest := newIngestForTest(store, &extractorFake{}, emb, nil)

	doc, err := ingest.Ingest(ctx, domain.SourceFile{
		Name:    "mixed.txt",
		Content: []byte(segment + strings.Repeat("b", 949) + "." + segment),
	}, nil)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if doc.ChunkCount != 2 {
		t.Fatalf("expected 2 embedded chunks, got %d", doc.ChunkCount)
	}
	chunks, _ := store.GetAllChunks(ctx)
	if len(chunks) != 3 {
		t.Fatalf("expected all 3 chunks persisted, got %d", len(chunks))
	}
}

func TestIngestExtractionFailurePersistsNothing(t *testing.T) {
	ctx := context.Background()
	store := newStoreFake()
	obs := &observerFake{}
	ingest := newIngestForTest(store, &extractorFake{err: errors.New("corrupt xref table")}, &wordEmbedder{}, obs)

	_, err := ingest.Ingest(ctx, domain.SourceFile{Name: "broken.pdf", MimeType: "application/pdf", Content: []byte("%PDF")}, nil)
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
	docs, _ := store.GetAllDocuments(ctx)
	chunks, _ := store.GetAllChunks(ctx)
	if len(docs) != 0 || len(chunks) != 0 {
		t.Fatalf("expected nothing persisted, got %d docs %d chunks", len(docs), len(chunks))
	}
	if len(obs.ingests) != 1 || obs.ingests[0] != "failed" {
		t.Fatalf("expected failed observation, got %v", obs.ingests)
	}
}

func TestIngestEmptyDocumentIsReady(t *testing.T) {
	ctx := context.Background()
	store := newStoreFake()
	ingest := newIngestForTest(store, &extractorFake{}, &wordEmbedder{}, nil)

	doc, err := ingest.Ingest(ctx, domain.SourceFile{Name: "empty.txt"}, nil)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if doc.Status != domain.StatusReady || doc.ChunkCount != 0 {
		t.Fatalf("unexpected document %+v", doc)
	}
	docs, _ := store.GetAllDocuments(ctx)
	if len(docs) != 1 {
		t.Fatalf("expected document persisted, got %d", len(docs))
	}
}

func TestIngestReportsProgressInOrder(t *testing.T) {
	ingest := newIngestForTest(newStoreFake(), &extractorFake{}, failingEmbedder{}, nil)

	var events []domain.ProgressEvent
	_, err := ingest.Ingest(context.Background(), domain.SourceFile{Name: "n.txt", Content: []byte(threeChunkText())}, func(ev domain.ProgressEvent) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	wantPhases := []domain.IngestPhase{
		domain.PhaseExtract, domain.PhaseChunk,
		domain.PhaseEmbed, domain.PhaseEmbed, domain.PhaseEmbed,
		domain.PhasePersist, domain.PhaseDone,
	}
	if len(events) != len(wantPhases) {
		t.Fatalf("expected %d events, got %d: %+v", len(wantPhases), len(events), events)
	}
	for i, want := range wantPhases {
		if events[i].Phase != want {
			t.Fatalf("event %d phase = %s, want %s", i, events[i].Phase, want)
		}
	}
	if events[3].Message != "Embedding chunk 2/3..." {
		t.Fatalf("unexpected embed message %q", events[3].Message)
	}
}

func TestIngestChunkWriteFailureIsReturned(t *testing.T) {
	ctx := context.Background()
	store := newStoreFake()
	store.saveChunksErr = errors.New("disk full")
	ingest := newIngestForTest(store, &extractorFake{}, failingEmbedder{}, nil)

	_, err := ingest.Ingest(ctx, domain.SourceFile{Name: "n.txt", Content: []byte(threeChunkText())}, nil)
	if err == nil || !strings.Contains(err.Error(), "save chunks") {
		t.Fatalf("expected save chunks error, got %v", err)
	}
	docs, _ := store.GetAllDocuments(ctx)
	if len(docs) != 0 {
		t.Fatalf("expected no document after chunk failure")
	}
}

func TestIngestDocumentWriteFailureRemovesChunks(t *testing.T) {
	ctx := context.Background()
	store := newStoreFake()
	store.saveDocumentErr = errors.New("constraint violation")
	ingest := newIngestForTest(store, &extractorFake{}, failingEmbedder{}, nil)

	_, err := ingest.Ingest(ctx, domain.SourceFile{Name: "n.txt", Content: []byte(threeChunkText())}, nil)
	if err == nil || !strings.Contains(err.Error(), "save document") {
		t.Fatalf("expected save document error, got %v", err)
	}
	chunks, _ := store.GetAllChunks(ctx)
	if len(chunks) != 0 {
		t.Fatalf("expected chunks cleaned up, got %d", len(chunks))
	}
	if len(store.deleteCalls) != 1 {
		t.Fatalf("expected one cleanup delete, got %v", store.deleteCalls)
	}
}

func TestIngestAsOverwritesOnRetry(t *testing.T) {
	ctx := context.Background()
	store := newStoreFake()
	ingest := newIngestForTest(store, &extractorFake{}, failingEmbedder{}, nil)
	file := domain.SourceFile{Name: "n.txt", Content: []byte(threeChunkText())}
	uploaded := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		if _, err := ingest.IngestAs(ctx, "doc-fixed", uploaded, file, nil); err != nil {
			t.Fatalf("IngestAs() error = %v", err)
		}
	}
	chunks, _ := store.GetAllChunks(ctx)
	docs, _ := store.GetAllDocuments(ctx)
	if len(chunks) != 3 || len(docs) != 1 {
		t.Fatalf("expected idempotent retry, got %d chunks %d docs", len(chunks), len(docs))
	}
	if !docs[0].UploadedAt.Equal(uploaded) {
		t.Fatalf("expected caller upload time, got %v", docs[0].UploadedAt)
	}
}

func TestIngestRequiresFileName(t *testing.T) {
	ingest := newIngestForTest(newStoreFake(), &extractorFake{}, failingEmbedder{}, nil)
	_, err := ingest.Ingest(context.Background(), domain.SourceFile{Content: []byte("x")}, nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestIngestPDFSourceType(t *testing.T) {
	ingest := newIngestForTest(newStoreFake(), &extractorFake{}, failingEmbedder{}, nil)
	doc, err := ingest.Ingest(context.Background(), domain.SourceFile{
		Name:     "guide.pdf",
		MimeType: "application/pdf",
		Content:  []byte("Extracted PDF text that is long enough to keep."),
	}, nil)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if doc.SourceType != domain.SourcePDF || doc.Title != "guide.pdf" {
		t.Fatalf("unexpected document %+v", doc)
	}
}
