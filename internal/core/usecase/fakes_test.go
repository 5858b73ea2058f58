package usecase

import (
	"context"
	"errors"
	"hash/fnv"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/repository/memory"
)

type storeFake struct {
	*memory.KnowledgeStore
	saveChunksErr   error
	saveDocumentErr error
	readErr         error
	deleteCalls     []string
}

func newStoreFake() *storeFake {
	return &storeFake{KnowledgeStore: memory.NewKnowledgeStore()}
}

func (f *storeFake) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if f.saveChunksErr != nil {
		return f.saveChunksErr
	}
	return f.KnowledgeStore.SaveChunks(ctx, chunks)
}

func (f *storeFake) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if f.saveDocumentErr != nil {
		return f.saveDocumentErr
	}
	return f.KnowledgeStore.SaveDocument(ctx, doc)
}

func (f *storeFake) GetAllChunks(ctx context.Context) ([]domain.Chunk, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.KnowledgeStore.GetAllChunks(ctx)
}

func (f *storeFake) GetAllDocuments(ctx context.Context) ([]domain.Document, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.KnowledgeStore.GetAllDocuments(ctx)
}

func (f *storeFake) DeleteDocument(ctx context.Context, id string) error {
	f.deleteCalls = append(f.deleteCalls, id)
	return f.KnowledgeStore.DeleteDocument(ctx, id)
}

// wordEmbedder hashes words into a small bag-of-words vector, so identical
// texts get identical vectors and texts sharing words score high.
type wordEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (e *wordEmbedder) Embed(_ context.Context, text string) []float32 {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	vec := make([]float32, 64)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,;:!?\"'")))
		vec[h.Sum32()%64]++
	}
	return vec
}

// failingEmbedder behaves like a gateway whose backend is down.
type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) []float32 { return []float32{} }

type fixedEmbedder map[string][]float32

func (f fixedEmbedder) Embed(_ context.Context, text string) []float32 {
	if v, ok := f[text]; ok {
		return v
	}
	return []float32{}
}

type extractorFake struct {
	err   error
	calls int
}

func (f *extractorFake) Extract(_ context.Context, file domain.SourceFile) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return string(file.Content), nil
}

type catalogFake struct {
	match *domain.CatalogMatch
}

func (f catalogFake) Search(string) (domain.CatalogMatch, bool) {
	if f.match == nil {
		return domain.CatalogMatch{}, false
	}
	return *f.match, true
}
func (catalogFake) CropNames() []string       { return nil }
func (catalogFake) FertilizerNames() []string { return nil }

type observerFake struct {
	mu          sync.Mutex
	ingests     []string
	retrievals  int
	lastNoData  bool
	lastVectors int
}

func (f *observerFake) ObserveIngest(status string, _ time.Duration, _, _ int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ingests = append(f.ingests, status)
}

func (f *observerFake) ObserveRetrieval(vectorHits int, _ bool, noData bool, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retrievals++
	f.lastNoData = noData
	f.lastVectors = vectorHits
}

type objectStorageFake struct {
	mu      sync.Mutex
	files   map[string][]byte
	saveErr error
	deleted []string
}

func newObjectStorageFake() *objectStorageFake {
	return &objectStorageFake{files: map[string][]byte{}}
}

func (f *objectStorageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[key] = raw
	return nil
}

func (f *objectStorageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.files[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "open", errors.New(key))
	}
	return io.NopCloser(strings.NewReader(string(raw))), nil
}

func (f *objectStorageFake) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type queueFake struct {
	published []domain.IngestRequest
	err       error
}

func (f *queueFake) PublishIngestRequest(_ context.Context, req domain.IngestRequest) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, req)
	return nil
}

func (f *queueFake) SubscribeIngestRequests(context.Context, func(context.Context, domain.IngestRequest) error) error {
	return errors.New("not implemented")
}
