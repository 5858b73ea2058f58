package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
)

type searcherMock struct {
	out   string
	query string
}

func (m *searcherMock) Search(_ context.Context, query string) string {
	m.query = query
	return m.out
}

type catalogMock struct{}

func (catalogMock) CropNames() []string       { return []string{"Cotton", "Rice"} }
func (catalogMock) FertilizerNames() []string { return []string{"Urea"} }

type libraryMock struct{ docs []domain.Document }

func (m libraryMock) ListDocuments(context.Context) []domain.Document { return m.docs }
func (libraryMock) DeleteDocument(context.Context, string) error      { return nil }

func TestNewServerRequiresSearcher(t *testing.T) {
	if _, err := NewServer(&Ports{}); !errors.Is(err, ErrMissingSearcher) {
		t.Fatalf("expected ErrMissingSearcher, got %v", err)
	}
	if _, err := NewServer(nil); !errors.Is(err, ErrMissingSearcher) {
		t.Fatalf("expected ErrMissingSearcher for nil ports, got %v", err)
	}
	if _, err := NewServer(&Ports{Searcher: &searcherMock{}}); err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
}

func TestHandleSearch(t *testing.T) {
	ctx := context.Background()
	searcher := &searcherMock{out: "[SOURCE: SYSTEM CORE (Score: 0.80)]\n..."}
	server, err := NewServer(&Ports{Searcher: searcher})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	_, out, err := server.handleSearch(ctx, nil, SearchInput{Query: "  cotton  "})
	if err != nil {
		t.Fatalf("handleSearch() error = %v", err)
	}
	if out.Context != searcher.out || out.NoData || searcher.query != "cotton" {
		t.Fatalf("unexpected output %+v (query %q)", out, searcher.query)
	}

	searcher.out = domain.NoDataPrefix + " nothing"
	_, out, _ = server.handleSearch(ctx, nil, SearchInput{Query: "xyzzy"})
	if !out.NoData {
		t.Fatalf("expected no_data for marker output")
	}

	if _, _, err := server.handleSearch(ctx, nil, SearchInput{}); err == nil {
		t.Fatalf("expected error for empty query")
	}
}

func TestHandleCatalog(t *testing.T) {
	server, _ := NewServer(&Ports{Searcher: &searcherMock{}, Catalog: catalogMock{}})
	ctx := context.Background()

	_, out, err := server.handleCatalog(ctx, nil, CatalogInput{})
	if err != nil || len(out.Crops) != 2 || len(out.Fertilizers) != 1 {
		t.Fatalf("unexpected catalog output %+v err=%v", out, err)
	}
	_, out, _ = server.handleCatalog(ctx, nil, CatalogInput{Kind: "Fertilizers"})
	if len(out.Crops) != 0 || out.Fertilizers[0] != "Urea" {
		t.Fatalf("unexpected fertilizer output %+v", out)
	}
	if _, _, err := server.handleCatalog(ctx, nil, CatalogInput{Kind: "pests"}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestHandleDocuments(t *testing.T) {
	uploaded := time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)
	server, _ := NewServer(&Ports{
		Searcher: &searcherMock{},
		Library: libraryMock{docs: []domain.Document{{
			ID: "d1", Title: "rice.pdf", SourceType: domain.SourcePDF,
			Status: domain.StatusReady, ChunkCount: 4, UploadedAt: uploaded,
		}}},
	})

	_, out, err := server.handleDocuments(context.Background(), nil, DocumentsInput{})
	if err != nil {
		t.Fatalf("handleDocuments() error = %v", err)
	}
	if out.Count != 1 {
		t.Fatalf("expected 1 document, got %d", out.Count)
	}
	got := out.Documents[0]
	if got.ID != "d1" || got.SourceType != "PDF" || got.Status != "READY" || got.UploadedAt != "2026-04-02T08:30:00Z" {
		t.Fatalf("unexpected document %+v", got)
	}
}
