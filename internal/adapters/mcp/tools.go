package mcp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
)

type SearchInput struct {
	Query string `json:"query" jsonschema:"crop, fertilizer or agronomy question to look up"`
}

type SearchOutput struct {
	Context string `json:"context"`
	NoData  bool   `json:"no_data"`
}

type CatalogInput struct {
	Kind string `json:"kind,omitempty" jsonschema:"crops or fertilizers; empty lists both"`
}

type CatalogOutput struct {
	Crops       []string `json:"crops,omitempty"`
	Fertilizers []string `json:"fertilizers,omitempty"`
}

type DocumentsInput struct{}

type DocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

type DocumentOutput struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	SourceType string `json:"source_type"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
	UploadedAt string `json:"uploaded_at"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "knowledge_search",
		Description: "Search uploaded agronomy documents and the official crop and fertilizer norms. Returns a context block with SOURCE labels and scores.",
	}, s.handleSearch)

	if s.ports.Catalog != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "catalog_list",
			Description: "List the crops and fertilizers that have official norms in the reference catalog.",
		}, s.handleCatalog)
	}
	if s.ports.Library != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "documents_list",
			Description: "List uploaded documents, newest first.",
		}, s.handleDocuments)
	}
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, SearchOutput{}, errors.New("query is required")
	}
	contextBlock := s.ports.Searcher.Search(ctx, query)
	return nil, SearchOutput{
		Context: contextBlock,
		NoData:  strings.HasPrefix(contextBlock, domain.NoDataPrefix),
	}, nil
}

func (s *Server) handleCatalog(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input CatalogInput,
) (*mcp.CallToolResult, CatalogOutput, error) {
	var out CatalogOutput
	switch strings.ToLower(strings.TrimSpace(input.Kind)) {
	case "":
		out.Crops = s.ports.Catalog.CropNames()
		out.Fertilizers = s.ports.Catalog.FertilizerNames()
	case "crops":
		out.Crops = s.ports.Catalog.CropNames()
	case "fertilizers":
		out.Fertilizers = s.ports.Catalog.FertilizerNames()
	default:
		return nil, CatalogOutput{}, errors.New("kind must be crops or fertilizers")
	}
	return nil, out, nil
}

func (s *Server) handleDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ DocumentsInput,
) (*mcp.CallToolResult, DocumentsOutput, error) {
	docs := s.ports.Library.ListDocuments(ctx)
	out := DocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i, d := range docs {
		out.Documents[i] = DocumentOutput{
			ID:         d.ID,
			Title:      d.Title,
			SourceType: string(d.SourceType),
			Status:     string(d.Status),
			ChunkCount: d.ChunkCount,
			UploadedAt: d.UploadedAt.UTC().Format(time.RFC3339),
		}
	}
	return nil, out, nil
}
