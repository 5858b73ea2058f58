// Package mcp exposes knowledge search, the reference catalog and the
// document library as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kirillkom/agro-knowledge/internal/core/ports"
)

const Version = "0.1.0"

var ErrMissingSearcher = errors.New("mcp: knowledge searcher is required")

// Ports aggregates the services the tools call. Only Searcher is required.
type Ports struct {
	Searcher ports.KnowledgeSearcher
	Catalog  ports.CatalogReader
	Library  ports.DocumentLibrary
}

func (p *Ports) Validate() error {
	if p == nil || p.Searcher == nil {
		return ErrMissingSearcher
	}
	return nil
}

type Server struct {
	ports  *Ports
	server *mcp.Server
}

func NewServer(p *Ports) (*Server, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports: p,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "agro-knowledge",
			Version: Version,
		}, nil),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
