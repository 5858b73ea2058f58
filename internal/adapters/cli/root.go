// Package cli is the operator command line: ingest files, search the
// knowledge base, manage documents and inspect the reference catalog.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/kirillkom/agro-knowledge/internal/core/ports"
)

// Services are resolved lazily so --help and flag errors never open a store.
type Services struct {
	Ingestor ports.DocumentIngestor
	Searcher ports.KnowledgeSearcher
	Library  ports.DocumentLibrary
	Catalog  ports.CatalogReader
	Advice   ports.AdviceService
	// SeedCatalog writes the active catalog into Neo4j. May be nil.
	SeedCatalog func(ctx context.Context) (crops, fertilizers int, err error)
}

// Resolver builds Services and returns a cleanup function.
type Resolver func(ctx context.Context) (*Services, func(), error)

var errNotConfigured = errors.New("service not configured")

type app struct {
	resolve  Resolver
	services *Services
	cleanup  func()
}

// NewRootCommand returns the command tree and a close function the caller
// runs after Execute, whatever its outcome.
func NewRootCommand(resolve Resolver) (*cobra.Command, func()) {
	a := &app{resolve: resolve}

	root := &cobra.Command{
		Use:           "agrokb",
		Short:         "Agronomy knowledge base",
		Long:          `Ingest agronomy documents, search them together with the official crop and fertilizer norms, and ask grounded questions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newIngestCommand(a),
		newSearchCommand(a),
		newAskCommand(a),
		newDocsCommand(a),
		newCatalogCommand(a),
	)
	return root, a.close
}

func (a *app) close() {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}

func (a *app) load(ctx context.Context) (*Services, error) {
	if a.services != nil {
		return a.services, nil
	}
	if a.resolve == nil {
		return nil, errNotConfigured
	}
	services, cleanup, err := a.resolve(ctx)
	if err != nil {
		return nil, err
	}
	a.services = services
	a.cleanup = cleanup
	return services, nil
}
