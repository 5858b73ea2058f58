// Package embedding turns embedding backend failures into empty vectors so
// ingestion and retrieval keep going without them.
package embedding

import (
	"context"
	"log/slog"

	"github.com/kirillkom/agro-knowledge/internal/core/ports"
)

// KeyFunc builds a cache key for text.
type KeyFunc func(text string) string

type Gateway struct {
	backend ports.Embedder
	cache   ports.EmbeddingCache
	key     KeyFunc
	logger  *slog.Logger
}

type Option func(*Gateway)

// WithCache enables lookups before and stores after every backend call.
func WithCache(cache ports.EmbeddingCache, key KeyFunc) Option {
	return func(g *Gateway) {
		if cache != nil && key != nil {
			g.cache = cache
			g.key = key
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func NewGateway(backend ports.Embedder, opts ...Option) *Gateway {
	g := &Gateway{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Embed returns the vector for text, or an empty vector on any failure.
func (g *Gateway) Embed(ctx context.Context, text string) []float32 {
	var key string
	if g.cache != nil {
		key = g.key(text)
		vec, ok, err := g.cache.Get(ctx, key)
		switch {
		case err != nil:
			g.logger.Warn("embedding_cache_read_failed", "error", err)
		case ok && len(vec) > 0:
			return vec
		}
	}

	vec, err := g.backend.Embed(ctx, text)
	if err != nil {
		g.logger.Warn("embedding_failed", "text_len", len(text), "error", err)
		return []float32{}
	}
	if len(vec) == 0 {
		return []float32{}
	}

	if g.cache != nil {
		if err := g.cache.Set(ctx, key, vec); err != nil {
			g.logger.Warn("embedding_cache_write_failed", "error", err)
		}
	}
	return vec
}
