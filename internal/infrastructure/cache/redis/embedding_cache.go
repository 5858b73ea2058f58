// Package redis caches embedding vectors so re-ingesting or re-querying the
// same text does not call the embedding backend again.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirillkom/agro-knowledge/internal/infrastructure/vectorcodec"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	TTL      time.Duration
}

type EmbeddingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEmbeddingCache(ctx context.Context, cfg Config) (*EmbeddingCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &EmbeddingCache{client: client, ttl: cfg.TTL}, nil
}

func (c *EmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	return decodeHit(c.client.Get(ctx, key).Bytes())
}

// decodeHit turns a GET reply into a cache lookup result. A missing key or an
// empty blob is a miss.
func decodeHit(raw []byte, err error) ([]float32, bool, error) {
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get embedding: %w", err)
	}
	vec, err := vectorcodec.Decode(raw)
	if err != nil {
		return nil, false, fmt.Errorf("redis get embedding: %w", err)
	}
	if len(vec) == 0 {
		return nil, false, nil
	}
	return vec, true, nil
}

func (c *EmbeddingCache) Set(ctx context.Context, key string, vector []float32) error {
	if err := c.client.Set(ctx, key, vectorcodec.Encode(vector), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set embedding: %w", err)
	}
	return nil
}

func (c *EmbeddingCache) Close() error {
	return c.client.Close()
}

// Key namespaces vectors by embedding model; vectors from different models
// are not comparable.
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + model + ":" + hex.EncodeToString(sum[:])
}
