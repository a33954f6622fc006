package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// CacheConfig carries the Redis settings for the retrieval cache.
type CacheConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	Database int           `yaml:"database"`
	TTL      time.Duration `yaml:"ttl"`
}

// CachingRetriever wraps a Retriever with a Redis read-through cache
// keyed on the query text. Cache failures degrade to the inner
// retriever rather than failing the lookup.
type CachingRetriever struct {
	inner  Retriever
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachingRetriever builds the cache layer around inner.
func NewCachingRetriever(inner Retriever, cfg CacheConfig, logger *slog.Logger) *CachingRetriever {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.Database,
	})
	return &CachingRetriever{
		inner:  inner,
		client: rdb,
		ttl:    cfg.TTL,
		logger: logger,
	}
}

// Retrieve implements Retriever.
func (cr *CachingRetriever) Retrieve(ctx context.Context, query string, k int) ([]Candidate, error) {
	key := cacheKey(query, k)

	data, err := cr.client.Get(ctx, key).Result()
	if err == nil {
		var cached []Candidate
		if jerr := json.Unmarshal([]byte(data), &cached); jerr == nil {
			cr.logger.Debug("retrieval cache hit", "query", query)
			return cached, nil
		}
		// Corrupt entry, fall through to a fresh lookup.
		cr.client.Del(ctx, key)
	} else if err != redis.Nil {
		cr.logger.Warn("retrieval cache unavailable", "error", err)
	}

	candidates, err := cr.inner.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}

	if payload, jerr := json.Marshal(candidates); jerr == nil {
		if serr := cr.client.Set(ctx, key, payload, cr.ttl).Err(); serr != nil {
			cr.logger.Warn("failed to cache retrieval result", "error", serr)
		}
	}
	return candidates, nil
}

// Close releases the Redis connection.
func (cr *CachingRetriever) Close() error {
	return cr.client.Close()
}

func cacheKey(query string, k int) string {
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("ragcache:retrieve:%d:%s", k, hex.EncodeToString(sum[:8]))
}
