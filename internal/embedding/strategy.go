// Package embedding builds the configured text encoding strategy.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jobrec/internal/config"
	"jobrec/internal/domain"
	"jobrec/internal/embedding/cache"
	"jobrec/internal/embedding/openai"
	"jobrec/internal/embedding/tfidf"
	"jobrec/internal/kvstore"
	"jobrec/internal/kvstore/redis"
	"jobrec/internal/metrics"
)

const redisReadyTimeout = 10 * time.Second

// NewStrategy builds the strategy selected by cfg.Type. The returned close
// function releases cache connections and is never nil.
func NewStrategy(ctx context.Context, cfg config.EncoderConfig, logger *zap.Logger) (domain.Strategy, func(), error) {
	noop := func() {}

	switch cfg.Type {
	case "tfidf", "":
		if cfg.Cache.Type != "" && cfg.Cache.Type != "none" {
			logger.Warn("Embedding cache ignored for tfidf encoder", zap.String("cache", cfg.Cache.Type))
		}
		return tfidf.NewVectorizer(tfidf.Options{
			NgramMax:  cfg.TFIDF.NgramMax,
			Stopwords: cfg.TFIDF.Stopwords,
		}), noop, nil

	case "openai":
		client, err := openai.NewClient(openai.Config{
			BaseURL:           cfg.OpenAI.BaseURL,
			APIKeyEnv:         cfg.OpenAI.APIKeyEnv,
			Model:             cfg.OpenAI.Model,
			Dimensions:        cfg.OpenAI.Dimensions,
			Timeout:           time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			BatchSize:         cfg.OpenAI.BatchSize,
			Concurrency:       cfg.OpenAI.Concurrency,
			RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("openai encoder: %w", err)
		}
		store, closeStore, err := newCacheStore(ctx, cfg.Cache)
		if err != nil {
			return nil, noop, err
		}
		if store == nil {
			return client, noop, nil
		}
		logger.Info("Embedding cache enabled", zap.String("cache", cfg.Cache.Type), zap.String("model", client.Model()))
		return cache.NewStrategy(client, store, client.Model(), metrics.EmbeddingCacheTotal, logger), closeStore, nil

	default:
		return nil, noop, fmt.Errorf("unknown encoder type %q", cfg.Type)
	}
}

func newCacheStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, func(), error) {
	switch cfg.Type {
	case "", "none":
		return nil, func() {}, nil
	case "memory":
		return kvstore.NewMemoryStore(time.Duration(cfg.Memory.TTLSecs) * time.Second), func() {}, nil
	case "redis":
		store, err := redis.NewStore(redis.Config{
			Addrs:    cfg.Redis.Addrs,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      time.Duration(cfg.Redis.TTLSecs) * time.Second,
		})
		if err != nil {
			return nil, func() {}, fmt.Errorf("redis cache: %w", err)
		}
		if err := store.WaitForReady(ctx, redisReadyTimeout); err != nil {
			store.Close()
			return nil, func() {}, fmt.Errorf("redis cache: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}
