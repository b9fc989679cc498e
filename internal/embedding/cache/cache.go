package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"jobrec/internal/domain"
	"jobrec/internal/kvstore"
)

const keyPrefix = "jobrec:emb:"

// Store is the key-value contract the cache needs.
// Absent keys are reported as kvstore.ErrKeyNotFound.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Strategy wraps a strategy so every loaded encoder is cached.
type Strategy struct {
	inner      domain.Strategy
	store      Store
	namespace  string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

var _ domain.Strategy = (*Strategy)(nil)

// NewStrategy creates a caching strategy. namespace separates models sharing a store;
// cacheTotal is a counter vec with label "result" ("hit"/"miss") and may be nil.
func NewStrategy(
	inner domain.Strategy,
	store Store,
	namespace string,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Strategy {
	return &Strategy{inner: inner, store: store, namespace: namespace, cacheTotal: cacheTotal, logger: logger}
}

// Name returns the inner strategy name.
func (s *Strategy) Name() string { return s.inner.Name() }

// Load loads the inner encoder and wraps it.
func (s *Strategy) Load(ctx context.Context, corpus []string) (domain.Encoder, error) {
	enc, err := s.inner.Load(ctx, corpus)
	if err != nil {
		return nil, err
	}
	return &Encoder{
		Encoder:    enc,
		store:      s.store,
		prefix:     keyPrefix + s.namespace + ":",
		cacheTotal: s.cacheTotal,
		logger:     s.logger,
	}, nil
}

// Encoder caches vectors of an inner encoder in a key-value store.
// Store failures are logged and fall through to the inner encoder.
type Encoder struct {
	domain.Encoder
	store      Store
	prefix     string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// Unwrap returns the inner encoder.
func (c *Encoder) Unwrap() domain.Encoder { return c.Encoder }

// Encode returns a cached vector or calls the inner encoder.
func (c *Encoder) Encode(ctx context.Context, text string) (domain.Vector, error) {
	vecs, err := c.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EncodeBatch serves hits from the store and sends only misses to the inner encoder.
func (c *Encoder) EncodeBatch(ctx context.Context, texts []string) ([]domain.Vector, error) {
	out := make([]domain.Vector, len(texts))
	var (
		missTexts []string
		missSlots []int
	)
	for i, text := range texts {
		if v, ok := c.get(ctx, c.key(text)); ok {
			c.inc("hit")
			out[i] = v
			continue
		}
		c.inc("miss")
		missTexts = append(missTexts, text)
		missSlots = append(missSlots, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.Encoder.EncodeBatch(ctx, missTexts)
	if err != nil {
		return nil, fmt.Errorf("encode misses: %w", err)
	}
	for j, v := range vecs {
		out[missSlots[j]] = v
		c.put(ctx, c.key(missTexts[j]), v)
	}
	return out, nil
}

func (c *Encoder) key(text string) string {
	h := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(h[:])
}

func (c *Encoder) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *Encoder) get(ctx context.Context, key string) (domain.Vector, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	vec, err := decode(data)
	if err != nil || len(vec) != c.Dimension() {
		c.logger.Warn("Discarding malformed cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *Encoder) put(ctx context.Context, key string, vec domain.Vector) {
	if err := c.store.Set(ctx, key, encode(vec)); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func encode(v domain.Vector) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decode(data []byte) (domain.Vector, error) {
	if len(data) == 0 || len(data)%8 != 0 {
		return nil, fmt.Errorf("invalid cached embedding: len=%d", len(data))
	}
	vec := make(domain.Vector, len(data)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return vec, nil
}
