// Package service is the recommendation facade: it validates queries, encodes
// them with the current snapshot's encoder and ranks the snapshot's corpus.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"jobrec/internal/domain"
	"jobrec/internal/ranking"
	"jobrec/internal/vectorstore/memory"
)

// DefaultMaxResults is the result limit used when a query does not set one.
const DefaultMaxResults = 5

// Recommender serves recommendations from an atomically swapped index snapshot.
// Queries never block on rebuilds.
type Recommender struct {
	strategy domain.Strategy
	current  atomic.Pointer[memory.Index]
	buildMu  sync.Mutex
}

// New creates a recommender that is not ready until an index is built.
func New(strategy domain.Strategy) *Recommender {
	return &Recommender{strategy: strategy}
}

// Strategy returns the encoding strategy used for rebuilds.
func (r *Recommender) Strategy() domain.Strategy { return r.strategy }

type query struct {
	maxResults int
	minScore   *float64
}

// Option configures a single recommendation query.
type Option func(*query)

// WithMaxResults limits the number of results.
func WithMaxResults(n int) Option {
	return func(q *query) { q.maxResults = n }
}

// WithMinScore sets the similarity threshold; results scoring below it are dropped.
func WithMinScore(s float64) Option {
	return func(q *query) { q.minScore = &s }
}

// Recommend joins skills with single spaces and returns the best matching jobs.
// An empty match is an empty, non-nil slice.
func (r *Recommender) Recommend(ctx context.Context, skills []string, opts ...Option) ([]domain.Result, error) {
	return r.RecommendText(ctx, strings.Join(skills, " "), opts...)
}

// RecommendText is Recommend for an already joined query text.
func (r *Recommender) RecommendText(ctx context.Context, text string, opts ...Option) ([]domain.Result, error) {
	idx := r.current.Load()
	if idx == nil {
		return nil, domain.ErrNotReady
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyQuery
	}

	q := query{maxResults: DefaultMaxResults}
	for _, opt := range opts {
		opt(&q)
	}
	enc := idx.Encoder()
	minScore := enc.DefaultMinScore()
	if q.minScore != nil {
		minScore = *q.minScore
	}

	vec, err := enc.Encode(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	return ranking.Rank(vec, idx.Entries(), q.maxResults, minScore, enc.ScoreRange())
}

// LoadOrBuildIndex fetches the corpus from provider and publishes a fresh index.
func (r *Recommender) LoadOrBuildIndex(ctx context.Context, provider domain.CorpusProvider) (*memory.Index, error) {
	records, err := provider.Jobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus from %s: %w", provider.Name(), err)
	}
	return r.Rebuild(ctx, records)
}

// Rebuild loads the encoder for records, builds a new index and swaps it in.
// Concurrent rebuilds run one at a time; on failure the previous snapshot stays.
func (r *Recommender) Rebuild(ctx context.Context, records []domain.JobRecord) (*memory.Index, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptyCorpus
	}

	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Text
	}
	enc, err := r.strategy.Load(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("load %s encoder: %w", r.strategy.Name(), err)
	}
	idx, err := memory.Build(ctx, records, enc)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	r.current.Store(idx)
	return idx, nil
}

// Snapshot returns the current index, or nil before the first build.
func (r *Recommender) Snapshot() *memory.Index { return r.current.Load() }
