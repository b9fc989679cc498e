// Package refresh rebuilds the recommendation index out of band.
package refresh

import (
	"context"
	"time"

	"go.uber.org/zap"

	"jobrec/internal/corpus"
	"jobrec/internal/domain"
	"jobrec/internal/metrics"
	"jobrec/internal/service"
	"jobrec/internal/vectorstore/memory"
)

// Refresher rebuilds a recommender's index from a corpus provider and records
// the outcome in logs and metrics.
type Refresher struct {
	rec      *service.Recommender
	provider domain.CorpusProvider
	logger   *zap.Logger
}

// New creates a refresher for rec reading from provider.
func New(rec *service.Recommender, provider domain.CorpusProvider, logger *zap.Logger) *Refresher {
	return &Refresher{rec: rec, provider: provider, logger: logger}
}

// Refresh rebuilds the index from the configured provider.
func (r *Refresher) Refresh(ctx context.Context) (*memory.Index, error) {
	return r.build(ctx, r.provider)
}

// Replace rebuilds the index from the given records instead of the provider.
func (r *Refresher) Replace(ctx context.Context, records []domain.JobRecord) (*memory.Index, error) {
	return r.build(ctx, corpus.NewStatic("request", records))
}

func (r *Refresher) build(ctx context.Context, provider domain.CorpusProvider) (*memory.Index, error) {
	start := time.Now()
	idx, err := r.rec.LoadOrBuildIndex(ctx, provider)
	elapsed := time.Since(start)
	metrics.IndexBuildDuration.Observe(elapsed.Seconds())

	if err != nil {
		metrics.IndexRebuildsTotal.WithLabelValues(provider.Name(), "error").Inc()
		r.logger.Error("Index rebuild failed",
			zap.String("source", provider.Name()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.IndexRebuildsTotal.WithLabelValues(provider.Name(), "success").Inc()
	metrics.IndexSize.Set(float64(idx.Size()))
	r.logger.Info("Index rebuilt",
		zap.String("source", provider.Name()),
		zap.String("encoder", idx.Encoder().Name()),
		zap.Int("jobs", idx.Size()),
		zap.Int("dimension", idx.Encoder().Dimension()),
		zap.Duration("elapsed", elapsed),
	)
	return idx, nil
}

// Run refreshes the index every interval until ctx is done.
// Failed refreshes keep the previous index.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = r.Refresh(ctx)
		}
	}
}
