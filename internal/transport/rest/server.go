// Package rest serves the recommendation API over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"jobrec/internal/domain"
	"jobrec/internal/embedding"
	"jobrec/internal/logger"
	"jobrec/internal/metrics"
	"jobrec/internal/refresh"
	"jobrec/internal/service"
	"jobrec/internal/snippet"
)

const (
	maxBodyBytes       = 8 << 20
	healthCheckTimeout = 5 * time.Second
)

// Options holds query defaults applied when a request omits them.
type Options struct {
	MaxResults int
	// MinScore overrides the encoder default threshold when non-nil.
	MinScore *float64
}

// Server handles the recommendation HTTP API.
type Server struct {
	rec       *service.Recommender
	refresher *refresh.Refresher
	snippets  *snippet.Extractor
	opts      Options
	logger    *zap.Logger
}

// NewServer creates an HTTP API server. snippets may be nil to return job texts unshortened.
func NewServer(
	rec *service.Recommender,
	refresher *refresh.Refresher,
	snippets *snippet.Extractor,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.MaxResults <= 0 {
		opts.MaxResults = service.DefaultMaxResults
	}
	return &Server{rec: rec, refresher: refresher, snippets: snippets, opts: opts, logger: logger}
}

// Router returns the chi router with middleware and all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(metrics.Middleware())

	r.Post("/recommend", s.Recommend)
	r.Get("/health", s.Health)
	r.Post("/rebuild", s.Rebuild)
	r.Post("/update-jobs", s.UpdateJobs)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}

// Recommend handles POST /recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.RecommendRequestsTotal.WithLabelValues(status).Inc()
		metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	}()

	var req recommendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	opts := []service.Option{service.WithMaxResults(req.maxResults(s.opts.MaxResults))}
	switch {
	case req.Threshold != nil:
		opts = append(opts, service.WithMinScore(*req.Threshold))
	case s.opts.MinScore != nil:
		opts = append(opts, service.WithMinScore(*s.opts.MinScore))
	}

	results, err := s.rec.Recommend(r.Context(), req.Skills, opts...)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	status = "success"
	metrics.RecommendResults.Observe(float64(len(results)))

	resp := NewRecommendResponse(results, s.snippets, strings.Join(req.Skills, " "))
	writeJSON(w, http.StatusOK, resp)
}

// Health handles GET /health. It reports 503 before the first build and when
// the encoder's backend does not answer.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "not_ready", Encoder: s.rec.Strategy().Name()}
	idx := s.rec.Snapshot()
	if idx == nil {
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	built := idx.BuiltAt().UTC()
	resp.IndexSize = idx.Size()
	resp.Dimension = idx.Encoder().Dimension()
	resp.BuiltAt = &built

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()
	if err := embedding.HealthCheck(ctx, idx.Encoder()); err != nil {
		logger.FromContext(r.Context()).Warn("Encoder health check failed", zap.Error(err))
		resp.Status = "encoder_unavailable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Status = "healthy"
	writeJSON(w, http.StatusOK, resp)
}

// Rebuild handles POST /rebuild by reloading the configured corpus.
func (s *Server) Rebuild(w http.ResponseWriter, r *http.Request) {
	idx, err := s.refresher.Refresh(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, indexedResponse{Indexed: idx.Size()})
}

// UpdateJobs handles POST /update-jobs by rebuilding from the posted jobs.
func (s *Server) UpdateJobs(w http.ResponseWriter, r *http.Request) {
	var payload []jobPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	records := make([]domain.JobRecord, 0, len(payload))
	for i, p := range payload {
		rec, err := p.record()
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Sprintf("job %d: %v", i, err))
			return
		}
		records = append(records, rec)
	}

	idx, err := s.refresher.Replace(r.Context(), records)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, indexedResponse{Indexed: idx.Size()})
}
