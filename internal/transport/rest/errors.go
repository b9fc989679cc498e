package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"jobrec/internal/domain"
	"jobrec/internal/logger"
)

// Error codes returned in error responses.
const (
	codeBadRequest        = "bad_request"
	codeEmptyQuery        = "empty_query"
	codeInvalidQuery      = "invalid_query"
	codeInvalidRange      = "invalid_range"
	codeNotReady          = "not_ready"
	codeInvalidCorpus     = "invalid_corpus"
	codeEmbeddingProvider = "embedding_provider_error"
	codeInternal          = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

var errorHandlers = []errorHandler{
	sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, codeEmptyQuery),
	sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
	sentinelHandler(domain.ErrInvalidRange, http.StatusBadRequest, codeInvalidRange),
	sentinelHandler(domain.ErrNotReady, http.StatusServiceUnavailable, codeNotReady),
	sentinelHandler(domain.ErrEncoderNotReady, http.StatusServiceUnavailable, codeNotReady),
	sentinelHandler(domain.ErrEmptyCorpus, http.StatusUnprocessableEntity, codeInvalidCorpus),
	sentinelHandler(domain.ErrDuplicateRecord, http.StatusUnprocessableEntity, codeInvalidCorpus),
	sentinelHandler(domain.ErrEmptyVocabulary, http.StatusUnprocessableEntity, codeInvalidCorpus),
	sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, codeEmbeddingProvider),
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrInvalidQuery,
		domain.ErrInvalidRange,
		domain.ErrNotReady,
		domain.ErrEncoderNotReady,
		domain.ErrEmptyCorpus,
		domain.ErrDuplicateRecord,
		domain.ErrEmptyVocabulary,
		domain.ErrEmbeddingProvider,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
