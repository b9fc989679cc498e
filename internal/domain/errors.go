package domain

import "errors"

var (
	// ErrEncoderNotReady signals an encode call before the encoder state was loaded.
	ErrEncoderNotReady = errors.New("encoder not ready")
	// ErrEmptyCorpus signals an attempt to build from zero records.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrInvalidQuery signals a non-positive result limit.
	ErrInvalidQuery = errors.New("invalid query: max results must be positive")
	// ErrInvalidRange signals a threshold outside the strategy's score range.
	ErrInvalidRange = errors.New("min score out of range")
	// ErrEmptyQuery signals blank query text.
	ErrEmptyQuery = errors.New("empty query")
	// ErrNotReady signals a query before any index was built.
	ErrNotReady = errors.New("index not ready")

	// ErrDimensionMismatch signals vectors of different lengths.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrDuplicateRecord signals two corpus records sharing an ID.
	ErrDuplicateRecord = errors.New("duplicate job id")
	// ErrEmptyVocabulary signals a corpus with no usable tokens.
	ErrEmptyVocabulary = errors.New("no tokens found in corpus")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
)
