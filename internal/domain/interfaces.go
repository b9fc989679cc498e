package domain

import "context"

// JobRecord is a single job eligible for recommendation.
// Text is the concatenation of the descriptive fields used for matching.
type JobRecord struct {
	ID    int64
	Title string
	Text  string
}

// Vector is a fixed-length numeric representation of a text.
type Vector []float64

// IsZero reports whether every component is zero.
func (v Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Result is a single ranked job match.
type Result struct {
	ID          int64
	Title       string
	DisplayText string
	Score       float64
}

// ScoreRange is the closed interval of thresholds an encoder strategy accepts.
type ScoreRange struct {
	Min float64
	Max float64
}

// CosineRange is the threshold range of cosine-scored strategies with non-negative scores.
var CosineRange = ScoreRange{Min: 0, Max: 1}

// Contains reports whether f lies inside the range. NaN is never contained.
func (r ScoreRange) Contains(f float64) bool {
	return f >= r.Min && f <= r.Max
}

// Encoder converts free text into a vector of fixed dimension.
// A loaded Encoder is immutable and safe for concurrent use.
type Encoder interface {
	Name() string
	Dimension() int
	ScoreRange() ScoreRange
	DefaultMinScore() float64
	Encode(ctx context.Context, text string) (Vector, error)
	EncodeBatch(ctx context.Context, texts []string) ([]Vector, error)
}

// Strategy produces a loaded Encoder for a corpus.
// Sparse strategies learn their vocabulary from the corpus; dense ones only
// verify the model and fix its dimension.
type Strategy interface {
	Name() string
	Load(ctx context.Context, corpus []string) (Encoder, error)
}

// CorpusProvider yields the job records an index is built from.
type CorpusProvider interface {
	Name() string
	Jobs(ctx context.Context) ([]JobRecord, error)
}
