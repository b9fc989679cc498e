package tfidf

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"jobrec/internal/domain"
)

// DefaultMinScore is the threshold used when a query does not set one.
const DefaultMinScore = 0.05

// Options configures vocabulary learning.
type Options struct {
	// NgramMax is the longest n-gram added to the vocabulary (1 = unigrams only).
	NgramMax int
	// Stopwords enables removal of common English words before n-gram generation.
	Stopwords bool
}

// Vectorizer learns a TF-IDF vocabulary from a corpus.
type Vectorizer struct {
	opts Options
}

// NewVectorizer creates a TF-IDF strategy.
func NewVectorizer(opts Options) *Vectorizer {
	if opts.NgramMax <= 0 {
		opts.NgramMax = 1
	}
	return &Vectorizer{opts: opts}
}

// Name returns the identifier of this strategy.
func (v *Vectorizer) Name() string { return "tfidf" }

// Load builds the vocabulary and IDF weights from the corpus and returns the fitted model.
func (v *Vectorizer) Load(_ context.Context, corpus []string) (domain.Encoder, error) {
	m, err := v.Fit(corpus)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Fit is Load with the concrete model type.
func (v *Vectorizer) Fit(corpus []string) (*Model, error) {
	if len(corpus) == 0 {
		return nil, fmt.Errorf("tfidf fit: %w", domain.ErrEmptyCorpus)
	}
	tk := newTokenizer(v.opts)
	// Build vocabulary and document frequencies
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, term := range tk.terms(text) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	if len(df) == 0 {
		return nil, fmt.Errorf("tfidf fit: %w", domain.ErrEmptyVocabulary)
	}
	// Create stable ordering for vocabulary
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	m := &Model{
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float64, len(terms)),
		tokenizer:  tk,
	}
	n := float64(len(corpus))
	for i, term := range terms {
		m.vocabulary[term] = i
		// Smoothed IDF
		m.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	return m, nil
}

// Model is a fitted TF-IDF encoder. The zero value is not ready.
type Model struct {
	vocabulary map[string]int
	idf        []float64
	tokenizer  *tokenizer
}

var _ domain.Encoder = (*Model)(nil)

// Name returns the identifier of this encoder.
func (m *Model) Name() string { return "tfidf" }

// Dimension returns the vocabulary size.
func (m *Model) Dimension() int { return len(m.idf) }

// ScoreRange returns the valid threshold range. TF-IDF weights are non-negative,
// so cosine scores lie in [0, 1].
func (m *Model) ScoreRange() domain.ScoreRange { return domain.CosineRange }

// DefaultMinScore returns the threshold used when a query does not set one.
func (m *Model) DefaultMinScore() float64 { return DefaultMinScore }

// Vocabulary returns the learned terms in index order.
func (m *Model) Vocabulary() []string {
	out := make([]string, len(m.idf))
	for term, i := range m.vocabulary {
		out[i] = term
	}
	return out
}

// Encode computes the L2-normalized TF-IDF vector of text.
// Terms outside the vocabulary are dropped; text without known terms yields the zero vector.
func (m *Model) Encode(_ context.Context, text string) (domain.Vector, error) {
	if m == nil || m.tokenizer == nil {
		return nil, domain.ErrEncoderNotReady
	}
	return m.encode(text), nil
}

// EncodeBatch encodes every text; the i-th vector equals Encode(texts[i]).
func (m *Model) EncodeBatch(_ context.Context, texts []string) ([]domain.Vector, error) {
	if m == nil || m.tokenizer == nil {
		return nil, domain.ErrEncoderNotReady
	}
	out := make([]domain.Vector, len(texts))
	for i, text := range texts {
		out[i] = m.encode(text)
	}
	return out, nil
}

func (m *Model) encode(text string) domain.Vector {
	vec := make(domain.Vector, len(m.idf))
	tf := make(map[int]int)
	for _, term := range m.tokenizer.terms(text) {
		if idx, ok := m.vocabulary[term]; ok {
			tf[idx]++
		}
	}
	if len(tf) == 0 {
		return vec
	}
	for idx, count := range tf {
		vec[idx] = float64(count) * m.idf[idx]
	}
	// L2 normalize
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

type tokenizer struct {
	pattern   *regexp.Regexp
	ngramMax  int
	stopwords map[string]struct{}
}

func newTokenizer(opts Options) *tokenizer {
	t := &tokenizer{
		pattern:  regexp.MustCompile(`[\p{L}\p{N}_]{2,}`),
		ngramMax: opts.NgramMax,
	}
	if opts.Stopwords {
		t.stopwords = defaultStopwords()
	}
	return t
}

// terms returns the unigrams followed by the n-grams of the text, in order of appearance.
func (t *tokenizer) terms(text string) []string {
	raw := t.pattern.FindAllString(strings.ToLower(text), -1)
	if len(raw) == 0 {
		return nil
	}
	tokens := raw[:0]
	for _, tok := range raw {
		if _, isStop := t.stopwords[tok]; isStop {
			continue
		}
		tokens = append(tokens, tok)
	}
	out := make([]string, 0, len(tokens)*t.ngramMax)
	for n := 1; n <= t.ngramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
