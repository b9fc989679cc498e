package cache

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"jobrec/internal/domain"
	"jobrec/internal/kvstore"
)

// --- Mocks ---

type mockEncoder struct {
	calls [][]string
	err   error
}

func (m *mockEncoder) Name() string { return "mock" }
func (m *mockEncoder) Dimension() int { return 2 }
func (m *mockEncoder) ScoreRange() domain.ScoreRange { return domain.CosineRange }
func (m *mockEncoder) DefaultMinScore() float64 { return 0.3 }
func (m *mockEncoder) Encode(ctx context.Context, text string) (domain.Vector, error) {
	v, err := m.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (m *mockEncoder) EncodeBatch(_ context.Context, texts []string) ([]domain.Vector, error) {
	m.calls = append(m.calls, texts)
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Vector, len(texts))
	for i, t := range texts {
		out[i] = domain.Vector{float64(len(t)), 1}
	}
	return out, nil
}

type mockStrategy struct {
	enc *mockEncoder
	err error
}

func (m *mockStrategy) Name() string { return "mock" }
func (m *mockStrategy) Load(_ context.Context, _ []string) (domain.Encoder, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.enc, nil
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("conn refused") }
func (failingStore) Set(context.Context, string, []byte) error { return errors.New("conn refused") }

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
}

func loadCached(t *testing.T, inner *mockEncoder, store Store, counter *prometheus.CounterVec) domain.Encoder {
	t.Helper()
	s := NewStrategy(&mockStrategy{enc: inner}, store, "model-a", counter, zap.NewNop())
	enc, err := s.Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return enc
}

// --- Tests ---

func TestEncode_MissThenHit(t *testing.T) {
	inner := &mockEncoder{}
	counter := newCounter()
	enc := loadCached(t, inner, kvstore.NewMemoryStore(0), counter)
	ctx := context.Background()

	first, err := enc.Encode(ctx, "react")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	second, err := enc.Encode(ctx, "react")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached vector differs: %v vs %v", first, second)
	}
	if len(inner.calls) != 1 {
		t.Errorf("expected inner encoder to be called once, got %d", len(inner.calls))
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
}

func TestEncodeBatch_OnlyMissesReachInner(t *testing.T) {
	inner := &mockEncoder{}
	enc := loadCached(t, inner, kvstore.NewMemoryStore(0), nil)
	ctx := context.Background()

	if _, err := enc.Encode(ctx, "go"); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	vecs, err := enc.EncodeBatch(ctx, []string{"react", "go", "postgres"})
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	if want := []string{"react", "postgres"}; !reflect.DeepEqual(inner.calls[1], want) {
		t.Errorf("inner batch = %v, want %v", inner.calls[1], want)
	}
	want := []domain.Vector{{5, 1}, {2, 1}, {8, 1}}
	if !reflect.DeepEqual(vecs, want) {
		t.Errorf("vectors = %v, want %v", vecs, want)
	}
}

func TestEncode_StoreFailureFallsThrough(t *testing.T) {
	inner := &mockEncoder{}
	enc := loadCached(t, inner, failingStore{}, nil)

	v, err := enc.Encode(context.Background(), "react")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !reflect.DeepEqual(v, domain.Vector{5, 1}) {
		t.Errorf("unexpected vector: %v", v)
	}
}

func TestEncode_InnerError(t *testing.T) {
	inner := &mockEncoder{err: domain.ErrEmbeddingProvider}
	enc := loadCached(t, inner, kvstore.NewMemoryStore(0), nil)

	_, err := enc.Encode(context.Background(), "react")
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Errorf("expected ErrEmbeddingProvider, got %v", err)
	}
}

func TestEncode_MalformedEntryIgnored(t *testing.T) {
	inner := &mockEncoder{}
	store := kvstore.NewMemoryStore(0)
	enc := loadCached(t, inner, store, nil)
	ce := enc.(*Encoder)

	_ = store.Set(context.Background(), ce.key("react"), []byte{1, 2, 3})
	v, err := enc.Encode(context.Background(), "react")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !reflect.DeepEqual(v, domain.Vector{5, 1}) {
		t.Errorf("unexpected vector: %v", v)
	}
	if len(inner.calls) != 1 {
		t.Errorf("expected fallback to inner encoder")
	}
}

func TestStrategy_LoadError(t *testing.T) {
	s := NewStrategy(&mockStrategy{err: domain.ErrEmptyCorpus}, kvstore.NewMemoryStore(0), "m", nil, zap.NewNop())
	if _, err := s.Load(context.Background(), nil); !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Errorf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestKeys_NamespacedByModel(t *testing.T) {
	a := &Encoder{prefix: keyPrefix + "model-a:"}
	b := &Encoder{prefix: keyPrefix + "model-b:"}
	if a.key("react") == b.key("react") {
		t.Error("keys for different models must differ")
	}
}

func TestEncodeDecode(t *testing.T) {
	v := domain.Vector{0.1, -2.5, 0}
	got, err := decode(encode(v))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, v) {
		t.Errorf("got %v, want %v", got, v)
	}
	if _, err := decode([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated data")
	}
}
