package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"jobrec/internal/domain"
	"jobrec/internal/metrics"
)

// DefaultMinScore is the threshold used when a query does not set one.
const DefaultMinScore = 0.3

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKey    string
	APIKeyEnv string
	Model     string
	// Dimensions requests a reduced output size; 0 keeps the model's native size.
	Dimensions int
	Timeout    time.Duration
	// BatchSize is the number of texts per API request.
	BatchSize int
	// Concurrency bounds the number of in-flight batch requests.
	Concurrency int
	// RequestsPerSecond throttles API calls; 0 disables throttling.
	RequestsPerSecond float64
}

// Client is a dense embedding strategy backed by an OpenAI-compatible embeddings API.
type Client struct {
	client      *openai.Client
	model       string
	dimensions  int
	batchSize   int
	concurrency int
	limiter     *rate.Limiter
}

var _ domain.Strategy = (*Client)(nil)

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	key := cfg.APIKey
	if key == "" && cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.SmallEmbedding3)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	clientCfg := openai.DefaultConfig(key)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		dimensions:  cfg.Dimensions,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
		limiter:     rate.NewLimiter(limit, 1),
	}, nil
}

// Name returns the identifier of this strategy.
func (c *Client) Name() string { return "openai" }

// Model returns the embedding model name.
func (c *Client) Model() string { return c.model }

// Load fixes the embedding dimension and returns a ready encoder.
// The model is pretrained, so the corpus is only used to probe the dimension
// when none is configured.
func (c *Client) Load(ctx context.Context, corpus []string) (domain.Encoder, error) {
	dim := c.dimensions
	if dim == 0 {
		probe := "dimension probe"
		for _, text := range corpus {
			if strings.TrimSpace(text) != "" {
				probe = text
				break
			}
		}
		vecs, err := c.embed(ctx, []string{probe}, 0)
		if err != nil {
			return nil, fmt.Errorf("probe dimension: %w", err)
		}
		dim = len(vecs[0])
	}
	return &Encoder{client: c, dim: dim}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// embed sends texts in batches and returns vectors in input order.
// A non-zero dim is enforced on every returned vector.
func (c *Client) embed(ctx context.Context, texts []string, dim int) ([]domain.Vector, error) {
	out := make([]domain.Vector, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		g.Go(func() error {
			vecs, err := c.embedBatch(gctx, texts[start:end])
			if err != nil {
				return err
			}
			for i, v := range vecs {
				if dim > 0 && len(v) != dim {
					return fmt.Errorf("embedding has %d dimensions, want %d: %w",
						len(v), dim, domain.ErrDimensionMismatch)
				}
				out[start+i] = v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([]domain.Vector, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          openai.EmbeddingModel(c.model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if c.dimensions > 0 {
		req.Dimensions = c.dimensions
	}

	start := time.Now()
	resp, err := c.client.CreateEmbeddings(ctx, req)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return nil, parseAPIError(err)
	}
	metrics.EmbeddingRequestDuration.WithLabelValues(c.model).Observe(time.Since(start).Seconds())

	if len(resp.Data) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return nil, fmt.Errorf("got %d embeddings for %d inputs: %w",
			len(resp.Data), len(texts), domain.ErrEmbeddingProvider)
	}

	out := make([]domain.Vector, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) || out[d.Index] != nil || len(d.Embedding) == 0 {
			metrics.EmbeddingRequestsTotal.WithLabelValues(c.model, "error").Inc()
			return nil, fmt.Errorf("malformed embedding at index %d: %w", d.Index, domain.ErrEmbeddingProvider)
		}
		v := make(domain.Vector, len(d.Embedding))
		for i, x := range d.Embedding {
			v[i] = float64(x)
		}
		out[d.Index] = v
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(c.model, "success").Inc()
	if resp.Usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(c.model).Add(float64(resp.Usage.TotalTokens))
	}
	return out, nil
}

// Encoder is a loaded dense encoder. The zero value is not ready.
type Encoder struct {
	client *Client
	dim    int
}

var _ domain.Encoder = (*Encoder)(nil)

// Name returns the identifier of this encoder.
func (e *Encoder) Name() string { return "openai" }

// Dimension returns the embedding size.
func (e *Encoder) Dimension() int { return e.dim }

// ScoreRange returns the valid threshold range. Negative cosine scores never
// pass a threshold inside [0, 1], so negative thresholds are rejected.
func (e *Encoder) ScoreRange() domain.ScoreRange { return domain.CosineRange }

// DefaultMinScore returns the threshold used when a query does not set one.
func (e *Encoder) DefaultMinScore() float64 { return DefaultMinScore }

// Model returns the embedding model name, or "" when not ready.
func (e *Encoder) Model() string {
	if e == nil || e.client == nil {
		return ""
	}
	return e.client.model
}

// HealthCheck delegates to the underlying client.
func (e *Encoder) HealthCheck(ctx context.Context) error {
	if e == nil || e.client == nil {
		return domain.ErrEncoderNotReady
	}
	return e.client.HealthCheck(ctx)
}

// Encode returns the embedding of text. Blank text embeds to the zero vector,
// since OpenAI-compatible APIs reject empty input.
func (e *Encoder) Encode(ctx context.Context, text string) (domain.Vector, error) {
	vecs, err := e.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EncodeBatch embeds texts in API batches; the i-th vector corresponds to texts[i].
func (e *Encoder) EncodeBatch(ctx context.Context, texts []string) ([]domain.Vector, error) {
	if e == nil || e.client == nil {
		return nil, domain.ErrEncoderNotReady
	}
	out := make([]domain.Vector, len(texts))
	var (
		pending []string
		slots   []int
	)
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			out[i] = make(domain.Vector, e.dim)
			continue
		}
		pending = append(pending, text)
		slots = append(slots, i)
	}
	if len(pending) == 0 {
		return out, nil
	}
	vecs, err := e.client.embed(ctx, pending, e.dim)
	if err != nil {
		return nil, err
	}
	for j, v := range vecs {
		out[slots[j]] = v
	}
	return out, nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrEmbeddingProvider.
func parseAPIError(err error) error {
	wrap := domain.ErrEmbeddingProvider

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("embedding API error %d: %w", reqErr.HTTPStatusCode, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("embedding request: %w", err)
	}
	return fmt.Errorf("embedding request failed: %v: %w", err, wrap)
}

// extractDetail extracts the "detail" field from a JSON error body (Ollama/Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
