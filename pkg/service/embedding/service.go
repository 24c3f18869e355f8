package embedding

import (
	"context"
	"math"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"golang.org/x/time/rate"
)

// DefaultInterval is the pause enforced between two embedding calls
const DefaultInterval = 100 * time.Millisecond

var ErrEmptyEmbedding = goerr.New("no embedding returned")

type client struct {
	llmClient gollem.LLMClient
	limiter   *rate.Limiter
	dimension int
	maxChars  int
}

// Option is a functional option for client configuration
type Option func(*client)

// WithInterval sets the minimum interval between calls. Zero disables pacing.
func WithInterval(d time.Duration) Option {
	return func(c *client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithDimension overrides model.EmbeddingDimension
func WithDimension(n int) Option {
	return func(c *client) {
		c.dimension = n
	}
}

// WithMaxInputChars overrides model.MaxEmbeddingInputChars
func WithMaxInputChars(n int) Option {
	return func(c *client) {
		c.maxChars = n
	}
}

// New creates an embedding service backed by llmClient
func New(llmClient gollem.LLMClient, opts ...Option) (Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &client{
		llmClient: llmClient,
		limiter:   rate.NewLimiter(rate.Every(DefaultInterval), 1),
		dimension: model.EmbeddingDimension,
		maxChars:  model.MaxEmbeddingInputChars,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *client) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, goerr.Wrap(err, "embedding rate limiter interrupted")
	}

	input := model.TruncateRunes(text, c.maxChars)
	embeddings, err := c.llmClient.GenerateEmbedding(ctx, c.dimension, []string{input})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding",
			goerr.V("input_chars", len(input)))
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, goerr.Wrap(ErrEmptyEmbedding, "embedding service returned nothing")
	}
	if len(embeddings[0]) != c.dimension {
		return nil, goerr.New("unexpected embedding dimension",
			goerr.V("expected", c.dimension),
			goerr.V("actual", len(embeddings[0])))
	}

	return Normalize(embeddings[0]), nil
}

// Normalize scales v to unit L2 norm and converts it to float32. A zero vector is returned
// unchanged.
func Normalize(v []float64) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}

	norm := math.Sqrt(sumSq)
	result := make([]float32, len(v))
	for i, x := range v {
		if norm == 0 {
			result[i] = float32(x)
			continue
		}
		result[i] = float32(x / norm)
	}
	return result
}
