package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"enhanced-search/internal/config"
	"enhanced-search/internal/models"
)

// Embedder turns text into vectors. It matches langchaingo's embeddings.Embedder
// so an *embeddings.EmbedderImpl can be used directly.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

var _ Embedder = (*embeddings.EmbedderImpl)(nil)

// NewEmbedder creates the embedder named by the config's provider
func NewEmbedder(cfg *config.LLMConfig) (Embedder, error) {
	log.Debug().Interface("config", map[string]string{
		"provider":        cfg.Provider,
		"base_url":        cfg.BaseURL,
		"embedding_model": cfg.Model,
	}).Msg("Creating embedder")

	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(cfg.Key, cfg.BaseURL, cfg.Model)
	case "ollama":
		return NewOllamaEmbedder(cfg)
	case "openai-direct":
		return NewDirectEmbedder(cfg.Key, cfg.BaseURL, cfg.Model), nil
	case "hash":
		return NewHashEmbedder(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// NewOpenAIEmbedder creates an embedder for any OpenAI-compatible endpoint
func NewOpenAIEmbedder(key, baseURL, embeddingModel string) (*embeddings.EmbedderImpl, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(key, "Bearer ")),
		openai.WithModel(embeddingModel),
		openai.WithEmbeddingModel(embeddingModel),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize openai client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

// new ollama embedder
func NewOllamaEmbedder(llmConfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	opts := []ollama.Option{ollama.WithModel(llmConfig.Model)}
	if llmConfig.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(llmConfig.BaseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

// ValidateBatch checks that an embedder returned one finite, non-empty vector
// per input, all of the same dimension. It returns that dimension.
func ValidateBatch(vecs [][]float32, want int) (int, error) {
	if len(vecs) != want {
		return 0, fmt.Errorf("%w: got %d vectors for %d texts", models.ErrEmbedding, len(vecs), want)
	}
	dim := 0
	for i, v := range vecs {
		if err := ValidateVector(v); err != nil {
			return 0, fmt.Errorf("vector %d: %w", i, err)
		}
		if i == 0 {
			dim = len(v)
		} else if len(v) != dim {
			return 0, fmt.Errorf("%w: vector %d has dimension %d, expected %d", models.ErrEmbedding, i, len(v), dim)
		}
	}
	return dim, nil
}

// ValidateVector rejects empty vectors and vectors holding NaN or Inf
func ValidateVector(v []float32) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty vector", models.ErrEmbedding)
	}
	nonZero := false
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite component", models.ErrEmbedding)
		}
		if x != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		return fmt.Errorf("%w: zero vector", models.ErrEmbedding)
	}
	return nil
}
