package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
)

// DirectEmbedder calls the OpenAI embeddings API without the langchaingo layer
type DirectEmbedder struct {
	client *goopenai.Client
	model  string
}

// NewDirectEmbedder creates an OpenAI embedder; baseURL may point at any
// OpenAI-compatible provider
func NewDirectEmbedder(key, baseURL, model string) *DirectEmbedder {
	cfg := goopenai.DefaultConfig(strings.TrimPrefix(key, "Bearer "))
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &DirectEmbedder{
		client: goopenai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (e *DirectEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.New("cannot embed empty text")
	}
	vecs, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *DirectEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Model: goopenai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	vecs := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("unexpected embedding index %d for batch size %d", item.Index, len(texts))
		}
		v := make([]float32, len(item.Embedding))
		for i := range item.Embedding {
			v[i] = float32(item.Embedding[i])
		}
		vecs[item.Index] = v
	}
	for i, v := range vecs {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
	}
	return vecs, nil
}
