package index

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"enhanced-search/internal/embedding"
	"enhanced-search/internal/helper"
	"enhanced-search/internal/models"
)

// Index holds one embedding per chunk of a single document snapshot.
//
// An Index is immutable once built; a new snapshot gets a new Index. The zero
// value and nil are both valid empty indexes.
type Index struct {
	id         string
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embedding.Embedder
	chunks     []models.IndexedChunk
	dim        int
}

// Build embeds all chunks in one batch and stores them in a fresh in-memory
// collection. An empty chunk list yields an empty index without calling the
// embedder.
func Build(ctx context.Context, embedder embedding.Embedder, chunks []models.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return &Index{}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbedding, err)
	}
	dim, err := embedding.ValidateBatch(vecs, len(chunks))
	if err != nil {
		return nil, err
	}

	id, err := helper.NewID("snapshot")
	if err != nil {
		return nil, err
	}
	db := chromem.NewDB()
	collection, err := db.CreateCollection(id, nil, embeddingFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %v", err)
	}

	indexed := make([]models.IndexedChunk, len(chunks))
	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		indexed[i] = models.IndexedChunk{Chunk: c, Vector: vecs[i]}
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(i),
			Content:   c.Text,
			Metadata:  metadata(c),
			Embedding: vecs[i],
		}
	}
	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("failed to add documents: %v", err)
	}

	log.Debug().Str("collection", collection.Name).Int("chunks", len(chunks)).Int("dimension", dim).Msg("Built embedding index")

	return &Index{
		id:         id,
		db:         db,
		collection: collection,
		embedder:   embedder,
		chunks:     indexed,
		dim:        dim,
	}, nil
}

func metadata(c models.Chunk) map[string]string {
	return map[string]string{
		"ordinal": strconv.Itoa(c.ID),
		"start":   strconv.Itoa(c.Span.Start),
		"end":     strconv.Itoa(c.Span.End),
	}
}

func embeddingFunc(e embedding.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return e.EmbedQuery(ctx, text)
	}
}

func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.chunks)
}

func (ix *Index) Empty() bool {
	return ix.Len() == 0
}

func (ix *Index) Dimension() int {
	if ix == nil {
		return 0
	}
	return ix.dim
}

// Chunks returns the indexed chunks in document order
func (ix *Index) Chunks() []models.IndexedChunk {
	if ix == nil {
		return nil
	}
	return ix.chunks
}

// Query returns up to k chunks most similar to text, highest score first.
// Scores are cosine similarities clamped into [0, 1].
func (ix *Index) Query(ctx context.Context, text string, k int) ([]models.MatchCandidate, error) {
	if ix.Empty() || text == "" || k <= 0 {
		return nil, nil
	}

	vec, err := ix.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbedding, err)
	}
	if err := embedding.ValidateVector(vec); err != nil {
		return nil, err
	}
	if len(vec) != ix.dim {
		return nil, fmt.Errorf("%w: query dimension %d, index dimension %d", models.ErrEmbedding, len(vec), ix.dim)
	}

	results, err := ix.collection.QueryEmbedding(ctx, vec, min(k, ix.collection.Count()), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	candidates := make([]models.MatchCandidate, 0, len(results))
	for _, r := range results {
		ordinal, err := strconv.Atoi(r.ID)
		if err != nil || ordinal < 0 || ordinal >= len(ix.chunks) {
			return nil, fmt.Errorf("unknown document id %q in collection %s", r.ID, ix.collection.Name)
		}
		c := ix.chunks[ordinal]
		candidates = append(candidates, models.MatchCandidate{
			Text:  c.Text,
			Score: clamp(r.Similarity),
			Span:  c.Span,
		})
	}
	return candidates, nil
}

func clamp(s float32) float32 {
	return max(0, min(1, s))
}
