package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashEmbedder is a local bag-of-words embedder. Each lower-cased word and
// each word bigram is hashed into a bucket, so texts sharing vocabulary end
// up with a high cosine similarity. It needs no network and is deterministic.
type HashEmbedder struct {
	dim int
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 256
	}
	return &HashEmbedder{dim: dimension}
}

func (e *HashEmbedder) Dimension() int {
	return e.dim
}

func (e *HashEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

func (e *HashEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vecs[i] = e.embed(text)
	}
	return vecs, nil
}

func (e *HashEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for i, w := range words {
		vec[e.bucket(w)] += 1
		if i > 0 {
			vec[e.bucket(words[i-1]+" "+w)] += 0.5
		}
	}
	if len(words) == 0 {
		// keep the vector non-zero so cosine similarity stays defined
		vec[e.bucket(text)] = 1
	}
	l2normalize(vec)
	return vec
}

func (e *HashEmbedder) bucket(s string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() % uint32(e.dim))
}

// l2normalize normalizes a vector to unit length
func l2normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
