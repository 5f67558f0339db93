package rag

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enhanced-search/internal/config"
	"enhanced-search/internal/embedding"
	"enhanced-search/internal/index"
	"enhanced-search/internal/models"
	"enhanced-search/internal/parser"
)

type fakeDocument struct {
	idx       *index.Index
	text      string
	err       error
	idxCalls  int
	textCalls int
}

func (d *fakeDocument) Index() (*index.Index, error) {
	d.idxCalls++
	return d.idx, d.err
}

func (d *fakeDocument) Text() (string, error) {
	d.textCalls++
	return d.text, d.err
}

func candidate(text string, score float32, start, end int) models.MatchCandidate {
	return models.MatchCandidate{Text: text, Score: score, Span: models.Span{Start: start, End: end}}
}

func TestFilterCandidates_ThresholdThenPosition(t *testing.T) {
	candidates := []models.MatchCandidate{
		candidate("second", 0.9, 40, 60),
		candidate("first", 0.85, 0, 20),
		candidate("third", 0.5, 80, 90),
	}
	list := FilterCandidates(candidates, models.ThresholdMedium)
	assert.Equal(t, []string{"first", "second"}, list.Texts())
}

func TestFilterCandidates_StrictInequality(t *testing.T) {
	candidates := []models.MatchCandidate{
		candidate("zero", 0, 0, 1),
		candidate("edge", 0.7, 2, 3),
		candidate("tiny", 0.01, 4, 5),
	}
	assert.Equal(t, []string{"edge", "tiny"}, FilterCandidates(candidates, models.ThresholdAll).Texts())
	assert.Empty(t, FilterCandidates(candidates, models.ThresholdMedium))
}

func TestFilterCandidates_DedupKeepsFirstByPosition(t *testing.T) {
	candidates := []models.MatchCandidate{
		candidate("repeat", 0.95, 50, 56),
		candidate("other", 0.9, 20, 25),
		candidate("repeat", 0.8, 10, 16),
	}
	list := FilterCandidates(candidates, models.ThresholdAll)
	require.Len(t, list, 2)
	assert.Equal(t, models.Match{Text: "repeat", Span: models.Span{Start: 10, End: 16}}, list[0])
	assert.Equal(t, "other", list[1].Text)
}

func randomCandidates(r *rand.Rand, n int) []models.MatchCandidate {
	words := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	out := make([]models.MatchCandidate, n)
	for i := range out {
		start := r.IntN(500)
		out[i] = candidate(words[r.IntN(len(words))], r.Float32(), start, start+1+r.IntN(50))
	}
	return out
}

func TestFilterCandidates_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for range 200 {
		candidates := randomCandidates(r, r.IntN(30))

		var prev map[models.Match]bool
		for i := len(models.Thresholds) - 1; i >= 0; i-- {
			list := FilterCandidates(candidates, models.Thresholds[i])

			seen := map[string]bool{}
			for _, m := range list {
				assert.False(t, seen[m.Text], "duplicate text %q", m.Text)
				seen[m.Text] = true
			}

			resorted := append(models.MatchList(nil), list...)
			sort.SliceStable(resorted, func(a, b int) bool {
				return resorted[a].Span.PositionKey() < resorted[b].Span.PositionKey()
			})
			assert.True(t, list.Equal(resorted))

			// a stricter threshold never surfaces a text the looser one lacks
			cur := map[models.Match]bool{}
			texts := map[string]bool{}
			for _, m := range list {
				cur[m] = true
				texts[m.Text] = true
			}
			for m := range prev {
				assert.True(t, texts[m.Text], "text %q lost when lowering threshold", m.Text)
			}
			prev = cur
		}
	}
}

func TestSemantic_EmptyQueryShortCircuits(t *testing.T) {
	doc := &fakeDocument{}
	list, err := NewSemantic(doc, 10).Resolve(context.Background(), Query{Text: "  "})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 0, doc.idxCalls)
}

func TestSemantic_NotReady(t *testing.T) {
	notReady := errors.New("not ready")
	_, err := NewSemantic(&fakeDocument{err: notReady}, 10).Resolve(context.Background(), Query{Text: "fox"})
	assert.ErrorIs(t, err, notReady)
}

func TestSemantic_ResolvesInDocumentOrder(t *testing.T) {
	text := "Foxes hunt at night.\n\nMarkets closed flat.\n\nA fox sleeps by day.\n\nFoxes hunt at night."
	idx, err := index.Build(context.Background(), embedding.NewHashEmbedder(512), parser.Chunk(text, 5))
	require.NoError(t, err)

	list, err := NewSemantic(&fakeDocument{idx: idx}, 50).Resolve(context.Background(), Query{Text: "fox hunt night", Threshold: models.ThresholdAll})
	require.NoError(t, err)
	require.NotEmpty(t, list)

	assert.Equal(t, "Foxes hunt at night.", list[0].Text)
	assert.Equal(t, 0, list[0].Span.Start)
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].Span.PositionKey(), list[i].Span.PositionKey())
	}
	count := 0
	for _, m := range list {
		if m.Text == "Foxes hunt at night." {
			count++
		}
	}
	assert.Equal(t, 1, count, "repeated paragraph is listed once")
}

func TestLiteral_CountsEveryOccurrence(t *testing.T) {
	text := "The quick brown fox. The slow brown fox."
	list, err := NewLiteral(&fakeDocument{text: text}, false).Resolve(context.Background(), Query{Text: "BROWN"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.Span{Start: 10, End: 15}, list[0].Span)
	assert.Equal(t, models.Span{Start: 30, End: 35}, list[1].Span)

	n, err := CountLiteral(text, "brown", false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLiteral_EscapesByDefault(t *testing.T) {
	text := "cost is $5.00 (approx.) or 5x00"
	list, err := FindLiteral(text, "5.00", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"5.00"}, list.Texts())

	list, err = FindLiteral(text, "(approx.)", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"(approx.)"}, list.Texts())
}

func TestLiteral_RawRegex(t *testing.T) {
	text := "cost is $5.00 or 5x00"
	list, err := FindLiteral(text, "5.00", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"5.00", "5x00"}, list.Texts())

	_, err = FindLiteral(text, "(unclosed", true)
	assert.Error(t, err)

	list, err = FindLiteral(text, "z*", true)
	require.NoError(t, err)
	assert.Empty(t, list, "zero-width matches are not navigable")
}

func TestLiteral_EmptyQuery(t *testing.T) {
	doc := &fakeDocument{text: "anything"}
	list, err := NewLiteral(doc, false).Resolve(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 0, doc.textCalls)

	n, err := CountLiteral("anything", "", false)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNewResolver(t *testing.T) {
	doc := &fakeDocument{}
	assert.IsType(t, &Semantic{}, NewResolver(&config.SearchConfig{Mode: models.ModeSemantic, TopK: 5}, doc))
	assert.IsType(t, &Literal{}, NewResolver(&config.SearchConfig{Mode: models.ModeLiteral}, doc))
}
