package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enhanced-search/internal/models"
)

func texts(chunks []models.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func TestChunk_ThreeWordWindows(t *testing.T) {
	chunks := Chunk("The quick brown fox. The slow brown fox.", 3)
	assert.Equal(t, []string{"The quick brown", "fox. The slow", "brown fox."}, texts(chunks))
}

func TestChunk_EmptyInput(t *testing.T) {
	assert.Empty(t, Chunk("", 10))
	assert.Empty(t, Chunk("   \n\n\t  ", 10))
}

func TestChunk_SpansAddressSourceText(t *testing.T) {
	text := "  Alpha beta gamma.\n\nDelta epsilon.  Zeta eta theta iota.\nKappa lambda  "
	chunks := Chunk(text, 4)
	require.NotEmpty(t, chunks)

	prevEnd := -1
	for i, c := range chunks {
		assert.Equal(t, i, c.ID)
		assert.Equal(t, c.Text, text[c.Span.Start:c.Span.End])
		assert.Greater(t, c.Span.Start, prevEnd, "chunks must not overlap")
		assert.LessOrEqual(t, CountUnits(c.Text), 4)
		prevEnd = c.Span.End - 1
	}
}

func TestChunk_KeepsParagraphsWhole(t *testing.T) {
	text := "one two three\n\nfour five six\n\nseven eight nine"
	chunks := Chunk(text, 4)
	assert.Equal(t, []string{"one two three", "four five six", "seven eight nine"}, texts(chunks))
}

func TestChunk_PacksSmallParagraphs(t *testing.T) {
	text := "one two\n\nthree four\n\nfive"
	chunks := Chunk(text, 10)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
}

func TestChunk_SplitsLongParagraphOnSentences(t *testing.T) {
	text := "Cats purr loudly. Dogs bark often. Birds sing."
	chunks := Chunk(text, 3)
	assert.Equal(t, []string{"Cats purr loudly.", "Dogs bark often.", "Birds sing."}, texts(chunks))
}

func TestChunk_DuplicateTextYieldsSeparateChunks(t *testing.T) {
	text := "same words here\n\nsame words here"
	chunks := Chunk(text, 3)
	require.Len(t, chunks, 2)
	assert.Equal(t, chunks[0].Text, chunks[1].Text)
	assert.NotEqual(t, chunks[0].Span, chunks[1].Span)
}

func TestChunk_MinimalSegmentCount(t *testing.T) {
	text := strings.Repeat("word ", 25)
	for _, size := range []int{1, 3, 7, 25, 100} {
		chunks := Chunk(text, size)
		want := (25 + size - 1) / size
		assert.Len(t, chunks, want, "size %d", size)
	}
}

func TestChunk_NonPositiveSizeUsesDefault(t *testing.T) {
	text := strings.Repeat("word ", models.DefaultChunkSize+1)
	assert.Len(t, Chunk(text, 0), 2)
}

func TestChunk_UnicodeSpaces(t *testing.T) {
	text := "alpha\u00a0beta\u2003gamma"
	chunks := Chunk(text, 1)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, texts(chunks))
}
