package parser

import (
	"regexp"
	"strings"
	"unicode"

	"enhanced-search/internal/models"
)

// boundaries from coarsest to finest; the last level always yields single words
var boundaries = []struct {
	re       *regexp.Regexp
	keepHead int // bytes of the separator match kept with the preceding piece
}{
	{regexp.MustCompile(models.ParagraphRegex), 0},
	{regexp.MustCompile(models.LineRegex), 0},
	{regexp.MustCompile(models.SentenceRegex), 1},
	{regexp.MustCompile(models.WordRegex), 0},
}

// piece is a trimmed span of the source text with its word count
type piece struct {
	start, end int
	units      int
}

// Chunk splits text into the fewest contiguous segments of at most maxUnits
// words. Segments break at paragraph, then line, then sentence boundaries
// before falling back to single words.
func Chunk(text string, maxUnits int) []models.Chunk {
	if maxUnits <= 0 {
		maxUnits = models.DefaultChunkSize
	}
	root, ok := trimmed(text, 0, len(text))
	if !ok {
		return nil
	}

	var pieces []piece
	collect(text, root, 0, maxUnits, &pieces)

	var chunks []models.Chunk
	emit := func(first, last piece) {
		chunks = append(chunks, models.Chunk{
			ID:   len(chunks),
			Text: text[first.start:last.end],
			Span: models.Span{Start: first.start, End: last.end},
		})
	}

	first, last := pieces[0], pieces[0]
	units := first.units
	for _, p := range pieces[1:] {
		if units+p.units > maxUnits {
			emit(first, last)
			first, units = p, 0
		}
		last = p
		units += p.units
	}
	emit(first, last)
	return chunks
}

// CountUnits returns the number of whitespace-delimited words in text
func CountUnits(text string) int {
	return len(strings.Fields(text))
}

// collect appends the pieces of p that fit maxUnits, splitting oversized
// pieces at the next boundary level.
func collect(text string, p piece, level, maxUnits int, out *[]piece) {
	if p.units <= maxUnits || level >= len(boundaries) {
		*out = append(*out, p)
		return
	}
	b := boundaries[level]
	parts := split(text, p, b.re, b.keepHead)
	if len(parts) == 1 {
		collect(text, p, level+1, maxUnits, out)
		return
	}
	for _, part := range parts {
		collect(text, part, level+1, maxUnits, out)
	}
}

func split(text string, p piece, re *regexp.Regexp, keepHead int) []piece {
	var parts []piece
	cursor := p.start
	for _, loc := range re.FindAllStringIndex(text[p.start:p.end], -1) {
		cut := p.start + loc[0] + keepHead
		if part, ok := trimmed(text, cursor, cut); ok {
			parts = append(parts, part)
		}
		cursor = p.start + loc[1]
	}
	if part, ok := trimmed(text, cursor, p.end); ok {
		parts = append(parts, part)
	}
	return parts
}

func trimmed(text string, start, end int) (piece, bool) {
	segment := text[start:end]
	lead := len(segment) - len(strings.TrimLeftFunc(segment, unicode.IsSpace))
	body := strings.TrimSpace(segment)
	if body == "" {
		return piece{}, false
	}
	start += lead
	return piece{start: start, end: start + len(body), units: CountUnits(body)}, true
}
