package models

// Span is a half-open byte range [Start, End) in a document snapshot
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// PositionKey orders matches left to right through the document
func (s Span) PositionKey() int {
	return s.Start + s.End
}

// Chunk represents a parsed chunk with its position in the source text
type Chunk struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
	Span Span   `json:"span"`
}

// IndexedChunk is a chunk together with its embedding vector
type IndexedChunk struct {
	Chunk
	Vector []float32 `json:"-"`
}

// MatchCandidate is one unranked result of a similarity query
type MatchCandidate struct {
	Text  string  `json:"text"`
	Score float32 `json:"score"`
	Span  Span    `json:"span"`
}

// Match is one navigable entry of a MatchList
type Match struct {
	Text string `json:"text"`
	Span Span   `json:"span"`
}

// MatchList is ordered by ascending document position
type MatchList []Match

// Texts returns the text of every match in order
func (l MatchList) Texts() []string {
	out := make([]string, len(l))
	for i, m := range l {
		out[i] = m.Text
	}
	return out
}

// Equal reports whether both lists hold the same matches in the same order
func (l MatchList) Equal(other MatchList) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}
