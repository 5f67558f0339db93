package highlight

import (
	"enhanced-search/internal/models"
)

// Mark is one highlighted span on the rendering surface
type Mark struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Payload is the complete highlight state pushed across the render boundary.
// CurrentIndex is nil whenever Matches is empty.
type Payload struct {
	Matches      []Mark `json:"matches"`
	CurrentIndex *int   `json:"currentIndex"`
}

// NewPayload snapshots a (MatchList, Cursor) pair
func NewPayload(list models.MatchList, cursor models.Cursor) Payload {
	p := Payload{Matches: make([]Mark, 0, len(list))}
	for _, m := range list {
		p.Matches = append(p.Matches, Mark{Text: m.Text, Start: m.Span.Start, End: m.Span.End})
	}
	if i, ok := cursor.Current(); ok && i < len(p.Matches) {
		p.CurrentIndex = &i
	}
	return p
}

// Current returns the mark under the cursor
func (p Payload) Current() (Mark, bool) {
	if p.CurrentIndex == nil || *p.CurrentIndex >= len(p.Matches) {
		return Mark{}, false
	}
	return p.Matches[*p.CurrentIndex], true
}

// Class returns the CSS class the surface applies to the i-th mark
func (p Payload) Class(i int) string {
	if p.CurrentIndex != nil && *p.CurrentIndex == i {
		return models.CurrentMatchClass
	}
	return models.MatchClass
}

func (p Payload) Equal(o Payload) bool {
	if len(p.Matches) != len(o.Matches) {
		return false
	}
	for i := range p.Matches {
		if p.Matches[i] != o.Matches[i] {
			return false
		}
	}
	switch {
	case p.CurrentIndex == nil && o.CurrentIndex == nil:
		return true
	case p.CurrentIndex == nil || o.CurrentIndex == nil:
		return false
	}
	return *p.CurrentIndex == *o.CurrentIndex
}
