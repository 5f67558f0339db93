package highlight

import (
	"context"
	"fmt"
	"sync"

	"enhanced-search/internal/models"
)

// SurfaceMark is a mark as applied to the surface, with its CSS class
type SurfaceMark struct {
	Span  models.Span
	Class string
}

// Surface is an in-memory rendering surface. Each push clears every existing
// mark, marks each match and scrolls the current one into view.
type Surface struct {
	mu         sync.Mutex
	text       string
	marks      []SurfaceMark
	current    int
	scrolledTo *models.Span
}

func NewSurface(text string) *Surface {
	return &Surface{text: text, current: -1}
}

// SetDocument replaces the text and drops all marks
func (s *Surface) SetDocument(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	s.clear()
}

func (s *Surface) clear() {
	s.marks = nil
	s.current = -1
	s.scrolledTo = nil
}

func (s *Surface) Push(ctx context.Context, p Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range p.Matches {
		if m.Start < 0 || m.End > len(s.text) || m.Start >= m.End {
			return fmt.Errorf("mark [%d,%d) outside document of %d bytes", m.Start, m.End, len(s.text))
		}
	}

	s.clear()
	for i, m := range p.Matches {
		s.marks = append(s.marks, SurfaceMark{
			Span:  models.Span{Start: m.Start, End: m.End},
			Class: p.Class(i),
		})
	}
	if cur, ok := p.Current(); ok {
		s.current = *p.CurrentIndex
		s.scrolledTo = &models.Span{Start: cur.Start, End: cur.End}
	}
	return nil
}

func (s *Surface) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Marks returns a copy of the applied marks in document order
func (s *Surface) Marks() []SurfaceMark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SurfaceMark(nil), s.marks...)
}

// Current returns the index of the mark carrying the current-match class
func (s *Surface) Current() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current >= 0
}

// ScrolledTo returns the span last scrolled into view
func (s *Surface) ScrolledTo() (models.Span, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scrolledTo == nil {
		return models.Span{}, false
	}
	return *s.scrolledTo, true
}
