package session

import (
	"fmt"

	"enhanced-search/internal/models"
	"enhanced-search/internal/pipeline"
)

const (
	PlaceholderReady   = "Search"
	PlaceholderLoading = "Indexing page..."
	PlaceholderError   = "No results possible on this page"
)

// View is what a search box renders: a disabled input with a status message
// until the index is ready, and a current/total counter while a query is
// present.
type View struct {
	Status       pipeline.Status
	Placeholder  string
	InputEnabled bool
	Query        string
	Threshold    models.Threshold
	Matches      models.MatchList
	Counter      string
	ShowCounter  bool
}

func NewView(s State) View {
	v := View{
		Status:    s.Status,
		Query:     s.Query,
		Threshold: s.Threshold,
		Matches:   s.Matches,
		Counter:   Counter(s.Cursor),
	}
	switch s.Status {
	case pipeline.StatusReady:
		v.Placeholder = PlaceholderReady
		v.InputEnabled = true
	case pipeline.StatusError:
		v.Placeholder = PlaceholderError
	default:
		v.Placeholder = PlaceholderLoading
	}
	v.ShowCounter = !isBlank(s.Query)
	return v
}

// Counter formats the cursor as "current/total", or "0/0" when there is
// nothing to select.
func Counter(c models.Cursor) string {
	i, ok := c.Current()
	if !ok {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d", i+1, c.Bound())
}
