package models

import "time"

const (
	ParagraphRegex = `\n[ \t\r\f\v]*\n\s*`
	LineRegex      = `\n\s*`
	SentenceRegex  = `[.!?]\s+`
	WordRegex      = `[\s\v\p{Z}\x{85}]+`
)

const (
	DefaultChunkSize = 100
	DefaultTopK      = 50
	DefaultDebounce  = 500 * time.Millisecond
)

// mark classes understood by the rendering surface
const (
	CurrentMatchClass = "current-match"
	MatchClass        = "highlighted-text"
)

// SearchMode selects the resolution strategy
type SearchMode string

const (
	ModeSemantic SearchMode = "semantic"
	ModeLiteral  SearchMode = "literal"
)
