package models

import "errors"

var (
	// ErrFetch is returned when the document text cannot be obtained.
	ErrFetch = errors.New("document fetch failed")
	// ErrEmbedding is returned when the embedding capability is unreachable or returns malformed output.
	ErrEmbedding = errors.New("embedding failed")
	// ErrEmptyDocument is returned when a fetched document produced no indexable chunks.
	ErrEmptyDocument = errors.New("document has no indexable content")
	// ErrHighlightBoundary is returned when the rendering surface cannot be reached.
	ErrHighlightBoundary = errors.New("highlight boundary unavailable")
)
