package rag

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"enhanced-search/internal/config"
	"enhanced-search/internal/index"
	"enhanced-search/internal/models"
)

// Query is one resolution request
type Query struct {
	Text      string
	Threshold models.Threshold
}

// Empty reports whether the query should short-circuit to no matches
func (q Query) Empty() bool {
	return strings.TrimSpace(q.Text) == ""
}

// Resolver turns a query into an ordered MatchList
type Resolver interface {
	Resolve(ctx context.Context, q Query) (models.MatchList, error)
}

// Document is the current snapshot as published by the indexing pipeline
type Document interface {
	Index() (*index.Index, error)
	Text() (string, error)
}

// NewResolver picks the strategy named by cfg.Mode
func NewResolver(cfg *config.SearchConfig, doc Document) Resolver {
	if cfg.Mode == models.ModeLiteral {
		return NewLiteral(doc, cfg.LiteralRegex)
	}
	return NewSemantic(doc, cfg.TopK)
}

// Semantic ranks chunks by embedding similarity
type Semantic struct {
	doc  Document
	topK int
}

func NewSemantic(doc Document, topK int) *Semantic {
	if topK <= 0 {
		topK = models.DefaultTopK
	}
	return &Semantic{doc: doc, topK: topK}
}

func (s *Semantic) Resolve(ctx context.Context, q Query) (models.MatchList, error) {
	if q.Empty() {
		return nil, nil
	}
	idx, err := s.doc.Index()
	if err != nil {
		return nil, err
	}
	candidates, err := idx.Query(ctx, q.Text, s.topK)
	if err != nil {
		return nil, err
	}
	return FilterCandidates(candidates, q.Threshold), nil
}

// FilterCandidates keeps candidates scoring strictly above threshold, orders
// them by position in the document and drops repeated texts, keeping the
// first occurrence.
func FilterCandidates(candidates []models.MatchCandidate, threshold models.Threshold) models.MatchList {
	kept := make([]models.MatchCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score > float32(threshold) {
			kept = append(kept, c)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Span.PositionKey() < kept[j].Span.PositionKey()
	})

	seen := make(map[string]struct{}, len(kept))
	var list models.MatchList
	for _, c := range kept {
		if _, dup := seen[c.Text]; dup {
			continue
		}
		seen[c.Text] = struct{}{}
		list = append(list, models.Match{Text: c.Text, Span: c.Span})
	}
	return list
}

// Literal scans the document text with a case-insensitive regular expression.
// Every occurrence is its own match.
type Literal struct {
	doc Document
	raw bool
}

// NewLiteral creates a literal resolver. With raw set the query is used as a
// regular expression instead of plain text.
func NewLiteral(doc Document, raw bool) *Literal {
	return &Literal{doc: doc, raw: raw}
}

func (l *Literal) Resolve(ctx context.Context, q Query) (models.MatchList, error) {
	if q.Empty() {
		return nil, nil
	}
	text, err := l.doc.Text()
	if err != nil {
		return nil, err
	}
	return FindLiteral(text, q.Text, l.raw)
}

func compileLiteral(query string, raw bool) (*regexp.Regexp, error) {
	pattern := query
	if !raw {
		pattern = regexp.QuoteMeta(query)
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", query, err)
	}
	return re, nil
}

// FindLiteral returns every non-empty match of query in text, in order
func FindLiteral(text, query string, raw bool) (models.MatchList, error) {
	re, err := compileLiteral(query, raw)
	if err != nil {
		return nil, err
	}
	var list models.MatchList
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		list = append(list, models.Match{
			Text: text[loc[0]:loc[1]],
			Span: models.Span{Start: loc[0], End: loc[1]},
		})
	}
	return list, nil
}

// CountLiteral returns how many times query occurs in text
func CountLiteral(text, query string, raw bool) (int, error) {
	if strings.TrimSpace(query) == "" {
		return 0, nil
	}
	list, err := FindLiteral(text, query, raw)
	return len(list), err
}
