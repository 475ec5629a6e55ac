package search

import (
	"strings"

	"docrepo/internal/model"
)

// DefaultSize is the page size applied when a query does not set one.
const DefaultSize = 10

// Query describes one search. Text is matched against filename, description,
// file type, content type and extracted content, with the filename weighted
// highest. Tag matches exactly against a document's tag set. Either clause
// alone is enough to surface a hit; Visibility narrows the result set when
// set. An empty query lists everything that passes the visibility filter.
type Query struct {
	Text       string
	Tag        string
	Visibility *model.Visibility
	Size       int
	From       int
}

// BuildQuery turns one free-text input into a Query. The input feeds both
// clauses: the weighted multi-field match and the exact tag term, so a word
// that only appears in a document's tag set still surfaces that document.
// A nil scope searches across both visibilities.
func BuildQuery(text string, scope *model.Visibility) Query {
	text = strings.TrimSpace(text)
	return Query{
		Text:       text,
		Tag:        text,
		Visibility: scope,
	}
}

// Normalized returns a copy with paging defaults applied.
func (q Query) Normalized() Query {
	if q.Size <= 0 {
		q.Size = DefaultSize
	}
	if q.From < 0 {
		q.From = 0
	}
	return q
}
