// Package search defines the secondary full-text index kept in sync with the
// document store. The index holds a projection of each document plus its
// extracted text content; it never holds file bytes.
package search

import "context"

// Projection is the indexed view of a document. Content carries the text
// extracted from the file; everything else mirrors the stored metadata.
type Projection struct {
	ID               string   `json:"id"`
	OriginalFilename string   `json:"original_filename"`
	Description      string   `json:"description"`
	FileType         string   `json:"file_type"`
	ContentType      string   `json:"content_type"`
	Content          string   `json:"content"`
	Tags             []string `json:"tags"`
	Visibility       string   `json:"visibility"`
}

// Hit is a single search result with its relevance score.
type Hit struct {
	ID    string
	Score float64
}

// Index is the full-text index over document projections.
// Upsert replaces any previous entry for the same document ID, so replaying
// an update is idempotent.
type Index interface {
	Upsert(ctx context.Context, p Projection) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q Query) ([]Hit, error)
}
