// Package indexer keeps the search index in step with the document store.
// It subscribes to document events, pulls file bytes from blob storage,
// extracts their text and writes the projection to the index. Index failures
// are logged, never surfaced: the primary write has already committed and a
// stale index entry is repairable by reindexing.
package indexer

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"time"

	"docrepo/internal/event"
	"docrepo/internal/extract"
	"docrepo/internal/model"
	"docrepo/internal/search"
	"docrepo/internal/storage"
)

// Indexer is an event.Handler that mirrors document writes into the index.
type Indexer struct {
	store storage.Storage
	index search.Index
}

// New creates an indexer over the given storage and index.
func New(store storage.Storage, index search.Index) *Indexer {
	return &Indexer{store: store, index: index}
}

var _ event.Handler = (*Indexer)(nil)

// Handle applies one document event to the index.
func (i *Indexer) Handle(ctx context.Context, ev event.DocumentEvent) {
	switch ev.Type {
	case event.DocumentCreated, event.DocumentUpdated:
		if err := i.Upsert(ctx, ev.Document); err != nil {
			i.logFailure(ev, err)
		}
	case event.DocumentDeleted:
		if err := i.index.Delete(ctx, ev.Document.ID); err != nil {
			i.logFailure(ev, err)
		}
	}
}

// Upsert indexes one document: fetch bytes, extract text, write projection.
// A document whose text cannot be extracted is still indexed by metadata.
func (i *Indexer) Upsert(ctx context.Context, doc model.Document) error {
	content := i.extractContent(ctx, doc)
	return i.index.Upsert(ctx, search.Projection{
		ID:               doc.ID,
		OriginalFilename: doc.OriginalFilename,
		Description:      doc.Description,
		FileType:         doc.FileType,
		ContentType:      doc.ContentType,
		Content:          content,
		Tags:             doc.Tags,
		Visibility:       string(doc.Visibility),
	})
}

func (i *Indexer) extractContent(ctx context.Context, doc model.Document) string {
	rc, _, err := i.store.Get(ctx, doc.Filename)
	if err != nil {
		logJSON(map[string]any{
			"component":   "indexer",
			"event":       "content_fetch_failed",
			"status":      "error",
			"document_id": doc.ID,
			"error":       err.Error(),
		})
		return ""
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		logJSON(map[string]any{
			"component":   "indexer",
			"event":       "content_read_failed",
			"status":      "error",
			"document_id": doc.ID,
			"error":       err.Error(),
		})
		return ""
	}

	text, err := extract.Text(doc.ContentType, data)
	if err != nil {
		logJSON(map[string]any{
			"component":    "indexer",
			"event":        "text_extraction_failed",
			"status":       "error",
			"document_id":  doc.ID,
			"content_type": doc.ContentType,
			"error":        err.Error(),
		})
		return ""
	}
	return text
}

func (i *Indexer) logFailure(ev event.DocumentEvent, err error) {
	logJSON(map[string]any{
		"component":   "indexer",
		"event":       "index_sync_failed",
		"status":      "error",
		"event_type":  string(ev.Type),
		"document_id": ev.Document.ID,
		"error":       err.Error(),
	})
}

func logJSON(data map[string]any) {
	data["ts"] = time.Now().Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal indexer log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
